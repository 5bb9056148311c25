package sitexport

import "context"

// SitemapService discovers routes from an application's sitemaps.
type SitemapService interface {
	// DiscoverRoutes returns the same-origin routes listed in baseURL's
	// sitemaps. It first checks robots.txt for sitemap directives, then
	// falls back to /sitemap.xml. Sitemap indexes are resolved recursively.
	//
	// A missing sitemap yields an empty slice, not an error.
	// If filter is nil, all routes are returned.
	DiscoverRoutes(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}
