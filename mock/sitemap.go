package mock

import (
	"context"

	"github.com/fwojciec/sitexport"
)

var _ sitexport.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of sitexport.SitemapService.
type SitemapService struct {
	DiscoverRoutesFn func(ctx context.Context, baseURL string, filter *sitexport.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverRoutes(ctx context.Context, baseURL string, filter *sitexport.URLFilter) ([]string, error) {
	return s.DiscoverRoutesFn(ctx, baseURL, filter)
}
