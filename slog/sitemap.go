package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitexport"
)

// Ensure LoggingSitemapService implements sitexport.SitemapService.
var _ sitexport.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with debug logging.
type LoggingSitemapService struct {
	next   sitexport.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next sitexport.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverRoutes delegates to the wrapped service and logs the routes found.
// Failures are logged at warn level since the crawl continues without them.
func (s *LoggingSitemapService) DiscoverRoutes(ctx context.Context, baseURL string, filter *sitexport.URLFilter) (routes []string, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "sitemap discovery",
			"base_url", baseURL,
			"routes", len(routes),
			"filtered", filter != nil,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverRoutes(ctx, baseURL, filter)
}
