package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitexport"
)

// Ensure LoggingResolver implements sitexport.SourceResolver.
var _ sitexport.SourceResolver = (*LoggingResolver)(nil)

// LoggingResolver wraps a SourceResolver with logging.
type LoggingResolver struct {
	next   sitexport.SourceResolver
	logger *slog.Logger
}

// NewLoggingResolver creates a new LoggingResolver.
func NewLoggingResolver(next sitexport.SourceResolver, logger *slog.Logger) *LoggingResolver {
	return &LoggingResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs the outcome.
func (r *LoggingResolver) Resolve(ctx context.Context, req *sitexport.ExportSourceRequest) (src *sitexport.ResolvedSource, err error) {
	kind, value := req.Kind, req.Value
	defer func(begin time.Time) {
		attrs := []any{"kind", string(kind), "source", value, "duration", time.Since(begin)}
		if src != nil {
			attrs = append(attrs, "base_url", src.BaseURL)
			if src.Process != nil {
				attrs = append(attrs, "pid", src.Process.PID())
			}
		}
		if err != nil {
			attrs = append(attrs, "code", sitexport.ErrorCode(err), "err", err)
			r.logger.Error("source resolution", attrs...)
			return
		}
		r.logger.Info("source resolution", attrs...)
	}(time.Now())
	return r.next.Resolve(ctx, req)
}
