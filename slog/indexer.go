package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitexport"
)

// Ensure LoggingIndexer implements sitexport.SearchIndexer.
var _ sitexport.SearchIndexer = (*LoggingIndexer)(nil)

// LoggingIndexer wraps a SearchIndexer with logging.
type LoggingIndexer struct {
	next   sitexport.SearchIndexer
	logger *slog.Logger
}

// NewLoggingIndexer creates a new LoggingIndexer.
func NewLoggingIndexer(next sitexport.SearchIndexer, logger *slog.Logger) *LoggingIndexer {
	return &LoggingIndexer{next: next, logger: logger}
}

// BuildRecords delegates to the wrapped indexer and logs record counts.
func (i *LoggingIndexer) BuildRecords(pages map[string]string) []sitexport.DocSearchRecord {
	begin := time.Now()
	records := i.next.BuildRecords(pages)
	i.logger.Info("search records",
		"pages", len(pages),
		"records", len(records),
		"duration", time.Since(begin),
	)
	return records
}

// GenerateArtifacts delegates to the wrapped indexer and logs the operation.
func (i *LoggingIndexer) GenerateArtifacts(ctx context.Context, outputPath string, records []sitexport.DocSearchRecord, opts sitexport.SearchArtifactOptions) (err error) {
	defer func(begin time.Time) {
		i.logger.Info("search artifacts",
			"output", outputPath,
			"records", len(records),
			"runtime", string(opts.Runtime),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return i.next.GenerateArtifacts(ctx, outputPath, records, opts)
}
