package mock

import (
	"context"

	"github.com/fwojciec/sitexport"
)

// Compile-time interface verification.
var (
	_ sitexport.SearchIndexer = (*SearchIndexer)(nil)
	_ sitexport.SearchQuerier = (*SearchQuerier)(nil)
)

// SearchIndexer is a mock implementation of sitexport.SearchIndexer.
type SearchIndexer struct {
	BuildRecordsFn      func(pages map[string]string) []sitexport.DocSearchRecord
	GenerateArtifactsFn func(ctx context.Context, outputPath string, records []sitexport.DocSearchRecord, opts sitexport.SearchArtifactOptions) error
}

func (s *SearchIndexer) BuildRecords(pages map[string]string) []sitexport.DocSearchRecord {
	return s.BuildRecordsFn(pages)
}

func (s *SearchIndexer) GenerateArtifacts(ctx context.Context, outputPath string, records []sitexport.DocSearchRecord, opts sitexport.SearchArtifactOptions) error {
	return s.GenerateArtifactsFn(ctx, outputPath, records, opts)
}

// SearchQuerier is a mock implementation of sitexport.SearchQuerier.
type SearchQuerier struct {
	SearchFn func(ctx context.Context, query string, limit int) ([]sitexport.SearchHit, error)
	CloseFn  func() error
}

func (s *SearchQuerier) Search(ctx context.Context, query string, limit int) ([]sitexport.SearchHit, error) {
	return s.SearchFn(ctx, query, limit)
}

func (s *SearchQuerier) Close() error {
	return s.CloseFn()
}
