package sitexport

import (
	"context"
	"time"
)

// Search index constants.
const (
	SearchIndexVersion = "1"
	SearchIndexEngine  = "minisearch"
)

// DocSearchRecord is one searchable documentation page.
// ID and Path are identical and act as the primary key.
type DocSearchRecord struct {
	ID       string   `json:"id"`
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Headings []string `json:"headings"`
	BodyText string   `json:"bodyText"`
	Snippet  string   `json:"snippet"`
}

// DocSearchIndexMetadata describes a generated index.
type DocSearchIndexMetadata struct {
	GeneratedAtUTC time.Time `json:"generatedAtUtc"`
	Version        string    `json:"version"`
	Engine         string    `json:"engine"`
}

// DocSearchIndexDocument is the persisted search index.
type DocSearchIndexDocument struct {
	Metadata  DocSearchIndexMetadata `json:"metadata"`
	Documents []DocSearchRecord      `json:"documents"`
}

// SearchArtifactOptions configures generated search assets.
type SearchArtifactOptions struct {
	Runtime SearchRuntime
	CDNURL  string
}

// SearchIndexer builds the documentation search index.
type SearchIndexer interface {
	// BuildRecords derives records from a map of route to HTML.
	BuildRecords(pages map[string]string) []DocSearchRecord

	// GenerateArtifacts writes the index, stylesheet and client scripts
	// under outputPath/docs.
	GenerateArtifacts(ctx context.Context, outputPath string, records []DocSearchRecord, opts SearchArtifactOptions) error
}

// SearchHit is a single search result.
type SearchHit struct {
	Path    string
	Title   string
	Snippet string
	Score   float64
}

// SearchQuerier runs queries against an exported search index.
type SearchQuerier interface {
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Close() error
}
