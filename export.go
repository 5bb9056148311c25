package sitexport

import "strings"

// Export defaults.
const (
	DefaultOutputPath = "dist"
	DefaultDocsPrefix = "/docs"
)

// SearchRuntime selects where the client-side search runtime is loaded from.
type SearchRuntime string

// Supported search runtimes.
const (
	SearchRuntimeLocal SearchRuntime = "local"
	SearchRuntimeCDN   SearchRuntime = "cdn"
)

// ParseSearchRuntime parses a runtime name. The empty string means local.
func ParseSearchRuntime(s string) (SearchRuntime, error) {
	switch SearchRuntime(strings.ToLower(strings.TrimSpace(s))) {
	case "", SearchRuntimeLocal:
		return SearchRuntimeLocal, nil
	case SearchRuntimeCDN:
		return SearchRuntimeCDN, nil
	}
	return "", Errorf(EINVALID, "unknown search runtime %q (want local or cdn)", s)
}

// ExportContext is the mutable state of one export run. It is created once
// per invocation and owned exclusively by the crawl loop.
type ExportContext struct {
	OutputPath     string
	SeedRoutesPath string
	BaseURL        string

	// Frontier holds the queue and visited set. Exporters create one when nil.
	Frontier RouteFrontier

	DocsSearchEnabled bool
	DocsPrefix        string
	SearchRuntime     SearchRuntime
	SearchCDNURL      string

	// SitemapSeeding adds routes listed in the application's sitemaps to the seeds.
	SitemapSeeding bool

	// Filter restricts which discovered routes are enqueued.
	Filter *URLFilter
}

// NewExportContext returns a context with defaults applied.
func NewExportContext(baseURL, outputPath string) *ExportContext {
	if outputPath == "" {
		outputPath = DefaultOutputPath
	}
	return &ExportContext{
		OutputPath:        outputPath,
		BaseURL:           strings.TrimRight(baseURL, "/"),
		DocsSearchEnabled: true,
		DocsPrefix:        DefaultDocsPrefix,
		SearchRuntime:     SearchRuntimeLocal,
	}
}

// ReferenceExtractor finds candidate references in an HTML page.
type ReferenceExtractor interface {
	// ExtractReferences returns raw reference strings found in the page.
	// References are not normalized.
	ExtractReferences(html string) ([]string, error)
}

// FragmentExtractor isolates the content frame of a page.
type FragmentExtractor interface {
	// ExtractContentFrame returns the inner markup of the top-level content
	// frame. found is false if the page has none.
	ExtractContentFrame(html string) (inner string, found bool, err error)

	// MarkPartial inserts the partial marker into the page head.
	// Marking an already-marked page returns it unchanged.
	MarkPartial(html string) string
}

// PageWriter persists exported routes under an output directory.
type PageWriter interface {
	// WriteRoute writes body to the file mapped from route.
	WriteRoute(route string, body []byte) (path string, err error)

	// WritePartial writes body to the ".partial." sibling of route's file.
	WritePartial(route string, body []byte) (path string, err error)

	// Root returns the absolute output directory.
	Root() string
}
