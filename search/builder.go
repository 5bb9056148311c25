// Package search builds the documentation search index and its client
// assets from exported pages.
package search

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitexport"
	"github.com/fwojciec/sitexport/fs"
)

// Record extraction limits.
const (
	MaxHeadings       = 24
	MinSnippetLength  = 20
	MaxSnippetLength  = 220
	FallbackTitle     = "Documentation"
	DefaultSearchPage = "search"
)

// DefaultCDNURL is the search runtime loaded in CDN mode when no URL is given.
const DefaultCDNURL = "https://cdn.jsdelivr.net/npm/minisearch@7.1.1/dist/umd/index.min.js"

// Artifact file names, relative to the documentation directory.
const (
	IndexFile   = "search-index.json"
	StyleFile   = "search.css"
	ClientFile  = "search-client.js"
	RuntimeFile = "search-runtime.js"
)

//go:embed assets
var assets embed.FS

// Ensure Builder implements sitexport.SearchIndexer at compile time.
var _ sitexport.SearchIndexer = (*Builder)(nil)

// Builder derives search records from documentation pages and writes the
// index with its client assets.
type Builder struct {
	// DocsPrefix restricts indexing to routes at or below it.
	DocsPrefix string

	// SearchPage is the route of the search page itself, which is never
	// indexed. Defaults to DocsPrefix + "/search".
	SearchPage string

	Logger *slog.Logger

	// Now returns the generation timestamp. Defaults to time.Now.
	Now func() time.Time
}

// NewBuilder returns a Builder for documentation under docsPrefix.
func NewBuilder(docsPrefix string, logger *slog.Logger) *Builder {
	return &Builder{DocsPrefix: docsPrefix, Logger: logger}
}

// BuildRecords returns one record per documentation route, in sorted
// route order. Routes that differ only by a trailing slash are the same
// document; the first in sorted order wins.
func (b *Builder) BuildRecords(pages map[string]string) []sitexport.DocSearchRecord {
	prefix := b.prefix()
	searchPage := b.searchPage()

	routes := make([]string, 0, len(pages))
	for route := range pages {
		routes = append(routes, route)
	}
	sort.Strings(routes)

	seen := make(map[string]struct{})
	records := make([]sitexport.DocSearchRecord, 0, len(routes))
	for _, route := range routes {
		key := canonicalPath(route)
		if !isUnder(key, prefix) || key == searchPage {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		record, ok := b.buildRecord(key, pages[route], key == prefix)
		if !ok {
			b.logger().Debug("skipping empty documentation page", "route", route)
			continue
		}
		records = append(records, record)
	}
	return records
}

func (b *Builder) buildRecord(route, page string, isRoot bool) (sitexport.DocSearchRecord, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		b.logger().Warn("failed to parse documentation page", "route", route, "error", err)
		return sitexport.DocSearchRecord{}, false
	}

	title := firstText(doc, "h1")
	if title == "" {
		title = firstText(doc, "title")
	}
	body := nodeBodyText(doc.Nodes[0])

	if title == "" && body == "" {
		return sitexport.DocSearchRecord{}, false
	}
	if isRoot && body == "" {
		return sitexport.DocSearchRecord{}, false
	}
	if title == "" {
		title = titleFromRoute(route)
	}

	return sitexport.DocSearchRecord{
		ID:       route,
		Path:     route,
		Title:    title,
		Headings: headings(doc),
		BodyText: body,
		Snippet:  snippet(doc, body),
	}, true
}

// GenerateArtifacts writes the index, stylesheet and client script under
// outputPath and the documentation prefix. The local runtime is written
// only in local mode.
func (b *Builder) GenerateArtifacts(ctx context.Context, outputPath string, records []sitexport.DocSearchRecord, opts sitexport.SearchArtifactOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []sitexport.DocSearchRecord{}
	}

	w, err := fs.NewWriter(outputPath)
	if err != nil {
		return err
	}
	dir := b.prefix()

	index, err := MarshalIndex(sitexport.DocSearchIndexDocument{
		Metadata: sitexport.DocSearchIndexMetadata{
			GeneratedAtUTC: b.now().UTC(),
			Version:        sitexport.SearchIndexVersion,
			Engine:         sitexport.SearchIndexEngine,
		},
		Documents: records,
	})
	if err != nil {
		return err
	}

	runtimeURL := path.Join(dir, RuntimeFile)
	if opts.Runtime == sitexport.SearchRuntimeCDN {
		runtimeURL = opts.CDNURL
		if runtimeURL == "" {
			runtimeURL = DefaultCDNURL
		}
	}
	client, err := clientScript(path.Join(dir, IndexFile), runtimeURL)
	if err != nil {
		return err
	}

	files := []struct {
		name string
		body []byte
	}{
		{IndexFile, index},
		{StyleFile, mustAsset(StyleFile)},
		{ClientFile, client},
	}
	if opts.Runtime != sitexport.SearchRuntimeCDN {
		files = append(files, struct {
			name string
			body []byte
		}{RuntimeFile, mustAsset(RuntimeFile)})
	}

	for _, f := range files {
		p, err := w.WriteRoute(path.Join(dir, f.name), f.body)
		if err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		b.logger().Debug("search artifact written", "path", p, "bytes", len(f.body))
	}
	return nil
}

// MarshalIndex encodes an index document as indented JSON.
func MarshalIndex(doc sitexport.DocSearchIndexDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// clientConfig is exposed to search-client.js as window.sitexportSearch.
type clientConfig struct {
	IndexURL   string `json:"indexUrl"`
	RuntimeURL string `json:"runtimeUrl"`
}

func clientScript(indexURL, runtimeURL string) ([]byte, error) {
	cfg, err := json.Marshal(clientConfig{IndexURL: indexURL, RuntimeURL: runtimeURL})
	if err != nil {
		return nil, err
	}
	var out []byte
	out = append(out, "window.sitexportSearch = "...)
	out = append(out, cfg...)
	out = append(out, ";\n"...)
	return append(out, mustAsset(ClientFile)...), nil
}

func mustAsset(name string) []byte {
	data, err := assets.ReadFile("assets/" + name)
	if err != nil {
		panic(err)
	}
	return data
}

func (b *Builder) prefix() string {
	p := canonicalPath(b.DocsPrefix)
	if p == "/" && b.DocsPrefix == "" {
		return sitexport.DefaultDocsPrefix
	}
	return p
}

func (b *Builder) searchPage() string {
	if b.SearchPage != "" {
		return canonicalPath(b.SearchPage)
	}
	return path.Join(b.prefix(), DefaultSearchPage)
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// canonicalPath drops trailing slashes, keeping "/" for the root.
func canonicalPath(route string) string {
	trimmed := strings.TrimRight(route, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

func isUnder(route, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return route == prefix || strings.HasPrefix(route, prefix+"/")
}

func firstText(doc *goquery.Document, selector string) string {
	var text string
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text = CollapseWhitespace(sel.Text())
		return text == ""
	})
	return text
}

func headings(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	out := []string{}
	doc.Find("h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := CollapseWhitespace(sel.Text())
		if text == "" {
			return true
		}
		key := strings.ToLower(text)
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		out = append(out, text)
		return len(out) < MaxHeadings
	})
	return out
}

func snippet(doc *goquery.Document, body string) string {
	var text string
	doc.Find("p, li, blockquote").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		t := CollapseWhitespace(sel.Text())
		if len([]rune(t)) >= MinSnippetLength {
			text = t
			return false
		}
		return true
	})
	if text == "" {
		text = body
	}
	return Truncate(text, MaxSnippetLength)
}

// titleFromRoute derives a title from the last non-empty path segment.
func titleFromRoute(route string) string {
	segments := strings.Split(route, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(strings.ReplaceAll(segments[i], "-", " ")); s != "" {
			return s
		}
	}
	return FallbackTitle
}
