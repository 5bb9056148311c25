package search_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/sitexport"
	"github.com/fwojciec/sitexport/search"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder() *search.Builder {
	return search.NewBuilder(sitexport.DefaultDocsPrefix, nil)
}

func TestBuilder_BuildRecords(t *testing.T) {
	t.Parallel()

	t.Run("extracts title, headings, body and snippet", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Ignored Title</title><style>.x{}</style></head>
<body>
<h1>Getting   Started</h1>
<p>Short.</p>
<p>This paragraph is long enough to become the snippet.</p>
<h2>Install</h2>
<h3>Requirements</h3>
<h2>install</h2>
<script>var secret = 1;</script>
</body></html>`

		records := newBuilder().BuildRecords(map[string]string{"/docs/start": html})

		require.Len(t, records, 1)
		r := records[0]
		assert.Equal(t, "/docs/start", r.ID)
		assert.Equal(t, "/docs/start", r.Path)
		assert.Equal(t, "Getting Started", r.Title)
		assert.Equal(t, []string{"Install", "Requirements"}, r.Headings)
		assert.Equal(t, "This paragraph is long enough to become the snippet.", r.Snippet)
		assert.Contains(t, r.BodyText, "Getting Started Short.")
		assert.NotContains(t, r.BodyText, "secret")
		assert.NotContains(t, r.BodyText, ".x{}")
	})

	t.Run("restricts to documentation prefix and skips search page", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><h1>T</h1><p>Some documentation body text here.</p></body></html>`
		records := newBuilder().BuildRecords(map[string]string{
			"/":            page,
			"/blog/post":   page,
			"/docsearch":   page,
			"/docs/search": page,
			"/docs/b":      page,
			"/docs/a":      page,
			"/docs/a/":     page,
			"/docs":        page,
		})

		var paths []string
		for _, r := range records {
			paths = append(paths, r.Path)
		}
		assert.Equal(t, []string{"/docs", "/docs/a", "/docs/b"}, paths)
	})

	t.Run("falls back to title tag then route", func(t *testing.T) {
		t.Parallel()

		records := newBuilder().BuildRecords(map[string]string{
			"/docs/from-title":      `<html><head><title>Title Tag</title></head><body><p>body</p></body></html>`,
			"/docs/getting-started": `<html><body><p>body</p></body></html>`,
		})

		require.Len(t, records, 2)
		assert.Equal(t, "Title Tag", records[0].Title)
		assert.Equal(t, "getting started", records[1].Title)
	})

	t.Run("drops pages without title and text", func(t *testing.T) {
		t.Parallel()

		records := newBuilder().BuildRecords(map[string]string{
			"/docs/empty": `<html><body><script>x()</script></body></html>`,
		})

		assert.Empty(t, records)
	})

	t.Run("drops documentation root without body text", func(t *testing.T) {
		t.Parallel()

		page := `<html><head><title>Docs</title></head><body></body></html>`
		records := newBuilder().BuildRecords(map[string]string{
			"/docs":       page,
			"/docs/child": page,
		})

		require.Len(t, records, 1)
		assert.Equal(t, "/docs/child", records[0].Path)
		assert.Equal(t, "Docs", records[0].Title)
		assert.Empty(t, records[0].BodyText)
	})

	t.Run("keeps documentation root whose body opens implicitly", func(t *testing.T) {
		t.Parallel()

		records := newBuilder().BuildRecords(map[string]string{
			"/docs": `<html><head><title>Guide</title><h1>Install</h1><p>Run the installer to begin.</p></html>`,
		})

		require.Len(t, records, 1)
		assert.Equal(t, "/docs", records[0].Path)
		assert.Equal(t, "Install Run the installer to begin.", records[0].BodyText)
	})

	t.Run("caps headings", func(t *testing.T) {
		t.Parallel()

		var b strings.Builder
		b.WriteString("<html><body><h1>T</h1>")
		for i := range 40 {
			b.WriteString("<h2>Heading ")
			b.WriteString(strings.Repeat("x", i+1))
			b.WriteString("</h2>")
		}
		b.WriteString("</body></html>")

		records := newBuilder().BuildRecords(map[string]string{"/docs/many": b.String()})

		require.Len(t, records, 1)
		assert.Len(t, records[0].Headings, search.MaxHeadings)
	})

	t.Run("truncates snippet from body text", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("word ", 100)
		records := newBuilder().BuildRecords(map[string]string{
			"/docs/long": "<html><body><h1>T</h1><div>" + long + "</div></body></html>",
		})

		require.Len(t, records, 1)
		assert.True(t, strings.HasSuffix(records[0].Snippet, "…"))
		assert.LessOrEqual(t, len([]rune(records[0].Snippet)), search.MaxSnippetLength+1)
	})

	t.Run("encodes empty headings as array", func(t *testing.T) {
		t.Parallel()

		records := newBuilder().BuildRecords(map[string]string{
			"/docs/plain": `<html><body><h1>Plain</h1></body></html>`,
		})

		require.Len(t, records, 1)
		data, err := json.Marshal(records[0])
		require.NoError(t, err)
		assert.Contains(t, string(data), `"headings":[]`)
	})
}

func TestBuilder_BuildRecords_Deterministic(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("identical input produces byte-identical documents", prop.ForAll(
		func(slugs []string, text string) bool {
			pages := make(map[string]string)
			for _, slug := range slugs {
				pages["/docs/"+slug] = "<html><body><h1>" + slug + "</h1><h2>" + text + "</h2><p>" + text + " " + slug + "</p></body></html>"
			}

			first, err := json.Marshal(newBuilder().BuildRecords(pages))
			if err != nil {
				return false
			}
			second, err := json.Marshal(newBuilder().BuildRecords(pages))
			if err != nil {
				return false
			}
			return string(first) == string(second)
		},
		gen.SliceOf(gen.Identifier()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestBuilder_GenerateArtifacts(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := []sitexport.DocSearchRecord{{
		ID: "/docs/a", Path: "/docs/a", Title: "A", Headings: []string{"H"}, BodyText: "body", Snippet: "body",
	}}

	t.Run("writes index and local runtime", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		b := newBuilder()
		b.Now = func() time.Time { return fixed }

		err := b.GenerateArtifacts(context.Background(), out, records, sitexport.SearchArtifactOptions{Runtime: sitexport.SearchRuntimeLocal})
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(out, "docs", search.IndexFile))
		require.NoError(t, err)
		var doc sitexport.DocSearchIndexDocument
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, fixed, doc.Metadata.GeneratedAtUTC)
		assert.Equal(t, sitexport.SearchIndexVersion, doc.Metadata.Version)
		assert.Equal(t, sitexport.SearchIndexEngine, doc.Metadata.Engine)
		assert.Equal(t, records, doc.Documents)
		assert.Contains(t, string(data), `"generatedAtUtc"`)
		assert.Contains(t, string(data), `"bodyText"`)

		assert.FileExists(t, filepath.Join(out, "docs", search.StyleFile))
		assert.FileExists(t, filepath.Join(out, "docs", search.RuntimeFile))

		client, err := os.ReadFile(filepath.Join(out, "docs", search.ClientFile))
		require.NoError(t, err)
		assert.Contains(t, string(client), `"runtimeUrl":"/docs/search-runtime.js"`)
		assert.Contains(t, string(client), `"indexUrl":"/docs/search-index.json"`)
	})

	t.Run("references CDN runtime without writing local copy", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		err := newBuilder().GenerateArtifacts(context.Background(), out, records, sitexport.SearchArtifactOptions{
			Runtime: sitexport.SearchRuntimeCDN,
			CDNURL:  "https://cdn.example.com/ms.js",
		})
		require.NoError(t, err)

		assert.NoFileExists(t, filepath.Join(out, "docs", search.RuntimeFile))
		client, err := os.ReadFile(filepath.Join(out, "docs", search.ClientFile))
		require.NoError(t, err)
		assert.Contains(t, string(client), `"runtimeUrl":"https://cdn.example.com/ms.js"`)
	})

	t.Run("uses default CDN URL", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		err := newBuilder().GenerateArtifacts(context.Background(), out, records, sitexport.SearchArtifactOptions{Runtime: sitexport.SearchRuntimeCDN})
		require.NoError(t, err)

		client, err := os.ReadFile(filepath.Join(out, "docs", search.ClientFile))
		require.NoError(t, err)
		assert.Contains(t, string(client), search.DefaultCDNURL)
	})

	t.Run("writes empty document list for no records", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		err := newBuilder().GenerateArtifacts(context.Background(), out, nil, sitexport.SearchArtifactOptions{})
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(out, "docs", search.IndexFile))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"documents": []`)
	})

	t.Run("returns context error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := newBuilder().GenerateArtifacts(ctx, t.TempDir(), records, sitexport.SearchArtifactOptions{})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
