package bleve_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/sitexport"
	"github.com/fwojciec/sitexport/bleve"
	"github.com/fwojciec/sitexport/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRecords = []sitexport.DocSearchRecord{
	{
		ID: "/docs/install", Path: "/docs/install", Title: "Installation",
		Headings: []string{"Requirements", "Docker"},
		BodyText: "Install the package with the installer.", Snippet: "Install the package.",
	},
	{
		ID: "/docs/config", Path: "/docs/config", Title: "Configuration",
		Headings: []string{"Environment variables"},
		BodyText: "Configure the server using a YAML file. Docker images read environment variables.",
		Snippet:  "Configure the server.",
	},
}

func TestIndex_Search(t *testing.T) {
	t.Parallel()

	t.Run("ranks title matches first", func(t *testing.T) {
		t.Parallel()

		idx, err := bleve.Load(testRecords)
		require.NoError(t, err)
		defer idx.Close()

		hits, err := idx.Search(context.Background(), "configuration", 10)

		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "/docs/config", hits[0].Path)
		assert.Equal(t, "Configuration", hits[0].Title)
		assert.Equal(t, "Configure the server.", hits[0].Snippet)
		assert.Greater(t, hits[0].Score, 0.0)
	})

	t.Run("matches headings and body", func(t *testing.T) {
		t.Parallel()

		idx, err := bleve.Load(testRecords)
		require.NoError(t, err)
		defer idx.Close()

		hits, err := idx.Search(context.Background(), "docker", 10)

		require.NoError(t, err)
		require.Len(t, hits, 2)
		// Heading match outranks body match.
		assert.Equal(t, "/docs/install", hits[0].Path)
	})

	t.Run("honors limit", func(t *testing.T) {
		t.Parallel()

		idx, err := bleve.Load(testRecords)
		require.NoError(t, err)
		defer idx.Close()

		hits, err := idx.Search(context.Background(), "docker", 1)

		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("returns no hits for unknown terms", func(t *testing.T) {
		t.Parallel()

		idx, err := bleve.Load(testRecords)
		require.NoError(t, err)
		defer idx.Close()

		hits, err := idx.Search(context.Background(), "kubernetes", 10)

		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("rejects empty query", func(t *testing.T) {
		t.Parallel()

		idx, err := bleve.Load(testRecords)
		require.NoError(t, err)
		defer idx.Close()

		_, err = idx.Search(context.Background(), "  ", 10)

		assert.Equal(t, sitexport.EINVALID, sitexport.ErrorCode(err))
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("loads exported index", func(t *testing.T) {
		t.Parallel()

		data, err := search.MarshalIndex(sitexport.DocSearchIndexDocument{Documents: testRecords})
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "search-index.json")
		require.NoError(t, os.WriteFile(path, data, 0644))

		idx, err := bleve.Open(path)
		require.NoError(t, err)
		defer idx.Close()

		hits, err := idx.Search(context.Background(), "installation", 10)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "/docs/install", hits[0].Path)
	})

	t.Run("returns not found for missing file", func(t *testing.T) {
		t.Parallel()

		_, err := bleve.Open(filepath.Join(t.TempDir(), "missing.json"))

		assert.Equal(t, sitexport.ENOTFOUND, sitexport.ErrorCode(err))
	})

	t.Run("returns invalid for malformed JSON", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

		_, err := bleve.Open(path)

		assert.Equal(t, sitexport.EINVALID, sitexport.ErrorCode(err))
	})
}
