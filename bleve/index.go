// Package bleve queries an exported search index with an in-memory
// github.com/blevesearch/bleve index.
package bleve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/search/query"
	"github.com/fwojciec/sitexport"
)

// DefaultLimit is the number of hits returned when no limit is given.
const DefaultLimit = 10

// Field boosts mirror the client-side search configuration.
const (
	titleBoost    = 3
	headingsBoost = 2
	bodyBoost     = 1
)

// Ensure Index implements sitexport.SearchQuerier at compile time.
var _ sitexport.SearchQuerier = (*Index)(nil)

// document is the indexed form of a DocSearchRecord.
type document struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Headings string `json:"headings"`
	Body     string `json:"body"`
	Snippet  string `json:"snippet"`
}

// Index is a read-only in-memory index over exported search records.
type Index struct {
	index bleve.Index
}

// Open loads the search index JSON written by an export.
func Open(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, sitexport.Errorf(sitexport.ENOTFOUND, "search index %q not found", path)
	} else if err != nil {
		return nil, err
	}

	var doc sitexport.DocSearchIndexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, sitexport.Errorf(sitexport.EINVALID, "invalid search index %q: %v", path, err)
	}
	return Load(doc.Documents)
}

// Load indexes records in memory.
func Load(records []sitexport.DocSearchRecord) (*Index, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}

	batch := index.NewBatch()
	for _, r := range records {
		if err := batch.Index(r.ID, document{
			Path:     r.Path,
			Title:    r.Title,
			Headings: strings.Join(r.Headings, "\n"),
			Body:     r.BodyText,
			Snippet:  r.Snippet,
		}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("index %s: %w", r.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, err
	}

	return &Index{index: index}, nil
}

// Search returns up to limit hits for q, best first.
func (i *Index) Search(ctx context.Context, q string, limit int) ([]sitexport.SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, sitexport.Errorf(sitexport.EINVALID, "empty search query")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(fieldQuery(q), limit, 0, false)
	req.Fields = []string{"path", "title", "snippet"}

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	hits := make([]sitexport.SearchHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		hits = append(hits, sitexport.SearchHit{
			Path:    stringField(hit.Fields, "path", hit.ID),
			Title:   stringField(hit.Fields, "title", ""),
			Snippet: stringField(hit.Fields, "snippet", ""),
			Score:   hit.Score,
		})
	}
	return hits, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// fieldQuery matches q against each text field with its boost, accepting
// prefix matches on the title.
func fieldQuery(q string) query.Query {
	match := func(field string, boost float64) query.Query {
		m := bleve.NewMatchQuery(q)
		m.SetField(field)
		m.SetBoost(boost)
		return m
	}

	queries := []query.Query{
		match("title", titleBoost),
		match("headings", headingsBoost),
		match("body", bodyBoost),
	}
	if !strings.ContainsAny(q, " \t") {
		p := bleve.NewPrefixQuery(strings.ToLower(q))
		p.SetField("title")
		queries = append(queries, p)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

func stringField(fields map[string]interface{}, name, fallback string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return fallback
}
