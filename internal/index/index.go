// Package index keeps every signal produced by a scan in a local full-text
// index so earlier scans can be queried.
package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/mohammad-safakhou/horizon/models"
)

// Document is the indexed form of a signal.
type Document struct {
	RunID       string `json:"run_id"`
	Topic       string `json:"topic"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Relevance   string `json:"relevance"`
	SourceURL   string `json:"source_url"`
}

// Hit is one search result from the index.
type Hit struct {
	Document
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
}

// Open opens the index at dir, creating it when absent. An empty dir gives
// an in-memory index.
func Open(dir string) (*Index, error) {
	if strings.TrimSpace(dir) == "" {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, err
		}
		return &Index{bleve: idx}, nil
	}
	idx, err := bleve.Open(dir)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return nil, err
		}
		idx, err = bleve.New(dir, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open signal index %s: %w", dir, err)
	}
	return &Index{bleve: idx}, nil
}

// IndexReport adds every signal of report in one batch and returns how many
// were indexed.
func (i *Index) IndexReport(report models.Report) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleve.NewBatch()
	n := 0
	for _, cat := range report.Signals.Keys() {
		for pos, s := range report.Signals[cat] {
			doc := Document{
				RunID:       report.RunID,
				Topic:       report.Topic,
				Category:    string(cat),
				Title:       s.Title,
				Description: s.Description,
				Relevance:   s.Relevance,
				SourceURL:   s.SourceURL,
			}
			id := fmt.Sprintf("%s:%s:%d", report.RunID, cat, pos)
			if err := batch.Index(id, doc); err != nil {
				return 0, err
			}
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	if err := i.bleve.Batch(batch); err != nil {
		return 0, err
	}
	return n, nil
}

// Search runs a query-string query over indexed signals. An empty query
// matches everything.
func (i *Index) Search(q string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 10
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	var req *bleve.SearchRequest
	if strings.TrimSpace(q) == "" {
		req = bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), k, 0, false)
	} else {
		req = bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(q), k, 0, false)
	}
	req.Fields = []string{"*"}
	res, err := i.bleve.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]Hit, 0, len(res.Hits))
	for rank, h := range res.Hits {
		out = append(out, Hit{
			ID:    h.ID,
			Score: h.Score,
			Rank:  rank + 1,
			Document: Document{
				RunID:       field(h.Fields, "run_id"),
				Topic:       field(h.Fields, "topic"),
				Category:    field(h.Fields, "category"),
				Title:       field(h.Fields, "title"),
				Description: field(h.Fields, "description"),
				Relevance:   field(h.Fields, "relevance"),
				SourceURL:   field(h.Fields, "source_url"),
			},
		})
	}
	return out, nil
}

func field(fields map[string]interface{}, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, " ")
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Count returns the number of indexed signals.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.bleve.DocCount()
}

func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleve.Close()
}
