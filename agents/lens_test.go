package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/mohammad-safakhou/horizon/models"
)

type fakeMapper struct {
	dm    models.DomainMap
	calls int
}

func (f *fakeMapper) GenerateDomainMap(_ context.Context, _ []string, category models.Category) (models.DomainMap, error) {
	f.calls++
	return f.dm, nil
}

type fakeSearcher struct {
	queries []string
	fail    map[string]bool
}

func (f *fakeSearcher) Search(_ context.Context, q string) ([]models.SearchResult, error) {
	f.queries = append(f.queries, q)
	if f.fail[q] {
		return nil, errors.New("search http 400")
	}
	return []models.SearchResult{{Title: "hit " + q, Snippet: "snip", Link: "https://x.example/" + q}}, nil
}

func techMap() models.DomainMap {
	dm := models.NewDomainMap(models.CategoryTech)
	dm.Topics[models.BandCore][models.CategoryTech] = []string{"ai"}
	dm.Topics[models.BandAdjacent][models.CategoryTech] = []string{"chips", "cloud"}
	dm.Topics[models.BandPeripheral][models.CategoryTech] = []string{"quantum"}
	return dm
}

func TestScanOrderAndSignals(t *testing.T) {
	mapper := &fakeMapper{dm: techMap()}
	searcher := &fakeSearcher{fail: map[string]bool{"chips": true}}
	l := NewLens(models.CategoryTech, []string{"ai"}, Deps{Mapper: mapper, Searcher: searcher})

	if err := l.GenerateDomainMap(context.Background()); err != nil {
		t.Fatalf("GenerateDomainMap: %v", err)
	}
	signals, err := l.ScanForSignals(context.Background())
	if err != nil {
		t.Fatalf("ScanForSignals: %v", err)
	}
	want := []string{"quantum", "chips", "cloud"}
	if len(searcher.queries) != len(want) {
		t.Fatalf("unexpected queries %v", searcher.queries)
	}
	for i := range want {
		if searcher.queries[i] != want[i] {
			t.Fatalf("query %d = %q, want %q", i, searcher.queries[i], want[i])
		}
	}
	if len(signals) != 2 {
		t.Fatalf("failed topic must be skipped, got %d signals", len(signals))
	}
	if signals[0].Relevance != "This is relevant to quantum" || signals[0].SourceURL != "https://x.example/quantum" {
		t.Fatalf("unexpected signal %+v", signals[0])
	}
	if signals[0].Description != "snip" {
		t.Fatalf("description must carry the snippet")
	}
}

func TestLensWithoutTopics(t *testing.T) {
	mapper := &fakeMapper{}
	searcher := &fakeSearcher{}
	l := NewLens(models.CategorySocial, nil, Deps{Mapper: mapper, Searcher: searcher})
	if err := l.GenerateDomainMap(context.Background()); err != nil {
		t.Fatalf("GenerateDomainMap: %v", err)
	}
	if mapper.calls != 0 {
		t.Fatalf("mapper must not be called without topics")
	}
	signals, err := l.ScanForSignals(context.Background())
	if err != nil || len(signals) != 0 || signals == nil {
		t.Fatalf("expected empty signals, got %v %v", signals, err)
	}
	if _, ok := l.DomainMap(); ok {
		t.Fatalf("lens should be unmapped")
	}
}

func TestLensesCoverEveryCategory(t *testing.T) {
	ls := Lenses([]string{"a"}, Deps{})
	if len(ls) != 6 {
		t.Fatalf("expected 6 lenses, got %d", len(ls))
	}
	for i, l := range ls {
		if l.Category != models.Categories[i] {
			t.Fatalf("lens %d category %s", i, l.Category)
		}
	}
}

func TestSignalFromPlaceholders(t *testing.T) {
	s := SignalFrom(models.SearchResult{}, "t")
	if s.Title != "N/A" || s.Description != "N/A" || s.SourceURL != "N/A" {
		t.Fatalf("unexpected signal %+v", s)
	}
}
