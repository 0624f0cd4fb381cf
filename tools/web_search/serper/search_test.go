package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSerperSearchNormalizesOrganic(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "k" {
			t.Errorf("missing api key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"organic": [
			{"title": "One", "link": "https://one.example", "snippet": "first"},
			{"title": "Two", "link": "https://two.example"},
			{"title": "Three"}
		]}`))
	}))
	defer srv.Close()

	s := Search{ApiKey: "k", MaxRetries: 1, MaxResults: 2, Endpoint: srv.URL}
	results, err := s.Search(context.Background(), "solid state batteries")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected results capped at 2, got %d", len(results))
	}
	if results[0].Snippet != "first" || results[1].Snippet != "N/A" {
		t.Fatalf("unexpected snippets: %+v", results)
	}
	if got["q"] != "solid state batteries" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestSerperWithoutKey(t *testing.T) {
	results, err := Search{MaxRetries: 3}.Search(context.Background(), "q")
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty results, got %v %v", results, err)
	}
}
