package normalize

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/horizon/models"
)

// MaxSnippetChars caps a snippet assembled from excerpts.
const MaxSnippetChars = 5000

// SearchResult maps one upstream hit onto a SearchResult. The link comes from
// url, link or sourceURL; the snippet from joined excerpts, then snippet,
// then description. Any missing field becomes models.NotAvailable.
func SearchResult(m map[string]any) models.SearchResult {
	out := models.SearchResult{
		Title: firstString(m, "title"),
		Link:  firstString(m, "url", "link", "sourceURL"),
	}
	if excerpts, ok := m["excerpts"].([]any); ok {
		parts := make([]string, 0, len(excerpts))
		for _, e := range excerpts {
			parts = append(parts, scalar(e))
		}
		out.Snippet = truncateRunes(strings.Join(parts, " "), MaxSnippetChars)
	} else {
		out.Snippet = firstString(m, "snippet", "description")
	}

	if strings.TrimSpace(out.Title) == "" {
		out.Title = models.NotAvailable
	}
	if strings.TrimSpace(out.Link) == "" {
		out.Link = models.NotAvailable
	}
	if strings.TrimSpace(out.Snippet) == "" {
		out.Snippet = models.NotAvailable
	}
	return out
}

// SearchResults normalizes a decoded result list, skipping non-object items.
func SearchResults(items []any) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, SearchResult(m))
		}
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalar(m[k]); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
