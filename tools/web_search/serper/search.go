package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/normalize"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/tools/web_search/retry"
)

const Endpoint = "https://google.serper.dev/search"

type Search struct {
	ApiKey     string
	MaxRetries int
	MaxResults int
	Endpoint   string
	HTTPClient *http.Client
	Log        *logging.Logger
	Metrics    *telemetry.Metrics
}

func (s Search) Search(ctx context.Context, q string) ([]models.SearchResult, error) {
	if strings.TrimSpace(s.ApiKey) == "" {
		s.Log.Event("search_skip_no_key", "query", q, "provider", "serper")
		return []models.SearchResult{}, nil
	}
	k := s.MaxResults
	if k <= 0 {
		k = 5
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = Endpoint
	}

	// https://serper.dev/ docs
	body, err := json.Marshal(map[string]any{"q": q, "num": k})
	if err != nil {
		return nil, err
	}
	policy := retry.Policy{MaxRetries: s.MaxRetries, Endpoints: []string{endpoint}, Log: s.Log, Metrics: s.Metrics}
	return policy.Run(ctx, q, func(ctx context.Context, endpoint string) ([]models.SearchResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-API-KEY", s.ApiKey)
		req.Header.Set("Content-Type", "application/json")
		raw, err := retry.Fetch(s.HTTPClient, req)
		if err != nil {
			return nil, err
		}
		var decoded struct {
			Organic []any `json:"organic"`
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("decode serper response: %w", err)
		}
		items := decoded.Organic
		if len(items) > k {
			items = items[:k]
		}
		return normalize.SearchResults(items), nil
	})
}
