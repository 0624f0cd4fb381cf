package parallel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/normalize"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/tools/web_search/retry"
)

const (
	PrimaryEndpoint  = "https://api.parallel.ai/v1beta/search"
	FallbackEndpoint = "https://api.parallel.ai/v1/search"

	DefaultMaxRetries        = 3
	DefaultMaxResults        = 5
	DefaultMaxCharsPerResult = 1500
	DefaultTimeout           = 15 * time.Second
)

// Search queries the Parallel.ai search API. Zero MaxResults, MaxChars and
// Timeout take the defaults; MaxRetries is used as given.
type Search struct {
	ApiKey     string
	MaxRetries int
	MaxResults int
	MaxChars   int
	Timeout    time.Duration

	// Endpoints overrides the primary/fallback pair.
	Endpoints  []string
	HTTPClient *http.Client
	Sleep      func(ctx context.Context, d time.Duration) error
	Jitter     func() time.Duration
	Log        *logging.Logger
	Metrics    *telemetry.Metrics
}

type request struct {
	Objective         string   `json:"objective"`
	SearchQueries     []string `json:"search_queries"`
	Processor         string   `json:"processor"`
	MaxResults        int      `json:"max_results"`
	MaxCharsPerResult int      `json:"max_chars_per_result"`
}

// Search returns normalized results for query. Without an API key it returns
// an empty list and makes no request.
func (s Search) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if strings.TrimSpace(s.ApiKey) == "" {
		s.Log.Event("search_skip_no_key", "query", query)
		return []models.SearchResult{}, nil
	}

	endpoints := s.Endpoints
	if len(endpoints) == 0 {
		endpoints = []string{PrimaryEndpoint, FallbackEndpoint}
	}
	policy := retry.Policy{
		MaxRetries: s.MaxRetries,
		Endpoints:  endpoints,
		Sleep:      s.Sleep,
		Jitter:     s.Jitter,
		Log:        s.Log,
		Metrics:    s.Metrics,
	}

	body, err := json.Marshal(request{
		Objective:         query,
		SearchQueries:     []string{query},
		Processor:         "base",
		MaxResults:        orDefault(s.MaxResults, DefaultMaxResults),
		MaxCharsPerResult: orDefault(s.MaxChars, DefaultMaxCharsPerResult),
	})
	if err != nil {
		return nil, err
	}

	client := s.HTTPClient
	if client == nil {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return policy.Run(ctx, query, func(ctx context.Context, endpoint string) ([]models.SearchResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-api-key", s.ApiKey)
		req.Header.Set("Content-Type", "application/json")

		raw, err := retry.Fetch(client, req)
		if err != nil {
			return nil, err
		}
		var decoded struct {
			Results []any `json:"results"`
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("decode search response: %w", err)
		}
		return normalize.SearchResults(decoded.Results), nil
	})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
