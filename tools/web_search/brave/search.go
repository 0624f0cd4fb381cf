package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/normalize"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/tools/web_search/retry"
)

const Endpoint = "https://api.search.brave.com/res/v1/web/search"

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
		s.Log.Event("search_skip_no_key", "query", q, "provider", "brave")
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

	// https://api.search.brave.com/app/documentation/web-search
	params := url.Values{}
	params.Set("q", q)
	params.Set("count", strconv.Itoa(k))

	policy := retry.Policy{MaxRetries: s.MaxRetries, Endpoints: []string{endpoint}, Log: s.Log, Metrics: s.Metrics}
	return policy.Run(ctx, q, func(ctx context.Context, endpoint string) ([]models.SearchResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", s.ApiKey)
		raw, err := retry.Fetch(s.HTTPClient, req)
		if err != nil {
			return nil, err
		}
		var decoded struct {
			Web struct {
				Results []any `json:"results"`
			} `json:"web"`
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("decode brave response: %w", err)
		}
		items := decoded.Web.Results
		if len(items) > k {
			items = items[:k]
		}
		return normalize.SearchResults(items), nil
	})
}
