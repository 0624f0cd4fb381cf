package web_search

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mohammad-safakhou/horizon/config"
	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/tools/web_search/brave"
	"github.com/mohammad-safakhou/horizon/tools/web_search/parallel"
	"github.com/mohammad-safakhou/horizon/tools/web_search/serper"
)

type WebSearcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

type Provider string

const (
	ParallelProvider Provider = "parallel"
	SerperProvider   Provider = "serper"
	BraveProvider    Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

// NewWebSearcher builds the configured provider. Provider-specific keys win
// over the generic search.api_key.
func NewWebSearcher(cfg config.SearchConfig, log *logging.Logger, metrics *telemetry.Metrics) (WebSearcher, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Timeout <= 0 {
		client.Timeout = parallel.DefaultTimeout
	}
	switch Provider(strings.ToLower(strings.TrimSpace(cfg.Provider))) {
	case ParallelProvider, "":
		return parallel.Search{
			ApiKey:     cfg.APIKey,
			MaxRetries: cfg.MaxRetries,
			MaxResults: cfg.MaxResults,
			MaxChars:   cfg.MaxCharsPerResult,
			HTTPClient: client,
			Log:        log,
			Metrics:    metrics,
		}, nil
	case SerperProvider:
		return serper.Search{
			ApiKey:     firstKey(cfg.SerperAPIKey, cfg.APIKey),
			MaxRetries: cfg.MaxRetries,
			MaxResults: cfg.MaxResults,
			HTTPClient: client,
			Log:        log,
			Metrics:    metrics,
		}, nil
	case BraveProvider:
		return brave.Search{
			ApiKey:     firstKey(cfg.BraveAPIKey, cfg.APIKey),
			MaxRetries: cfg.MaxRetries,
			MaxResults: cfg.MaxResults,
			HTTPClient: client,
			Log:        log,
			Metrics:    metrics,
		}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

func firstKey(keys ...string) string {
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			return k
		}
	}
	return ""
}
