package engine

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/horizon/config"
	"github.com/mohammad-safakhou/horizon/internal/index"
	"github.com/mohammad-safakhou/horizon/internal/jobs"
	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/research"
	"github.com/mohammad-safakhou/horizon/internal/scenario"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/provider"
	"github.com/mohammad-safakhou/horizon/repository"
	"github.com/mohammad-safakhou/horizon/tools/web_search"
)

// Build wires an Engine from configuration. The returned close function
// releases the signal index when one was opened.
func Build(ctx context.Context, cfg *config.Config, log *logging.Logger, metrics *telemetry.Metrics) (*Engine, func() error, error) {
	svc, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("generative service: %w", err)
	}
	poller := jobs.NewPoller(svc, jobs.Config{Model: cfg.LLM.Model, Polling: cfg.Polling},
		jobs.WithLogger(log), jobs.WithMetrics(metrics))

	searcher, err := web_search.NewWebSearcher(cfg.Search, log, metrics)
	if err != nil {
		return nil, nil, err
	}

	var cache *repository.Cache
	if cfg.Cache.Backend != string(repository.RepoTypeNone) {
		repo, err := repository.NewArtifactRepository(ctx, cfg.Cache)
		if err != nil {
			// cache failures never abort a scan
			log.Warn("artifact cache unavailable", "backend", cfg.Cache.Backend, "error", err)
		} else {
			cache = repository.NewCache(repo, log)
		}
	}

	e := &Engine{
		Research: research.New(poller, log),
		Searcher: searcher,
		Scorer:   scenario.NewScorer(poller, log, metrics),
		Cache:    cache,
		Log:      log,
		Metrics:  metrics,
	}

	closeFn := func() error { return nil }
	if cfg.Index.Enabled {
		idx, err := index.Open(cfg.Index.Dir)
		if err != nil {
			return nil, nil, err
		}
		e.Index = idx
		closeFn = idx.Close
	}
	return e, closeFn, nil
}
