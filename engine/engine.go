// Package engine runs a complete horizon scan: report, parse, six lenses,
// signals, scenarios and scores, and writes the artifacts of the run.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/horizon/agents"
	"github.com/mohammad-safakhou/horizon/internal/index"
	"github.com/mohammad-safakhou/horizon/internal/jobs"
	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/normalize"
	"github.com/mohammad-safakhou/horizon/internal/scenario"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/repository"
	"github.com/mohammad-safakhou/horizon/tools/web_search"
)

// TimestampLayout names the artifacts of one run.
const TimestampLayout = "2006-01-02_150405"

// Researcher produces and reshapes the research report.
type Researcher interface {
	GenerateReport(ctx context.Context, topic string) (jobs.Result, error)
	ParseReport(ctx context.Context, report string) (models.ParsedResearch, error)
	GenerateDomainMap(ctx context.Context, topics []string, category models.Category) (models.DomainMap, error)
}

// ScenarioScorer rates extracted scenarios.
type ScenarioScorer interface {
	Score(ctx context.Context, scenarios []models.Scenario) ([]models.ScenarioScore, error)
}

// Options select what a single scan does.
type Options struct {
	Topic             string
	OutputDir         string
	NoCache           bool
	RefreshCache      bool
	NoScenarioScoring bool
	SkipWebSearch     bool
	// ReportFile loads an existing report instead of generating one.
	ReportFile string
	// TagFiles appends the first 8 characters of the run id to artifact
	// names so scans started within the same second keep separate files.
	TagFiles bool
}

// Files are the paths written by a scan.
type Files struct {
	Report  string `json:"report"`
	Parsed  string `json:"parsed_research"`
	Results string `json:"results"`
}

// Outcome is what Scan returns.
type Outcome struct {
	Report models.Report `json:"report"`
	Files  Files         `json:"files"`
}

type Engine struct {
	Research Researcher
	Searcher web_search.WebSearcher
	Scorer   ScenarioScorer
	Cache    *repository.Cache
	Index    *index.Index
	Log      *logging.Logger
	Metrics  *telemetry.Metrics
	Now      func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Scan runs the whole pipeline for opts.Topic. Failed jobs, failed searches
// and unreadable answers degrade to placeholder data; transport errors of the
// generative service and artifact write failures abort the scan.
func (e *Engine) Scan(ctx context.Context, opts Options) (*Outcome, error) {
	topic := strings.TrimSpace(opts.Topic)
	if topic == "" {
		return nil, errors.New("topic required")
	}
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	cache := e.Cache
	if cache == nil {
		cache = repository.NewCache(nil, e.Log)
	}

	started := e.now()
	runID := uuid.NewString()
	log := e.Log.With("run_id", runID)
	log.Event("start", "topic", topic, "output_dir", outDir, "cache", !opts.NoCache, "refresh_cache", opts.RefreshCache)

	var cached models.Artifacts
	if !opts.NoCache && !opts.RefreshCache {
		cached = cache.Load(ctx, topic)
	}

	// report
	var (
		reportText  string
		cacheHit    bool
		generated   bool
		reportUsage = "generated"
	)
	switch {
	case opts.ReportFile != "":
		b, err := os.ReadFile(opts.ReportFile)
		if err != nil {
			return nil, fmt.Errorf("read report file: %w", err)
		}
		reportText = string(b)
		reportUsage = "file"
		log.Event("dr_loaded_file", "path", opts.ReportFile, "chars", len(reportText))
	case cached.Report != nil:
		reportText = *cached.Report
		cacheHit = true
		reportUsage = "cache"
		log.Event("cache_hit", "topic", topic, "artifact", "dr")
	default:
		if !opts.NoCache {
			log.Event("cache_miss", "topic", topic)
		}
		res, err := e.Research.GenerateReport(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("generate report: %w", err)
		}
		reportText = res.Text()
		generated = res.OK()
		log.Event("dr_generated", "ok", res.OK(), "failure", string(res.Failure), "chars", len(reportText), "polls", res.Polls)
	}

	// parse
	var parsed models.ParsedResearch
	parsedFresh := false
	if cached.Parsed != nil {
		parsed = *cached.Parsed
		log.Event("cache_hit", "topic", topic, "artifact", "parsed")
	} else {
		p, err := e.Research.ParseReport(ctx, reportText)
		if err != nil {
			return nil, fmt.Errorf("parse report: %w", err)
		}
		parsed = p
		parsedFresh = true
	}
	parsed = ensureLists(parsed)
	log.Event("parse_complete", "topics", len(parsed.Topics), "entities", len(parsed.Entities), "concepts", len(parsed.Concepts), "report_source", reportUsage)

	if !opts.NoCache {
		var save models.Artifacts
		if generated {
			save.Report = &reportText
		}
		if parsedFresh && normalize.UsableReport(reportText) {
			save.Parsed = &parsed
		}
		if save.Report != nil || save.Parsed != nil {
			cache.Save(ctx, topic, save)
		}
	}

	ts := started.Format(TimestampLayout)
	if opts.TagFiles {
		ts += "_" + runID[:8]
	}
	resultsDir := filepath.Join(outDir, "results")
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	files := Files{
		Report:  filepath.Join(resultsDir, "dr_"+ts+".md"),
		Parsed:  filepath.Join(resultsDir, "parsed_research_"+ts+".json"),
		Results: filepath.Join(resultsDir, "horizon_scan_results_"+ts+".json"),
	}
	if err := os.WriteFile(files.Report, []byte(reportText), 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	if err := writeJSON(files.Parsed, parsed); err != nil {
		return nil, fmt.Errorf("write parsed research: %w", err)
	}

	// lenses
	signals := models.OrderedSignals{}
	domainMaps := map[models.Category]models.DomainMap{}
	deps := agents.Deps{Mapper: e.Research, Searcher: e.Searcher, Log: log, Metrics: e.Metrics}
	for _, lens := range agents.Lenses(parsed.Topics, deps) {
		if err := lens.GenerateDomainMap(ctx); err != nil {
			return nil, err
		}
		if dm, ok := lens.DomainMap(); ok {
			domainMaps[lens.Category] = dm
		}
		if opts.SkipWebSearch || e.Searcher == nil {
			signals[lens.Category] = []models.Signal{}
			continue
		}
		found, err := lens.ScanForSignals(ctx)
		if err != nil {
			return nil, err
		}
		signals[lens.Category] = found
	}

	// scenarios
	scenarios := []models.Scenario{}
	if normalize.UsableReport(reportText) {
		scenarios = scenario.Extract(reportText)
	}
	log.Event("scenarios_extracted", "count", len(scenarios))

	scores := []models.ScenarioScore{}
	if !opts.NoScenarioScoring && len(scenarios) > 0 && e.Scorer != nil {
		s, err := ScoreScenarios(ctx, e.Scorer, scenarios, log, e.Metrics)
		if err != nil {
			return nil, err
		}
		scores = s
		log.Event("scenarios_scored", "count", len(scores))
	}

	perCategory := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		perCategory[c] = len(signals[c])
	}
	report := models.Report{
		Topic:          topic,
		RunID:          runID,
		GeneratedAt:    started.UTC(),
		Signals:        signals,
		Scenarios:      scenarios,
		ScenarioScores: scores,
		Summary: models.Summary{
			TotalSignals:       signals.Total(),
			SignalsPerCategory: perCategory,
			TotalScenarios:     len(scenarios),
			CacheHit:           cacheHit,
		},
		Parsed:     parsed,
		DomainMaps: domainMaps,
	}
	if err := writeJSON(files.Results, report); err != nil {
		return nil, fmt.Errorf("write scan results: %w", err)
	}

	if e.Index != nil {
		if n, err := e.Index.IndexReport(report); err != nil {
			log.Warn("signal indexing failed", "error", err)
		} else {
			log.Debug("signals indexed", "count", n)
		}
	}

	log.Event("scan_complete", "topic", topic, "signals", report.Summary.TotalSignals,
		"scenarios", len(scenarios), "results", files.Results, "duration", e.now().Sub(started).String())
	return &Outcome{Report: report, Files: files}, nil
}

// ScoreScenarios scores scenarios with scorer. A scorer error other than
// context cancellation is logged and answered with heuristic scores.
func ScoreScenarios(ctx context.Context, scorer ScenarioScorer, scenarios []models.Scenario, log *logging.Logger, metrics *telemetry.Metrics) ([]models.ScenarioScore, error) {
	scores, err := scorer.Score(ctx, scenarios)
	if err == nil {
		return scores, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log.Warn("scenario scoring failed, using heuristic scores", "error", err)
	metrics.ScenarioFallback()
	return normalize.HeuristicScores(scenarios), nil
}

func ensureLists(p models.ParsedResearch) models.ParsedResearch {
	if p.Topics == nil {
		p.Topics = []string{}
	}
	if p.Entities == nil {
		p.Entities = []string{}
	}
	if p.Concepts == nil {
		p.Concepts = []string{}
	}
	return p
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
