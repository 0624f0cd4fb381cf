package scenario

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mohammad-safakhou/horizon/internal/jobs"
	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/normalize"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/models"
)

const (
	maxTitleChars = 140
	maxBodyChars  = 2000

	scorePrompt = "You are a foresight evaluation assistant. Score each scenario on novelty, " +
		"plausibility, impact, clarity, and uncertainty coverage (1-5 integers). Return ONLY JSON: " +
		"an array; each item: {title, novelty, plausibility, impact, clarity, uncertainty_coverage, " +
		"explanation, overall_score}. overall_score is weighted: impact*0.3 + plausibility*0.25 + " +
		"novelty*0.2 + clarity*0.15 + uncertainty_coverage*0.1 (rounded to 2 decimals)."
)

// Scorer rates scenarios through the generative service, falling back to
// fixed local scores when the answer cannot be read.
type Scorer struct {
	runner  jobs.Runner
	log     *logging.Logger
	metrics *telemetry.Metrics
}

func NewScorer(runner jobs.Runner, log *logging.Logger, metrics *telemetry.Metrics) *Scorer {
	return &Scorer{runner: runner, log: log, metrics: metrics}
}

// Score returns one score per returned item. An empty input returns an empty
// list without contacting the service. Only transport failures are errors.
func (s *Scorer) Score(ctx context.Context, scenarios []models.Scenario) ([]models.ScenarioScore, error) {
	if len(scenarios) == 0 {
		return []models.ScenarioScore{}, nil
	}
	compact := make([]models.Scenario, 0, len(scenarios))
	for _, sc := range scenarios {
		compact = append(compact, models.Scenario{
			Title: truncate(sc.Title, maxTitleChars),
			Body:  truncate(sc.Body, maxBodyChars),
		})
	}
	payload, err := json.Marshal(compact)
	if err != nil {
		return nil, fmt.Errorf("encode scenarios: %w", err)
	}

	res, err := s.runner.Run(ctx, scorePrompt, "Score these scenarios:\n"+string(payload))
	if err != nil {
		return nil, err
	}
	raw := ""
	if res.OK() {
		raw = res.Output
	}
	scores, fallback := normalize.ScenarioScores(raw, scenarios)
	if fallback {
		s.metrics.ScenarioFallback()
		s.log.Warn("scenario scoring fell back to heuristic", "scenarios", len(scenarios), "failure", string(res.Failure))
	}
	return scores, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
