package normalize

import (
	"math"

	"github.com/mohammad-safakhou/horizon/models"
)

// Weights of the overall scenario score.
const (
	WeightImpact       = 0.30
	WeightPlausibility = 0.25
	WeightNovelty      = 0.20
	WeightClarity      = 0.15
	WeightUncertainty  = 0.10
)

// FallbackExplanation is attached to scores produced without the generative service.
const FallbackExplanation = "Heuristic fallback scoring due to LLM parse failure."

// OverallScore is the weighted sum of the five dimensions rounded to 2 decimals.
func OverallScore(s models.ScenarioScore) float64 {
	sum := s.Impact*WeightImpact +
		s.Plausibility*WeightPlausibility +
		s.Novelty*WeightNovelty +
		s.Clarity*WeightClarity +
		s.UncertaintyCoverage*WeightUncertainty
	return math.Round(sum*100) / 100
}

// HeuristicScores scores every scenario locally with fixed mid-scale values.
func HeuristicScores(scenarios []models.Scenario) []models.ScenarioScore {
	out := make([]models.ScenarioScore, 0, len(scenarios))
	for _, sc := range scenarios {
		s := models.ScenarioScore{
			Title:               sc.Title,
			Novelty:             3,
			Plausibility:        3,
			Impact:              3,
			Clarity:             3,
			UncertaintyCoverage: 2,
			Explanation:         FallbackExplanation,
		}
		s.OverallScore = OverallScore(s)
		out = append(out, s)
	}
	return out
}

// ScenarioScores decodes a score array from raw output (directly, from a
// fenced block, or from an object wrapping the array). When nothing usable is
// found the heuristic scores are returned and fallback is true. Items without
// overall_score get it computed, with absent dimensions counted as 0.
func ScenarioScores(raw string, scenarios []models.Scenario) (scores []models.ScenarioScore, fallback bool) {
	items := scoreItems(raw)
	if len(items) == 0 {
		return HeuristicScores(scenarios), true
	}
	scores = make([]models.ScenarioScore, 0, len(items))
	for _, it := range items {
		scores = append(scores, scoreFrom(it))
	}
	return scores, false
}

func scoreItems(raw string) []map[string]any {
	v, ok := ExtractJSON(raw)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		obj, isObj := v.(map[string]any)
		if !isObj {
			return nil
		}
		for _, k := range []string{"scores", "scenarios", "results"} {
			if l, ok := obj[k].([]any); ok {
				list = l
				break
			}
		}
	}
	items := make([]map[string]any, 0, len(list))
	for _, it := range list {
		if m, ok := it.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}

func scoreFrom(m map[string]any) models.ScenarioScore {
	dim := func(key string) float64 {
		f, _ := number(m[key])
		return f
	}
	s := models.ScenarioScore{
		Novelty:             dim("novelty"),
		Plausibility:        dim("plausibility"),
		Impact:              dim("impact"),
		Clarity:             dim("clarity"),
		UncertaintyCoverage: dim("uncertainty_coverage"),
	}
	s.Title, _ = m["title"].(string)
	s.Explanation, _ = m["explanation"].(string)
	if overall, ok := number(m["overall_score"]); ok {
		s.OverallScore = overall
	} else {
		s.OverallScore = OverallScore(s)
	}
	return s
}
