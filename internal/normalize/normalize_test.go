package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/horizon/models"
)

func TestExtractJSONDirectAndFenced(t *testing.T) {
	v, ok := ExtractJSON(`{"topics": ["A"]}`)
	require.True(t, ok)
	assert.Contains(t, v.(map[string]any), "topics")

	v, ok = ExtractJSON("Some preamble```json\n{\"topics\": [\"T1\"]}\n``` trailing")
	require.True(t, ok)
	assert.Equal(t, []any{"T1"}, v.(map[string]any)["topics"])

	_, ok = ExtractJSON("no json here")
	assert.False(t, ok)
	_, ok = ExtractJSON("{invalid json")
	assert.False(t, ok)
	_, ok = ExtractJSON("")
	assert.False(t, ok)
}

func TestDomainMapVariants(t *testing.T) {
	tech := models.CategoryTech

	flat := DomainMapFromText(`{"Core": ["A"]}`, tech, nil)
	assert.Equal(t, []string{"A"}, flat.Topics[models.BandCore][tech])
	assert.Empty(t, flat.Topics[models.BandAdjacent][tech])
	assert.NotNil(t, flat.Topics[models.BandPeripheral][tech])

	keyed := DomainMapFromText(`{"core": {"Tech": ["A"], "Social": ["S"]}, "Peripheral": {"Tech": ["P"]}}`, tech, nil)
	assert.Equal(t, []string{"A"}, keyed.Topics[models.BandCore][tech])
	assert.Equal(t, []string{"S"}, keyed.Topics[models.BandCore][models.CategorySocial])
	assert.Equal(t, []string{"P"}, keyed.Topics[models.BandPeripheral][tech])

	for _, garbage := range []string{"", "null", "[1,2]", `"text"`, `{"unrelated": 1}`} {
		dm := DomainMapFromText(garbage, tech, nil)
		for _, band := range models.Bands {
			list, ok := dm.Topics[band][tech]
			assert.True(t, ok, "band %s missing for %q", band, garbage)
			assert.Empty(t, list)
		}
	}
}

func TestDomainMapCanonicalIsIdentity(t *testing.T) {
	canonical := models.DomainMap{Topics: map[models.Band]map[models.Category][]string{
		models.BandCore:       {models.CategoryTech: {"B"}},
		models.BandAdjacent:   {models.CategoryTech: {"C", "D"}},
		models.BandPeripheral: {models.CategoryTech: {}},
	}}
	raw, err := json.Marshal(canonical)
	require.NoError(t, err)

	v, ok := ExtractJSON(string(raw))
	require.True(t, ok)
	assert.Equal(t, canonical, DomainMap(v, models.CategoryTech))
}

func TestFillEmptyBandsInjectsByBandIndex(t *testing.T) {
	topics := []string{"Edge AI", "Synthetic Biology", "Green Hydrogen"}
	dm := DomainMapFromText("{invalid json", models.CategoryTech, topics)

	assert.Equal(t, []string{"Edge AI"}, dm.Topics[models.BandCore][models.CategoryTech])
	assert.Equal(t, []string{"Synthetic Biology"}, dm.Topics[models.BandAdjacent][models.CategoryTech])
	assert.Equal(t, []string{"Green Hydrogen"}, dm.Topics[models.BandPeripheral][models.CategoryTech])

	single := DomainMapFromText("```json\n{\"Core\": [\"A\"], \"Adjacent\": [], \"Peripheral\": []}\n```", models.CategoryTech, []string{"Only"})
	assert.Equal(t, []string{"A"}, single.Topics[models.BandCore][models.CategoryTech])
	assert.Equal(t, []string{"Only"}, single.Topics[models.BandAdjacent][models.CategoryTech])
	assert.Equal(t, []string{"Only"}, single.Topics[models.BandPeripheral][models.CategoryTech])
}

func TestFillEmptyBandsEveryBandNonEmpty(t *testing.T) {
	inputs := []string{
		`{"topics": {"Core": {"Values": []}}}`,
		`{"Core": [], "Adjacent": ["x"], "Peripheral": []}`,
		`{"Peripheral": {"Social": ["other lens"]}}`,
		`not json`,
	}
	for _, in := range inputs {
		dm := DomainMapFromText(in, models.CategoryValues, []string{"seed"})
		for _, band := range models.Bands {
			assert.NotEmpty(t, dm.Topics[band][models.CategoryValues], "band %s empty for %q", band, in)
		}
	}
}

func TestResearchAlwaysHasThreeKeys(t *testing.T) {
	for _, raw := range []string{"", "not json", "{}", "[]", `{"topics": "oops"}`, "null"} {
		parsed := Research(raw, "")
		b, err := json.Marshal(parsed)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		assert.Len(t, m, 3)
		for _, k := range []string{"topics", "entities", "concepts"} {
			assert.NotNil(t, m[k], "key %s is null for %q", k, raw)
		}
	}
}

func TestResearchFencedAndHeuristic(t *testing.T) {
	fenced := "Some preamble```json\n{\n  \"topics\": [\"T1\"], \"entities\": [\"E\"], \"concepts\": []\n}\n``` trailing"
	parsed := Research(fenced, "irrelevant report")
	assert.Equal(t, []string{"T1"}, parsed.Topics)
	assert.Equal(t, []string{"E"}, parsed.Entities)

	report := "# Executive Summary\nSomething\n## Quantum Acceleration\nDetails\n## Bio Convergence\nDetails"
	parsed = Research("not json", report)
	assert.Equal(t, []string{"Quantum Acceleration", "Bio Convergence"}, parsed.Topics)

	parsed = Research("{}", "Error: something bad")
	assert.Empty(t, parsed.Topics)
}

func TestHeadingTopics(t *testing.T) {
	got := HeadingTopics("# Alpha\n# Alpha\n## Beta\n## Gamma\n## Delta", 3)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, got)

	got = HeadingTopics("# Introduction\n# Mega Trend Alpha\n## Beta Driver\nRandom text\n### Gamma Factor:\nMore text", 0)
	assert.Equal(t, []string{"Mega Trend Alpha", "Beta Driver", "Gamma Factor"}, got)

	got = HeadingTopics("1. Numbered Driver\nKey Uncertainties:\nlowercase phrase:\n## ab\n## CONCLUSION\n#NoSpace", 10)
	assert.Equal(t, []string{"Numbered Driver", "Key Uncertainties"}, got)
}

func TestScenarioScoresComputeMissingOverall(t *testing.T) {
	scenarios := []models.Scenario{{Title: "T", Body: "Some body"}}
	raw := `[{"title": "T", "novelty": 3, "plausibility": 3, "impact": 3, "clarity": 3, "uncertainty_coverage": 2}]`
	scores, fallback := ScenarioScores(raw, scenarios)
	require.False(t, fallback)
	require.Len(t, scores, 1)
	assert.Equal(t, 2.9, scores[0].OverallScore)

	raw = `[{"title": "T", "novelty": 5, "plausibility": 4, "impact": 3, "clarity": 2, "uncertainty_coverage": 1}]`
	scores, _ = ScenarioScores(raw, scenarios)
	assert.Equal(t, 3.3, scores[0].OverallScore)

	// absent dimensions count as zero
	scores, _ = ScenarioScores(`[{"title": "T", "impact": 5}]`, scenarios)
	assert.Equal(t, 1.5, scores[0].OverallScore)
}

func TestScenarioScoresKeepsUpstreamOverall(t *testing.T) {
	raw := "```json\n[ {\"title\": \"T\", \"novelty\":1, \"plausibility\":1, \"impact\":1, \"clarity\":1, \"uncertainty_coverage\":1, \"overall_score\": 4.2} ]\n```"
	scores, fallback := ScenarioScores(raw, []models.Scenario{{Title: "T", Body: "B"}})
	require.False(t, fallback)
	assert.Equal(t, "T", scores[0].Title)
	assert.Equal(t, 4.2, scores[0].OverallScore)
}

func TestScenarioScoresFallback(t *testing.T) {
	scenarios := []models.Scenario{{Title: "A", Body: "x"}, {Title: "B", Body: "y"}}
	for _, raw := range []string{"invalid", "[]", `{"scores": "none"}`, "[1, 2]"} {
		scores, fallback := ScenarioScores(raw, scenarios)
		require.True(t, fallback, raw)
		require.Len(t, scores, 2)
		for _, s := range scores {
			assert.Equal(t, 2.9, s.OverallScore)
			assert.Equal(t, FallbackExplanation, s.Explanation)
		}
	}

	wrapped := `{"scores": [{"title": "A", "impact": 4, "overall_score": 1}]}`
	scores, fallback := ScenarioScores(wrapped, scenarios)
	assert.False(t, fallback)
	assert.Len(t, scores, 1)
}

func TestSearchResultPlaceholders(t *testing.T) {
	got := SearchResult(map[string]any{})
	assert.Equal(t, models.SearchResult{Title: "N/A", Snippet: "N/A", Link: "N/A"}, got)
}

func TestSearchResultFieldPriority(t *testing.T) {
	got := SearchResult(map[string]any{
		"title":       "Fusion",
		"link":        "https://legacy.example",
		"sourceURL":   "https://source.example",
		"description": "desc",
	})
	assert.Equal(t, "https://legacy.example", got.Link)
	assert.Equal(t, "desc", got.Snippet)

	got = SearchResult(map[string]any{
		"url":      "https://new.example",
		"link":     "https://legacy.example",
		"excerpts": []any{"one", "two"},
		"snippet":  "ignored",
	})
	assert.Equal(t, "https://new.example", got.Link)
	assert.Equal(t, "one two", got.Snippet)
	assert.Equal(t, "N/A", got.Title)
}

func TestSearchResultCapsExcerpts(t *testing.T) {
	long := strings.Repeat("x", 4000)
	got := SearchResult(map[string]any{"excerpts": []any{long, long}})
	assert.Len(t, got.Snippet, MaxSnippetChars)
}

func TestSearchResultsSkipsNonObjects(t *testing.T) {
	got := SearchResults([]any{"junk", map[string]any{"title": "A"}})
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
}
