package models

import (
	"errors"
	"time"
)

// ErrArtifactNotFound is returned when a cached artifact is not present
var ErrArtifactNotFound = errors.New("artifact not found")

// NotAvailable substitutes any field an upstream search result did not provide
const NotAvailable = "N/A"

// Category is one of the six STEEPV lenses
type Category string

const (
	CategorySocial        Category = "Social"
	CategoryTech          Category = "Tech"
	CategoryEconomic      Category = "Economic"
	CategoryEnvironmental Category = "Environmental"
	CategoryPolitical     Category = "Political"
	CategoryValues        Category = "Values"
)

// Categories lists the lenses in report order.
var Categories = []Category{
	CategorySocial,
	CategoryTech,
	CategoryEconomic,
	CategoryEnvironmental,
	CategoryPolitical,
	CategoryValues,
}

// Band is a tier of a domain map, ordered from the lens center outwards
type Band string

const (
	BandCore       Band = "Core"
	BandAdjacent   Band = "Adjacent"
	BandPeripheral Band = "Peripheral"
)

// Bands lists the tiers in the order fallback injection walks them.
var Bands = []Band{BandCore, BandAdjacent, BandPeripheral}

// DomainMap classifies topics into Core/Adjacent/Peripheral tiers per category.
type DomainMap struct {
	Topics map[Band]map[Category][]string `json:"topics"`
}

// NewDomainMap returns a map with every band present and an empty list for category.
func NewDomainMap(category Category) DomainMap {
	dm := DomainMap{Topics: make(map[Band]map[Category][]string, len(Bands))}
	for _, b := range Bands {
		dm.Topics[b] = map[Category][]string{category: {}}
	}
	return dm
}

// BandTopics returns the topic list of one band for category, nil when absent.
func (d DomainMap) BandTopics(band Band, category Category) []string {
	if d.Topics == nil {
		return nil
	}
	return d.Topics[band][category]
}

// ParsedResearch is the structured metadata extracted from a report.
type ParsedResearch struct {
	Topics   []string `json:"topics"`
	Entities []string `json:"entities"`
	Concepts []string `json:"concepts"`
}

// SearchResult is a single normalized hit from a search provider.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Signal is a search result tied back to the topic that surfaced it.
type Signal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Relevance   string `json:"relevance"`
	SourceURL   string `json:"sourceURL"`
}

// Scenario is a narrative section segmented out of a report.
type Scenario struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ScenarioScore holds the five scoring dimensions for one scenario.
// Dimensions are float64 because upstream values are trusted as given.
type ScenarioScore struct {
	Title               string  `json:"title"`
	Novelty             float64 `json:"novelty"`
	Plausibility        float64 `json:"plausibility"`
	Impact              float64 `json:"impact"`
	Clarity             float64 `json:"clarity"`
	UncertaintyCoverage float64 `json:"uncertainty_coverage"`
	Explanation         string  `json:"explanation"`
	OverallScore        float64 `json:"overall_score"`
}

// Summary aggregates counts for the final report.
type Summary struct {
	TotalSignals       int              `json:"total_signals"`
	SignalsPerCategory map[Category]int `json:"signals_per_category"`
	TotalScenarios     int              `json:"total_scenarios"`
	CacheHit           bool             `json:"cache_hit"`
}

// Report is the structured output of one horizon scan.
type Report struct {
	Topic          string                 `json:"topic"`
	RunID          string                 `json:"run_id"`
	GeneratedAt    time.Time              `json:"generated_at"`
	Signals        OrderedSignals         `json:"signals"`
	Scenarios      []Scenario             `json:"scenarios"`
	ScenarioScores []ScenarioScore        `json:"scenario_scores"`
	Summary        Summary                `json:"summary"`
	Parsed         ParsedResearch         `json:"parsed_research"`
	DomainMaps     map[Category]DomainMap `json:"domain_maps,omitempty"`
}

// Artifacts are the cached intermediate outputs of a scan. A nil field was
// not present.
type Artifacts struct {
	Report *string
	Parsed *ParsedResearch
}
