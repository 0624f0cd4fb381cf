// Package agents runs the six STEEPV lenses. Every lens behaves the same way
// and differs only in the category it maps and scans.
package agents

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/tools/web_search"
)

// DomainMapper classifies source topics into bands for one category.
type DomainMapper interface {
	GenerateDomainMap(ctx context.Context, topics []string, category models.Category) (models.DomainMap, error)
}

// Deps are shared by all lenses of a scan.
type Deps struct {
	Mapper   DomainMapper
	Searcher web_search.WebSearcher
	Log      *logging.Logger
	Metrics  *telemetry.Metrics
}

// Lens maps the source topics for its category and scans the outer bands for
// weak signals.
type Lens struct {
	Category models.Category
	Topics   []string

	domainMap *models.DomainMap
	deps      Deps
}

func NewLens(category models.Category, topics []string, deps Deps) *Lens {
	return &Lens{Category: category, Topics: topics, deps: deps}
}

// Lenses returns one lens per category in report order.
func Lenses(topics []string, deps Deps) []*Lens {
	out := make([]*Lens, 0, len(models.Categories))
	for _, c := range models.Categories {
		out = append(out, NewLens(c, topics, deps))
	}
	return out
}

// DomainMap returns the generated map, or false before GenerateDomainMap
// succeeded with topics.
func (l *Lens) DomainMap() (models.DomainMap, bool) {
	if l.domainMap == nil {
		return models.DomainMap{}, false
	}
	return *l.domainMap, true
}

// GenerateDomainMap builds the lens domain map. Without source topics the
// lens stays unmapped and later scans find nothing.
func (l *Lens) GenerateDomainMap(ctx context.Context) error {
	if len(l.Topics) == 0 {
		l.deps.Log.Event("agent_domain_map", "category", string(l.Category), "skipped", true, "reason", "no topics")
		return nil
	}
	dm, err := l.deps.Mapper.GenerateDomainMap(ctx, l.Topics, l.Category)
	if err != nil {
		return fmt.Errorf("%s domain map: %w", l.Category, err)
	}
	l.domainMap = &dm
	l.deps.Log.Event("agent_domain_map", "category", string(l.Category),
		"core", len(dm.BandTopics(models.BandCore, l.Category)),
		"adjacent", len(dm.BandTopics(models.BandAdjacent, l.Category)),
		"peripheral", len(dm.BandTopics(models.BandPeripheral, l.Category)))
	return nil
}

// ScanTopics lists the topics a scan searches: Peripheral first, then Adjacent.
func (l *Lens) ScanTopics() []string {
	if l.domainMap == nil {
		return nil
	}
	var out []string
	out = append(out, l.domainMap.BandTopics(models.BandPeripheral, l.Category)...)
	out = append(out, l.domainMap.BandTopics(models.BandAdjacent, l.Category)...)
	return out
}

// ScanForSignals searches every scan topic and turns each hit into a Signal.
// A failed search is logged and skipped; only context cancellation stops
// the scan.
func (l *Lens) ScanForSignals(ctx context.Context) ([]models.Signal, error) {
	signals := []models.Signal{}
	for _, topic := range l.ScanTopics() {
		if err := ctx.Err(); err != nil {
			return signals, err
		}
		results, err := l.deps.Searcher.Search(ctx, topic)
		if err != nil {
			if ctx.Err() != nil {
				return signals, ctx.Err()
			}
			l.deps.Log.Event("search_error", "category", string(l.Category), "topic", topic, "error", err.Error())
			continue
		}
		for _, r := range results {
			signals = append(signals, SignalFrom(r, topic))
		}
	}
	l.deps.Metrics.SignalsCollected(string(l.Category), len(signals))
	l.deps.Log.Event("agent_signals", "category", string(l.Category), "count", len(signals))
	return signals, nil
}

// SignalFrom reshapes a search result found for topic.
func SignalFrom(r models.SearchResult, topic string) models.Signal {
	return models.Signal{
		Title:       orNA(r.Title),
		Description: orNA(r.Snippet),
		Relevance:   "This is relevant to " + topic,
		SourceURL:   orNA(r.Link),
	}
}

func orNA(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}
