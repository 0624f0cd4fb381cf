// Package research turns a topic into a report, the report into structured
// metadata and metadata into per-lens domain maps.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/horizon/internal/jobs"
	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/normalize"
	"github.com/mohammad-safakhou/horizon/models"
)

const (
	reportPrompt = "You are a senior foresight researcher. Use web search to ground every claim. " +
		"Write a long-form markdown report with clear headings. Cover technology, social impact, " +
		"economic factors, environmental and political dimensions, and values. Close with a section " +
		"of alternative futures, each under its own heading of the form '## Scenario N: <title>'."

	parsePrompt = "You extract structured metadata from research text. Return ONLY a JSON object " +
		"with three keys: \"topics\", \"entities\" and \"concepts\", each a list of short strings."

	domainMapPrompt = "You build STEEPV domain maps. Return ONLY a JSON object of the form " +
		"{\"topics\": {\"Core\": {\"<category>\": [...]}, \"Adjacent\": {\"<category>\": [...]}, " +
		"\"Peripheral\": {\"<category>\": [...]}}}. Core topics sit at the centre of the category, " +
		"Adjacent topics border it and Peripheral topics are distant areas where weak signals emerge."
)

// Service runs the research jobs. It is safe for concurrent use when the
// underlying runner is.
type Service struct {
	runner jobs.Runner
	log    *logging.Logger
}

func New(runner jobs.Runner, log *logging.Logger) *Service {
	return &Service{runner: runner, log: log}
}

// GenerateReport asks for a long-form report on topic. A job that ends
// without text is returned as a Result carrying the failure.
func (s *Service) GenerateReport(ctx context.Context, topic string) (jobs.Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return jobs.Result{}, fmt.Errorf("topic required")
	}
	user := fmt.Sprintf("Generate a deep research report on the topic: %s.", topic)
	return s.runner.Run(ctx, reportPrompt, user)
}

// ParseReport extracts topics, entities and concepts from report. The
// returned record always has all three lists. A report that is itself a
// recorded failure is not sent anywhere.
func (s *Service) ParseReport(ctx context.Context, report string) (models.ParsedResearch, error) {
	if !normalize.UsableReport(report) {
		return normalize.EmptyResearch(), nil
	}
	res, err := s.runner.Run(ctx, parsePrompt, "Parse the following research text.\n\n"+report)
	if err != nil {
		return models.ParsedResearch{}, err
	}
	raw := ""
	if res.OK() {
		raw = res.Output
	} else {
		s.log.Warn("research parse job returned no text", "failure", string(res.Failure))
	}
	return normalize.Research(raw, report), nil
}

// GenerateDomainMap classifies topics into Core, Adjacent and Peripheral
// bands for category. Every band is back-filled from topics when the answer
// leaves it empty. No job runs when topics is empty.
func (s *Service) GenerateDomainMap(ctx context.Context, topics []string, category models.Category) (models.DomainMap, error) {
	if len(topics) == 0 {
		return models.NewDomainMap(category), nil
	}
	list, err := json.Marshal(topics)
	if err != nil {
		return models.DomainMap{}, err
	}
	user := fmt.Sprintf("Category: %s\nTopics: %s\nGenerate the domain map for this category.", category, list)
	res, err := s.runner.Run(ctx, domainMapPrompt, user)
	if err != nil {
		return models.DomainMap{}, err
	}
	raw := ""
	if res.OK() {
		raw = res.Output
	}
	return normalize.DomainMapFromText(raw, category, topics), nil
}
