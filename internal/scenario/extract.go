// Package scenario segments narrative scenarios out of a report and scores
// them on five foresight dimensions.
package scenario

import (
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/horizon/models"
)

// UntitledScenario names a scenario whose heading carries no title text.
const UntitledScenario = "Untitled Scenario"

var (
	scenarioHeading = regexp.MustCompile(`(?i)^#{2,4}\s+Scenario(?:\s+\d+)?[:\-]?\s*(.+)$`)
	sectionHeading  = regexp.MustCompile(`^#{2,3}\s+`)
)

// Extract returns the scenarios of text in order. A scenario starts at a
// level 2-4 "Scenario" heading and runs until the next scenario heading, the
// next level 2-3 heading of any other kind, or the end of text. Scenarios
// whose body is blank are dropped.
func Extract(text string) []models.Scenario {
	var (
		out     []models.Scenario
		current *models.Scenario
		body    strings.Builder
	)
	flush := func() {
		if current != nil {
			if b := strings.TrimSpace(body.String()); b != "" {
				current.Body = b
				out = append(out, *current)
			}
		}
		current = nil
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := scenarioHeading.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			title := strings.TrimSpace(m[1])
			if title == "" {
				title = UntitledScenario
			}
			current = &models.Scenario{Title: title}
			continue
		}
		if current == nil {
			continue
		}
		if sectionHeading.MatchString(line) {
			flush()
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	flush()

	if out == nil {
		out = []models.Scenario{}
	}
	return out
}
