package normalize

import (
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/horizon/models"
)

// DefaultHeadingLimit caps how many topics HeadingTopics returns.
const DefaultHeadingLimit = 12

// FailurePrefix marks report text that records a failed generation.
const FailurePrefix = "Error:"

var (
	markdownHeading = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
	numberedHeading = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	colonHeading    = regexp.MustCompile(`^([A-Z][^:]{3,}):$`)

	headingStoplist = map[string]struct{}{
		"introduction":      {},
		"conclusion":        {},
		"executive summary": {},
	}
)

// EmptyResearch returns a record with all three lists present and empty.
func EmptyResearch() models.ParsedResearch {
	return models.ParsedResearch{Topics: []string{}, Entities: []string{}, Concepts: []string{}}
}

// UsableReport reports whether text is real report content rather than an
// empty body or a recorded failure.
func UsableReport(text string) bool {
	t := strings.TrimSpace(text)
	return t != "" && !strings.HasPrefix(t, FailurePrefix)
}

// Research builds a ParsedResearch from raw generative output. When no topics
// survive and report is usable, topics are back-filled from its headings.
func Research(raw string, report string) models.ParsedResearch {
	out := EmptyResearch()
	if v, ok := ExtractJSON(raw); ok {
		if obj, ok := v.(map[string]any); ok {
			if l, ok := stringList(obj["topics"]); ok {
				out.Topics = l
			}
			if l, ok := stringList(obj["entities"]); ok {
				out.Entities = l
			}
			if l, ok := stringList(obj["concepts"]); ok {
				out.Concepts = l
			}
		}
	}
	if len(out.Topics) == 0 && UsableReport(report) {
		out.Topics = HeadingTopics(report, DefaultHeadingLimit)
	}
	return out
}

// HeadingTopics scans text line by line for heading-like lines: markdown
// headings, numbered lines, or a capitalised phrase ending in a colon.
// Results are de-duplicated case-insensitively in first-seen order. A
// non-positive limit falls back to DefaultHeadingLimit.
func HeadingTopics(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultHeadingLimit
	}
	topics := []string{}
	seen := map[string]struct{}{}
	for _, line := range strings.Split(text, "\n") {
		candidate, ok := headingCandidate(strings.TrimSpace(line))
		if !ok {
			continue
		}
		key := strings.ToLower(candidate)
		if _, stop := headingStoplist[key]; stop {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		topics = append(topics, candidate)
		if len(topics) >= limit {
			break
		}
	}
	return topics
}

func headingCandidate(line string) (string, bool) {
	var text string
	switch {
	case markdownHeading.MatchString(line):
		text = markdownHeading.FindStringSubmatch(line)[1]
	case numberedHeading.MatchString(line):
		text = numberedHeading.FindStringSubmatch(line)[1]
	case colonHeading.MatchString(line):
		text = colonHeading.FindStringSubmatch(line)[1]
	default:
		return "", false
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ":")
	text = strings.Trim(text, "*_ ")
	if n := len([]rune(text)); n < 3 || n > 120 {
		return "", false
	}
	return text, true
}
