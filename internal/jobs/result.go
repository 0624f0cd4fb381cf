package jobs

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/horizon/models"
)

// Failure names why a job produced no usable text.
type Failure string

const (
	FailureNone        Failure = ""
	FailureFailed      Failure = "failed"
	FailureCancelled   Failure = "cancelled"
	FailureTimedOut    Failure = "timed_out"
	FailureEmptyOutput Failure = "empty_output"
)

// Result is the outcome of one job run: either Output text or a Failure.
type Result struct {
	JobID   string
	Status  models.JobStatus
	Output  string
	Failure Failure
	Detail  string
	Polls   int
}

// OK reports whether the job completed with text.
func (r Result) OK() bool {
	return r.Failure == FailureNone
}

// Text returns the output, or for a failed run the legacy error line that
// older artifacts carry in place of the report.
func (r Result) Text() string {
	switch r.Failure {
	case FailureNone:
		return r.Output
	case FailureFailed, FailureCancelled:
		return fmt.Sprintf("Error: Task failed with status: %s. Details: %s", r.Status, r.Detail)
	case FailureTimedOut:
		return fmt.Sprintf("Error: Task timed out after %d polling cycles.", r.Polls)
	case FailureEmptyOutput:
		return "Error: No text output found in completed response."
	default:
		return "Error: " + string(r.Failure)
	}
}

// ExtractText collects assistant message text from a completed job. When no
// message text exists the reasoning summaries are used instead.
func ExtractText(output []models.OutputItem) string {
	var parts []string
	for _, item := range output {
		switch item.Type {
		case "message":
			if item.Role != "" && item.Role != "assistant" {
				continue
			}
			for _, c := range item.Content {
				if isTextPart(c.Type) && strings.TrimSpace(c.Text) != "" {
					parts = append(parts, c.Text)
				}
			}
		case "text", "output_text":
			if strings.TrimSpace(item.Text) != "" {
				parts = append(parts, item.Text)
			}
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}

	for _, item := range output {
		if item.Type != "reasoning" {
			continue
		}
		for _, s := range item.Summary {
			if strings.TrimSpace(s.Text) != "" {
				parts = append(parts, s.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func isTextPart(t string) bool {
	return t == "output_text" || t == "text"
}
