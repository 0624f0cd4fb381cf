package models

import "encoding/json"

// JobStatus is the lifecycle state reported for a background generative job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further status change is expected.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// JobRequest describes a background generation.
type JobRequest struct {
	Model           string
	DeveloperPrompt string
	UserPrompt      string
	Tools           []string
	Background      bool
}

// ContentPart is a piece of an output item; only text parts are used.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// OutputItem is one block of a completed job's output.
type OutputItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Text    string        `json:"text,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
	Summary []ContentPart `json:"summary,omitempty"`
}

// JobError carries the upstream failure detail when present.
type JobError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Job is a snapshot of a background job's status.
type Job struct {
	ID     string          `json:"id"`
	Status JobStatus       `json:"status"`
	Output []OutputItem    `json:"output,omitempty"`
	Error  *JobError       `json:"error,omitempty"`
	Raw    json.RawMessage `json:"-"`
}
