package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/horizon/config"
	"github.com/mohammad-safakhou/horizon/models"
)

type fakeService struct {
	createErr error
	statuses  []models.JobStatus
	output    []models.OutputItem
	jobErr    *models.JobError
	polls     int
	requests  []models.JobRequest
}

func (f *fakeService) CreateJob(_ context.Context, req models.JobRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.createErr != nil {
		return "", f.createErr
	}
	return "resp_1", nil
}

func (f *fakeService) GetJob(_ context.Context, id string) (models.Job, error) {
	idx := f.polls
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.polls++
	job := models.Job{ID: id, Status: f.statuses[idx]}
	if job.Status.Terminal() {
		job.Output = f.output
		job.Error = f.jobErr
		job.Raw, _ = json.Marshal(map[string]any{"id": id, "status": job.Status})
	}
	return job, nil
}

func assistant(text string) []models.OutputItem {
	return []models.OutputItem{{
		Type:    "message",
		Role:    "assistant",
		Content: []models.ContentPart{{Type: "output_text", Text: text}},
	}}
}

func newTestPoller(svc *fakeService, cycles int, sleeps *[]time.Duration) *Poller {
	return NewPoller(svc, Config{
		Model:   "test-model",
		Polling: config.PollingConfig{Interval: 8 * time.Second, MaxCycles: cycles},
	}, WithSleep(func(_ context.Context, d time.Duration) error {
		if sleeps != nil {
			*sleeps = append(*sleeps, d)
		}
		return nil
	}))
}

func TestRunPollsUntilCompleted(t *testing.T) {
	svc := &fakeService{
		statuses: []models.JobStatus{models.JobInProgress, models.JobInProgress, models.JobCompleted},
		output:   assistant("final report"),
	}
	var sleeps []time.Duration
	res, err := newTestPoller(svc, 120, &sleeps).Run(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK() || res.Text() != "final report" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if svc.polls != 3 {
		t.Fatalf("expected 3 polls, got %d", svc.polls)
	}
	if len(sleeps) != 2 || sleeps[0] != 8*time.Second {
		t.Fatalf("expected two 8s waits, got %v", sleeps)
	}
	req := svc.requests[0]
	if !req.Background || req.Tools[0] != WebSearchTool || req.Model != "test-model" {
		t.Fatalf("unexpected job request: %+v", req)
	}
}

func TestRunTimesOutAfterBudget(t *testing.T) {
	svc := &fakeService{statuses: []models.JobStatus{models.JobInProgress}}
	var sleeps []time.Duration
	res, err := newTestPoller(svc, 2, &sleeps).Run(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failure != FailureTimedOut {
		t.Fatalf("expected timeout, got %+v", res)
	}
	if svc.polls != 2 {
		t.Fatalf("expected 2 polls, got %d", svc.polls)
	}
	if len(sleeps) != 1 {
		t.Fatalf("no wait expected after the last cycle, got %d waits", len(sleeps))
	}
	if res.Text() != "Error: Task timed out after 2 polling cycles." {
		t.Fatalf("unexpected sentinel %q", res.Text())
	}
}

func TestRunFailedAndCancelled(t *testing.T) {
	for _, status := range []models.JobStatus{models.JobFailed, models.JobCancelled} {
		svc := &fakeService{
			statuses: []models.JobStatus{models.JobQueued, status},
			jobErr:   &models.JobError{Code: "server_error", Message: "boom"},
		}
		res, err := newTestPoller(svc, 5, nil).Run(context.Background(), "sys", "user")
		if err != nil {
			t.Fatalf("Run(%s): %v", status, err)
		}
		if res.OK() {
			t.Fatalf("expected failure for %s", status)
		}
		want := "Error: Task failed with status: " + string(status) + ". Details: boom"
		if res.Text() != want {
			t.Fatalf("got %q want %q", res.Text(), want)
		}
	}
}

func TestRunFallsBackToReasoningSummary(t *testing.T) {
	svc := &fakeService{
		statuses: []models.JobStatus{models.JobCompleted},
		output: []models.OutputItem{
			{Type: "web_search_call"},
			{Type: "reasoning", Summary: []models.ContentPart{{Type: "summary_text", Text: "step one"}, {Type: "summary_text", Text: "step two"}}},
		},
	}
	res, err := newTestPoller(svc, 5, nil).Run(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Text() != "step one\nstep two" {
		t.Fatalf("unexpected text %q", res.Text())
	}
}

func TestRunEmptyOutput(t *testing.T) {
	svc := &fakeService{statuses: []models.JobStatus{models.JobCompleted}}
	res, err := newTestPoller(svc, 5, nil).Run(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failure != FailureEmptyOutput {
		t.Fatalf("expected empty output failure, got %+v", res)
	}
	if res.Text() != "Error: No text output found in completed response." {
		t.Fatalf("unexpected sentinel %q", res.Text())
	}
}

func TestRunCreateErrorIsFatal(t *testing.T) {
	svc := &fakeService{createErr: errors.New("connection refused")}
	_, err := newTestPoller(svc, 5, nil).Run(context.Background(), "sys", "user")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected create error, got %v", err)
	}
	if svc.polls != 0 {
		t.Fatalf("no polls expected after a failed create")
	}
}

func TestRunWritesDebugCapture(t *testing.T) {
	file := filepath.Join(t.TempDir(), "last_status.json")
	svc := &fakeService{statuses: []models.JobStatus{models.JobCompleted}, output: assistant("ok")}
	p := NewPoller(svc, Config{Polling: config.PollingConfig{MaxCycles: 3, Debug: true, DebugFile: file}})
	if _, err := p.Run(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("debug file not written: %v", err)
	}
	if !strings.Contains(string(b), `"completed"`) {
		t.Fatalf("unexpected debug payload %s", b)
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewPollerDefaults(t *testing.T) {
	p := NewPoller(&fakeService{}, Config{})
	cfg := p.Config()
	if cfg.Model != config.DefaultModel || cfg.Polling.MaxCycles != config.DefaultMaxPollCycles {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}
