// Package jobs drives long-running background generations: one create call,
// then status polls until the job settles or the cycle budget runs out.
package jobs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mohammad-safakhou/horizon/config"
	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/provider"
)

// WebSearchTool is the hosted tool every research job is allowed to use.
const WebSearchTool = "web_search_preview"

// SleepFunc waits between polls. It returns early with ctx.Err() when ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Runner is what callers of the poller depend on.
type Runner interface {
	Run(ctx context.Context, developerPrompt, userPrompt string) (Result, error)
}

// Config is fixed at construction and never mutated by the poller.
type Config struct {
	Model   string
	Polling config.PollingConfig
}

// Poller runs one job per Run call. It holds no per-run state, so a single
// Poller may be shared by concurrent callers.
type Poller struct {
	service provider.JobService
	cfg     Config
	log     *logging.Logger
	metrics *telemetry.Metrics
	sleep   SleepFunc
}

type Option func(*Poller)

// WithLogger attaches an event logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// WithMetrics attaches job counters.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithSleep replaces the wait between polls.
func WithSleep(s SleepFunc) Option {
	return func(p *Poller) { p.sleep = s }
}

func NewPoller(service provider.JobService, cfg Config, opts ...Option) *Poller {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = config.DefaultModel
	}
	cfg.Polling = cfg.Polling.Normalize()
	p := &Poller{service: service, cfg: cfg, sleep: Sleep}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the effective configuration.
func (p *Poller) Config() Config {
	return p.cfg
}

// Run creates a background job from the two prompts and waits for it. Only
// transport failures and context cancellation are returned as errors; a job
// that fails, is cancelled, times out or yields no text is reported through
// Result.Failure.
func (p *Poller) Run(ctx context.Context, developerPrompt, userPrompt string) (Result, error) {
	id, err := p.service.CreateJob(ctx, models.JobRequest{
		Model:           p.cfg.Model,
		DeveloperPrompt: developerPrompt,
		UserPrompt:      userPrompt,
		Tools:           []string{WebSearchTool},
		Background:      true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create job: %w", err)
	}
	p.log.Event("job_created", "job_id", id, "model", p.cfg.Model)

	maxCycles := p.cfg.Polling.MaxCycles
	var last models.JobStatus
	for cycle := 1; cycle <= maxCycles; cycle++ {
		job, err := p.service.GetJob(ctx, id)
		if err != nil {
			return Result{}, fmt.Errorf("poll job %s: %w", id, err)
		}
		p.metrics.JobPolled()
		if job.Status != last {
			p.log.Event("job_status", "job_id", id, "status", string(job.Status), "cycle", cycle)
			last = job.Status
		}

		if job.Status.Terminal() {
			res := p.settle(job, cycle)
			res.JobID = id
			return res, nil
		}

		if cycle < maxCycles {
			if err := p.sleep(ctx, p.cfg.Polling.Interval); err != nil {
				return Result{}, err
			}
		}
	}

	p.log.Event("job_timeout", "job_id", id, "cycles", maxCycles)
	p.metrics.JobFinished(string(FailureTimedOut))
	return Result{JobID: id, Status: last, Failure: FailureTimedOut, Polls: maxCycles}, nil
}

func (p *Poller) settle(job models.Job, polls int) Result {
	res := Result{Status: job.Status, Polls: polls}
	switch job.Status {
	case models.JobCompleted:
		if p.cfg.Polling.Debug {
			p.capture(job)
		}
		res.Output = ExtractText(job.Output)
		if strings.TrimSpace(res.Output) == "" {
			res.Failure = FailureEmptyOutput
		}
	case models.JobCancelled:
		res.Failure = FailureCancelled
	default:
		res.Failure = FailureFailed
	}
	if job.Error != nil {
		res.Detail = job.Error.Message
	}

	outcome := "completed"
	if !res.OK() {
		outcome = string(res.Failure)
		p.log.Event("job_failed", "job_id", job.ID, "status", string(job.Status), "failure", outcome, "detail", res.Detail)
	}
	p.metrics.JobFinished(outcome)
	return res
}

// capture stores the last raw status payload; write errors are only logged.
func (p *Poller) capture(job models.Job) {
	if len(job.Raw) == 0 {
		return
	}
	if err := os.WriteFile(p.cfg.Polling.DebugFile, job.Raw, 0o644); err != nil {
		p.log.Warn("debug capture failed", "file", p.cfg.Polling.DebugFile, "error", err)
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
