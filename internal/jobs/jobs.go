// Package jobs contains the one-shot scheduled tasks of the notification
// engine. Every job follows the same shape: select the entities inside its
// eligibility window, pass each through the dedup gate, render content, write
// dispatch records (and send email where the kind has an email leg), and
// report counts. A job run is stateless; nothing survives between
// invocations except what is written to the store.
package jobs

import (
	"context"
	"fmt"
	"time"

	"accord/internal/external"
	"accord/internal/notify/dispatch"
	"accord/internal/types"
)

// RunReport is the outcome of one job invocation. It serializes directly
// into the HTTP trigger response.
type RunReport struct {
	Job         string `json:"job"`
	Success     bool   `json:"success"`
	TotalQueued int    `json:"totalQueued"`
	EmailsSent  int    `json:"emailsSent,omitempty"`
	Skipped     int    `json:"skipped"`
	Errors      int    `json:"errors"`
	Error       string `json:"error,omitempty"`
}

// Job is a one-shot scheduled task. Run receives the single now resolved for
// the whole invocation; implementations must not consult the wall clock
// themselves.
type Job interface {
	Name() string
	Run(ctx context.Context, now time.Time) RunReport
}

// Registry resolves job names for the HTTP trigger and the Lambda runner.
type Registry struct {
	jobs  map[string]Job
	names []string
}

// NewRegistry creates a Registry over the given jobs.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		r.jobs[j.Name()] = j
		r.names = append(r.names, j.Name())
	}
	return r
}

// Get returns the job registered under name.
func (r *Registry) Get(name string) (Job, bool) {
	j, ok := r.jobs[name]
	return j, ok
}

// Names returns the registered job names in registration order.
func (r *Registry) Names() []string {
	return r.names
}

// Runner executes a registered job with the shared run plumbing: one clock
// read per run, run metrics, and the dispatch queue kick when records were
// queued.
type Runner struct {
	registry *Registry
	metrics  external.MetricsPublisher
	kicker   *dispatch.Kicker
	clock    types.Clock
	logger   types.Logger
}

// NewRunner creates a Runner.
func NewRunner(registry *Registry, metrics external.MetricsPublisher, kicker *dispatch.Kicker, clock types.Clock, logger types.Logger) *Runner {
	if logger == nil {
		logger = types.NopLogger{}
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if metrics == nil {
		metrics = external.NopMetrics{}
	}
	return &Runner{registry: registry, metrics: metrics, kicker: kicker, clock: clock, logger: logger}
}

// Run executes the named job. Returns ErrCodeNotFoundJob for unknown names.
func (r *Runner) Run(ctx context.Context, name string) (RunReport, error) {
	job, ok := r.registry.Get(name)
	if !ok {
		return RunReport{}, types.NewAppError(types.ErrCodeNotFoundJob,
			fmt.Sprintf("no job registered under %q", name), nil)
	}

	now := r.clock.Now()
	log := r.logger.With("job", name)
	log.Info("job run starting", "now", now.Format(time.RFC3339))

	report := job.Run(ctx, now)

	r.metrics.PublishRunMetrics(ctx, name, report.TotalQueued, report.Skipped, report.Errors)
	if r.kicker != nil {
		r.kicker.Kick(ctx, name, report.TotalQueued, now)
	}

	if report.Success {
		log.Info("job run complete",
			"queued", report.TotalQueued, "emails_sent", report.EmailsSent,
			"skipped", report.Skipped, "errors", report.Errors)
	} else {
		log.Error("job run failed", "error", report.Error)
	}
	return report, nil
}

// ProfileGetter resolves recipients for jobs whose selector returns entities
// other than profiles.
type ProfileGetter interface {
	GetByID(ctx context.Context, id string) (*types.Profile, error)
}

// ActivityReader computes the engagement counts that feed rendered copy.
type ActivityReader interface {
	StatsSince(ctx context.Context, profileID string, since time.Time) (types.ActivityStats, error)
}

// failedRun builds the report for an aborted run (selector failure). Work
// already written stays written; the next scheduled run re-evaluates from
// scratch.
func failedRun(name string, queued, emails, skipped, errs int, err error) RunReport {
	return RunReport{
		Job:         name,
		Success:     false,
		TotalQueued: queued,
		EmailsSent:  emails,
		Skipped:     skipped,
		Errors:      errs,
		Error:       err.Error(),
	}
}
