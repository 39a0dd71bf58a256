package jobs

import (
	"context"
	"time"

	"accord/internal/billing"
)

// PriceSyncJob adapts the billing price syncer to the Job interface so it
// shares the trigger, metrics, and reporting plumbing with the reminder jobs.
type PriceSyncJob struct {
	syncer *billing.PriceSyncer
}

// NewPriceSyncJob creates the price sync job.
func NewPriceSyncJob(syncer *billing.PriceSyncer) *PriceSyncJob {
	return &PriceSyncJob{syncer: syncer}
}

func (j *PriceSyncJob) Name() string { return "price-sync" }

// Run refreshes the mirrored catalog. Synced row count is reported through
// TotalQueued for lack of a better slot; the run metrics treat it the same.
func (j *PriceSyncJob) Run(ctx context.Context, now time.Time) RunReport {
	synced, errs := j.syncer.Sync(ctx)
	return RunReport{
		Job:         j.Name(),
		Success:     true,
		TotalQueued: synced,
		Errors:      errs,
	}
}
