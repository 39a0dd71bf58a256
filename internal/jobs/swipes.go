package jobs

import (
	"context"
	"time"

	"accord/internal/notify/dedup"
	"accord/internal/notify/dispatch"
	"accord/internal/notify/eligibility"
	"accord/internal/notify/render"
	"accord/internal/types"
)

// SwipeRefreshJob tells recently active free-tier profiles that their daily
// swipe allowance has reset. Push only, once per UTC day per profile.
type SwipeRefreshJob struct {
	selector *eligibility.Selector
	gate     *dedup.Gate
	writer   *dispatch.Writer
	logger   types.Logger
}

// NewSwipeRefreshJob creates the swipe refresh job.
func NewSwipeRefreshJob(selector *eligibility.Selector, gate *dedup.Gate, writer *dispatch.Writer, logger types.Logger) *SwipeRefreshJob {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &SwipeRefreshJob{selector: selector, gate: gate, writer: writer, logger: logger}
}

func (j *SwipeRefreshJob) Name() string { return "swipe-refresh" }

// Run processes every recently active free profile.
func (j *SwipeRefreshJob) Run(ctx context.Context, now time.Time) RunReport {
	report := RunReport{Job: j.Name(), Success: true}
	kind := types.KindSwipesRefreshed

	profiles, err := j.selector.SwipeRefreshCandidates(ctx, now)
	if err != nil {
		return failedRun(j.Name(), 0, 0, 0, 0, err)
	}

	for _, profile := range profiles {
		if !profile.KindEnabled(kind) {
			report.Skipped++
			continue
		}

		key := dedup.DailyKey(now)
		if !j.gate.ShouldSend(ctx, profile.ID, kind, key) {
			report.Skipped++
			continue
		}

		content := render.Render(kind, profile.Locale, render.Args{Name: profile.DisplayName})
		queued, err := j.writer.QueuePush(ctx, dispatch.Notice{
			Profile:       profile,
			Kind:          kind,
			Title:         content.Title,
			Body:          content.Body,
			Payload:       types.SwipesPayload{RefreshedAt: now},
			OccurrenceKey: key,
		})
		if err != nil {
			j.logger.Error("swipe refresh push failed for profile",
				"profile_id", profile.ID, "error", err.Error())
			report.Errors++
			continue
		}
		report.TotalQueued += queued
		if queued == 0 {
			report.Skipped++
		}
	}
	return report
}
