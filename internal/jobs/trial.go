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

// TrialDeps bundles the dependencies shared by the two trial jobs.
type TrialDeps struct {
	Selector *eligibility.Selector
	Gate     *dedup.Gate
	Writer   *dispatch.Writer
	Profiles ProfileGetter
	Activity ActivityReader
	Logger   types.Logger
}

// TrialEngagementJob sends the day-1 welcome and day-3 engagement pushes to
// profiles on an active trial, keyed off the trial's start time.
type TrialEngagementJob struct {
	deps TrialDeps
}

// NewTrialEngagementJob creates the trial engagement job.
func NewTrialEngagementJob(deps TrialDeps) *TrialEngagementJob {
	if deps.Logger == nil {
		deps.Logger = types.NopLogger{}
	}
	return &TrialEngagementJob{deps: deps}
}

func (j *TrialEngagementJob) Name() string { return "trial-engagement" }

// Run processes the welcome and engagement kinds in sequence.
func (j *TrialEngagementJob) Run(ctx context.Context, now time.Time) RunReport {
	return runTrialKinds(ctx, j.Name(), j.deps, now,
		types.KindTrialDay1Welcome, types.KindTrialEngagement)
}

// TrialExpiryJob sends the 3-day and 1-day trial expiry countdown pushes,
// keyed off the trial's expiry time.
type TrialExpiryJob struct {
	deps TrialDeps
}

// NewTrialExpiryJob creates the trial expiry job.
func NewTrialExpiryJob(deps TrialDeps) *TrialExpiryJob {
	if deps.Logger == nil {
		deps.Logger = types.NopLogger{}
	}
	return &TrialExpiryJob{deps: deps}
}

func (j *TrialExpiryJob) Name() string { return "trial-expiry" }

// Run processes the two countdown kinds in sequence.
func (j *TrialExpiryJob) Run(ctx context.Context, now time.Time) RunReport {
	return runTrialKinds(ctx, j.Name(), j.deps, now,
		types.KindTrialExpiring3Days, types.KindTrialExpiring1Day)
}

// runTrialKinds is the shared select→gate→render→dispatch loop for trial
// kinds. A selector failure aborts the run; per-subscription failures are
// counted and the loop continues.
func runTrialKinds(ctx context.Context, name string, deps TrialDeps, now time.Time, kinds ...types.NotificationKind) RunReport {
	report := RunReport{Job: name, Success: true}

	for _, kind := range kinds {
		subs, err := deps.Selector.TrialCandidates(ctx, kind, now)
		if err != nil {
			return failedRun(name, report.TotalQueued, 0, report.Skipped, report.Errors, err)
		}

		for _, sub := range subs {
			queued, skipped, err := processTrialCandidate(ctx, deps, sub, kind, now)
			if err != nil {
				deps.Logger.Error("trial reminder failed for subscription",
					"profile_id", sub.ProfileID, "kind", string(kind), "error", err.Error())
				report.Errors++
				continue
			}
			report.TotalQueued += queued
			if skipped {
				report.Skipped++
			}
		}
	}
	return report
}

// processTrialCandidate runs one subscription through gate, render, and
// dispatch. Returns the number of queue rows written and whether the
// candidate was skipped by preferences or dedup.
func processTrialCandidate(ctx context.Context, deps TrialDeps, sub *types.Subscription, kind types.NotificationKind, now time.Time) (int, bool, error) {
	profile, err := deps.Profiles.GetByID(ctx, sub.ProfileID)
	if err != nil {
		return 0, false, err
	}
	if profile.Status != types.ProfileActive || !profile.KindEnabled(kind) {
		return 0, true, nil
	}

	key := dedup.DailyKey(now)
	if !deps.Gate.ShouldSend(ctx, profile.ID, kind, key) {
		return 0, true, nil
	}

	stats, err := deps.Activity.StatsSince(ctx, profile.ID, sub.StartedAt)
	if err != nil {
		return 0, false, err
	}

	daysRemaining := eligibility.DaysUntil(now, sub.ExpiresAt)
	payload, err := types.NewTrialPayload(kind, types.TrialPayload{
		Tier:          sub.Tier,
		ExpiresAt:     sub.ExpiresAt,
		DaysRemaining: daysRemaining,
		LikesReceived: stats.LikesReceived,
		MatchesMade:   stats.MatchesMade,
	})
	if err != nil {
		return 0, false, err
	}

	content := render.Render(kind, profile.Locale, render.Args{
		Name:          profile.DisplayName,
		DaysRemaining: daysRemaining,
		LikesReceived: stats.LikesReceived,
		MatchesMade:   stats.MatchesMade,
	})

	queued, err := deps.Writer.QueuePush(ctx, dispatch.Notice{
		Profile:       profile,
		Kind:          kind,
		Title:         content.Title,
		Body:          content.Body,
		Payload:       payload,
		OccurrenceKey: key,
	})
	return queued, queued == 0, err
}
