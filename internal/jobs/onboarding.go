package jobs

import (
	"context"
	"time"

	"accord/internal/notify/dedup"
	"accord/internal/notify/dispatch"
	"accord/internal/notify/eligibility"
	"accord/internal/notify/email"
	"accord/internal/notify/render"
	"accord/internal/types"
)

// OnboardingJob reminds fresh signups that never finished setting up their
// profile. Push plus an onboarding-category email; the email's 48h cooldown
// means a profile sitting in the 48h-wide window gets at most one email even
// though the push can recur daily.
type OnboardingJob struct {
	selector *eligibility.Selector
	gate     *dedup.Gate
	writer   *dispatch.Writer
	email    *email.Sender
	logger   types.Logger
}

// NewOnboardingJob creates the onboarding reminder job.
func NewOnboardingJob(selector *eligibility.Selector, gate *dedup.Gate, writer *dispatch.Writer, sender *email.Sender, logger types.Logger) *OnboardingJob {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &OnboardingJob{selector: selector, gate: gate, writer: writer, email: sender, logger: logger}
}

func (j *OnboardingJob) Name() string { return "onboarding" }

// Run processes every profile in the onboarding reminder window.
func (j *OnboardingJob) Run(ctx context.Context, now time.Time) RunReport {
	report := RunReport{Job: j.Name(), Success: true}
	kind := types.KindOnboardingReminder

	profiles, err := j.selector.OnboardingCandidates(ctx, now)
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

		daysSinceJoin := eligibility.DaysSince(now, profile.CreatedAt)
		content := render.Render(kind, profile.Locale, render.Args{Name: profile.DisplayName})

		queued, err := j.writer.QueuePush(ctx, dispatch.Notice{
			Profile: profile,
			Kind:    kind,
			Title:   content.Title,
			Body:    content.Body,
			Payload: types.OnboardingPayload{
				SignedUpAt:    profile.CreatedAt,
				DaysSinceJoin: daysSinceJoin,
			},
			OccurrenceKey: key,
		})
		if err != nil {
			j.logger.Error("onboarding reminder failed for profile",
				"profile_id", profile.ID, "error", err.Error())
			report.Errors++
			continue
		}
		report.TotalQueued += queued
		if queued == 0 {
			report.Skipped++
		}

		if j.email != nil {
			status, sendErr := j.email.Send(ctx, profile, types.EmailCategoryOnboarding, email.Variant{
				Subject:  content.Title,
				Heading:  content.Title,
				Lede:     content.Body,
				CTALabel: "Complete your profile",
				CTAURL:   "https://accord.app/onboarding",
			}, now)
			if sendErr != nil {
				report.Errors++
				continue
			}
			if status == types.EmailSent {
				report.EmailsSent++
			}
		}
	}
	return report
}
