package jobs

import (
	"context"
	"fmt"
	"time"

	"accord/internal/notify/dedup"
	"accord/internal/notify/dispatch"
	"accord/internal/notify/eligibility"
	"accord/internal/notify/email"
	"accord/internal/notify/render"
	"accord/internal/types"
)

// InactivityJob nudges profiles that have gone quiet. Each tier window gets
// one push per day at most; the push is paired with an inactivity email,
// which the sender's 72h category cooldown keeps from over-firing even
// though the profile re-qualifies daily inside a tier.
type InactivityJob struct {
	selector *eligibility.Selector
	gate     *dedup.Gate
	writer   *dispatch.Writer
	activity ActivityReader
	email    *email.Sender
	logger   types.Logger
}

// NewInactivityJob creates the inactivity reminder job.
func NewInactivityJob(selector *eligibility.Selector, gate *dedup.Gate, writer *dispatch.Writer, activity ActivityReader, sender *email.Sender, logger types.Logger) *InactivityJob {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &InactivityJob{
		selector: selector,
		gate:     gate,
		writer:   writer,
		activity: activity,
		email:    sender,
		logger:   logger,
	}
}

func (j *InactivityJob) Name() string { return "inactivity" }

// Run selects every tier's candidates and processes them sequentially.
func (j *InactivityJob) Run(ctx context.Context, now time.Time) RunReport {
	report := RunReport{Job: j.Name(), Success: true}

	candidates, err := j.selector.InactiveCandidates(ctx, now)
	if err != nil {
		return failedRun(j.Name(), 0, 0, 0, 0, err)
	}

	for _, c := range candidates {
		queued, emailed, skipped, err := j.process(ctx, c, now)
		if err != nil {
			j.logger.Error("inactivity reminder failed for profile",
				"profile_id", c.Profile.ID, "error", err.Error())
			report.Errors++
			continue
		}
		report.TotalQueued += queued
		report.EmailsSent += emailed
		if skipped {
			report.Skipped++
		}
	}
	return report
}

func (j *InactivityJob) process(ctx context.Context, c eligibility.InactiveCandidate, now time.Time) (queued, emailed int, skipped bool, err error) {
	profile := c.Profile
	kind := types.KindInactiveReminder

	if !profile.KindEnabled(kind) {
		return 0, 0, true, nil
	}

	// The selector query excludes null last_active_at, but a profile without
	// one can never be inside a tier window.
	if profile.LastActiveAt == nil {
		return 0, 0, true, nil
	}

	key := dedup.DailyKey(now)
	if !j.gate.ShouldSend(ctx, profile.ID, kind, key) {
		return 0, 0, true, nil
	}

	lastActive := *profile.LastActiveAt
	stats, err := j.activity.StatsSince(ctx, profile.ID, lastActive)
	if err != nil {
		return 0, 0, false, err
	}

	daysInactive := eligibility.DaysSince(now, lastActive)
	content := render.Render(kind, profile.Locale, render.Args{
		Name:         profile.DisplayName,
		DaysInactive: daysInactive,
		NewLikes:     stats.LikesReceived,
	})

	queued, err = j.writer.QueuePush(ctx, dispatch.Notice{
		Profile: profile,
		Kind:    kind,
		Title:   content.Title,
		Body:    content.Body,
		Payload: types.InactivityPayload{
			LastActiveAt: lastActive,
			DaysInactive: daysInactive,
			NewLikes:     stats.LikesReceived,
		},
		OccurrenceKey: key,
	})
	if err != nil {
		return 0, 0, false, err
	}

	if j.email != nil {
		status, sendErr := j.email.Send(ctx, profile, types.EmailCategoryInactivity, inactivityVariant(content, stats, daysInactive), now)
		if sendErr != nil {
			// The sender already logged the outcome; count it and keep the
			// push result.
			return queued, 0, false, sendErr
		}
		if status == types.EmailSent {
			emailed = 1
		}
	}
	return queued, emailed, queued == 0, nil
}

// inactivityVariant builds the email content variant from the rendered push
// copy and the activity counts.
func inactivityVariant(content render.Content, stats types.ActivityStats, daysInactive int) email.Variant {
	var statLines []string
	if stats.LikesReceived > 0 {
		statLines = append(statLines, fmt.Sprintf("New likes since your last visit: %d", stats.LikesReceived))
	}
	if stats.MatchesMade > 0 {
		statLines = append(statLines, fmt.Sprintf("New matches waiting: %d", stats.MatchesMade))
	}
	if stats.Messages > 0 {
		statLines = append(statLines, fmt.Sprintf("Unread messages: %d", stats.Messages))
	}
	return email.Variant{
		Subject:   content.Title,
		Heading:   content.Title,
		Lede:      content.Body,
		StatLines: statLines,
		CTALabel:  "Open Accord",
		CTAURL:    "https://accord.app/open",
	}
}
