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

// MatchClaimer is the slice of the match repository the expiry job uses for
// milestone dedup. The claim flips the per-match notice flag; the flip is
// atomic, so overlapping runs cannot both claim the same notice.
type MatchClaimer interface {
	ClaimNotice(ctx context.Context, matchID string, kind types.NotificationKind) (bool, error)
	ReleaseNotice(ctx context.Context, matchID string, kind types.NotificationKind) error
}

// MatchExpirationJob sends the 5/3/1-day countdown notices for matches where
// neither side has sent a message. Both participants are notified. Dedup is
// flag-based on the match row rather than ledger-based: the notice is
// inherently one-shot per match.
type MatchExpirationJob struct {
	selector *eligibility.Selector
	writer   *dispatch.Writer
	profiles ProfileGetter
	matches  MatchClaimer
	email    *email.Sender
	logger   types.Logger
}

// NewMatchExpirationJob creates the match expiration job.
func NewMatchExpirationJob(selector *eligibility.Selector, writer *dispatch.Writer, profiles ProfileGetter, matches MatchClaimer, sender *email.Sender, logger types.Logger) *MatchExpirationJob {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &MatchExpirationJob{
		selector: selector,
		writer:   writer,
		profiles: profiles,
		matches:  matches,
		email:    sender,
		logger:   logger,
	}
}

func (j *MatchExpirationJob) Name() string { return "match-expiration" }

var matchNoticeKinds = []types.NotificationKind{
	types.KindMatchExpiring5Days,
	types.KindMatchExpiring3Days,
	types.KindMatchExpiring1Day,
}

// Run processes the three notice kinds in sequence.
func (j *MatchExpirationJob) Run(ctx context.Context, now time.Time) RunReport {
	report := RunReport{Job: j.Name(), Success: true}

	for _, kind := range matchNoticeKinds {
		matches, err := j.selector.ExpiringMatches(ctx, kind, now)
		if err != nil {
			return failedRun(j.Name(), report.TotalQueued, report.EmailsSent, report.Skipped, report.Errors, err)
		}

		for _, match := range matches {
			queued, emailed, skipped, err := j.processMatch(ctx, match, kind, now)
			if err != nil {
				j.logger.Error("match notice failed",
					"match_id", match.ID, "kind", string(kind), "error", err.Error())
				report.Errors++
			}
			report.TotalQueued += queued
			report.EmailsSent += emailed
			if skipped {
				report.Skipped++
			}
		}
	}
	return report
}

// processMatch claims the notice flag and, on success, notifies both
// participants. The claim is released only when nothing at all was queued,
// so the next run retries; once any participant's notice is written, partial
// progress stands.
func (j *MatchExpirationJob) processMatch(ctx context.Context, match *types.Match, kind types.NotificationKind, now time.Time) (queued, emailed int, skipped bool, err error) {
	claimed, err := j.matches.ClaimNotice(ctx, match.ID, kind)
	if err != nil {
		return 0, 0, false, err
	}
	if !claimed {
		return 0, 0, true, nil
	}

	var firstErr error
	participants := match.Participants()
	for i, profileID := range participants {
		otherID := participants[1-i]
		n, e, perr := j.notifyParticipant(ctx, match, kind, profileID, otherID, now)
		if perr != nil && firstErr == nil {
			firstErr = perr
		}
		queued += n
		emailed += e
	}

	if queued == 0 && firstErr != nil {
		// Nothing reached the queue; hand the notice back for the next run.
		if relErr := j.matches.ReleaseNotice(ctx, match.ID, kind); relErr != nil {
			j.logger.Error("failed to release match notice claim",
				"match_id", match.ID, "kind", string(kind), "error", relErr.Error())
		}
		return 0, 0, false, firstErr
	}
	return queued, emailed, false, firstErr
}

func (j *MatchExpirationJob) notifyParticipant(ctx context.Context, match *types.Match, kind types.NotificationKind, profileID, otherID string, now time.Time) (int, int, error) {
	profile, err := j.profiles.GetByID(ctx, profileID)
	if err != nil {
		return 0, 0, err
	}
	if profile.Status != types.ProfileActive || !profile.KindEnabled(kind) {
		return 0, 0, nil
	}

	other, err := j.profiles.GetByID(ctx, otherID)
	if err != nil {
		return 0, 0, err
	}

	expiresAt := now
	if match.ExpiresAt != nil {
		expiresAt = *match.ExpiresAt
	}
	daysRemaining := eligibility.DaysUntil(now, expiresAt)

	payload, err := types.NewMatchExpiryPayload(kind, types.MatchExpiryPayload{
		MatchID:        match.ID,
		OtherProfileID: other.ID,
		OtherName:      other.DisplayName,
		ExpiresAt:      expiresAt,
		DaysRemaining:  daysRemaining,
	})
	if err != nil {
		return 0, 0, err
	}

	content := render.Render(kind, profile.Locale, render.Args{
		Name:          profile.DisplayName,
		OtherName:     other.DisplayName,
		DaysRemaining: daysRemaining,
	})

	queued, err := j.writer.QueuePush(ctx, dispatch.Notice{
		Profile:       profile,
		Kind:          kind,
		Title:         content.Title,
		Body:          content.Body,
		Payload:       payload,
		OccurrenceKey: dedup.MilestoneKey(match.ID),
	})
	if err != nil {
		return 0, 0, err
	}

	emailed := 0
	// Only the final notice gets an email leg; the earlier countdowns stay
	// push-only.
	if j.email != nil && kind == types.KindMatchExpiring1Day {
		status, sendErr := j.email.Send(ctx, profile, types.EmailCategoryMatch, email.Variant{
			Subject:  content.Title,
			Heading:  content.Title,
			Lede:     content.Body,
			CTALabel: "Send a message",
			CTAURL:   "https://accord.app/matches/" + match.ID,
		}, now)
		if sendErr != nil {
			return queued, 0, sendErr
		}
		if status == types.EmailSent {
			emailed = 1
		}
	}
	return queued, emailed, nil
}
