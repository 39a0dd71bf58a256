// Package eligibility implements the time-window rules that decide which
// entities are currently inside a notification kind's eligibility window.
//
// All windows are half-open intervals [After, Before) over the entity's
// reference timestamp. Jobs run on a coarse schedule, so every rule matches a
// range around its ideal offset rather than an exact tick; a late run still
// catches entities whose moment has slightly passed.
package eligibility

import (
	"fmt"
	"time"

	"accord/internal/types"
)

const day = 24 * time.Hour

// halfWindow is the slack applied on each side of a fixed-offset reminder
// (e.g. "expires in 1 day" matches expiry between 12h and 36h out).
const halfWindow = 12 * time.Hour

// Window is a half-open time interval [After, Before) applied to an entity's
// reference timestamp.
type Window struct {
	After  time.Time
	Before time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.After) && t.Before(w.Before)
}

// Overlaps reports whether two windows share any instant.
func (w Window) Overlaps(o Window) bool {
	return w.After.Before(o.Before) && o.After.Before(w.Before)
}

// Tier is an inactivity bucket expressed as a day range [FromDays, ToDays).
type Tier struct {
	Kind     types.NotificationKind
	FromDays int
	ToDays   int
}

// InactivityTiers are the inactivity reminder buckets. The ranges are
// deliberately non-adjacent so a profile can never sit in two tiers at once;
// ValidateTiers enforces this at startup and in tests.
var InactivityTiers = []Tier{
	{Kind: types.KindInactiveReminder, FromDays: 3, ToDays: 5},
	{Kind: types.KindInactiveReminder, FromDays: 7, ToDays: 10},
	{Kind: types.KindInactiveReminder, FromDays: 14, ToDays: 21},
}

// Window converts the tier's day range into a last_active_at window
// [now - ToDays·24h, now - FromDays·24h). A profile inactive for d days
// falls inside it when FromDays < d <= ToDays.
func (t Tier) Window(now time.Time) Window {
	return Window{
		After:  now.Add(-time.Duration(t.ToDays) * day),
		Before: now.Add(-time.Duration(t.FromDays) * day),
	}
}

// ValidateTiers checks that no two tiers overlap. A profile's last_active_at
// must match at most one tier for any fixed now.
func ValidateTiers(tiers []Tier) error {
	now := time.Unix(0, 0).UTC() // any fixed instant works; windows shift uniformly
	for i := 0; i < len(tiers); i++ {
		for j := i + 1; j < len(tiers); j++ {
			if tiers[i].Window(now).Overlaps(tiers[j].Window(now)) {
				return fmt.Errorf("inactivity tiers [%d,%d) and [%d,%d) overlap",
					tiers[i].FromDays, tiers[i].ToDays, tiers[j].FromDays, tiers[j].ToDays)
			}
		}
	}
	return nil
}

// TrialStartWindow returns the started_at window for trial reminders keyed to
// days since the trial began: the welcome lands one day in, the engagement
// nudge three days in.
func TrialStartWindow(kind types.NotificationKind, now time.Time) (Window, error) {
	switch kind {
	case types.KindTrialDay1Welcome:
		return offsetWindow(now, -1*day), nil
	case types.KindTrialEngagement:
		return offsetWindow(now, -3*day), nil
	}
	return Window{}, fmt.Errorf("kind %q has no trial start window", kind)
}

// TrialExpiryWindow returns the expires_at window for trial expiry countdown
// reminders.
func TrialExpiryWindow(kind types.NotificationKind, now time.Time) (Window, error) {
	switch kind {
	case types.KindTrialExpiring3Days:
		return offsetWindow(now, 3*day), nil
	case types.KindTrialExpiring1Day:
		return offsetWindow(now, 1*day), nil
	}
	return Window{}, fmt.Errorf("kind %q has no trial expiry window", kind)
}

// MatchNoticeWindow returns the expires_at window for a match expiration
// notice. The final notice window extends back to now so a late run still
// catches matches about to expire.
func MatchNoticeWindow(kind types.NotificationKind, now time.Time) (Window, error) {
	switch kind {
	case types.KindMatchExpiring5Days:
		return offsetWindow(now, 5*day), nil
	case types.KindMatchExpiring3Days:
		return offsetWindow(now, 3*day), nil
	case types.KindMatchExpiring1Day:
		return Window{After: now, Before: now.Add(day + halfWindow)}, nil
	}
	return Window{}, fmt.Errorf("kind %q has no match notice window", kind)
}

// OnboardingWindow returns the created_at window for the onboarding reminder:
// profiles that signed up between one and three days ago and have not
// finished onboarding.
func OnboardingWindow(now time.Time) Window {
	return Window{
		After:  now.Add(-3 * day),
		Before: now.Add(-1 * day),
	}
}

// SwipeActivityCutoff returns the last_active_at lower bound for the
// swipe-refresh push: only recently active free profiles are worth waking.
func SwipeActivityCutoff(now time.Time) time.Time {
	return now.Add(-7 * day)
}

// offsetWindow builds the window [now+offset-12h, now+offset+12h).
func offsetWindow(now time.Time, offset time.Duration) Window {
	center := now.Add(offset)
	return Window{
		After:  center.Add(-halfWindow),
		Before: center.Add(halfWindow),
	}
}

// DaysUntil returns the whole number of days from now until t, rounding to
// the nearest day. Used to stamp DaysRemaining into payloads.
func DaysUntil(now, t time.Time) int {
	return int(t.Sub(now).Round(day) / day)
}

// DaysSince returns the whole number of days elapsed since t, truncated.
func DaysSince(now, t time.Time) int {
	if t.After(now) {
		return 0
	}
	return int(now.Sub(t) / day)
}
