package jobs

import (
	"context"
	"testing"
	"time"

	"accord/internal/notify/dedup"
	"accord/internal/notify/dispatch"
	"accord/internal/notify/eligibility"
	"accord/internal/types"
)

// windowedProfileLister filters its profiles by the requested window, the way
// the real repository query does. The same lister backs all three selector
// queries.
type windowedProfileLister struct {
	inactive   []*types.Profile
	onboarding []*types.Profile
	swipes     []*types.Profile
}

func (f *windowedProfileLister) ListInactive(ctx context.Context, after, before time.Time, limit int) ([]*types.Profile, error) {
	var out []*types.Profile
	for _, p := range f.inactive {
		if p.LastActiveAt != nil && !p.LastActiveAt.Before(after) && p.LastActiveAt.Before(before) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *windowedProfileLister) ListIncompleteOnboarding(ctx context.Context, after, before time.Time, limit int) ([]*types.Profile, error) {
	var out []*types.Profile
	for _, p := range f.onboarding {
		if !p.CreatedAt.Before(after) && p.CreatedAt.Before(before) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *windowedProfileLister) ListSwipeRefreshCandidates(ctx context.Context, activeSince time.Time, limit int) ([]*types.Profile, error) {
	var out []*types.Profile
	for _, p := range f.swipes {
		if p.LastActiveAt != nil && p.LastActiveAt.After(activeSince) {
			out = append(out, p)
		}
	}
	return out, nil
}

func inactiveProfile(daysAgo int) *types.Profile {
	lastActive := runNow.Add(-time.Duration(daysAgo)*24*time.Hour - 6*time.Hour)
	return &types.Profile{
		ID:           "prf_1",
		DisplayName:  "Sam",
		Status:       types.ProfileActive,
		PushEnabled:  true,
		PushToken:    "tok_1",
		LastActiveAt: &lastActive,
	}
}

func newInactivityJob(lister *windowedProfileLister, queue *fakeQueue, seen bool) *InactivityJob {
	selector := eligibility.NewSelector(lister, nopTrialLister{}, nopMatchLister{}, 100)
	gate := dedup.NewGate(&fakeDedupLedger{exists: seen}, nil)
	writer := dispatch.NewWriter(queue, noDeviceTokens{}, nil)
	activity := &fakeActivity{stats: types.ActivityStats{LikesReceived: 3}}
	return NewInactivityJob(selector, gate, writer, activity, nil, nil)
}

func TestInactivityQueuesOneReminderPerTier(t *testing.T) {
	queue := &fakeQueue{}
	lister := &windowedProfileLister{inactive: []*types.Profile{inactiveProfile(8)}}
	job := newInactivityJob(lister, queue, false)

	report := job.Run(context.Background(), runNow)

	if !report.Success {
		t.Fatalf("run failed: %s", report.Error)
	}
	if report.TotalQueued != 1 {
		t.Fatalf("queued = %d, want the profile matched by exactly one tier", report.TotalQueued)
	}

	rec := queue.inserted[0]
	if rec.Kind != types.KindInactiveReminder {
		t.Errorf("kind = %q, want the inactive reminder", rec.Kind)
	}
	payload, ok := rec.Payload.(types.InactivityPayload)
	if !ok {
		t.Fatalf("payload type = %T, want InactivityPayload", rec.Payload)
	}
	if payload.DaysInactive != 8 {
		t.Errorf("days inactive = %d, want 8", payload.DaysInactive)
	}
	if payload.NewLikes != 3 {
		t.Errorf("new likes = %d, want the activity count", payload.NewLikes)
	}
}

func TestInactivityIgnoresProfilesOutsideEveryTier(t *testing.T) {
	queue := &fakeQueue{}
	// Six days inactive sits in the gap between the first two tiers.
	lister := &windowedProfileLister{inactive: []*types.Profile{inactiveProfile(6)}}
	job := newInactivityJob(lister, queue, false)

	report := job.Run(context.Background(), runNow)

	if report.TotalQueued != 0 {
		t.Fatalf("queued = %d, want 0 for a profile in a tier gap", report.TotalQueued)
	}
}

// stalePeriodLister returns its profiles from the first tier query verbatim,
// standing in for a repository whose query no longer excludes null
// last_active_at.
type stalePeriodLister struct {
	profiles []*types.Profile
	calls    int
}

func (f *stalePeriodLister) ListInactive(ctx context.Context, after, before time.Time, limit int) ([]*types.Profile, error) {
	f.calls++
	if f.calls > 1 {
		return nil, nil
	}
	return f.profiles, nil
}

func (f *stalePeriodLister) ListIncompleteOnboarding(ctx context.Context, after, before time.Time, limit int) ([]*types.Profile, error) {
	return nil, nil
}

func (f *stalePeriodLister) ListSwipeRefreshCandidates(ctx context.Context, activeSince time.Time, limit int) ([]*types.Profile, error) {
	return nil, nil
}

func TestInactivitySkipsProfileWithoutLastActive(t *testing.T) {
	queue := &fakeQueue{}
	profile := inactiveProfile(8)
	profile.LastActiveAt = nil
	lister := &stalePeriodLister{profiles: []*types.Profile{profile}}

	selector := eligibility.NewSelector(lister, nopTrialLister{}, nopMatchLister{}, 100)
	gate := dedup.NewGate(&fakeDedupLedger{}, nil)
	writer := dispatch.NewWriter(queue, noDeviceTokens{}, nil)
	job := NewInactivityJob(selector, gate, writer, &fakeActivity{}, nil, nil)

	report := job.Run(context.Background(), runNow)

	if !report.Success || report.Errors != 0 {
		t.Fatalf("report = %+v, want a clean run", report)
	}
	if report.TotalQueued != 0 || report.Skipped != 1 {
		t.Fatalf("report = %+v, want the profile skipped", report)
	}
}

func TestInactivitySuppressedByDailyGate(t *testing.T) {
	queue := &fakeQueue{}
	lister := &windowedProfileLister{inactive: []*types.Profile{inactiveProfile(8)}}
	job := newInactivityJob(lister, queue, true)

	report := job.Run(context.Background(), runNow)

	if report.TotalQueued != 0 || report.Skipped != 1 {
		t.Fatalf("report = %+v, want the reminder suppressed", report)
	}
}

func TestInactivityHonorsKindPreference(t *testing.T) {
	queue := &fakeQueue{}
	profile := inactiveProfile(8)
	profile.NotificationPrefs = map[types.NotificationKind]bool{
		types.KindInactiveReminder: false,
	}
	lister := &windowedProfileLister{inactive: []*types.Profile{profile}}
	job := newInactivityJob(lister, queue, false)

	report := job.Run(context.Background(), runNow)

	if report.TotalQueued != 0 || report.Skipped != 1 {
		t.Fatalf("report = %+v, want the opted-out profile skipped", report)
	}
}
