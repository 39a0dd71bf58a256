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

func freshSignup(daysAgo int) *types.Profile {
	return &types.Profile{
		ID:          "prf_1",
		DisplayName: "Sam",
		Status:      types.ProfileActive,
		PushEnabled: true,
		PushToken:   "tok_1",
		CreatedAt:   runNow.Add(-time.Duration(daysAgo)*24*time.Hour - 6*time.Hour),
	}
}

func newOnboardingJob(lister *windowedProfileLister, queue *fakeQueue, seen bool) *OnboardingJob {
	selector := eligibility.NewSelector(lister, nopTrialLister{}, nopMatchLister{}, 100)
	gate := dedup.NewGate(&fakeDedupLedger{exists: seen}, nil)
	writer := dispatch.NewWriter(queue, noDeviceTokens{}, nil)
	return NewOnboardingJob(selector, gate, writer, nil, nil)
}

func TestOnboardingRemindsRecentSignup(t *testing.T) {
	queue := &fakeQueue{}
	lister := &windowedProfileLister{onboarding: []*types.Profile{freshSignup(2)}}
	job := newOnboardingJob(lister, queue, false)

	report := job.Run(context.Background(), runNow)

	if !report.Success || report.TotalQueued != 1 {
		t.Fatalf("report = %+v, want one queued reminder", report)
	}
	payload, ok := queue.inserted[0].Payload.(types.OnboardingPayload)
	if !ok {
		t.Fatalf("payload type = %T, want OnboardingPayload", queue.inserted[0].Payload)
	}
	if payload.DaysSinceJoin != 2 {
		t.Errorf("days since join = %d, want 2", payload.DaysSinceJoin)
	}
}

func TestOnboardingIgnoresSignupsOutsideWindow(t *testing.T) {
	queue := &fakeQueue{}
	// Too fresh and too old both fall outside the 1-3 day window.
	lister := &windowedProfileLister{onboarding: []*types.Profile{freshSignup(0), freshSignup(5)}}
	job := newOnboardingJob(lister, queue, false)

	report := job.Run(context.Background(), runNow)

	if report.TotalQueued != 0 {
		t.Fatalf("queued = %d, want 0 outside the window", report.TotalQueued)
	}
}

func TestOnboardingSuppressedByDailyGate(t *testing.T) {
	queue := &fakeQueue{}
	lister := &windowedProfileLister{onboarding: []*types.Profile{freshSignup(2)}}
	job := newOnboardingJob(lister, queue, true)

	report := job.Run(context.Background(), runNow)

	if report.TotalQueued != 0 || report.Skipped != 1 {
		t.Fatalf("report = %+v, want the reminder suppressed", report)
	}
}
