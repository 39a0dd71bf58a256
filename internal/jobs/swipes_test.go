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

func newSwipeJob(lister *windowedProfileLister, queue *fakeQueue, seen bool) *SwipeRefreshJob {
	selector := eligibility.NewSelector(lister, nopTrialLister{}, nopMatchLister{}, 100)
	gate := dedup.NewGate(&fakeDedupLedger{exists: seen}, nil)
	writer := dispatch.NewWriter(queue, noDeviceTokens{}, nil)
	return NewSwipeRefreshJob(selector, gate, writer, nil)
}

func recentlyActiveProfile(id string, activeDaysAgo int) *types.Profile {
	lastActive := runNow.Add(-time.Duration(activeDaysAgo) * 24 * time.Hour)
	return &types.Profile{
		ID:           id,
		DisplayName:  "Sam",
		Status:       types.ProfileActive,
		PushEnabled:  true,
		PushToken:    "tok_" + id,
		LastActiveAt: &lastActive,
	}
}

func TestSwipeRefreshNotifiesActiveProfiles(t *testing.T) {
	queue := &fakeQueue{}
	lister := &windowedProfileLister{swipes: []*types.Profile{
		recentlyActiveProfile("prf_1", 1),
		recentlyActiveProfile("prf_2", 10), // aged out of the activity cutoff
	}}
	job := newSwipeJob(lister, queue, false)

	report := job.Run(context.Background(), runNow)

	if !report.Success || report.TotalQueued != 1 {
		t.Fatalf("report = %+v, want only the recently active profile", report)
	}
	rec := queue.inserted[0]
	if rec.ProfileID != "prf_1" {
		t.Errorf("recipient = %q, want prf_1", rec.ProfileID)
	}
	payload, ok := rec.Payload.(types.SwipesPayload)
	if !ok {
		t.Fatalf("payload type = %T, want SwipesPayload", rec.Payload)
	}
	if !payload.RefreshedAt.Equal(runNow) {
		t.Errorf("refreshed at = %v, want the run clock", payload.RefreshedAt)
	}
}

func TestSwipeRefreshOncePerDay(t *testing.T) {
	queue := &fakeQueue{}
	lister := &windowedProfileLister{swipes: []*types.Profile{recentlyActiveProfile("prf_1", 1)}}
	job := newSwipeJob(lister, queue, true)

	report := job.Run(context.Background(), runNow)

	if report.TotalQueued != 0 || report.Skipped != 1 {
		t.Fatalf("report = %+v, want the second run of the day suppressed", report)
	}
}
