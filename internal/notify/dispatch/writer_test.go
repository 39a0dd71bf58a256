package dispatch

import (
	"context"
	"errors"
	"testing"

	"accord/internal/types"
)

type fakeLedgerWriter struct {
	inserted    []*types.NotificationRecord
	absorbFirst bool
	err         error
}

func (f *fakeLedgerWriter) Insert(ctx context.Context, rec *types.NotificationRecord) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.absorbFirst && len(f.inserted) == 0 {
		f.inserted = append(f.inserted, rec)
		return false, nil
	}
	f.inserted = append(f.inserted, rec)
	return true, nil
}

type fakeTokenLister struct {
	tokens []*types.DeviceToken
	err    error
}

func (f *fakeTokenLister) ListDeviceTokens(ctx context.Context, profileID string) ([]*types.DeviceToken, error) {
	return f.tokens, f.err
}

func testNotice() Notice {
	return Notice{
		Profile: &types.Profile{
			ID:          "prf_1",
			PushToken:   "tok_primary",
			PushEnabled: true,
		},
		Kind:          types.KindInactiveReminder,
		Title:         "You've been missed",
		Body:          "It's been 8 days.",
		Payload:       types.InactivityPayload{DaysInactive: 8},
		OccurrenceKey: "2026-03-10",
	}
}

func TestQueuePushFansOutToEveryToken(t *testing.T) {
	ledger := &fakeLedgerWriter{}
	tokens := &fakeTokenLister{tokens: []*types.DeviceToken{
		{Token: "tok_tablet"},
		{Token: "tok_old_phone"},
	}}
	w := NewWriter(ledger, tokens, nil)

	queued, err := w.QueuePush(context.Background(), testNotice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 3 {
		t.Fatalf("queued = %d, want 3", queued)
	}

	wantKeys := []string{
		"2026-03-10",
		"2026-03-10:tok_tablet",
		"2026-03-10:tok_old_phone",
	}
	for i, rec := range ledger.inserted {
		if rec.OccurrenceKey != wantKeys[i] {
			t.Errorf("row %d key = %q, want %q", i, rec.OccurrenceKey, wantKeys[i])
		}
		if rec.Status != types.NotificationPending {
			t.Errorf("row %d status = %q, want pending", i, rec.Status)
		}
	}
	if ledger.inserted[0].PushToken != "tok_primary" {
		t.Errorf("first row token = %q, want the primary token", ledger.inserted[0].PushToken)
	}
}

func TestQueuePushStopsWhenOccurrenceAbsorbed(t *testing.T) {
	// A concurrent run already recorded this occurrence; the unique
	// constraint swallows the first insert and no further rows are written.
	ledger := &fakeLedgerWriter{absorbFirst: true}
	tokens := &fakeTokenLister{tokens: []*types.DeviceToken{{Token: "tok_tablet"}}}
	w := NewWriter(ledger, tokens, nil)

	queued, err := w.QueuePush(context.Background(), testNotice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 0 {
		t.Fatalf("queued = %d, want 0", queued)
	}
	if len(ledger.inserted) != 1 {
		t.Fatalf("expected exactly one insert attempt, got %d", len(ledger.inserted))
	}
}

func TestQueuePushDegradesToPrimaryOnTokenListFailure(t *testing.T) {
	ledger := &fakeLedgerWriter{}
	tokens := &fakeTokenLister{err: errors.New("timeout")}
	w := NewWriter(ledger, tokens, nil)

	queued, err := w.QueuePush(context.Background(), testNotice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 1 {
		t.Fatalf("queued = %d, want primary-only fallback of 1", queued)
	}
}

func TestQueuePushSkipsRecipientWithoutTokens(t *testing.T) {
	ledger := &fakeLedgerWriter{}
	tokens := &fakeTokenLister{}
	w := NewWriter(ledger, tokens, nil)

	n := testNotice()
	n.Profile.PushToken = ""

	queued, err := w.QueuePush(context.Background(), n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 0 {
		t.Fatalf("queued = %d, want 0", queued)
	}
	if len(ledger.inserted) != 0 {
		t.Fatal("no rows should be written for a recipient without tokens")
	}
}

func TestQueuePushDeduplicatesTokens(t *testing.T) {
	ledger := &fakeLedgerWriter{}
	tokens := &fakeTokenLister{tokens: []*types.DeviceToken{
		{Token: "tok_primary"},
		{Token: "tok_tablet"},
	}}
	w := NewWriter(ledger, tokens, nil)

	queued, err := w.QueuePush(context.Background(), testNotice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 2 {
		t.Fatalf("queued = %d, want 2 after deduplicating the primary token", queued)
	}
}

func TestQueuePushRespectsPushDisabled(t *testing.T) {
	// The flag must suppress auxiliary device tokens too, not just the
	// primary one.
	ledger := &fakeLedgerWriter{}
	tokens := &fakeTokenLister{tokens: []*types.DeviceToken{{Token: "tok_tablet"}}}
	w := NewWriter(ledger, tokens, nil)

	n := testNotice()
	n.Profile.PushEnabled = false

	queued, err := w.QueuePush(context.Background(), n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 0 {
		t.Fatalf("queued = %d, want 0 when push is disabled", queued)
	}
	if len(ledger.inserted) != 0 {
		t.Fatalf("inserted %d rows, want none for a disabled profile", len(ledger.inserted))
	}
}
