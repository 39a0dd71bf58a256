package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"accord/internal/types"
)

type fakeLedger struct {
	exists bool
	err    error
	calls  int
}

func (f *fakeLedger) Exists(ctx context.Context, profileID string, kind types.NotificationKind, occurrenceKey string) (bool, error) {
	f.calls++
	return f.exists, f.err
}

func TestShouldSendWhenNoRecordExists(t *testing.T) {
	gate := NewGate(&fakeLedger{exists: false}, nil)
	if !gate.ShouldSend(context.Background(), "prf_1", types.KindInactiveReminder, "2026-03-10") {
		t.Fatal("expected send when no ledger record exists")
	}
}

func TestShouldSendSuppressesDuplicates(t *testing.T) {
	gate := NewGate(&fakeLedger{exists: true}, nil)
	if gate.ShouldSend(context.Background(), "prf_1", types.KindInactiveReminder, "2026-03-10") {
		t.Fatal("expected suppression when a ledger record exists")
	}
}

func TestShouldSendFailsClosed(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("connection reset")}
	gate := NewGate(ledger, nil)
	if gate.ShouldSend(context.Background(), "prf_1", types.KindInactiveReminder, "2026-03-10") {
		t.Fatal("expected suppression when the ledger query fails")
	}
	if ledger.calls != 1 {
		t.Fatalf("expected one ledger query, got %d", ledger.calls)
	}
}

func TestDailyKeyUsesUTCDay(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	at := time.Date(2026, 3, 10, 23, 30, 0, 0, loc)
	if got := DailyKey(at); got != "2026-03-11" {
		t.Fatalf("DailyKey = %q, want 2026-03-11", got)
	}
}

func TestOccurrenceKeyByCadence(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if got := OccurrenceKey(types.KindSwipesRefreshed, now, "mch_9"); got != "2026-03-10" {
		t.Errorf("daily kind key = %q, want the UTC day", got)
	}
	if got := OccurrenceKey(types.KindMatchExpiring1Day, now, "mch_9"); got != "mch_9" {
		t.Errorf("milestone kind key = %q, want the entity id", got)
	}
}
