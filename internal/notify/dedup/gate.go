// Package dedup implements the deduplication gate that prevents a second
// notification of the same kind reaching the same recipient within one
// eligibility occurrence.
//
// Two cadences exist. Daily kinds are bounded by the UTC calendar day and
// tracked in the notification ledger. Milestone kinds (the per-match
// expiration notices) are one-shot per owning entity; their dedup flag lives
// on the match row and is claimed by the match repository, so the gate only
// supplies their occurrence key.
package dedup

import (
	"context"
	"time"

	"accord/internal/types"
)

// dailyKeyLayout formats the UTC day bucket, e.g. "2026-09-01".
const dailyKeyLayout = "2006-01-02"

// Ledger is the slice of the notification ledger the gate reads.
type Ledger interface {
	Exists(ctx context.Context, profileID string, kind types.NotificationKind, occurrenceKey string) (bool, error)
}

// Gate answers "may this (recipient, kind) pair receive a notification in the
// current occurrence?". Any ledger error is answered with no: a missed
// reminder is a smaller failure than a duplicate send.
type Gate struct {
	ledger Ledger
	logger types.Logger
}

// NewGate creates a Gate over the given ledger.
func NewGate(ledger Ledger, logger types.Logger) *Gate {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Gate{ledger: ledger, logger: logger}
}

// DailyKey returns the occurrence key for daily-cadence kinds: the UTC
// calendar day of now.
func DailyKey(now time.Time) string {
	return now.UTC().Format(dailyKeyLayout)
}

// MilestoneKey returns the occurrence key for a one-shot notice owned by an
// entity, namespaced by the entity id so the ledger's uniqueness constraint
// holds per entity rather than per day.
func MilestoneKey(entityID string) string {
	return entityID
}

// OccurrenceKey resolves the occurrence key for a kind. Milestone kinds
// require the owning entity id; daily kinds ignore it.
func OccurrenceKey(kind types.NotificationKind, now time.Time, entityID string) string {
	if kind.Cadence() == types.CadenceMilestone {
		return MilestoneKey(entityID)
	}
	return DailyKey(now)
}

// ShouldSend reports whether the (profile, kind, occurrence) triple has no
// ledger record yet. A ledger query error returns false (fail closed) and is
// logged; it is not surfaced as a run error.
func (g *Gate) ShouldSend(ctx context.Context, profileID string, kind types.NotificationKind, occurrenceKey string) bool {
	exists, err := g.ledger.Exists(ctx, profileID, kind, occurrenceKey)
	if err != nil {
		g.logger.Warn("dedup check failed, suppressing send",
			"profile_id", profileID,
			"kind", string(kind),
			"occurrence_key", occurrenceKey,
			"error", err.Error(),
		)
		return false
	}
	return !exists
}
