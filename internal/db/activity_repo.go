package db

import (
	"context"
	"time"

	"accord/internal/types"
)

// ActivityRepository computes the engagement counts that feed the content
// renderer. All counts are scoped to a lower-bound timestamp chosen by the
// caller: trial start for trial reminders, last-active for inactivity nudges.
// Counts are real aggregates over the likes, matches, and messages tables;
// the renderer never fabricates numbers.
type ActivityRepository struct {
	db DBTX
}

// NewActivityRepository creates a new ActivityRepository backed by the given
// database connection (pool or transaction).
func NewActivityRepository(db DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// StatsSince returns the profile's activity counts accrued since the given
// lower bound. A single round trip covers all three aggregates.
func (r *ActivityRepository) StatsSince(ctx context.Context, profileID string, since time.Time) (types.ActivityStats, error) {
	var stats types.ActivityStats
	err := r.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM likes
			 WHERE liked_profile_id = $1 AND created_at >= $2),
			(SELECT COUNT(*) FROM matches
			 WHERE (profile_a = $1 OR profile_b = $1) AND matched_at >= $2),
			(SELECT COUNT(*) FROM messages
			 WHERE recipient_id = $1 AND created_at >= $2)`,
		profileID, since,
	).Scan(&stats.LikesReceived, &stats.MatchesMade, &stats.Messages)
	if err != nil {
		return types.ActivityStats{}, types.NewAppError(types.ErrCodeInternalDB, "failed to compute activity stats", err)
	}
	return stats, nil
}
