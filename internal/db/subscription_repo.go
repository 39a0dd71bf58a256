package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"accord/internal/types"
)

// SubscriptionRepository provides data access for the subscriptions table.
// There is at most one row per profile; webhook reconciliation upserts by
// profile id with a last-event-at guard so stale redeliveries never clobber
// newer state.
type SubscriptionRepository struct {
	db DBTX
}

// NewSubscriptionRepository creates a new SubscriptionRepository backed by the
// given database connection (pool or transaction).
func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `profile_id, tier, status, started_at, expires_at,
	auto_renew, last_event_at, updated_at`

// GetByProfile retrieves the subscription for a profile. Returns
// ErrCodeNotFoundSubscription if the profile has no subscription row.
func (r *SubscriptionRepository) GetByProfile(ctx context.Context, profileID string) (*types.Subscription, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE profile_id = $1`,
		profileID,
	)
	s, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundSubscription, "subscription not found", err)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get subscription", err)
	}
	return s, nil
}

// Upsert inserts or replaces the subscription row for a profile. The update
// path only applies when the incoming event is newer than the stored
// last_event_at, which makes webhook redelivery and out-of-order delivery
// safe: applying the same event twice leaves the row unchanged.
func (r *SubscriptionRepository) Upsert(ctx context.Context, s *types.Subscription) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO subscriptions
		 (profile_id, tier, status, started_at, expires_at, auto_renew, last_event_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (profile_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			expires_at = EXCLUDED.expires_at,
			auto_renew = EXCLUDED.auto_renew,
			last_event_at = EXCLUDED.last_event_at,
			updated_at = NOW()
		 WHERE subscriptions.last_event_at < EXCLUDED.last_event_at`,
		s.ProfileID,
		string(s.Tier),
		string(s.Status),
		s.StartedAt,
		s.ExpiresAt,
		s.AutoRenew,
		s.LastEventAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert subscription", err)
	}
	return nil
}

// SetAutoRenew flips the auto_renew flag without touching tier, status, or
// expiry. Used by cancellation and uncancellation events, which affect only
// renewal intent. The last-event-at guard applies here too.
func (r *SubscriptionRepository) SetAutoRenew(ctx context.Context, profileID string, autoRenew bool, eventAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET
			auto_renew = $2,
			last_event_at = $3,
			updated_at = NOW()
		 WHERE profile_id = $1 AND last_event_at < $3`,
		profileID, autoRenew, eventAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update auto renew", err)
	}
	return nil
}

// Expire marks the subscription expired. The caller is responsible for the
// exempt-profile check; this method applies the transition unconditionally
// subject to the last-event-at guard.
func (r *SubscriptionRepository) Expire(ctx context.Context, profileID string, eventAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET
			status = 'expired',
			auto_renew = FALSE,
			last_event_at = $2,
			updated_at = NOW()
		 WHERE profile_id = $1 AND last_event_at < $2`,
		profileID, eventAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to expire subscription", err)
	}
	return nil
}

// ListTrialsStarted retrieves trial subscriptions whose trial began within
// [after, before). Feeds the welcome and engagement reminders.
func (r *SubscriptionRepository) ListTrialsStarted(ctx context.Context, after, before time.Time, limit int) ([]*types.Subscription, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE status = 'trial'
		   AND started_at >= $1 AND started_at < $2
		 ORDER BY started_at
		 LIMIT $3`,
		after, before, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list started trials", err)
	}
	return collectSubscriptions(rows)
}

// ListTrialsExpiring retrieves trial subscriptions whose expiry falls within
// [after, before). Feeds the expiry countdown reminders.
func (r *SubscriptionRepository) ListTrialsExpiring(ctx context.Context, after, before time.Time, limit int) ([]*types.Subscription, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE status = 'trial'
		   AND expires_at >= $1 AND expires_at < $2
		 ORDER BY expires_at
		 LIMIT $3`,
		after, before, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list expiring trials", err)
	}
	return collectSubscriptions(rows)
}

// scanSubscription scans a single subscriptions row.
func scanSubscription(row pgx.Row) (*types.Subscription, error) {
	var s types.Subscription
	err := row.Scan(
		&s.ProfileID,
		&s.Tier,
		&s.Status,
		&s.StartedAt,
		&s.ExpiresAt,
		&s.AutoRenew,
		&s.LastEventAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// collectSubscriptions drains a pgx.Rows result set into a subscription slice.
func collectSubscriptions(rows pgx.Rows) ([]*types.Subscription, error) {
	defer rows.Close()

	var results []*types.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan subscription row", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating subscription rows", err)
	}
	return results, nil
}
