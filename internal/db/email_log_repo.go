package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"accord/internal/types"
)

// EmailLogRepository provides data access for the email_log and
// email_preferences tables. Every email attempt lands in the log, including
// skips; the per-category cooldown reads the newest *sent* row only.
type EmailLogRepository struct {
	db DBTX
}

// NewEmailLogRepository creates a new EmailLogRepository backed by the given
// database connection (pool or transaction).
func NewEmailLogRepository(db DBTX) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

// Insert writes an email log row. The caller sets ID, status, and reason.
func (r *EmailLogRepository) Insert(ctx context.Context, l *types.EmailLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO email_log
		 (id, profile_id, category, status, reason, provider_message_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		l.ID,
		l.ProfileID,
		string(l.Category),
		string(l.Status),
		nilIfEmpty(l.Reason),
		nilIfEmpty(l.ProviderMsgID),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert email log", err)
	}
	return nil
}

// LastSentAt returns the timestamp of the most recent successfully sent email
// of the given category to the profile, or nil if none exists. Failed and
// skipped rows do not count toward the cooldown.
func (r *EmailLogRepository) LastSentAt(ctx context.Context, profileID string, category types.EmailCategory) (*time.Time, error) {
	var at time.Time
	err := r.db.QueryRow(ctx,
		`SELECT created_at FROM email_log
		 WHERE profile_id = $1 AND category = $2 AND status = 'sent'
		 ORDER BY created_at DESC
		 LIMIT 1`,
		profileID, string(category),
	).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query last sent email", err)
	}
	return &at, nil
}

// GetPreference retrieves the email preference row for a profile. A missing
// row returns (nil, nil); EmailPreference's nil receiver semantics treat that
// as all categories enabled.
func (r *EmailLogRepository) GetPreference(ctx context.Context, profileID string) (*types.EmailPreference, error) {
	var (
		p           types.EmailPreference
		enabledJSON []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT profile_id, enabled, updated_at
		 FROM email_preferences WHERE profile_id = $1`,
		profileID,
	).Scan(&p.ProfileID, &enabledJSON, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get email preference", err)
	}

	if len(enabledJSON) > 0 {
		if err := json.Unmarshal(enabledJSON, &p.Enabled); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to decode email preference flags", err)
		}
	}
	return &p, nil
}
