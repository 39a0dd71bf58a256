package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"accord/internal/types"
)

// LedgerRepository provides data access for the notification_queue table, the
// engine's outcome ledger and dedup source of truth for daily-cadence kinds.
//
// The table carries a UNIQUE (profile_id, kind, occurrence_key) constraint;
// Insert relies on it via ON CONFLICT DO NOTHING so concurrent or overlapping
// job runs cannot produce duplicate rows even when their dedup reads raced.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository backed by the given
// database connection (pool or transaction).
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Exists reports whether a ledger row already exists for the given
// (profile, kind, occurrence) triple, regardless of its status. A failed or
// skipped row still counts: one attempt per occurrence.
func (r *LedgerRepository) Exists(ctx context.Context, profileID string, kind types.NotificationKind, occurrenceKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM notification_queue
			WHERE profile_id = $1 AND kind = $2 AND occurrence_key = $3
		 )`,
		profileID, string(kind), occurrenceKey,
	).Scan(&exists)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to check notification ledger", err)
	}
	return exists, nil
}

// Insert writes a new ledger row. Returns true if the row was inserted, false
// if the unique constraint absorbed it (another run already recorded this
// occurrence). The caller must set ID, status, and occurrence key.
func (r *LedgerRepository) Insert(ctx context.Context, rec *types.NotificationRecord) (bool, error) {
	payloadJSON, err := types.MarshalPayload(rec.Payload)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode notification payload", err)
	}

	tag, err := r.db.Exec(ctx,
		`INSERT INTO notification_queue
		 (id, profile_id, kind, title, body, payload, push_token, status, occurrence_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		 ON CONFLICT (profile_id, kind, occurrence_key) DO NOTHING`,
		rec.ID,
		rec.ProfileID,
		string(rec.Kind),
		rec.Title,
		rec.Body,
		payloadJSON,
		nilIfEmpty(rec.PushToken),
		string(rec.Status),
		rec.OccurrenceKey,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to insert notification record", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateStatus transitions a ledger row's status. Used by the downstream
// delivery processor to record sent/failed outcomes.
func (r *LedgerRepository) UpdateStatus(ctx context.Context, id string, status types.NotificationStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE notification_queue SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update notification status", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundProfile, "notification record not found", nil)
	}
	return nil
}

// ListPending retrieves pending ledger rows oldest first, for the push
// delivery job.
func (r *LedgerRepository) ListPending(ctx context.Context, limit int) ([]*types.NotificationRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, profile_id, kind, title, body, payload, push_token, status, occurrence_key, created_at
		 FROM notification_queue
		 WHERE status = $1
		 ORDER BY created_at
		 LIMIT $2`,
		string(types.NotificationPending), limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list pending records", err)
	}
	defer rows.Close()

	var results []*types.NotificationRecord
	for rows.Next() {
		rec, err := scanNotificationRecord(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan notification row", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating notification rows", err)
	}
	return results, nil
}

// ListBefore retrieves ledger rows created before the cutoff, oldest first.
// Used by the archival job to segment rows for compression before deletion.
func (r *LedgerRepository) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]*types.NotificationRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, profile_id, kind, title, body, payload, push_token, status, occurrence_key, created_at
		 FROM notification_queue
		 WHERE created_at < $1
		 ORDER BY created_at
		 LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list archivable records", err)
	}
	defer rows.Close()

	var results []*types.NotificationRecord
	for rows.Next() {
		rec, err := scanNotificationRecord(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan notification row", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating notification rows", err)
	}
	return results, nil
}

// DeleteBefore hard-deletes ledger rows older than the cutoff. Returns the
// count of deleted records.
func (r *LedgerRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM notification_queue WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete archived records", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteIDs hard-deletes the given ledger rows. The archival job deletes
// exactly the rows it has written to a compressed segment, nothing more.
func (r *LedgerRepository) DeleteIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx,
		`DELETE FROM notification_queue WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete archived records", err)
	}
	return tag.RowsAffected(), nil
}

// scanNotificationRecord scans a single notification_queue row, decoding the
// payload envelope back into its typed form.
func scanNotificationRecord(rows pgx.Rows) (*types.NotificationRecord, error) {
	var (
		rec         types.NotificationRecord
		payloadJSON []byte
		pushToken   *string
	)
	err := rows.Scan(
		&rec.ID,
		&rec.ProfileID,
		&rec.Kind,
		&rec.Title,
		&rec.Body,
		&payloadJSON,
		&pushToken,
		&rec.Status,
		&rec.OccurrenceKey,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.PushToken = derefString(pushToken)
	if len(payloadJSON) > 0 {
		payload, err := types.UnmarshalPayload(payloadJSON)
		if err != nil {
			return nil, err
		}
		rec.Payload = payload
	}
	return &rec, nil
}
