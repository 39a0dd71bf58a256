package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"accord/internal/types"
)

// matchNoticeColumn maps each match-expiry notice kind to its dedup flag
// column. The map doubles as the allow-list for column interpolation; kinds
// outside it never reach the SQL.
var matchNoticeColumn = map[types.NotificationKind]string{
	types.KindMatchExpiring5Days: "notified_5_day",
	types.KindMatchExpiring3Days: "notified_3_day",
	types.KindMatchExpiring1Day:  "notified_1_day",
}

// MatchRepository provides data access for the matches table. Expiry notice
// dedup for matches is flag-based: each notice flips a per-match boolean, and
// the flip is the claim.
type MatchRepository struct {
	db DBTX
}

// NewMatchRepository creates a new MatchRepository backed by the given
// database connection (pool or transaction).
func NewMatchRepository(db DBTX) *MatchRepository {
	return &MatchRepository{db: db}
}

const matchColumns = `id, profile_a, profile_b, matched_at, status, expires_at,
	notified_5_day, notified_3_day, notified_1_day, first_message_at`

// ListExpiring retrieves active matches whose expiry falls within
// [after, before) and which have not yet received the given notice. Matches
// where a conversation has started are excluded; the first message
// permanently disables the countdown.
func (r *MatchRepository) ListExpiring(ctx context.Context, kind types.NotificationKind, after, before time.Time, limit int) ([]*types.Match, error) {
	col, ok := matchNoticeColumn[kind]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidKind, "kind is not a match expiry notice", nil)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE status = 'active'
		   AND first_message_at IS NULL
		   AND expires_at >= $1 AND expires_at < $2
		   AND `+col+` = FALSE
		 ORDER BY expires_at
		 LIMIT $3`,
		after, before, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list expiring matches", err)
	}
	return collectMatches(rows)
}

// ClaimNotice flips the dedup flag for the given notice kind. Returns true if
// this call performed the flip, false if the flag was already set (another
// run claimed it first). Callers must only queue the notice when the claim
// succeeds.
func (r *MatchRepository) ClaimNotice(ctx context.Context, matchID string, kind types.NotificationKind) (bool, error) {
	col, ok := matchNoticeColumn[kind]
	if !ok {
		return false, types.NewAppError(types.ErrCodeValidationInvalidKind, "kind is not a match expiry notice", nil)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE matches SET `+col+` = TRUE
		 WHERE id = $1 AND `+col+` = FALSE`,
		matchID,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to claim match notice", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ReleaseNotice reverts a claimed notice flag. Used to roll back a claim when
// queueing the notice fails after the flip, so the notice is retried on the
// next run instead of being silently lost.
func (r *MatchRepository) ReleaseNotice(ctx context.Context, matchID string, kind types.NotificationKind) error {
	col, ok := matchNoticeColumn[kind]
	if !ok {
		return types.NewAppError(types.ErrCodeValidationInvalidKind, "kind is not a match expiry notice", nil)
	}

	_, err := r.db.Exec(ctx,
		`UPDATE matches SET `+col+` = FALSE WHERE id = $1`,
		matchID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to release match notice", err)
	}
	return nil
}

// scanMatch scans a single matches row.
func scanMatch(row pgx.Row) (*types.Match, error) {
	var (
		m         types.Match
		expiresAt *time.Time
		firstMsg  *time.Time
	)
	err := row.Scan(
		&m.ID,
		&m.ProfileA,
		&m.ProfileB,
		&m.MatchedAt,
		&m.Status,
		&expiresAt,
		&m.Notified5Day,
		&m.Notified3Day,
		&m.Notified1Day,
		&firstMsg,
	)
	if err != nil {
		return nil, err
	}
	m.ExpiresAt = expiresAt
	m.FirstMessageAt = firstMsg
	return &m, nil
}

// collectMatches drains a pgx.Rows result set into a match slice.
func collectMatches(rows pgx.Rows) ([]*types.Match, error) {
	defer rows.Close()

	var results []*types.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan match row", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating match rows", err)
	}
	return results, nil
}
