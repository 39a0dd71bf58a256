package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"accord/internal/types"
)

// ProfileRepository provides data access for the profiles and device_tokens
// tables. Eligibility selectors run here as bounded window queries; the
// half-open bounds [after, before) are computed by the callers so the SQL
// stays a plain range scan over the relevant index.
type ProfileRepository struct {
	db DBTX
}

// NewProfileRepository creates a new ProfileRepository backed by the given
// database connection (pool or transaction).
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, display_name, email, locale, status, push_token,
	push_enabled, notification_prefs, exempt, created_at, last_active_at,
	onboarding_completed_at`

// GetByID retrieves a single profile. Returns ErrCodeNotFoundProfile if no
// row exists.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*types.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		id,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", err)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get profile", err)
	}
	return p, nil
}

// ListIncompleteOnboarding retrieves active profiles that signed up within
// [after, before) and have not completed onboarding. Only push-capable rows
// are returned since the onboarding reminder is push-only.
func (r *ProfileRepository) ListIncompleteOnboarding(ctx context.Context, after, before time.Time, limit int) ([]*types.Profile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+`
		 FROM profiles
		 WHERE status = 'active'
		   AND onboarding_completed_at IS NULL
		   AND push_enabled = TRUE
		   AND push_token <> ''
		   AND created_at >= $1 AND created_at < $2
		 ORDER BY created_at
		 LIMIT $3`,
		after, before, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list onboarding candidates", err)
	}
	return collectProfiles(rows)
}

// ListInactive retrieves active profiles whose last activity falls within
// [after, before). Profiles that were never active are excluded; they are the
// onboarding reminder's concern, not the inactivity reminder's.
func (r *ProfileRepository) ListInactive(ctx context.Context, after, before time.Time, limit int) ([]*types.Profile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+`
		 FROM profiles
		 WHERE status = 'active'
		   AND push_enabled = TRUE
		   AND push_token <> ''
		   AND last_active_at >= $1 AND last_active_at < $2
		 ORDER BY last_active_at
		 LIMIT $3`,
		after, before, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list inactive profiles", err)
	}
	return collectProfiles(rows)
}

// ListSwipeRefreshCandidates retrieves active free-tier profiles (no current
// subscription row) who were active since the given time. These receive the
// daily swipe-refresh push.
func (r *ProfileRepository) ListSwipeRefreshCandidates(ctx context.Context, activeSince time.Time, limit int) ([]*types.Profile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+`
		 FROM profiles p
		 WHERE p.status = 'active'
		   AND p.push_enabled = TRUE
		   AND p.push_token <> ''
		   AND p.last_active_at >= $1
		   AND NOT EXISTS (
		       SELECT 1 FROM subscriptions s
		       WHERE s.profile_id = p.id AND s.status IN ('trial', 'active')
		   )
		 ORDER BY p.last_active_at
		 LIMIT $2`,
		activeSince, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list swipe refresh candidates", err)
	}
	return collectProfiles(rows)
}

// ListDeviceTokens retrieves the auxiliary device tokens registered for a
// profile, oldest first. The profile's primary push token is not duplicated
// here.
func (r *ProfileRepository) ListDeviceTokens(ctx context.Context, profileID string) ([]*types.DeviceToken, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, profile_id, token, platform, created_at
		 FROM device_tokens
		 WHERE profile_id = $1
		 ORDER BY created_at`,
		profileID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list device tokens", err)
	}
	defer rows.Close()

	var results []*types.DeviceToken
	for rows.Next() {
		var t types.DeviceToken
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan device token row", err)
		}
		results = append(results, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating device token rows", err)
	}
	return results, nil
}

// scanProfile scans a single profiles row. Handles nullable columns using
// pointer types and decodes the notification_prefs JSONB map.
func scanProfile(row pgx.Row) (*types.Profile, error) {
	var (
		p          types.Profile
		email      *string
		locale     *string
		pushToken  *string
		prefsJSON  []byte
		lastActive *time.Time
		onboarded  *time.Time
	)

	err := row.Scan(
		&p.ID,
		&p.DisplayName,
		&email,
		&locale,
		&p.Status,
		&pushToken,
		&p.PushEnabled,
		&prefsJSON,
		&p.Exempt,
		&p.CreatedAt,
		&lastActive,
		&onboarded,
	)
	if err != nil {
		return nil, err
	}

	p.Email = derefString(email)
	p.Locale = derefString(locale)
	if p.Locale == "" {
		p.Locale = types.DefaultLocale
	}
	p.PushToken = derefString(pushToken)
	p.LastActiveAt = lastActive
	p.OnboardingCompletedAt = onboarded
	if len(prefsJSON) > 0 {
		// Malformed prefs degrade to all-enabled rather than failing the scan.
		_ = json.Unmarshal(prefsJSON, &p.NotificationPrefs)
	}

	return &p, nil
}

// collectProfiles drains a pgx.Rows result set into a profile slice.
func collectProfiles(rows pgx.Rows) ([]*types.Profile, error) {
	defer rows.Close()

	var results []*types.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan profile row", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating profile rows", err)
	}
	return results, nil
}
