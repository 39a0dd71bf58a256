package types

import (
	"time"
)

// Profile is the core recipient entity. Rows are created at signup and never
// physically deleted while referenced by notification history; moderation
// flips Status instead.
type Profile struct {
	ID          string        `json:"id" db:"id"`
	DisplayName string        `json:"display_name" db:"display_name"`
	Email       string        `json:"email" db:"email"`
	Locale      string        `json:"locale" db:"locale"`
	Status      ProfileStatus `json:"status" db:"status"`

	// Push delivery
	PushToken   string `json:"-" db:"push_token"`
	PushEnabled bool   `json:"push_enabled" db:"push_enabled"`

	// Per-kind notification preference flags. A missing entry means enabled.
	NotificationPrefs map[NotificationKind]bool `json:"notification_prefs" db:"notification_prefs"`

	// Exempt profiles (staff, review accounts) are never downgraded by the
	// payment reconciler's expiration path.
	Exempt bool `json:"-" db:"exempt"`

	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	LastActiveAt          *time.Time `json:"last_active_at,omitempty" db:"last_active_at"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty" db:"onboarding_completed_at"`
}

// KindEnabled reports whether the profile accepts push notifications of the
// given kind. Unset flags default to enabled.
func (p *Profile) KindEnabled(kind NotificationKind) bool {
	if p.NotificationPrefs == nil {
		return true
	}
	enabled, ok := p.NotificationPrefs[kind]
	if !ok {
		return true
	}
	return enabled
}

// DeviceToken is an auxiliary push token. A profile's primary token lives on
// the profile row; extra devices register here.
type DeviceToken struct {
	ID        string    `json:"id" db:"id"`
	ProfileID string    `json:"profile_id" db:"profile_id"`
	Token     string    `json:"-" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Subscription represents a premium/trial grant. At most one row per profile;
// webhook events upsert on conflict by profile id.
type Subscription struct {
	ProfileID   string             `json:"profile_id" db:"profile_id"`
	Tier        SubscriptionTier   `json:"tier" db:"tier"`
	Status      SubscriptionStatus `json:"status" db:"status"`
	StartedAt   time.Time          `json:"started_at" db:"started_at"`
	ExpiresAt   time.Time          `json:"expires_at" db:"expires_at"`
	AutoRenew   bool               `json:"auto_renew" db:"auto_renew"`

	// LastEventAt orders webhook events so stale redeliveries are ignored.
	LastEventAt time.Time `json:"-" db:"last_event_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Match is an accepted pairing of two profiles. The pair is stored ordered
// (ProfileA < ProfileB) for uniqueness but is semantically unordered.
type Match struct {
	ID        string      `json:"id" db:"id"`
	ProfileA  string      `json:"profile_a" db:"profile_a"`
	ProfileB  string      `json:"profile_b" db:"profile_b"`
	MatchedAt time.Time   `json:"matched_at" db:"matched_at"`
	Status    MatchStatus `json:"status" db:"status"`

	// ExpiresAt is null for matches without an expiration window.
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`

	// Milestone dedup flags. Each expiration notice fires at most once per
	// match; the flag is flipped in the same write that queues the notice.
	Notified5Day bool `json:"-" db:"notified_5_day"`
	Notified3Day bool `json:"-" db:"notified_3_day"`
	Notified1Day bool `json:"-" db:"notified_1_day"`

	// FirstMessageAt non-null disables the entire expiration-reminder path.
	FirstMessageAt *time.Time `json:"first_message_at,omitempty" db:"first_message_at"`
}

// Participants returns both profile ids of the match.
func (m *Match) Participants() [2]string {
	return [2]string{m.ProfileA, m.ProfileB}
}

// NotificationRecord is a row in the notification_queue ledger. Records are
// created only by the dispatch writer, transition to sent/failed by the
// downstream delivery processor, and are retained as the dedup source of
// truth. Nothing but status is ever updated in place.
type NotificationRecord struct {
	ID        string             `json:"id" db:"id"`
	ProfileID string             `json:"profile_id" db:"profile_id"`
	Kind      NotificationKind   `json:"kind" db:"kind"`
	Title     string             `json:"title" db:"title"`
	Body      string             `json:"body" db:"body"`
	Payload   Payload            `json:"payload" db:"payload"`
	PushToken string             `json:"-" db:"push_token"`
	Status    NotificationStatus `json:"status" db:"status"`

	// OccurrenceKey bounds the dedup window: the UTC day for daily kinds,
	// a per-entity milestone key for one-shot kinds. Unique together with
	// (profile_id, kind).
	OccurrenceKey string    `json:"occurrence_key" db:"occurrence_key"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// EmailLog records every email attempt (sent, failed, skipped) with a reason.
// The cooldown check reads the latest *sent* row per (profile, category).
type EmailLog struct {
	ID            string        `json:"id" db:"id"`
	ProfileID     string        `json:"profile_id" db:"profile_id"`
	Category      EmailCategory `json:"category" db:"category"`
	Status        EmailStatus   `json:"status" db:"status"`
	Reason        string        `json:"reason,omitempty" db:"reason"`
	ProviderMsgID string        `json:"provider_message_id,omitempty" db:"provider_message_id"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// EmailPreference holds a profile's per-category opt-out flags.
// A missing row means all categories enabled.
type EmailPreference struct {
	ProfileID string                 `json:"profile_id" db:"profile_id"`
	Enabled   map[EmailCategory]bool `json:"enabled" db:"enabled"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// CategoryEnabled reports whether the profile accepts emails of the category.
// Unset flags default to enabled.
func (p *EmailPreference) CategoryEnabled(cat EmailCategory) bool {
	if p == nil || p.Enabled == nil {
		return true
	}
	enabled, ok := p.Enabled[cat]
	if !ok {
		return true
	}
	return enabled
}

// ActivityStats is the small bag of computed counts fed to the content
// renderer. Counts are scoped to a lower-bound timestamp (trial start or
// last-active) by the activity repository.
type ActivityStats struct {
	LikesReceived int `json:"likes_received"`
	MatchesMade   int `json:"matches_made"`
	Messages      int `json:"messages"`
	DaysRemaining int `json:"days_remaining"`
}

// PaymentEvent is the normalized payload of a payment-provider webhook
// delivery after signature verification.
type PaymentEvent struct {
	ID        string           `json:"id" validate:"required"`
	Type      PaymentEventType `json:"type" validate:"required"`
	ProfileID string           `json:"app_user_id" validate:"required"`
	Tier      SubscriptionTier `json:"tier"`
	ExpiresAt time.Time        `json:"expires_at"`
	EventAt   time.Time        `json:"event_at"`
}

// PushMessage is the wire shape accepted by the push delivery provider.
type PushMessage struct {
	To       string         `json:"to"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data,omitempty"`
	Sound    string         `json:"sound,omitempty"`
	Priority string         `json:"priority,omitempty"`
}

// PushReceipt is the provider's per-message response.
type PushReceipt struct {
	Status  string `json:"status"` // "ok" or "error"
	Message string `json:"message,omitempty"`
}

// SendInput defines the contract for email transmission. Content arrives
// pre-rendered; the provider does no templating.
type SendInput struct {
	To          string
	From        SenderIdentity
	Subject     string
	BodyHTML    string
	BodyText    string
	ReferenceID string
}

// SenderIdentity defines the sender for outgoing emails.
type SenderIdentity struct {
	Name    string
	Address string
}

// RegionalPrice is a row of the locally mirrored app-store price catalog,
// refreshed by the price-sync job.
type RegionalPrice struct {
	ProductID   string    `json:"product_id" db:"product_id"`
	Currency    string    `json:"currency" db:"currency"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	Region      string    `json:"region" db:"region"`
	SyncedAt    time.Time `json:"synced_at" db:"synced_at"`
}
