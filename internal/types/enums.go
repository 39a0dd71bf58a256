package types

import "time"

// ProfileStatus represents the account lifecycle state of a profile.
type ProfileStatus string

const (
	ProfileActive ProfileStatus = "active"
	ProfileBanned ProfileStatus = "banned"
)

// SubscriptionTier identifies the paid tier granted by a subscription.
type SubscriptionTier string

const (
	TierPremium  SubscriptionTier = "premium"
	TierPlatinum SubscriptionTier = "platinum"
)

// SubscriptionStatus represents the state of a subscription grant.
type SubscriptionStatus string

const (
	SubStatusTrial   SubscriptionStatus = "trial"
	SubStatusActive  SubscriptionStatus = "active"
	SubStatusExpired SubscriptionStatus = "expired"
)

// MatchStatus represents the lifecycle state of a match.
type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchUnmatched MatchStatus = "unmatched"
)

// NotificationKind is the closed enum of push/email reminder kinds.
// Adding a kind requires a catalog entry (render), a window rule
// (eligibility), and a preference flag column.
type NotificationKind string

const (
	KindTrialDay1Welcome   NotificationKind = "trial_day1_welcome"
	KindTrialEngagement    NotificationKind = "trial_engagement"
	KindTrialExpiring3Days NotificationKind = "trial_expiring_3_days"
	KindTrialExpiring1Day  NotificationKind = "trial_expiring_1_day"
	KindMatchExpiring5Days NotificationKind = "match_expiring_5_days"
	KindMatchExpiring3Days NotificationKind = "match_expiring_3_days"
	KindMatchExpiring1Day  NotificationKind = "match_expiring_1_day"
	KindSwipesRefreshed    NotificationKind = "swipes_refreshed"
	KindOnboardingReminder NotificationKind = "onboarding_reminder"
	KindInactiveReminder   NotificationKind = "inactive_reminder"
)

// AllNotificationKinds lists every valid kind, used by validators and the
// render catalog completeness check.
var AllNotificationKinds = []NotificationKind{
	KindTrialDay1Welcome,
	KindTrialEngagement,
	KindTrialExpiring3Days,
	KindTrialExpiring1Day,
	KindMatchExpiring5Days,
	KindMatchExpiring3Days,
	KindMatchExpiring1Day,
	KindSwipesRefreshed,
	KindOnboardingReminder,
	KindInactiveReminder,
}

// Cadence determines how an occurrence of a kind is bounded for dedup.
type Cadence string

const (
	// CadenceDaily kinds may fire at most once per UTC calendar day,
	// tracked via the notification ledger.
	CadenceDaily Cadence = "daily"
	// CadenceMilestone kinds fire at most once per owning entity,
	// tracked via a flag on that entity (match notice flags).
	CadenceMilestone Cadence = "milestone"
)

// KindCadence returns the dedup cadence for a notification kind.
func (k NotificationKind) Cadence() Cadence {
	switch k {
	case KindMatchExpiring5Days, KindMatchExpiring3Days, KindMatchExpiring1Day:
		return CadenceMilestone
	default:
		return CadenceDaily
	}
}

// NotificationStatus enumerates all valid ledger states for a queued
// notification. These values MUST match the CHECK constraint on the
// notification_queue table.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	NotificationSkipped NotificationStatus = "skipped"
)

// EmailCategory identifies an email stream with its own opt-out flag and
// delivery cooldown.
type EmailCategory string

const (
	EmailCategoryMatch        EmailCategory = "match"
	EmailCategoryMessages     EmailCategory = "message_digest"
	EmailCategoryInactivity   EmailCategory = "inactivity"
	EmailCategoryOnboarding   EmailCategory = "onboarding"
	EmailCategoryWeeklyDigest EmailCategory = "weekly_digest"
)

// EmailCooldowns maps each category to the minimum elapsed time between
// successive *sent* emails of that category to one recipient. The cooldown is
// enforced at the delivery layer, independent of job-level dedup.
var EmailCooldowns = map[EmailCategory]time.Duration{
	EmailCategoryMatch:        0,
	EmailCategoryMessages:     24 * time.Hour,
	EmailCategoryInactivity:   72 * time.Hour,
	EmailCategoryOnboarding:   48 * time.Hour,
	EmailCategoryWeeklyDigest: 168 * time.Hour,
}

// EmailStatus enumerates outcomes recorded in the email log.
type EmailStatus string

const (
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
	EmailSkipped EmailStatus = "skipped"
)

// Skip reasons recorded in the email log for audit. These are stable strings;
// the cooldown tests assert on SkipReasonCooldown.
const (
	SkipReasonOptOut   = "opted_out"
	SkipReasonCooldown = "cooldown_active"
	SkipReasonNoEmail  = "missing_email_address"
)

// PaymentEventType identifies a payment-provider lifecycle event.
type PaymentEventType string

const (
	PaymentInitialPurchase PaymentEventType = "INITIAL_PURCHASE"
	PaymentRenewal         PaymentEventType = "RENEWAL"
	PaymentCancellation    PaymentEventType = "CANCELLATION"
	PaymentUncancellation  PaymentEventType = "UNCANCELLATION"
	PaymentExpiration      PaymentEventType = "EXPIRATION"
	PaymentBillingIssue    PaymentEventType = "BILLING_ISSUE"
	PaymentProductChange   PaymentEventType = "PRODUCT_CHANGE"
)

// DefaultLocale is the fallback language for the content renderer.
const DefaultLocale = "en"
