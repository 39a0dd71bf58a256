package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the kind-specific data attached to a NotificationRecord. It is a
// closed union keyed by notification kind so each kind's required fields are
// statically enforced rather than smuggled through an untyped map.
type Payload interface {
	PayloadKind() NotificationKind
}

// TrialPayload backs the trial welcome, engagement, and expiry reminders.
type TrialPayload struct {
	Tier          SubscriptionTier `json:"tier"`
	ExpiresAt     time.Time        `json:"expires_at"`
	DaysRemaining int              `json:"days_remaining"`
	LikesReceived int              `json:"likes_received"`
	MatchesMade   int              `json:"matches_made"`

	kind NotificationKind
}

func (p TrialPayload) PayloadKind() NotificationKind { return p.kind }

// NewTrialPayload binds a TrialPayload to one of the trial kinds.
func NewTrialPayload(kind NotificationKind, p TrialPayload) (TrialPayload, error) {
	switch kind {
	case KindTrialDay1Welcome, KindTrialEngagement, KindTrialExpiring3Days, KindTrialExpiring1Day:
		p.kind = kind
		return p, nil
	}
	return TrialPayload{}, fmt.Errorf("kind %q does not carry a trial payload", kind)
}

// MatchExpiryPayload backs the match expiration countdown notices.
type MatchExpiryPayload struct {
	MatchID        string    `json:"match_id"`
	OtherProfileID string    `json:"other_profile_id"`
	OtherName      string    `json:"other_name"`
	ExpiresAt      time.Time `json:"expires_at"`
	DaysRemaining  int       `json:"days_remaining"`

	kind NotificationKind
}

func (p MatchExpiryPayload) PayloadKind() NotificationKind { return p.kind }

// NewMatchExpiryPayload binds a MatchExpiryPayload to one of the match kinds.
func NewMatchExpiryPayload(kind NotificationKind, p MatchExpiryPayload) (MatchExpiryPayload, error) {
	switch kind {
	case KindMatchExpiring5Days, KindMatchExpiring3Days, KindMatchExpiring1Day:
		p.kind = kind
		return p, nil
	}
	return MatchExpiryPayload{}, fmt.Errorf("kind %q does not carry a match expiry payload", kind)
}

// SwipesPayload backs the swipe-refresh push.
type SwipesPayload struct {
	RefreshedAt time.Time `json:"refreshed_at"`
}

func (SwipesPayload) PayloadKind() NotificationKind { return KindSwipesRefreshed }

// OnboardingPayload backs the onboarding reminder.
type OnboardingPayload struct {
	SignedUpAt    time.Time `json:"signed_up_at"`
	DaysSinceJoin int       `json:"days_since_join"`
}

func (OnboardingPayload) PayloadKind() NotificationKind { return KindOnboardingReminder }

// InactivityPayload backs the inactivity reminder tiers.
type InactivityPayload struct {
	LastActiveAt time.Time `json:"last_active_at"`
	DaysInactive int       `json:"days_inactive"`
	NewLikes     int       `json:"new_likes"`
}

func (InactivityPayload) PayloadKind() NotificationKind { return KindInactiveReminder }

// payloadEnvelope is the JSONB wire form: the kind discriminator plus the
// kind-specific body.
type payloadEnvelope struct {
	Kind NotificationKind `json:"kind"`
	Data json.RawMessage  `json:"data"`
}

// MarshalPayload serializes a Payload with its kind discriminator.
func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("payload is nil")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload body: %w", err)
	}
	return json.Marshal(payloadEnvelope{Kind: p.PayloadKind(), Data: data})
}

// UnmarshalPayload reverses MarshalPayload, dispatching on the kind
// discriminator. Unknown kinds are an error; the enum is closed.
func UnmarshalPayload(raw []byte) (Payload, error) {
	var env payloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal payload envelope: %w", err)
	}

	switch env.Kind {
	case KindTrialDay1Welcome, KindTrialEngagement, KindTrialExpiring3Days, KindTrialExpiring1Day:
		var p TrialPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		p.kind = env.Kind
		return p, nil
	case KindMatchExpiring5Days, KindMatchExpiring3Days, KindMatchExpiring1Day:
		var p MatchExpiryPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		p.kind = env.Kind
		return p, nil
	case KindSwipesRefreshed:
		var p SwipesPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindOnboardingReminder:
		var p OnboardingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindInactiveReminder:
		var p InactivityPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown payload kind %q", env.Kind)
	}
}
