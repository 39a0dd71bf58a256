// Package billing translates payment-provider lifecycle events into local
// subscription state and keeps the mirrored price catalog fresh.
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"accord/internal/types"
)

// SubscriptionStore is the slice of the subscription repository the
// reconciler writes through. Every write carries the event timestamp so the
// store can reject stale replays.
type SubscriptionStore interface {
	GetByProfile(ctx context.Context, profileID string) (*types.Subscription, error)
	Upsert(ctx context.Context, s *types.Subscription) error
	SetAutoRenew(ctx context.Context, profileID string, autoRenew bool, eventAt time.Time) error
	Expire(ctx context.Context, profileID string, eventAt time.Time) error
}

// ProfileGetter resolves the recipient for exempt-flag checks.
type ProfileGetter interface {
	GetByID(ctx context.Context, id string) (*types.Profile, error)
}

// Reconciler applies payment events through a fixed transition table:
//
//	INITIAL_PURCHASE, RENEWAL,
//	UNCANCELLATION, PRODUCT_CHANGE  → active with the event's expiry
//	CANCELLATION                    → auto_renew off, status untouched
//	EXPIRATION                      → expired, unless the profile is exempt
//	BILLING_ISSUE                   → log only, no state change
//
// All writes are upserts keyed by profile id with a last-event-at guard, so
// replayed deliveries are idempotent: applying the same event twice leaves
// the subscription in the same end state as applying it once.
type Reconciler struct {
	subs     SubscriptionStore
	profiles ProfileGetter
	validate *validator.Validate
	logger   types.Logger
}

// NewReconciler creates a Reconciler with the given stores.
func NewReconciler(subs SubscriptionStore, profiles ProfileGetter, logger types.Logger) *Reconciler {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Reconciler{
		subs:     subs,
		profiles: profiles,
		validate: validator.New(),
		logger:   logger,
	}
}

// Apply reconciles one payment event into subscription state.
func (r *Reconciler) Apply(ctx context.Context, event *types.PaymentEvent) error {
	if err := r.validate.Struct(event); err != nil {
		return types.NewAppError(types.ErrCodeValidationMissingField,
			"payment event failed validation", err)
	}

	log := r.logger.With("event_id", event.ID, "event_type", string(event.Type), "profile_id", event.ProfileID)

	switch event.Type {
	case types.PaymentInitialPurchase, types.PaymentRenewal,
		types.PaymentUncancellation, types.PaymentProductChange:
		return r.activate(ctx, event)

	case types.PaymentCancellation:
		// Access continues until expiry; only renewal intent changes.
		return r.subs.SetAutoRenew(ctx, event.ProfileID, false, event.EventAt)

	case types.PaymentExpiration:
		return r.expire(ctx, event, log)

	case types.PaymentBillingIssue:
		// Grace handling happens provider-side; record and move on.
		log.Warn("billing issue reported, no state change")
		return nil
	}

	return types.NewAppError(types.ErrCodeValidationInvalidBody,
		"unrecognized payment event type", nil)
}

// activate upserts the subscription into active state with the event's tier
// and expiry. The trial started-at is preserved on existing rows; a brand
// new row starts at the event time.
func (r *Reconciler) activate(ctx context.Context, event *types.PaymentEvent) error {
	startedAt := event.EventAt
	existing, err := r.subs.GetByProfile(ctx, event.ProfileID)
	if err != nil {
		var appErr *types.AppError
		if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeNotFoundSubscription {
			return err
		}
	} else if !existing.StartedAt.IsZero() {
		startedAt = existing.StartedAt
	}

	tier := event.Tier
	if tier == "" {
		tier = types.TierPremium
	}

	return r.subs.Upsert(ctx, &types.Subscription{
		ProfileID:   event.ProfileID,
		Tier:        tier,
		Status:      types.SubStatusActive,
		StartedAt:   startedAt,
		ExpiresAt:   event.ExpiresAt,
		AutoRenew:   true,
		LastEventAt: event.EventAt,
	})
}

// expire deactivates the subscription unless the profile is exempt (staff and
// review accounts keep access regardless of store state). A missing profile
// fails the event; the provider will redeliver.
func (r *Reconciler) expire(ctx context.Context, event *types.PaymentEvent, log types.Logger) error {
	profile, err := r.profiles.GetByID(ctx, event.ProfileID)
	if err != nil {
		return err
	}
	if profile.Exempt {
		log.Info("profile is exempt, skipping expiration")
		return nil
	}
	return r.subs.Expire(ctx, event.ProfileID, event.EventAt)
}
