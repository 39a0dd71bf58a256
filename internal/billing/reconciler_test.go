package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"accord/internal/types"
)

var eventAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeSubStore struct {
	subs    map[string]*types.Subscription
	expired []string
}

func newFakeSubStore() *fakeSubStore {
	return &fakeSubStore{subs: make(map[string]*types.Subscription)}
}

func (f *fakeSubStore) GetByProfile(ctx context.Context, profileID string) (*types.Subscription, error) {
	s, ok := f.subs[profileID]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundSubscription, "no subscription", nil)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubStore) Upsert(ctx context.Context, s *types.Subscription) error {
	cp := *s
	f.subs[s.ProfileID] = &cp
	return nil
}

func (f *fakeSubStore) SetAutoRenew(ctx context.Context, profileID string, autoRenew bool, eventAt time.Time) error {
	s, ok := f.subs[profileID]
	if !ok {
		return types.NewAppError(types.ErrCodeNotFoundSubscription, "no subscription", nil)
	}
	s.AutoRenew = autoRenew
	s.LastEventAt = eventAt
	return nil
}

func (f *fakeSubStore) Expire(ctx context.Context, profileID string, eventAt time.Time) error {
	f.expired = append(f.expired, profileID)
	if s, ok := f.subs[profileID]; ok {
		s.Status = types.SubStatusExpired
		s.LastEventAt = eventAt
	}
	return nil
}

type fakeProfiles struct {
	profiles map[string]*types.Profile
}

func (f *fakeProfiles) GetByID(ctx context.Context, id string) (*types.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, errors.New("profile not found")
	}
	return p, nil
}

func purchaseEvent() *types.PaymentEvent {
	return &types.PaymentEvent{
		ID:        "evt_1",
		Type:      types.PaymentInitialPurchase,
		ProfileID: "prf_1",
		Tier:      types.TierPlatinum,
		ExpiresAt: eventAt.Add(30 * 24 * time.Hour),
		EventAt:   eventAt,
	}
}

func newTestReconciler(subs *fakeSubStore, profiles map[string]*types.Profile) *Reconciler {
	return NewReconciler(subs, &fakeProfiles{profiles: profiles}, nil)
}

func TestApplyPurchaseActivatesSubscription(t *testing.T) {
	subs := newFakeSubStore()
	r := newTestReconciler(subs, nil)

	if err := r.Apply(context.Background(), purchaseEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := subs.subs["prf_1"]
	if s == nil {
		t.Fatal("expected a subscription row")
	}
	if s.Status != types.SubStatusActive || s.Tier != types.TierPlatinum || !s.AutoRenew {
		t.Fatalf("subscription = %+v, want active platinum with auto-renew", s)
	}
	if !s.StartedAt.Equal(eventAt) {
		t.Errorf("started at = %v, want the event time for a new row", s.StartedAt)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	subs := newFakeSubStore()
	r := newTestReconciler(subs, nil)

	event := purchaseEvent()
	if err := r.Apply(context.Background(), event); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	first := *subs.subs["prf_1"]

	if err := r.Apply(context.Background(), event); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	second := *subs.subs["prf_1"]

	if first != second {
		t.Fatalf("redelivery changed state:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestRenewalPreservesOriginalStart(t *testing.T) {
	subs := newFakeSubStore()
	trialStart := eventAt.Add(-7 * 24 * time.Hour)
	subs.subs["prf_1"] = &types.Subscription{
		ProfileID: "prf_1",
		Tier:      types.TierPremium,
		Status:    types.SubStatusTrial,
		StartedAt: trialStart,
	}
	r := newTestReconciler(subs, nil)

	event := purchaseEvent()
	event.Type = types.PaymentRenewal
	if err := r.Apply(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := subs.subs["prf_1"].StartedAt; !got.Equal(trialStart) {
		t.Fatalf("started at = %v, want the original trial start %v", got, trialStart)
	}
}

func TestCancellationOnlyDisablesAutoRenew(t *testing.T) {
	subs := newFakeSubStore()
	subs.subs["prf_1"] = &types.Subscription{
		ProfileID: "prf_1",
		Status:    types.SubStatusActive,
		AutoRenew: true,
	}
	r := newTestReconciler(subs, nil)

	event := purchaseEvent()
	event.Type = types.PaymentCancellation
	if err := r.Apply(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := subs.subs["prf_1"]
	if s.AutoRenew {
		t.Error("auto-renew should be off after cancellation")
	}
	if s.Status != types.SubStatusActive {
		t.Errorf("status = %q, access must continue until expiry", s.Status)
	}
}

func TestExpirationSkipsExemptProfile(t *testing.T) {
	subs := newFakeSubStore()
	subs.subs["prf_1"] = &types.Subscription{ProfileID: "prf_1", Status: types.SubStatusActive}
	r := newTestReconciler(subs, map[string]*types.Profile{
		"prf_1": {ID: "prf_1", Exempt: true},
	})

	event := purchaseEvent()
	event.Type = types.PaymentExpiration
	if err := r.Apply(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(subs.expired) != 0 {
		t.Fatal("exempt profile must never be expired")
	}
}

func TestExpirationDowngradesRegularProfile(t *testing.T) {
	subs := newFakeSubStore()
	subs.subs["prf_1"] = &types.Subscription{ProfileID: "prf_1", Status: types.SubStatusActive}
	r := newTestReconciler(subs, map[string]*types.Profile{
		"prf_1": {ID: "prf_1"},
	})

	event := purchaseEvent()
	event.Type = types.PaymentExpiration
	if err := r.Apply(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if subs.subs["prf_1"].Status != types.SubStatusExpired {
		t.Fatalf("status = %q, want expired", subs.subs["prf_1"].Status)
	}
}

func TestBillingIssueChangesNothing(t *testing.T) {
	subs := newFakeSubStore()
	subs.subs["prf_1"] = &types.Subscription{ProfileID: "prf_1", Status: types.SubStatusActive, AutoRenew: true}
	r := newTestReconciler(subs, nil)

	event := purchaseEvent()
	event.Type = types.PaymentBillingIssue
	if err := r.Apply(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := subs.subs["prf_1"]
	if s.Status != types.SubStatusActive || !s.AutoRenew {
		t.Fatalf("subscription = %+v, want untouched", s)
	}
}

func TestApplyRejectsIncompleteEvent(t *testing.T) {
	r := newTestReconciler(newFakeSubStore(), nil)

	err := r.Apply(context.Background(), &types.PaymentEvent{Type: types.PaymentRenewal})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeValidationMissingField {
		t.Fatalf("error = %v, want the missing-field code", err)
	}
}
