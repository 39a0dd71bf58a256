package eligibility

import (
	"context"
	"time"

	"accord/internal/types"
)

// ProfileLister is the slice of the profile repository the selector needs.
type ProfileLister interface {
	ListIncompleteOnboarding(ctx context.Context, after, before time.Time, limit int) ([]*types.Profile, error)
	ListInactive(ctx context.Context, after, before time.Time, limit int) ([]*types.Profile, error)
	ListSwipeRefreshCandidates(ctx context.Context, activeSince time.Time, limit int) ([]*types.Profile, error)
}

// TrialLister is the slice of the subscription repository the selector needs.
type TrialLister interface {
	ListTrialsStarted(ctx context.Context, after, before time.Time, limit int) ([]*types.Subscription, error)
	ListTrialsExpiring(ctx context.Context, after, before time.Time, limit int) ([]*types.Subscription, error)
}

// MatchLister is the slice of the match repository the selector needs.
type MatchLister interface {
	ListExpiring(ctx context.Context, kind types.NotificationKind, after, before time.Time, limit int) ([]*types.Match, error)
}

// InactiveCandidate pairs an inactive profile with the tier that selected it.
type InactiveCandidate struct {
	Profile *types.Profile
	Tier    Tier
}

// Selector resolves each notification kind's window rule against the entity
// store. It owns no state beyond its repository handles and the batch limit;
// the caller supplies now so a whole run shares one view of the clock.
type Selector struct {
	profiles ProfileLister
	trials   TrialLister
	matches  MatchLister
	limit    int
}

// NewSelector creates a Selector. limit bounds the rows fetched per query.
func NewSelector(profiles ProfileLister, trials TrialLister, matches MatchLister, limit int) *Selector {
	if limit <= 0 {
		limit = 500
	}
	return &Selector{profiles: profiles, trials: trials, matches: matches, limit: limit}
}

// TrialCandidates returns the trial subscriptions currently inside the given
// kind's window. Welcome and engagement kinds key off started_at; the expiry
// countdown kinds key off expires_at.
func (s *Selector) TrialCandidates(ctx context.Context, kind types.NotificationKind, now time.Time) ([]*types.Subscription, error) {
	switch kind {
	case types.KindTrialDay1Welcome, types.KindTrialEngagement:
		w, err := TrialStartWindow(kind, now)
		if err != nil {
			return nil, err
		}
		return s.trials.ListTrialsStarted(ctx, w.After, w.Before, s.limit)
	case types.KindTrialExpiring3Days, types.KindTrialExpiring1Day:
		w, err := TrialExpiryWindow(kind, now)
		if err != nil {
			return nil, err
		}
		return s.trials.ListTrialsExpiring(ctx, w.After, w.Before, s.limit)
	}
	return nil, types.NewAppError(types.ErrCodeValidationInvalidKind, "kind is not a trial reminder", nil)
}

// InactiveCandidates returns the profiles currently inside any inactivity
// tier, each paired with its tier. Tiers are queried in ascending order; a
// profile can match at most one because the tier windows are disjoint.
func (s *Selector) InactiveCandidates(ctx context.Context, now time.Time) ([]InactiveCandidate, error) {
	var results []InactiveCandidate
	for _, tier := range InactivityTiers {
		w := tier.Window(now)
		profiles, err := s.profiles.ListInactive(ctx, w.After, w.Before, s.limit)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			results = append(results, InactiveCandidate{Profile: p, Tier: tier})
		}
	}
	return results, nil
}

// OnboardingCandidates returns profiles inside the onboarding reminder
// window that have not completed onboarding.
func (s *Selector) OnboardingCandidates(ctx context.Context, now time.Time) ([]*types.Profile, error) {
	w := OnboardingWindow(now)
	return s.profiles.ListIncompleteOnboarding(ctx, w.After, w.Before, s.limit)
}

// SwipeRefreshCandidates returns recently active free profiles due the daily
// swipe-refresh push.
func (s *Selector) SwipeRefreshCandidates(ctx context.Context, now time.Time) ([]*types.Profile, error) {
	return s.profiles.ListSwipeRefreshCandidates(ctx, SwipeActivityCutoff(now), s.limit)
}

// ExpiringMatches returns active, unmessaged matches inside the given
// notice kind's window that have not yet received that notice.
func (s *Selector) ExpiringMatches(ctx context.Context, kind types.NotificationKind, now time.Time) ([]*types.Match, error) {
	w, err := MatchNoticeWindow(kind, now)
	if err != nil {
		return nil, err
	}
	return s.matches.ListExpiring(ctx, kind, w.After, w.Before, s.limit)
}
