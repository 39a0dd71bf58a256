package email

import (
	"context"
	"time"

	"github.com/google/uuid"

	"accord/internal/types"
)

// Provider is the external email delivery collaborator. Content arrives
// pre-rendered; the provider returns its message id on acceptance.
type Provider interface {
	Send(ctx context.Context, input types.SendInput) (string, error)
}

// LogStore is the slice of the email log repository the sender needs. The
// cooldown reads the last *sent* timestamp; every attempt is written back,
// including skips.
type LogStore interface {
	Insert(ctx context.Context, l *types.EmailLog) error
	LastSentAt(ctx context.Context, profileID string, category types.EmailCategory) (*time.Time, error)
	GetPreference(ctx context.Context, profileID string) (*types.EmailPreference, error)
}

// Sender delivers one email to one recipient, enforcing the opt-out and
// cooldown checks immediately before the provider call. These checks are
// independent of the job-level dedup gate: the gate stops a job from
// re-evaluating an entity, the sender stops the delivery layer from
// over-sending across different triggering jobs.
type Sender struct {
	provider Provider
	logs     LogStore
	composer *Composer
	from     types.SenderIdentity
	logger   types.Logger
}

// SenderConfig holds the dependencies needed to create a Sender.
type SenderConfig struct {
	Provider Provider
	Logs     LogStore
	Composer *Composer
	From     types.SenderIdentity
	Logger   types.Logger
}

// NewSender creates a Sender with the given dependencies.
func NewSender(cfg SenderConfig) *Sender {
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Sender{
		provider: cfg.Provider,
		logs:     cfg.Logs,
		composer: cfg.Composer,
		from:     cfg.From,
		logger:   logger,
	}
}

// Send delivers the variant to the profile under the given category. Every
// outcome (sent, failed, skipped) is written to the email log with a reason.
// The returned status tells the caller what happened; the error is non-nil
// only for provider or log failures, never for skips.
func (s *Sender) Send(ctx context.Context, profile *types.Profile, category types.EmailCategory, v Variant, now time.Time) (types.EmailStatus, error) {
	if profile.Email == "" {
		s.record(ctx, profile.ID, category, types.EmailSkipped, types.SkipReasonNoEmail, "")
		return types.EmailSkipped, nil
	}

	// Opt-out check. A missing preference row means all categories enabled.
	pref, err := s.logs.GetPreference(ctx, profile.ID)
	if err != nil {
		// Treat a preference read failure like the dedup gate treats ledger
		// failures: do not send.
		s.logger.Warn("email preference check failed, suppressing send",
			"profile_id", profile.ID, "category", string(category), "error", err.Error())
		return types.EmailSkipped, err
	}
	if !pref.CategoryEnabled(category) {
		s.record(ctx, profile.ID, category, types.EmailSkipped, types.SkipReasonOptOut, "")
		return types.EmailSkipped, nil
	}

	// Cooldown check against the last successfully sent email of this
	// category. Failed and skipped attempts do not restart the clock.
	cooldown := types.EmailCooldowns[category]
	if cooldown > 0 {
		lastSent, err := s.logs.LastSentAt(ctx, profile.ID, category)
		if err != nil {
			s.logger.Warn("email cooldown check failed, suppressing send",
				"profile_id", profile.ID, "category", string(category), "error", err.Error())
			return types.EmailSkipped, err
		}
		if lastSent != nil && now.Sub(*lastSent) < cooldown {
			s.record(ctx, profile.ID, category, types.EmailSkipped, types.SkipReasonCooldown, "")
			return types.EmailSkipped, nil
		}
	}

	rendered, err := s.composer.Compose(v)
	if err != nil {
		s.record(ctx, profile.ID, category, types.EmailFailed, err.Error(), "")
		return types.EmailFailed, err
	}

	refID := "eml_" + uuid.NewString()
	msgID, err := s.provider.Send(ctx, types.SendInput{
		To:          profile.Email,
		From:        s.from,
		Subject:     rendered.Subject,
		BodyHTML:    rendered.BodyHTML,
		BodyText:    rendered.BodyText,
		ReferenceID: refID,
	})
	if err != nil {
		s.record(ctx, profile.ID, category, types.EmailFailed, err.Error(), "")
		return types.EmailFailed, err
	}

	s.record(ctx, profile.ID, category, types.EmailSent, "", msgID)
	return types.EmailSent, nil
}

// record writes an email log row. Log failures are logged but never fail the
// send path; a delivered email with a missing audit row beats the reverse.
func (s *Sender) record(ctx context.Context, profileID string, category types.EmailCategory, status types.EmailStatus, reason, msgID string) {
	err := s.logs.Insert(ctx, &types.EmailLog{
		ID:            "eml_" + uuid.NewString(),
		ProfileID:     profileID,
		Category:      category,
		Status:        status,
		Reason:        reason,
		ProviderMsgID: msgID,
	})
	if err != nil {
		s.logger.Error("failed to write email log",
			"profile_id", profileID, "category", string(category),
			"status", string(status), "error", err.Error())
	}
}
