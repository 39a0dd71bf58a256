// Package dispatch persists pending push notification records and wakes the
// downstream delivery processor. The writer fans one logical notification out
// to every device token a recipient has registered; deduplication stays at
// the (recipient, kind) level, so a recipient with three tokens gets three
// queue rows behind a single dedup decision.
package dispatch

import (
	"context"

	"github.com/google/uuid"

	"accord/internal/types"
)

// LedgerWriter is the slice of the notification ledger the writer needs.
// Insert reports whether the row landed or was absorbed by the uniqueness
// constraint.
type LedgerWriter interface {
	Insert(ctx context.Context, rec *types.NotificationRecord) (bool, error)
}

// TokenLister retrieves a profile's auxiliary device tokens.
type TokenLister interface {
	ListDeviceTokens(ctx context.Context, profileID string) ([]*types.DeviceToken, error)
}

// Notice is one logical notification to one recipient, before token fan-out.
type Notice struct {
	Profile       *types.Profile
	Kind          types.NotificationKind
	Title         string
	Body          string
	Payload       types.Payload
	OccurrenceKey string
}

// Writer writes pending push records into the notification queue.
type Writer struct {
	ledger LedgerWriter
	tokens TokenLister
	logger types.Logger
}

// NewWriter creates a Writer with the given dependencies.
func NewWriter(ledger LedgerWriter, tokens TokenLister, logger types.Logger) *Writer {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Writer{ledger: ledger, tokens: tokens, logger: logger}
}

// QueuePush persists one pending NotificationRecord per device token for the
// notice's recipient and returns the number of rows written. The first row
// carries the occurrence key that backs dedup; rows for additional tokens are
// keyed by token so the uniqueness constraint does not collapse them.
//
// Returns 0 with no error when the recipient has no usable token.
func (w *Writer) QueuePush(ctx context.Context, n Notice) (int, error) {
	tokens := w.collectTokens(ctx, n.Profile)
	if len(tokens) == 0 {
		w.logger.Info("recipient has no push tokens, skipping",
			"profile_id", n.Profile.ID, "kind", string(n.Kind))
		return 0, nil
	}

	queued := 0
	for i, token := range tokens {
		// The primary row owns the bare occurrence key; auxiliary-token rows
		// suffix it so all rows coexist under UNIQUE (profile, kind, key).
		key := n.OccurrenceKey
		if i > 0 {
			key = n.OccurrenceKey + ":" + token
		}

		inserted, err := w.ledger.Insert(ctx, &types.NotificationRecord{
			ID:            "ntf_" + uuid.NewString(),
			ProfileID:     n.Profile.ID,
			Kind:          n.Kind,
			Title:         n.Title,
			Body:          n.Body,
			Payload:       n.Payload,
			PushToken:     token,
			Status:        types.NotificationPending,
			OccurrenceKey: key,
		})
		if err != nil {
			return queued, err
		}
		if !inserted {
			// Another run recorded this occurrence between our dedup read and
			// this write. The constraint absorbed it; nothing more to do for
			// this recipient.
			w.logger.Info("occurrence already recorded, insert absorbed",
				"profile_id", n.Profile.ID, "kind", string(n.Kind), "occurrence_key", key)
			return queued, nil
		}
		queued++
	}
	return queued, nil
}

// collectTokens gathers the recipient's primary token plus auxiliary device
// tokens, deduplicated, primary first. The push_enabled flag covers every
// device the recipient owns, so a disabled profile yields no tokens at all.
// A device-token read failure degrades to primary-token-only rather than
// failing the notice.
func (w *Writer) collectTokens(ctx context.Context, p *types.Profile) []string {
	if !p.PushEnabled {
		return nil
	}

	var tokens []string
	seen := make(map[string]bool)

	if p.PushToken != "" {
		tokens = append(tokens, p.PushToken)
		seen[p.PushToken] = true
	}

	devices, err := w.tokens.ListDeviceTokens(ctx, p.ID)
	if err != nil {
		w.logger.Warn("failed to list device tokens, using primary only",
			"profile_id", p.ID, "error", err.Error())
		return tokens
	}
	for _, d := range devices {
		if d.Token == "" || seen[d.Token] {
			continue
		}
		tokens = append(tokens, d.Token)
		seen[d.Token] = true
	}
	return tokens
}
