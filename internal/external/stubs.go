package external

import (
	"context"
	"log/slog"

	"accord/internal/types"
)

// Stub providers for local development, where no real push/email/metrics
// back-ends exist. They log what would have been sent and succeed.

// StubPushProvider implements PushProvider by logging each batch.
type StubPushProvider struct {
	Logger *slog.Logger
}

// SendBatch logs the batch and returns an "ok" receipt per message.
func (s *StubPushProvider) SendBatch(ctx context.Context, messages []types.PushMessage) ([]types.PushReceipt, error) {
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "stub push: batch suppressed", "count", len(messages))
	}
	receipts := make([]types.PushReceipt, len(messages))
	for i := range receipts {
		receipts[i] = types.PushReceipt{Status: "ok"}
	}
	return receipts, nil
}

// StubEmailProvider implements EmailProvider by logging the send.
type StubEmailProvider struct {
	Logger *slog.Logger
}

// Send logs the email and returns a synthetic message id.
func (s *StubEmailProvider) Send(ctx context.Context, input types.SendInput) (string, error) {
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "stub email: send suppressed",
			"subject", input.Subject, "reference_id", input.ReferenceID)
	}
	return "stub-" + input.ReferenceID, nil
}

// NopMetrics implements MetricsPublisher by discarding everything.
type NopMetrics struct{}

// PublishRunMetrics discards the counters.
func (NopMetrics) PublishRunMetrics(ctx context.Context, job string, queued, skipped, errors int) {}

var (
	_ PushProvider     = (*StubPushProvider)(nil)
	_ EmailProvider    = (*StubEmailProvider)(nil)
	_ MetricsPublisher = NopMetrics{}
)
