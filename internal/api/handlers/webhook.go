package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"accord/internal/api"
	"accord/internal/types"
)

// maxWebhookBodySize caps payment webhook bodies at 64KB. Provider events
// are small; anything larger is malformed or malicious.
const maxWebhookBodySize = 64 * 1024

// WebhookVerifier authenticates a webhook delivery from its Authorization
// header before any payload parsing happens.
type WebhookVerifier interface {
	Verify(authorization string) error
}

// EventApplier reconciles a payment event into subscription state.
type EventApplier interface {
	Apply(ctx context.Context, event *types.PaymentEvent) error
}

// PaymentWebhookHandler receives subscription lifecycle events from the
// payment provider.
type PaymentWebhookHandler struct {
	verifier   WebhookVerifier
	reconciler EventApplier
	logger     *slog.Logger
}

// NewPaymentWebhookHandler creates the payment webhook handler.
func NewPaymentWebhookHandler(verifier WebhookVerifier, reconciler EventApplier, logger *slog.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{verifier: verifier, reconciler: reconciler, logger: logger}
}

// Routes mounts the webhook endpoint. It is public at the router level; the
// shared-secret check below is its authentication.
func (h *PaymentWebhookHandler) Routes(r chi.Router) {
	r.Post("/webhooks/payment", h.HandleEvent)
}

// HandleEvent verifies, parses, and applies one payment event.
//
// Processing failures after verification still return 200: the provider
// retries on non-2xx, and replaying an event the reconciler has already
// applied (or will apply on the next delivery of a newer event) only churns
// the queue. The failure is logged for investigation instead.
func (h *PaymentWebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	// Authenticate before touching the body. An unverified payload is never
	// parsed.
	if err := h.verifier.Verify(r.Header.Get("Authorization")); err != nil {
		h.logger.Warn("webhook verification failed", slog.String("error", err.Error()))
		api.Error(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		api.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidBody,
			"failed to read webhook body", err))
		return
	}

	var event types.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("webhook payload unparseable", slog.String("error", err.Error()))
		api.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidBody,
			"malformed payment event", err))
		return
	}

	if err := h.reconciler.Apply(r.Context(), &event); err != nil {
		h.logger.Error("payment event processing failed",
			slog.String("event_id", event.ID),
			slog.String("event_type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		// Return 200 anyway to stop the provider from retrying a delivery
		// that will fail the same way.
		api.JSON(w, r, http.StatusOK, map[string]bool{"received": true})
		return
	}

	api.JSON(w, r, http.StatusOK, map[string]bool{"received": true})
}
