package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"accord/internal/types"
)

// mockVerifier implements WebhookVerifier for testing.
type mockVerifier struct {
	err error
}

func (m *mockVerifier) Verify(authorization string) error {
	return m.err
}

// mockApplier implements EventApplier for testing.
type mockApplier struct {
	applied []*types.PaymentEvent
	err     error
}

func (m *mockApplier) Apply(ctx context.Context, event *types.PaymentEvent) error {
	m.applied = append(m.applied, event)
	return m.err
}

func buildPaymentEvent(eventType types.PaymentEventType) []byte {
	b, _ := json.Marshal(map[string]any{
		"id":          "evt_1",
		"type":        string(eventType),
		"app_user_id": "prf_1",
		"tier":        "premium",
		"expires_at":  time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"event_at":    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
	})
	return b
}

func doPaymentWebhook(verifier *mockVerifier, applier *mockApplier, body []byte, auth string) *httptest.ResponseRecorder {
	h := NewPaymentWebhookHandler(verifier, applier, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	h.HandleEvent(rr, req)
	return rr
}

func TestPaymentWebhook_RejectsBadSecret(t *testing.T) {
	verifier := &mockVerifier{err: types.NewAppError(types.ErrCodeAuthTokenInvalid, "rejected", nil)}
	applier := &mockApplier{}

	rr := doPaymentWebhook(verifier, applier, buildPaymentEvent(types.PaymentRenewal), "Bearer wrong")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if len(applier.applied) != 0 {
		t.Fatal("an unverified payload must never reach the reconciler")
	}

	var errResp map[string]map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if code, ok := errResp["error"]["code"].(string); !ok || code != string(types.ErrCodeAuthTokenInvalid) {
		t.Errorf("expected error code %q, got %q", types.ErrCodeAuthTokenInvalid, code)
	}
}

func TestPaymentWebhook_RejectsMalformedBody(t *testing.T) {
	applier := &mockApplier{}

	rr := doPaymentWebhook(&mockVerifier{}, applier, []byte("{not json"), "Bearer secret")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if len(applier.applied) != 0 {
		t.Fatal("a malformed payload must not reach the reconciler")
	}
}

func TestPaymentWebhook_AppliesEvent(t *testing.T) {
	applier := &mockApplier{}

	rr := doPaymentWebhook(&mockVerifier{}, applier, buildPaymentEvent(types.PaymentRenewal), "Bearer secret")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d; body: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if len(applier.applied) != 1 {
		t.Fatalf("expected 1 Apply call, got %d", len(applier.applied))
	}

	event := applier.applied[0]
	if event.Type != types.PaymentRenewal {
		t.Errorf("expected event type %q, got %q", types.PaymentRenewal, event.Type)
	}
	if event.ProfileID != "prf_1" {
		t.Errorf("expected profile id prf_1, got %q", event.ProfileID)
	}

	var resp map[string]bool
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp["received"] {
		t.Error("expected received: true")
	}
}

func TestPaymentWebhook_Returns200OnProcessingFailure(t *testing.T) {
	// A delivery that fails reconciliation still gets a 200 so the provider
	// stops retrying a payload that will fail the same way every time.
	applier := &mockApplier{err: errors.New("db down")}

	rr := doPaymentWebhook(&mockVerifier{}, applier, buildPaymentEvent(types.PaymentExpiration), "Bearer secret")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]bool
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp["received"] {
		t.Error("expected received: true even on processing failure")
	}
}
