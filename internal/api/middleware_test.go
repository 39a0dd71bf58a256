package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"accord/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func triggerAuthHandler(t *testing.T, token string) http.Handler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return TriggerAuth(types.SecretString(hash))(okHandler())
}

func TestTriggerAuthAcceptsValidToken(t *testing.T) {
	h := triggerAuthHandler(t, "trg_secret")

	req := httptest.NewRequest(http.MethodPost, "/jobs/inactivity", nil)
	req.Header.Set("Authorization", "Bearer trg_secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestTriggerAuthRejectsWrongToken(t *testing.T) {
	h := triggerAuthHandler(t, "trg_secret")

	req := httptest.NewRequest(http.MethodPost, "/jobs/inactivity", nil)
	req.Header.Set("Authorization", "Bearer trg_wrong")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}

	var errResp map[string]map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if code, _ := errResp["error"]["code"].(string); code != string(types.ErrCodeAuthTokenInvalid) {
		t.Errorf("expected error code %q, got %q", types.ErrCodeAuthTokenInvalid, code)
	}
}

func TestTriggerAuthRejectsMissingHeader(t *testing.T) {
	h := triggerAuthHandler(t, "trg_secret")

	req := httptest.NewRequest(http.MethodPost, "/jobs/inactivity", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestRequestIDMiddlewarePropagatesIncomingID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = types.GetRequestID(r.Context())
	})
	h := RequestIDMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req_upstream")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen != "req_upstream" {
		t.Errorf("context request id = %q, want the incoming header value", seen)
	}
	if got := rr.Header().Get("X-Request-Id"); got != "req_upstream" {
		t.Errorf("response header = %q, want the incoming header echoed", got)
	}
}

func TestRequestIDMiddlewareGeneratesWhenAbsent(t *testing.T) {
	h := RequestIDMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("expected a generated request id header")
	}
}

func TestRecovererTurnsPanicInto500(t *testing.T) {
	srv := &Server{Logger: testLogger()}
	h := srv.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/jobs/inactivity", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}

	var errResp map[string]map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if code, _ := errResp["error"]["code"].(string); code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("expected error code %q, got %q", types.ErrCodeInternalUnexpected, code)
	}
}
