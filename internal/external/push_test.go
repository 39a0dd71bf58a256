package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"accord/internal/types"
)

func noSleep(time.Duration) {}

func newTestBaseClient() *BaseClient {
	policy := RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
	return NewBaseClient(&http.Client{Timeout: time.Second}, "push-test", policy, "accord-test", WithSleepFunc(noSleep))
}

func testMessages(n int) []types.PushMessage {
	msgs := make([]types.PushMessage, n)
	for i := range msgs {
		msgs[i] = types.PushMessage{To: "tok", Title: "t", Body: "b"}
	}
	return msgs
}

func okReceipts(n int) []byte {
	receipts := make([]types.PushReceipt, n)
	for i := range receipts {
		receipts[i] = types.PushReceipt{Status: "ok"}
	}
	b, _ := json.Marshal(map[string]any{"data": receipts})
	return b
}

func TestSendBatchChunksOversizedBatches(t *testing.T) {
	var chunkSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msgs []types.PushMessage
		if err := json.NewDecoder(r.Body).Decode(&msgs); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chunkSizes = append(chunkSizes, len(msgs))
		w.Write(okReceipts(len(msgs)))
	}))
	defer srv.Close()

	client := NewPushClient(newTestBaseClient(), PushClientConfig{APIURL: srv.URL, BatchSize: 2})

	receipts, err := client.SendBatch(context.Background(), testMessages(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(receipts) != 5 {
		t.Fatalf("receipts = %d, want one per message", len(receipts))
	}
	want := []int{2, 2, 1}
	if len(chunkSizes) != len(want) {
		t.Fatalf("chunk sizes = %v, want %v", chunkSizes, want)
	}
	for i := range want {
		if chunkSizes[i] != want[i] {
			t.Fatalf("chunk sizes = %v, want %v", chunkSizes, want)
		}
	}
}

func TestSendBatchSetsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write(okReceipts(1))
	}))
	defer srv.Close()

	client := NewPushClient(newTestBaseClient(), PushClientConfig{
		APIURL:      srv.URL,
		AccessToken: types.SecretString("push_token_123"),
	})

	if _, err := client.SendBatch(context.Background(), testMessages(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer push_token_123" {
		t.Errorf("Authorization = %q, want the bearer token", gotAuth)
	}
}

func TestSendBatchRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(okReceipts(1))
	}))
	defer srv.Close()

	client := NewPushClient(newTestBaseClient(), PushClientConfig{APIURL: srv.URL})

	receipts, err := client.SendBatch(context.Background(), testMessages(1))
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want the failed attempt retried once", calls)
	}
	if receipts[0].Status != "ok" {
		t.Errorf("receipt = %+v, want ok", receipts[0])
	}
}

func TestSendBatchMapsExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewPushClient(newTestBaseClient(), PushClientConfig{APIURL: srv.URL})

	_, err := client.SendBatch(context.Background(), testMessages(1))
	if err == nil {
		t.Fatal("expected an error after exhausted retries")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamUnavailable {
		t.Fatalf("error = %v, want the upstream-unavailable code", err)
	}
}

func TestSendBatchRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewPushClient(newTestBaseClient(), PushClientConfig{APIURL: srv.URL})

	_, err := client.SendBatch(context.Background(), testMessages(1))
	if err == nil {
		t.Fatal("expected an error for a rejected batch")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamPushProvider {
		t.Fatalf("error = %v, want the push-provider code", err)
	}
}

func TestSendBatchRejectsReceiptCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(okReceipts(1))
	}))
	defer srv.Close()

	client := NewPushClient(newTestBaseClient(), PushClientConfig{APIURL: srv.URL})

	_, err := client.SendBatch(context.Background(), testMessages(3))
	if err == nil {
		t.Fatal("expected an error when receipts are not index-aligned")
	}
}
