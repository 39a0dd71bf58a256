package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCodeHTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeValidationInvalidKind, http.StatusBadRequest},
		{ErrCodeValidationInvalidBody, http.StatusBadRequest},
		{ErrCodeAuthTokenMissing, http.StatusUnauthorized},
		{ErrCodeAuthTokenInvalid, http.StatusUnauthorized},
		{ErrCodeNotFoundProfile, http.StatusNotFound},
		{ErrCodeNotFoundSubscription, http.StatusNotFound},
		{ErrCodeNotFoundJob, http.StatusNotFound},
		{ErrCodeConflictDuplicate, http.StatusConflict},
		{ErrCodeEmailBlocked, http.StatusForbidden},
		{ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{ErrCodeUpstreamPushProvider, http.StatusBadGateway},
		{ErrCodeUpstreamEmailProvider, http.StatusBadGateway},
		{ErrCodeUpstreamPriceCatalog, http.StatusBadGateway},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{ErrCodeInternalDB, http.StatusInternalServerError},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrorCode("something_novel"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := NewAppError(ErrCodeNotFoundJob, "no job registered", nil)
	want := "not_found_job: no job registered"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewAppError(ErrCodeInternalDB, "query failed", inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped cause")
	}

	wrapped := fmt.Errorf("run inactivity: %w", err)
	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should find the AppError through another wrap")
	}
	if appErr.Code != ErrCodeInternalDB {
		t.Errorf("code = %q, want %q", appErr.Code, ErrCodeInternalDB)
	}
}
