package external

import (
	"crypto/subtle"
	"strings"

	"accord/internal/types"
)

// WebhookVerifier authenticates payment-provider webhook deliveries against
// the configured shared secret. Verification runs before any payload parsing:
// an unauthenticated body is never unmarshalled.
type WebhookVerifier struct {
	secret types.SecretString
}

// NewWebhookVerifier creates a verifier for the given shared secret.
func NewWebhookVerifier(secret types.SecretString) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify checks the Authorization header value against the shared secret in
// constant time. Accepts the bare secret or a "Bearer <secret>" form.
func (v *WebhookVerifier) Verify(authorization string) error {
	if authorization == "" {
		return types.NewAppError(types.ErrCodeAuthTokenMissing,
			"missing authorization header", nil)
	}

	presented := strings.TrimPrefix(authorization, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(presented), []byte(v.secret.Unmask())) != 1 {
		return types.NewAppError(types.ErrCodeAuthTokenInvalid,
			"webhook authorization rejected", nil)
	}
	return nil
}
