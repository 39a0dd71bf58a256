package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"accord/internal/types"
)

// PushClientConfig holds the configuration for creating a PushClient.
type PushClientConfig struct {
	// APIURL is the push provider's batch send endpoint.
	APIURL string
	// AccessToken authenticates to the provider. Optional for dev projects.
	AccessToken types.SecretString
	// BatchSize caps messages per HTTP call; the provider rejects oversized
	// batches. Defaults to 100.
	BatchSize int
	// Logger for push operations.
	Logger *slog.Logger
}

// PushClient implements PushProvider over the push provider's HTTP batch API.
// All calls route through the BaseClient for circuit breaking and retries.
type PushClient struct {
	base        *BaseClient
	apiURL      string
	accessToken types.SecretString
	batchSize   int
	logger      *slog.Logger
}

// pushResponse is the provider's batch response envelope.
type pushResponse struct {
	Data []types.PushReceipt `json:"data"`
}

// NewPushClient creates a PushClient backed by the given BaseClient.
func NewPushClient(base *BaseClient, cfg PushClientConfig) *PushClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &PushClient{
		base:        base,
		apiURL:      cfg.APIURL,
		accessToken: cfg.AccessToken,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// SendBatch transmits the messages in provider-sized chunks and returns one
// receipt per message, index-aligned with the input. A chunk-level transport
// failure fails the whole call; per-message rejections come back as receipts
// with status "error".
func (c *PushClient) SendBatch(ctx context.Context, messages []types.PushMessage) ([]types.PushReceipt, error) {
	receipts := make([]types.PushReceipt, 0, len(messages))

	for start := 0; start < len(messages); start += c.batchSize {
		end := start + c.batchSize
		if end > len(messages) {
			end = len(messages)
		}

		chunk, err := c.sendChunk(ctx, messages[start:end])
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, chunk...)
	}

	return receipts, nil
}

func (c *PushClient) sendChunk(ctx context.Context, messages []types.PushMessage) ([]types.PushReceipt, error) {
	body, err := json.Marshal(messages)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to encode push batch", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build push request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken.Unmask() != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken.Unmask())
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("push provider rejected batch",
			"status", resp.StatusCode, "body", string(respBody))
		return nil, types.NewAppError(types.ErrCodeUpstreamPushProvider,
			fmt.Sprintf("push provider returned %d", resp.StatusCode), nil)
	}

	var parsed pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPushProvider,
			"failed to decode push provider response", err)
	}
	if len(parsed.Data) != len(messages) {
		return nil, types.NewAppError(types.ErrCodeUpstreamPushProvider,
			fmt.Sprintf("push provider returned %d receipts for %d messages",
				len(parsed.Data), len(messages)), nil)
	}
	return parsed.Data, nil
}

// Compile-time assertion that PushClient satisfies PushProvider.
var _ PushProvider = (*PushClient)(nil)
