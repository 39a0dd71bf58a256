package jobs

import (
	"context"
	"encoding/json"
	"time"

	"accord/internal/external"
	"accord/internal/types"
)

// DeliveryLedger is the slice of the ledger repository the delivery job uses.
type DeliveryLedger interface {
	ListPending(ctx context.Context, limit int) ([]*types.NotificationRecord, error)
	UpdateStatus(ctx context.Context, id string, status types.NotificationStatus) error
}

// PushDeliveryJob drains pending queue rows through the push provider and
// records the per-message outcome. It runs on the scheduler like the reminder
// jobs and is also what the SQS kick wakes after a run enqueues records.
type PushDeliveryJob struct {
	ledger   DeliveryLedger
	provider external.PushProvider
	batch    int
	logger   types.Logger
}

// NewPushDeliveryJob creates the push delivery job.
func NewPushDeliveryJob(ledger DeliveryLedger, provider external.PushProvider, batch int, logger types.Logger) *PushDeliveryJob {
	if logger == nil {
		logger = types.NopLogger{}
	}
	if batch <= 0 {
		batch = 500
	}
	return &PushDeliveryJob{ledger: ledger, provider: provider, batch: batch, logger: logger}
}

func (j *PushDeliveryJob) Name() string { return "push-delivery" }

// Run sends one batch of pending records. Receipts come back index-aligned
// with the messages; each row's status is written individually so a partial
// status-write failure never re-sends the whole batch.
func (j *PushDeliveryJob) Run(ctx context.Context, now time.Time) RunReport {
	report := RunReport{Job: j.Name(), Success: true}

	rows, err := j.ledger.ListPending(ctx, j.batch)
	if err != nil {
		return failedRun(j.Name(), 0, 0, 0, 0, err)
	}
	if len(rows) == 0 {
		return report
	}

	messages := make([]types.PushMessage, len(rows))
	for i, rec := range rows {
		messages[i] = types.PushMessage{
			To:    rec.PushToken,
			Title: rec.Title,
			Body:  rec.Body,
			Data:  payloadData(rec),
			Sound: "default",
		}
	}

	receipts, err := j.provider.SendBatch(ctx, messages)
	if err != nil {
		// Transport-level failure: rows stay pending and the next run retries.
		return failedRun(j.Name(), 0, 0, 0, 0, err)
	}

	for i, rec := range rows {
		status := types.NotificationSent
		if receipts[i].Status != "ok" {
			status = types.NotificationFailed
			j.logger.Warn("push rejected by provider",
				"notification_id", rec.ID, "reason", receipts[i].Message)
			report.Errors++
		}
		if err := j.ledger.UpdateStatus(ctx, rec.ID, status); err != nil {
			j.logger.Error("failed to record delivery outcome",
				"notification_id", rec.ID, "error", err.Error())
			report.Errors++
			continue
		}
		if status == types.NotificationSent {
			report.TotalQueued++
		}
	}
	return report
}

// payloadData flattens the record's typed payload into the free-form data
// map the push provider forwards to the client app.
func payloadData(rec *types.NotificationRecord) map[string]any {
	data := map[string]any{"kind": string(rec.Kind)}
	if rec.Payload == nil {
		return data
	}
	body, err := json.Marshal(rec.Payload)
	if err != nil {
		return data
	}
	var flat map[string]any
	if err := json.Unmarshal(body, &flat); err != nil {
		return data
	}
	for k, v := range flat {
		data[k] = v
	}
	return data
}
