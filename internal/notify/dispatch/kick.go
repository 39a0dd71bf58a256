package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"accord/internal/types"
)

// SQSAPI is the subset of the SQS client the kicker uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// kickMessage is the body published to the dispatch queue after a run
// enqueues records. The delivery processor treats it as a wake-up signal;
// the actual work items live in the notification queue table.
type kickMessage struct {
	Job      string    `json:"job"`
	Queued   int       `json:"queued"`
	QueuedAt time.Time `json:"queued_at"`
}

// Kicker publishes a single wake-up message per job run so the downstream
// delivery processor picks up freshly queued records promptly instead of
// waiting for its own poll interval.
type Kicker struct {
	client   SQSAPI
	queueURL string
	logger   types.Logger
}

// NewKicker creates a Kicker. An empty queueURL disables kicking (local
// runs without SQS).
func NewKicker(client SQSAPI, queueURL string, logger types.Logger) *Kicker {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Kicker{client: client, queueURL: queueURL, logger: logger}
}

// Kick publishes the wake-up message. Called at most once per run, and only
// when the run queued at least one record. A publish failure is logged and
// swallowed: the queued records are already durable and the processor's
// regular poll will find them.
func (k *Kicker) Kick(ctx context.Context, job string, queued int, now time.Time) {
	if k.queueURL == "" || k.client == nil || queued == 0 {
		return
	}

	body, err := json.Marshal(kickMessage{Job: job, Queued: queued, QueuedAt: now})
	if err != nil {
		k.logger.Error("failed to encode kick message", "job", job, "error", err.Error())
		return
	}

	_, err = k.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(k.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		k.logger.Warn("failed to kick dispatch queue",
			"job", job, "queued", queued, "error", err.Error())
		return
	}
	k.logger.Info("dispatch queue kicked", "job", job, "queued", queued)
}
