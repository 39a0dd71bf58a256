package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{}, nil
}

var kickNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestKickPublishesWakeUp(t *testing.T) {
	client := &fakeSQS{}
	k := NewKicker(client, "https://sqs.us-east-1.amazonaws.com/123/dispatch", nil)

	k.Kick(context.Background(), "inactivity", 7, kickNow)

	if len(client.inputs) != 1 {
		t.Fatalf("expected 1 SendMessage call, got %d", len(client.inputs))
	}
	in := client.inputs[0]
	if *in.QueueUrl != "https://sqs.us-east-1.amazonaws.com/123/dispatch" {
		t.Errorf("queue url = %q", *in.QueueUrl)
	}
	if !strings.Contains(*in.MessageBody, `"job":"inactivity"`) || !strings.Contains(*in.MessageBody, `"queued":7`) {
		t.Errorf("message body = %q, want the job name and queued count", *in.MessageBody)
	}
}

func TestKickSkipsEmptyRuns(t *testing.T) {
	client := &fakeSQS{}
	k := NewKicker(client, "https://sqs.us-east-1.amazonaws.com/123/dispatch", nil)

	k.Kick(context.Background(), "inactivity", 0, kickNow)

	if len(client.inputs) != 0 {
		t.Fatal("a run that queued nothing must not kick the queue")
	}
}

func TestKickDisabledWithoutQueueURL(t *testing.T) {
	client := &fakeSQS{}
	k := NewKicker(client, "", nil)

	k.Kick(context.Background(), "inactivity", 3, kickNow)

	if len(client.inputs) != 0 {
		t.Fatal("an empty queue url must disable kicking")
	}
}

func TestKickSwallowsPublishFailure(t *testing.T) {
	// Queued records are already durable; the processor's poll will find them.
	client := &fakeSQS{err: errors.New("access denied")}
	k := NewKicker(client, "https://sqs.us-east-1.amazonaws.com/123/dispatch", nil)

	k.Kick(context.Background(), "inactivity", 3, kickNow)
}
