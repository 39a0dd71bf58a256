// Package main is the entrypoint for the scheduled job-runner Lambda.
//
// The scheduler invokes it with a payload naming the job to run, e.g.
// {"job": "inactivity"}. The same function also subscribes to the dispatch
// queue: an SQS kick event (published after a run enqueues push records)
// triggers the push-delivery job so freshly queued records go out promptly.
//
// Cold start wiring is shared with cmd/api via internal/app, so a job behaves
// identically whether triggered over HTTP or by the scheduler.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"accord/internal/app"
	"accord/internal/config"
	"accord/internal/db"
	"accord/internal/jobs"
)

// triggerEvent is the scheduler's invocation payload.
type triggerEvent struct {
	Job string `json:"job"`
}

// sqsEvent is the minimal shape of an SQS-sourced invocation. Only presence
// matters; the kick message body is a wake-up signal, not a work item.
type sqsEvent struct {
	Records []struct {
		Body string `json:"body"`
	} `json:"Records"`
}

// Handler routes Lambda invocations to the job registry.
type Handler struct {
	runner *jobs.Runner
	logger *slog.Logger
}

// Handle resolves the job name from the event and runs it. SQS-sourced
// events always map to push-delivery.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (jobs.RunReport, error) {
	name, err := resolveJob(raw)
	if err != nil {
		h.logger.Error("unrecognized invocation payload", "error", err.Error())
		return jobs.RunReport{}, err
	}

	report, err := h.runner.Run(ctx, name)
	if err != nil {
		return jobs.RunReport{}, err
	}
	if !report.Success {
		// Surface the failure to Lambda so the invocation is marked failed
		// and alarms fire; the report still carries the partial counts.
		return report, fmt.Errorf("job %s failed: %s", name, report.Error)
	}
	return report, nil
}

// resolveJob extracts the job name from either invocation shape.
func resolveJob(raw json.RawMessage) (string, error) {
	var kick sqsEvent
	if err := json.Unmarshal(raw, &kick); err == nil && len(kick.Records) > 0 {
		return "push-delivery", nil
	}

	var trigger triggerEvent
	if err := json.Unmarshal(raw, &trigger); err != nil {
		return "", fmt.Errorf("parsing invocation payload: %w", err)
	}
	if trigger.Job == "" {
		return "", fmt.Errorf("invocation payload names no job")
	}
	return trigger.Job, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err.Error())
		os.Exit(1)
	}

	eng, err := app.Build(ctx, cfg, pool, logger)
	if err != nil {
		logger.Error("failed to wire engine", "error", err.Error())
		os.Exit(1)
	}

	h := &Handler{runner: eng.Runner, logger: logger}
	lambda.Start(h.Handle)
}
