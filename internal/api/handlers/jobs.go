// Package handlers contains the HTTP handlers of the trigger API. Each
// handler declares the narrow interfaces it needs so tests can inject fakes
// without touching real infrastructure.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"accord/internal/api"
	"accord/internal/jobs"
)

// JobRunner executes a registered job by name.
type JobRunner interface {
	Run(ctx context.Context, name string) (jobs.RunReport, error)
}

// JobsHandler exposes the scheduled jobs as HTTP trigger endpoints so the
// scheduler (or an operator) can invoke any run on demand.
type JobsHandler struct {
	runner JobRunner
	logger *slog.Logger
}

// NewJobsHandler creates the jobs handler.
func NewJobsHandler(runner JobRunner, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{runner: runner, logger: logger}
}

// Routes mounts the trigger endpoints. The caller places them behind
// trigger-token auth.
func (h *JobsHandler) Routes(r chi.Router) {
	r.Post("/jobs/{name}", h.HandleTrigger)
}

// HandleTrigger runs the named job and returns its report. An unknown name
// maps to 404; a run that aborted mid-way returns 500 with the partial
// counts, since work already queued stays queued.
func (h *JobsHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	report, err := h.runner.Run(r.Context(), name)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	status := http.StatusOK
	if !report.Success {
		status = http.StatusInternalServerError
	}
	api.JSON(w, r, status, report)
}
