// Package api provides the HTTP chassis for the Accord notification engine.
// It creates a chi router compatible with both standard HTTP (local dev) and
// AWS Lambda proxy integration, and enforces cross-cutting concerns before
// requests reach domain handlers: panic recovery, request IDs, structured
// logging, and trigger-token authentication.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"accord/internal/config"
)

// healthCheckTimeout bounds the total time spent on health probes.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is a subsystem health check. Each probe represents a critical
// dependency (database, queue) that must be reachable for the service to
// operate.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

// RouteRegistrar mounts a group of handler routes on the router. Handlers
// register through this indirection so the chassis package never imports them.
type RouteRegistrar func(r chi.Router)

// Server bundles the chassis dependencies for the trigger API.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	HealthProbes []HealthProbe

	// ProtectedRoutes are mounted behind trigger-token auth; PublicRoutes
	// are mounted with only the base middleware (webhooks carry their own
	// shared-secret verification).
	ProtectedRoutes []RouteRegistrar
	PublicRoutes    []RouteRegistrar

	router *chi.Mux
}

// NewServer validates the chassis dependencies and prepares the router. The
// caller mounts routes via MountRoutes after registering handlers.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router. Used by both
// http.ListenAndServe (local) and the Lambda proxy adapter.
func (s *Server) Handler() http.Handler {
	return s.router
}

// MountRoutes registers the global middleware chain and all routes.
// Middleware order matters: the recoverer is outermost, the request ID must
// exist before logging, and auth runs last so rejections are fully logged.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger))

	s.router.Get("/health", s.HandleHealth)

	s.router.Group(func(r chi.Router) {
		for _, registrar := range s.PublicRoutes {
			registrar(r)
		}
	})

	s.router.Group(func(r chi.Router) {
		r.Use(TriggerAuth(s.Config.Jobs.TriggerTokenHash))
		for _, registrar := range s.ProtectedRoutes {
			registrar(r)
		}
	})
}

// componentStatus is the health state of a single subsystem.
type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthResponse is the JSON body of the health endpoint.
type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs the registered probes under a short deadline. Returns 200
// when every probe reports healthy, 503 otherwise. Public, no auth.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	components := make(map[string]componentStatus, len(s.HealthProbes))
	allHealthy := true
	for _, probe := range s.HealthProbes {
		if err := probe.Check(ctx); err != nil {
			allHealthy = false
			components[probe.Name()] = componentStatus{Status: "unhealthy", Message: err.Error()}
			continue
		}
		components[probe.Name()] = componentStatus{Status: "healthy"}
	}

	resp := healthResponse{Status: "healthy", Components: components}
	status := http.StatusOK
	if !allHealthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	JSON(w, r, status, resp)
}
