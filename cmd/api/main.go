// Package main is the entry point for the Accord notification API server.
//
// It loads configuration, connects to the entity store, wires the job
// registry behind the trigger endpoints and the payment webhook behind its
// shared-secret verifier, and serves HTTP with graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"accord/internal/api"
	"accord/internal/api/handlers"
	"accord/internal/app"
	"accord/internal/config"
	"accord/internal/db"
	"accord/internal/external"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("accord notification engine starting",
		"environment", cfg.Environment,
		"service", cfg.Service,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	eng, err := app.Build(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}

	srv, err := api.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = []api.HealthProbe{dbProbe{pool: pool}}

	jobsHandler := handlers.NewJobsHandler(eng.Runner, logger)
	webhookHandler := handlers.NewPaymentWebhookHandler(
		external.NewWebhookVerifier(cfg.Payment.WebhookSecret),
		eng.Reconciler,
		logger,
	)
	srv.ProtectedRoutes = append(srv.ProtectedRoutes, jobsHandler.Routes)
	srv.PublicRoutes = append(srv.PublicRoutes, webhookHandler.Routes)
	srv.MountRoutes()

	return serve(ctx, cfg, srv, logger)
}

// serve runs the HTTP listener and a shutdown watcher in an errgroup. The
// first to fail (listener error or signal-driven shutdown) unwinds the other.
func serve(ctx context.Context, cfg *config.Config, srv *api.Server, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}

// dbProbe reports entity store reachability for the health endpoint.
type dbProbe struct {
	pool *pgxpool.Pool
}

func (dbProbe) Name() string                      { return "database" }
func (p dbProbe) Check(ctx context.Context) error { return p.pool.Ping(ctx) }

// newLogger creates the JSON structured logger for the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
