// Package app assembles the notification engine from configuration. Both
// entry points (the HTTP server and the scheduled Lambda runner) share this
// wiring so a job behaves identically however it is triggered.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"accord/internal/billing"
	"accord/internal/config"
	"accord/internal/db"
	"accord/internal/external"
	"accord/internal/jobs"
	"accord/internal/notify/dedup"
	"accord/internal/notify/dispatch"
	"accord/internal/notify/eligibility"
	"accord/internal/notify/email"
	"accord/internal/types"
)

// Engine bundles the wired components the entry points expose.
type Engine struct {
	Runner     *jobs.Runner
	Reconciler *billing.Reconciler
}

// Build wires repositories, providers, and the job registry. In local mode
// the push, email, and metrics providers are replaced with logging stubs so
// the engine runs without AWS credentials.
func Build(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Engine, error) {
	if err := eligibility.ValidateTiers(eligibility.InactivityTiers); err != nil {
		return nil, fmt.Errorf("inactivity tiers misconfigured: %w", err)
	}

	appLog := types.NewSlogLogger(logger)

	profiles := db.NewProfileRepository(pool)
	subs := db.NewSubscriptionRepository(pool)
	matches := db.NewMatchRepository(pool)
	ledger := db.NewLedgerRepository(pool)
	emailLogs := db.NewEmailLogRepository(pool)
	activity := db.NewActivityRepository(pool)
	prices := db.NewPriceRepository(pool)

	selector := eligibility.NewSelector(profiles, subs, matches, cfg.Jobs.BatchLimit)
	gate := dedup.NewGate(ledger, appLog)
	writer := dispatch.NewWriter(ledger, profiles, appLog)

	composer, err := email.NewComposer()
	if err != nil {
		return nil, fmt.Errorf("parsing email templates: %w", err)
	}

	var (
		pushProvider  external.PushProvider
		emailProvider external.EmailProvider
		metrics       external.MetricsPublisher = external.NopMetrics{}
		kicker        *dispatch.Kicker
	)
	if cfg.IsLocal() {
		pushProvider = &external.StubPushProvider{Logger: logger}
		emailProvider = &external.StubEmailProvider{Logger: logger}
		kicker = dispatch.NewKicker(nil, "", appLog)
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS configuration: %w", err)
		}

		base := external.NewBaseClient(
			&http.Client{Timeout: cfg.Push.Timeout},
			"push-provider",
			external.DefaultRetryPolicy(),
			cfg.Service,
		)
		pushProvider = external.NewPushClient(base, external.PushClientConfig{
			APIURL:      cfg.Push.APIURL,
			AccessToken: cfg.Push.AccessToken,
			BatchSize:   cfg.Push.BatchSize,
			Logger:      logger,
		})
		emailProvider = external.NewSESClient(awsCfg, external.SESClientConfig{
			ConfigSetName: cfg.Email.ConfigSetName,
			Logger:        logger,
		})
		kicker = dispatch.NewKicker(sqs.NewFromConfig(awsCfg), cfg.AWS.DispatchQueueURL, appLog)
		if cfg.Observability.EnableMetrics {
			metrics = external.NewCloudWatchMetrics(awsCfg, cfg.Observability.MetricNamespace, logger)
		}
	}

	var sender *email.Sender
	if cfg.Email.Enabled {
		sender = email.NewSender(email.SenderConfig{
			Provider: emailProvider,
			Logs:     emailLogs,
			Composer: composer,
			From: types.SenderIdentity{
				Name:    cfg.Email.FromName,
				Address: cfg.Email.FromAddress,
			},
			Logger: appLog,
		})
	}

	trialDeps := jobs.TrialDeps{
		Selector: selector,
		Gate:     gate,
		Writer:   writer,
		Profiles: profiles,
		Activity: activity,
		Logger:   appLog,
	}

	catalog := external.NewStripeCatalog(cfg.Payment.StripeSecretKey, logger)
	syncer := billing.NewPriceSyncer(catalog, prices, cfg.Payment.ProductIDs, appLog)

	registry := jobs.NewRegistry(
		jobs.NewTrialEngagementJob(trialDeps),
		jobs.NewTrialExpiryJob(trialDeps),
		jobs.NewInactivityJob(selector, gate, writer, activity, sender, appLog),
		jobs.NewOnboardingJob(selector, gate, writer, sender, appLog),
		jobs.NewMatchExpirationJob(selector, writer, profiles, matches, sender, appLog),
		jobs.NewSwipeRefreshJob(selector, gate, writer, appLog),
		jobs.NewPushDeliveryJob(ledger, pushProvider, cfg.Jobs.BatchLimit, appLog),
		jobs.NewLedgerArchivalJob(ledger, cfg.Jobs.ArchiveDir, cfg.Jobs.ArchivalRetention, cfg.Jobs.BatchLimit, appLog),
		jobs.NewPriceSyncJob(syncer),
	)

	return &Engine{
		Runner:     jobs.NewRunner(registry, metrics, kicker, types.RealClock{}, appLog),
		Reconciler: billing.NewReconciler(subs, profiles, appLog),
	}, nil
}
