// Package config defines the global configuration structure for the Accord
// notification engine. Configuration is loaded once at process initialization
// (Lambda cold start or API server boot) and is immutable thereafter. It
// follows 12-Factor principles by strictly separating code from configuration.
//
// Any missing required value or invalid format causes the process to exit
// immediately on startup (fail fast).
package config

import (
	"time"

	"accord/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Sub-components receive only the
// specific config subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"accord-notify"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Push          PushConfig
	Email         EmailConfig
	Payment       PaymentConfig
	Jobs          JobsConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration for cmd/api.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout  time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// DispatchQueueURL is the SQS queue kicked after push records are queued
	// so the downstream delivery processor wakes up promptly.
	DispatchQueueURL string `envconfig:"SQS_DISPATCH_QUEUE" validate:"omitempty,url"`

	// LocalStack support (empty in prod).
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// PushConfig holds push delivery provider settings.
type PushConfig struct {
	APIURL      string        `envconfig:"PUSH_API_URL" default:"https://exp.host/--/api/v2/push/send"`
	AccessToken SecretString  `envconfig:"PUSH_ACCESS_TOKEN"`
	Timeout     time.Duration `envconfig:"PUSH_TIMEOUT" default:"10s"`
	BatchSize   int           `envconfig:"PUSH_BATCH_SIZE" default:"100"`
}

// EmailConfig holds email delivery provider settings.
type EmailConfig struct {
	FromAddress   string `envconfig:"EMAIL_FROM_ADDRESS" default:"hello@accord.app"`
	FromName      string `envconfig:"EMAIL_FROM_NAME" default:"Accord"`
	ConfigSetName string `envconfig:"SES_CONFIG_SET"`
	Enabled       bool   `envconfig:"FEATURE_ENABLE_EMAIL" default:"true"`
}

// PaymentConfig holds payment provider webhook and catalog credentials.
type PaymentConfig struct {
	// WebhookSecret is the shared secret expected in the Authorization header
	// of payment-provider webhook deliveries.
	WebhookSecret SecretString `envconfig:"PAYMENT_WEBHOOK_SECRET" validate:"required"`

	// StripeSecretKey authenticates price-catalog reads for the price-sync job.
	StripeSecretKey SecretString `envconfig:"STRIPE_SECRET_KEY"`

	// ProductIDs are the catalog products mirrored by the price-sync job.
	ProductIDs []string `envconfig:"STRIPE_PRODUCT_IDS"`
}

// JobsConfig holds settings shared by the reminder jobs.
type JobsConfig struct {
	// TriggerTokenHash is the bcrypt hash of the token required to invoke
	// job-trigger endpoints over HTTP. The plaintext never reaches config.
	TriggerTokenHash SecretString `envconfig:"JOB_TRIGGER_TOKEN_HASH" validate:"required"`

	// BatchLimit bounds rows fetched per selector query.
	BatchLimit int `envconfig:"JOB_BATCH_LIMIT" default:"500"`

	// ArchivalRetention is how long ledger rows are kept before the archival
	// job compresses and deletes them.
	ArchivalRetention time.Duration `envconfig:"LEDGER_RETENTION" default:"2160h"`

	// ArchiveDir is where the archival job writes compressed ledger segments.
	ArchiveDir string `envconfig:"LEDGER_ARCHIVE_DIR" default:"/tmp/accord-archive"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Accord"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}
