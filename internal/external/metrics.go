package external

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// CloudWatchAPI defines the subset of the CloudWatch client used by the
// metrics publisher.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics publishes per-run job counters. Metric failures are
// logged and dropped; telemetry must never fail a job run.
type CloudWatchMetrics struct {
	api       CloudWatchAPI
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a metrics publisher from an AWS config.
func NewCloudWatchMetrics(awsCfg aws.Config, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	return NewCloudWatchMetricsWithAPI(cloudwatch.NewFromConfig(awsCfg), namespace, logger)
}

// NewCloudWatchMetricsWithAPI creates a metrics publisher with a
// pre-configured API, for tests.
func NewCloudWatchMetricsWithAPI(api CloudWatchAPI, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{api: api, namespace: namespace, logger: logger}
}

// PublishRunMetrics records queued/skipped/errors counters for one job run,
// dimensioned by job name.
func (m *CloudWatchMetrics) PublishRunMetrics(ctx context.Context, job string, queued, skipped, errors int) {
	now := time.Now().UTC()
	dims := []cwtypes.Dimension{
		{Name: aws.String("Job"), Value: aws.String(job)},
	}

	datum := func(name string, value int) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Value:      aws.Float64(float64(value)),
			Unit:       cwtypes.StandardUnitCount,
			Timestamp:  aws.Time(now),
			Dimensions: dims,
		}
	}

	_, err := m.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			datum("NotificationsQueued", queued),
			datum("NotificationsSkipped", skipped),
			datum("RunErrors", errors),
		},
	})
	if err != nil {
		m.logger.Warn("failed to publish run metrics", "job", job, "error", err.Error())
	}
}

// Compile-time assertion that CloudWatchMetrics satisfies MetricsPublisher.
var _ MetricsPublisher = (*CloudWatchMetrics)(nil)
