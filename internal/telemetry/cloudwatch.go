// Package telemetry publishes service metrics to CloudWatch.
package telemetry

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"skycast/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// publishTimeout bounds a single PutMetricData call. Request metrics are
// emitted after the response is written, when the request context may
// already be done.
const publishTimeout = 2 * time.Second

// CloudWatchMetrics emits:
//   - SearchOutcome: Dims {Mode, Outcome}, count
//   - SearchLatency: Dims {Mode}, milliseconds
//   - SummaryOutcome: Dims {Outcome}, count
//   - APILatency: Dims {Endpoint}, milliseconds
//
// Publishing failures are logged and never returned.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to namespace
// (types.MetricNamespace when empty).
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordSearch emits the outcome count and, for completed searches, latency.
func (m *CloudWatchMetrics) RecordSearch(ctx context.Context, mode types.Mode, outcome string, latency time.Duration) {
	data := []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricSearchOutcome),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				dim(types.DimMode, string(mode)),
				dim(types.DimOutcome, outcome),
			},
		},
	}
	if latency > 0 {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricSearchLatency),
			Value:      aws.Float64(float64(latency.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: []cwtypes.Dimension{dim(types.DimMode, string(mode))},
		})
	}
	m.put(ctx, data, "search", "mode", string(mode), "outcome", outcome)
}

// RecordSummary emits the summary outcome count.
func (m *CloudWatchMetrics) RecordSummary(ctx context.Context, outcome string) {
	m.put(ctx, []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricSummaryOutcome),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{dim(types.DimOutcome, outcome)},
		},
	}, "summary", "outcome", outcome)
}

// RecordRequest emits API latency per route pattern.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	m.put(context.Background(), []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: []cwtypes.Dimension{
				dim(types.DimEndpoint, method+" "+endpoint),
				dim("Status", status),
			},
		},
	}, "request", "endpoint", endpoint, "status", status)
}

func (m *CloudWatchMetrics) put(ctx context.Context, data []cwtypes.MetricDatum, kind string, attrs ...any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Error("failed to record "+kind+" metric", append([]any{"error", err.Error()}, attrs...)...)
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// Noop satisfies every recorder interface and drops the data. It is used
// when metrics are disabled.
type Noop struct{}

func (Noop) RecordSearch(context.Context, types.Mode, string, time.Duration) {}
func (Noop) RecordSummary(context.Context, string)                           {}
func (Noop) RecordRequest(string, string, string, time.Duration)             {}
