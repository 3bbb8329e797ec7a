package telemetry

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"skycast/internal/config"
	"skycast/internal/types"
)

// Recorder is everything the service reports: search and summary outcomes
// from the weather package and request latency from the HTTP layer.
type Recorder interface {
	RecordSearch(ctx context.Context, mode types.Mode, outcome string, latency time.Duration)
	RecordSummary(ctx context.Context, outcome string)
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// New returns a CloudWatch-backed Recorder when metrics are enabled and Noop
// otherwise. AWS credentials come from the default chain.
func New(ctx context.Context, cfg *config.Config, logger types.Logger) (Recorder, error) {
	if !cfg.Observability.EnableMetrics {
		return Noop{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewCloudWatchMetrics(
		cloudwatch.NewFromConfig(awsCfg),
		cfg.Observability.MetricNamespace,
		logger,
	), nil
}

var (
	_ Recorder = (*CloudWatchMetrics)(nil)
	_ Recorder = Noop{}
)
