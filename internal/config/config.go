// Package config defines the configuration structure for the Skycast services.
// Configuration is loaded once at process start and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> SecretProvider reference (Lowest)
//
// Missing required values or invalid formats fail startup.
package config

import (
	"time"

	"skycast/internal/types"
)

// SecretString is an alias for types.SecretString so config consumers do not
// need to import types for redacted fields.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
// Sub-components receive only the config subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"skycast-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Upstream      UpstreamConfig
	Summary       SummaryConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"20s" validate:"gt=0"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// UpstreamConfig holds the Open-Meteo endpoints and outbound client tuning.
type UpstreamConfig struct {
	GeocodingBaseURL string        `envconfig:"GEOCODING_BASE_URL" default:"https://geocoding-api.open-meteo.com" validate:"required,url"`
	ForecastBaseURL  string        `envconfig:"FORECAST_BASE_URL" default:"https://api.open-meteo.com" validate:"required,url"`
	Timeout          time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s" validate:"gt=0"`
	UserAgent        string        `envconfig:"UPSTREAM_USER_AGENT" default:"skycast/1.0"`

	// Circuit breaker: trips after BreakerFailures consecutive failures and
	// stays open for BreakerOpenTimeout.
	BreakerFailures    uint32        `envconfig:"UPSTREAM_BREAKER_FAILURES" default:"5" validate:"gt=0"`
	BreakerOpenTimeout time.Duration `envconfig:"UPSTREAM_BREAKER_OPEN_TIMEOUT" default:"30s" validate:"gt=0"`
}

// SummaryConfig configures the generative-text collaborator. An empty APIKey
// leaves the summary client constructed but disabled.
type SummaryConfig struct {
	APIKey    SecretString  `envconfig:"SUMMARY_API_KEY"`
	BaseURL   string        `envconfig:"SUMMARY_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai/" validate:"required,url"`
	Model     string        `envconfig:"SUMMARY_MODEL" default:"gemini-2.5-flash" validate:"required"`
	Timeout   time.Duration `envconfig:"SUMMARY_TIMEOUT" default:"15s" validate:"gt=0"`
	MaxTokens int           `envconfig:"SUMMARY_MAX_TOKENS" default:"1024" validate:"gt=0"`
}

// Enabled reports whether a credential was supplied.
func (c SummaryConfig) Enabled() bool {
	return !c.APIKey.IsZero()
}

// AWSConfig holds AWS regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	EnableMetrics   bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Skycast" validate:"required"`
}

// BuildInfo carries linker-injected build metadata.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates an explicitly requested env file could not be read.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSecretResolution indicates a secret reference could not be resolved.
	ErrSecretResolution ConfigErrorType = "SECRET_FAILURE"
	// ErrValidation indicates the populated struct failed validation.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates envconfig could not parse a value.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
