package external

import (
	"log/slog"
	"net/http"

	"skycast/internal/config"
)

// ClientRegistry holds every outbound client built from configuration. It is
// the single point of access to third-party services.
type ClientRegistry struct {
	Geocoder   Geocoder
	Forecaster ForecastProvider
	Summarizer Summarizer

	// Bases exposes every underlying BaseClient.
	Bases []*BaseClient
	// Critical lists the clients a search cannot succeed without. The
	// summary client is best-effort and is not part of it.
	Critical []*BaseClient
}

// NewClientRegistry builds the Open-Meteo and summary clients. Each upstream
// gets its own BaseClient so a failing host only trips its own breaker.
func NewClientRegistry(cfg *config.Config, logger *slog.Logger) *ClientRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := WithBreakerSettings(BreakerSettings{
		ConsecutiveFailures: cfg.Upstream.BreakerFailures,
		OpenTimeout:         cfg.Upstream.BreakerOpenTimeout,
	})
	userAgent := cfg.Upstream.UserAgent

	geoBase := NewBaseClient(&http.Client{Timeout: cfg.Upstream.Timeout}, "open-meteo-geocoding", userAgent, breaker)
	forecastBase := NewBaseClient(&http.Client{Timeout: cfg.Upstream.Timeout}, "open-meteo-forecast", userAgent, breaker)
	summaryBase := NewBaseClient(&http.Client{Timeout: cfg.Summary.Timeout}, "summary", userAgent, breaker)

	logger.Info("initializing external clients",
		"geocoding_base_url", cfg.Upstream.GeocodingBaseURL,
		"forecast_base_url", cfg.Upstream.ForecastBaseURL,
		"summary_enabled", cfg.Summary.Enabled(),
		"summary_model", cfg.Summary.Model,
	)

	return &ClientRegistry{
		Geocoder: NewOpenMeteoGeocoder(geoBase, OpenMeteoGeocoderConfig{
			BaseURL: cfg.Upstream.GeocodingBaseURL,
			Logger:  logger.With("client", "geocoding"),
		}),
		Forecaster: NewOpenMeteoForecaster(forecastBase, OpenMeteoForecasterConfig{
			BaseURL: cfg.Upstream.ForecastBaseURL,
			Logger:  logger.With("client", "forecast"),
		}),
		Summarizer: NewSummaryClient(summaryBase, SummaryClientConfig{
			APIKey:    cfg.Summary.APIKey,
			BaseURL:   cfg.Summary.BaseURL,
			Model:     cfg.Summary.Model,
			MaxTokens: cfg.Summary.MaxTokens,
			Logger:    logger.With("client", "summary"),
		}),
		Bases:    []*BaseClient{geoBase, forecastBase, summaryBase},
		Critical: []*BaseClient{geoBase, forecastBase},
	}
}

// Compile-time interface assertions.
var (
	_ Geocoder         = (*OpenMeteoGeocoder)(nil)
	_ ForecastProvider = (*OpenMeteoForecaster)(nil)
	_ Summarizer       = (*SummaryClient)(nil)
)
