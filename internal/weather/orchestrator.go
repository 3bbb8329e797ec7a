// Package weather sequences geocoding, forecasting and classification into a
// single city search, and tracks search state for interactive clients.
package weather

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"skycast/internal/conditions"
	"skycast/internal/types"
)

// Geocoder resolves a city name to its first match.
type Geocoder interface {
	Resolve(ctx context.Context, city string) (*types.GeoResult, error)
}

// ForecastProvider fetches weather for coordinates.
type ForecastProvider interface {
	FetchCurrent(ctx context.Context, lat, lon float64) (*types.CurrentReading, error)
	FetchHourly(ctx context.Context, lat, lon float64) ([]types.HourlyPoint, error)
}

// Summarizer is the best-effort generative-text collaborator.
type Summarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, vm *types.WeatherViewModel) (string, error)
}

// Metrics receives search and summary outcomes.
type Metrics interface {
	RecordSearch(ctx context.Context, mode types.Mode, outcome string, latency time.Duration)
	RecordSummary(ctx context.Context, outcome string)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordSearch(context.Context, types.Mode, string, time.Duration) {}
func (NoopMetrics) RecordSummary(context.Context, string)                           {}

// Orchestrator runs geocode, then forecast, then classification. Every error
// it returns is a *types.AppError whose Message is safe to show to a user.
type Orchestrator struct {
	geocoder   Geocoder
	forecaster ForecastProvider
	summarizer Summarizer
	classify   func(code int) types.ConditionTheme
	metrics    Metrics
	clock      types.Clock
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSummarizer attaches the summary collaborator.
func WithSummarizer(s Summarizer) Option {
	return func(o *Orchestrator) { o.summarizer = s }
}

// WithMetrics sets the outcome recorder.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock overrides the clock used for latency measurements.
func WithClock(c types.Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(geocoder Geocoder, forecaster ForecastProvider, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		geocoder:   geocoder,
		forecaster: forecaster,
		classify:   conditions.Classify,
		metrics:    NoopMetrics{},
		clock:      types.RealClock{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NormalizeQuery trims city, collapses inner whitespace and applies Unicode
// NFC so that composed and decomposed spellings query the same name.
func NormalizeQuery(city string) (string, error) {
	q := strings.Join(strings.Fields(norm.NFC.String(city)), " ")
	if q == "" {
		return "", types.NewAppError(types.ErrCodeValidationEmptyQuery, types.MsgEmptyQuery, nil)
	}
	return q, nil
}

// Search resolves city and fetches its weather in the given mode.
//
// A blank city fails before any network call. A city that does not geocode
// fails before any forecast call. Upstream failures surface as the generic
// retry message; the cause is logged only.
func (o *Orchestrator) Search(ctx context.Context, city string, mode types.Mode) (*types.WeatherViewModel, error) {
	start := o.clock.Now()
	record := func(outcome string) {
		o.metrics.RecordSearch(ctx, mode, outcome, o.clock.Now().Sub(start))
	}

	mode, err := types.ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	query, err := NormalizeQuery(city)
	if err != nil {
		record(types.OutcomeEmptyQuery)
		return nil, err
	}

	logger := o.logger.With("query", query, "mode", string(mode), "request_id", types.GetRequestID(ctx))

	geo, err := o.geocoder.Resolve(ctx, query)
	if err != nil {
		if types.HasCode(err, types.ErrCodeNotFoundCity) {
			record(types.OutcomeCityNotFound)
			return nil, types.NewAppError(types.ErrCodeNotFoundCity, types.MsgCityNotFound, err).
				WithDetails(map[string]any{"query": query})
		}
		logger.ErrorContext(ctx, "geocoding failed", "error", err)
		record(types.OutcomeFetchFailed)
		return nil, types.NewAppError(types.ErrCodeUpstreamGeocode, types.MsgForecastFailed, err)
	}

	vm := &types.WeatherViewModel{
		City:    geo.ResolvedName,
		Country: geo.Country,
		Mode:    mode,
	}

	switch mode {
	case types.ModeHourly:
		points, err := o.forecaster.FetchHourly(ctx, geo.Latitude, geo.Longitude)
		if err != nil {
			return nil, o.forecastFailed(ctx, logger, record, err)
		}
		vm.HourlySeries = points
	default:
		reading, err := o.forecaster.FetchCurrent(ctx, geo.Latitude, geo.Longitude)
		if err != nil {
			return nil, o.forecastFailed(ctx, logger, record, err)
		}
		theme := o.classify(reading.WeatherCode)
		vm.Current = reading
		vm.Theme = &theme
	}

	record(types.OutcomeSuccess)
	logger.InfoContext(ctx, "search succeeded", "city", vm.City, "country", vm.Country)
	return vm, nil
}

func (o *Orchestrator) forecastFailed(ctx context.Context, logger *slog.Logger, record func(string), err error) error {
	logger.ErrorContext(ctx, "forecast fetch failed", "error", err)
	record(types.OutcomeFetchFailed)
	return types.NewAppError(types.ErrCodeUpstreamForecast, types.MsgForecastFailed, err)
}

// SummariesEnabled reports whether Summarize can succeed at all.
func (o *Orchestrator) SummariesEnabled() bool {
	return o.summarizer != nil && o.summarizer.Enabled()
}

// Summarize asks the collaborator for a one-line description of vm. Failure
// never affects vm; callers simply omit the summary.
func (o *Orchestrator) Summarize(ctx context.Context, vm *types.WeatherViewModel) (string, error) {
	if !o.SummariesEnabled() {
		o.metrics.RecordSummary(ctx, types.OutcomeUnavailable)
		return "", types.NewAppError(types.ErrCodeUpstreamSummary, types.MsgSummaryUnavailable, nil)
	}

	text, err := o.summarizer.Summarize(ctx, vm)
	if err != nil {
		o.logger.WarnContext(ctx, "summary unavailable",
			"city", vm.City,
			"request_id", types.GetRequestID(ctx),
			"error", err,
		)
		o.metrics.RecordSummary(ctx, types.OutcomeFetchFailed)
		return "", types.NewAppError(types.ErrCodeUpstreamSummary, types.MsgSummaryUnavailable, err)
	}

	o.metrics.RecordSummary(ctx, types.OutcomeSuccess)
	return text, nil
}
