package external

import (
	"context"

	"skycast/internal/types"
)

// Geocoder resolves a free-text city name to its first matching location.
type Geocoder interface {
	Resolve(ctx context.Context, city string) (*types.GeoResult, error)
}

// ForecastProvider fetches weather for resolved coordinates.
type ForecastProvider interface {
	FetchCurrent(ctx context.Context, lat, lon float64) (*types.CurrentReading, error)
	FetchHourly(ctx context.Context, lat, lon float64) ([]types.HourlyPoint, error)
}

// Summarizer produces a natural-language description of a current reading.
type Summarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, vm *types.WeatherViewModel) (string, error)
}
