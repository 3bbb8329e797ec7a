package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"skycast/internal/types"
)

// openMeteoForecastBase is the default Open-Meteo forecast host.
const openMeteoForecastBase = "https://api.open-meteo.com"

// defaultHourlyInterval is assumed when the series holds a single timestamp.
const defaultHourlyInterval int64 = 3600

var errMissingFields = errors.New("response is missing required fields")

// OpenMeteoForecasterConfig holds the configuration for an OpenMeteoForecaster.
type OpenMeteoForecasterConfig struct {
	BaseURL string // defaults to openMeteoForecastBase
	Logger  *slog.Logger
}

// OpenMeteoForecaster implements ForecastProvider against the Open-Meteo
// forecast API.
type OpenMeteoForecaster struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewOpenMeteoForecaster creates an OpenMeteoForecaster that sends through base.
func NewOpenMeteoForecaster(base *BaseClient, cfg OpenMeteoForecasterConfig) *OpenMeteoForecaster {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openMeteoForecastBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenMeteoForecaster{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// currentResponse is the boundary schema for current_weather=true.
type currentResponse struct {
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
		WeatherCode *int     `json:"weathercode"`
	} `json:"current_weather"`
}

// hourlyResponse is the boundary schema for hourly=temperature_2m with
// timeformat=unixtime.
type hourlyResponse struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Hourly           *struct {
		Time        []int64    `json:"time"`
		Temperature []*float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

// FetchCurrent returns the current temperature and weather code. Humidity is
// always types.PlaceholderHumidityPercent.
func (f *OpenMeteoForecaster) FetchCurrent(ctx context.Context, lat, lon float64) (*types.CurrentReading, error) {
	q := coordinates(lat, lon)
	q.Set("current_weather", "true")

	var body currentResponse
	if err := f.get(ctx, q, &body); err != nil {
		return nil, err
	}

	cw := body.CurrentWeather
	if cw == nil || cw.Temperature == nil || cw.WeatherCode == nil {
		return nil, forecastError("malformed current weather response", errMissingFields)
	}

	return &types.CurrentReading{
		TemperatureCelsius: *cw.Temperature,
		WeatherCode:        *cw.WeatherCode,
		HumidityPercent:    types.PlaceholderHumidityPercent,
	}, nil
}

// FetchHourly returns the first types.HourlyDisplayLimit points of today's
// hourly temperature series in the location's local time.
func (f *OpenMeteoForecaster) FetchHourly(ctx context.Context, lat, lon float64) ([]types.HourlyPoint, error) {
	q := coordinates(lat, lon)
	q.Set("hourly", "temperature_2m")
	q.Set("timeformat", "unixtime")
	q.Set("timezone", "auto")
	q.Set("forecast_days", "1")

	var body hourlyResponse
	if err := f.get(ctx, q, &body); err != nil {
		return nil, err
	}

	series, err := body.series()
	if err != nil {
		return nil, forecastError("malformed hourly response", err)
	}

	points, err := BuildHourlyPoints(series, types.HourlyDisplayLimit)
	if err != nil {
		return nil, forecastError("malformed hourly response", err)
	}
	return points, nil
}

// get performs a forecast request and decodes the JSON body into dst.
func (f *OpenMeteoForecaster) get(ctx context.Context, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return forecastError("failed to build forecast request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.base.Do(req)
	if err != nil {
		return forecastError("forecast request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return forecastError("forecast request rejected", statusError("open-meteo forecast", resp))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		return forecastError("malformed forecast response", err)
	}
	return nil
}

func coordinates(lat, lon float64) url.Values {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	return q
}

func forecastError(message string, err error) *types.AppError {
	return types.NewAppError(types.ErrCodeUpstreamForecast, message, err)
}

// HourlySeries is an evenly spaced value series: one value per whole Interval
// in [Time, TimeEnd), in Unix seconds. A trailing partial interval has no
// timestamp. UTCOffsetSeconds shifts the
// timestamps into the location's local time.
type HourlySeries struct {
	Time             int64
	TimeEnd          int64
	Interval         int64
	UTCOffsetSeconds int
	Values           []float64
}

// series reduces the JSON timestamp array to an HourlySeries.
func (r hourlyResponse) series() (HourlySeries, error) {
	if r.Hourly == nil || len(r.Hourly.Time) == 0 {
		return HourlySeries{}, errMissingFields
	}
	times := r.Hourly.Time

	interval := defaultHourlyInterval
	if len(times) > 1 {
		interval = times[1] - times[0]
	}
	for i, ts := range times {
		if ts != times[0]+int64(i)*interval {
			return HourlySeries{}, fmt.Errorf("timestamp %d breaks the %ds spacing", i, interval)
		}
	}

	values := make([]float64, len(r.Hourly.Temperature))
	for i, v := range r.Hourly.Temperature {
		if v == nil {
			return HourlySeries{}, fmt.Errorf("temperature %d is null", i)
		}
		values[i] = *v
	}

	return HourlySeries{
		Time:             times[0],
		TimeEnd:          times[len(times)-1] + interval,
		Interval:         interval,
		UTCOffsetSeconds: r.UTCOffsetSeconds,
		Values:           values,
	}, nil
}

// BuildHourlyPoints expands s into chronological points, labels each with its
// local time of day and keeps at most limit of them (limit <= 0 keeps all).
// Every step needs a value; a short value array is an error, not a partial
// result.
func BuildHourlyPoints(s HourlySeries, limit int) ([]types.HourlyPoint, error) {
	if s.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", s.Interval)
	}
	if s.TimeEnd <= s.Time {
		return nil, fmt.Errorf("end %d is not after start %d", s.TimeEnd, s.Time)
	}

	steps := int((s.TimeEnd - s.Time) / s.Interval)
	if steps == 0 {
		return nil, fmt.Errorf("range %ds is shorter than the %ds interval", s.TimeEnd-s.Time, s.Interval)
	}
	if len(s.Values) < steps {
		return nil, fmt.Errorf("%d values for %d timestamps", len(s.Values), steps)
	}

	n := steps
	if limit > 0 && n > limit {
		n = limit
	}

	offset := int64(s.UTCOffsetSeconds)
	points := make([]types.HourlyPoint, n)
	for i := range points {
		local := time.Unix(s.Time+int64(i)*s.Interval+offset, 0).UTC()
		points[i] = types.HourlyPoint{
			TimestampLocal:     local.Format(types.HourlyLabelLayout),
			Time:               local,
			TemperatureCelsius: s.Values[i],
		}
	}
	return points, nil
}
