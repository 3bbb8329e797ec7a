package weather

import (
	"context"
	"sync"
	"time"

	"skycast/internal/types"
)

type fakeGeocoder struct {
	mu      sync.Mutex
	results map[string]*types.GeoResult
	err     error
	gates   map[string]chan struct{}
	calls   []string
}

func (f *fakeGeocoder) Resolve(ctx context.Context, city string) (*types.GeoResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, city)
	gate := f.gates[city]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[city]; ok {
		return r, nil
	}
	return nil, types.NewAppError(types.ErrCodeNotFoundCity, types.MsgCityNotFound, nil)
}

func (f *fakeGeocoder) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeForecaster struct {
	mu          sync.Mutex
	current     map[float64]*types.CurrentReading // keyed by latitude
	hourly      []types.HourlyPoint
	err         error
	currentHits int
	hourlyHits  int
}

func (f *fakeForecaster) FetchCurrent(_ context.Context, lat, _ float64) (*types.CurrentReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentHits++
	if f.err != nil {
		return nil, f.err
	}
	return f.current[lat], nil
}

func (f *fakeForecaster) FetchHourly(context.Context, float64, float64) ([]types.HourlyPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hourlyHits++
	if f.err != nil {
		return nil, f.err
	}
	return f.hourly, nil
}

func (f *fakeForecaster) Hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentHits + f.hourlyHits
}

type fakeSummarizer struct {
	mu      sync.Mutex
	enabled bool
	text    string
	err     error
	calls   int
}

func (f *fakeSummarizer) Enabled() bool { return f.enabled }

func (f *fakeSummarizer) Summarize(context.Context, *types.WeatherViewModel) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

func (f *fakeSummarizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordedSearch struct {
	Mode    types.Mode
	Outcome string
}

type fakeMetrics struct {
	mu        sync.Mutex
	searches  []recordedSearch
	summaries []string
}

func (m *fakeMetrics) RecordSearch(_ context.Context, mode types.Mode, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, recordedSearch{Mode: mode, Outcome: outcome})
}

func (m *fakeMetrics) RecordSummary(_ context.Context, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, outcome)
}

var (
	_ Geocoder         = (*fakeGeocoder)(nil)
	_ ForecastProvider = (*fakeForecaster)(nil)
	_ Summarizer       = (*fakeSummarizer)(nil)
	_ Metrics          = (*fakeMetrics)(nil)
)
