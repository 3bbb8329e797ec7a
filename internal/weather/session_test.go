package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skycast/internal/types"
)

var tokyo = &types.GeoResult{Latitude: 35.7, Longitude: 139.7, ResolvedName: "Tokyo", Country: "Japan"}

func delhiAndTokyo() (*fakeGeocoder, *fakeForecaster) {
	geo := &fakeGeocoder{results: map[string]*types.GeoResult{"Delhi": delhi, "Tokyo": tokyo}}
	fc := &fakeForecaster{current: map[float64]*types.CurrentReading{
		28.6: {TemperatureCelsius: 29, WeatherCode: 3, HumidityPercent: 60},
		35.7: {TemperatureCelsius: 18, WeatherCode: 61, HumidityPercent: 60},
	}}
	return geo, fc
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) observe(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *stateLog) statuses() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Status, len(l.states))
	for i, s := range l.states {
		out[i] = s.Status
	}
	return out
}

func TestSession_StartsIdle(t *testing.T) {
	geo, fc := delhiAndTokyo()
	s := NewSession(NewOrchestrator(geo, fc, nil))

	st := s.State()
	assert.Equal(t, StatusIdle, st.Status)
	assert.False(t, st.Loading())
	assert.Equal(t, "idle", st.Status.String())
}

func TestSession_EmptyQueryLeavesStateUnchanged(t *testing.T) {
	geo, fc := delhiAndTokyo()
	s := NewSession(NewOrchestrator(geo, fc, nil))

	before, err := s.Search(context.Background(), "Delhi", types.ModeCurrent)
	require.NoError(t, err)

	after, err := s.Search(context.Background(), " \t", types.ModeCurrent)
	assert.True(t, types.HasCode(err, types.ErrCodeValidationEmptyQuery))
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"Delhi"}, geo.Calls(), "blank query must not reach the geocoder")
}

func TestSession_SuccessWithSummary(t *testing.T) {
	geo, fc := delhiAndTokyo()
	summ := &fakeSummarizer{enabled: true, text: "It's 29°C and cloudy in Delhi."}
	log := &stateLog{}
	s := NewSession(NewOrchestrator(geo, fc, nil, WithSummarizer(summ)), WithObserver(log.observe))

	st, err := s.Search(context.Background(), "Delhi", types.ModeCurrent)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, st.Status)
	assert.Equal(t, "Cloudy", st.View.Theme.Label)
	assert.Equal(t, "It's 29°C and cloudy in Delhi.", st.Summary)
	assert.False(t, st.SummaryPending)
	assert.Equal(t, []Status{StatusLoading, StatusSuccess, StatusSuccess}, log.statuses())

	log.mu.Lock()
	assert.True(t, log.states[1].SummaryPending, "summary is pending right after success")
	log.mu.Unlock()
}

func TestSession_NotFound(t *testing.T) {
	geo, fc := delhiAndTokyo()
	summ := &fakeSummarizer{enabled: true, text: "x"}
	s := NewSession(NewOrchestrator(geo, fc, nil, WithSummarizer(summ)))

	st, err := s.Search(context.Background(), "Qwxyzville", types.ModeCurrent)

	require.Error(t, err)
	assert.Equal(t, StatusFailure, st.Status)
	assert.Equal(t, types.ErrCodeNotFoundCity, st.ErrorCode)
	assert.Equal(t, types.MsgCityNotFound, st.ErrorMessage)
	assert.Nil(t, st.View)
	assert.Zero(t, fc.Hits())
	assert.Zero(t, summ.Calls())
}

func TestSession_ForecastFailureLeavesNoSummary(t *testing.T) {
	geo, fc := delhiAndTokyo()
	fc.err = errors.New("connection reset")
	summ := &fakeSummarizer{enabled: true, text: "x"}
	s := NewSession(NewOrchestrator(geo, fc, nil, WithSummarizer(summ)))

	st, err := s.Search(context.Background(), "Delhi", types.ModeCurrent)

	require.Error(t, err)
	assert.Equal(t, StatusFailure, st.Status)
	assert.Equal(t, types.MsgForecastFailed, st.ErrorMessage)
	assert.Empty(t, st.Summary)
	assert.Zero(t, summ.Calls())
}

func TestSession_SummaryFailureKeepsSuccess(t *testing.T) {
	geo, fc := delhiAndTokyo()
	summ := &fakeSummarizer{enabled: true, err: errors.New("503")}
	s := NewSession(NewOrchestrator(geo, fc, nil, WithSummarizer(summ)))

	st, err := s.Search(context.Background(), "Delhi", types.ModeCurrent)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st.Status)
	assert.NotNil(t, st.View)
	assert.Empty(t, st.Summary)
	assert.False(t, st.SummaryPending)
	assert.Equal(t, 1, summ.Calls())
}

func TestSession_SummarySkipped(t *testing.T) {
	t.Run("hourly mode", func(t *testing.T) {
		geo, fc := delhiAndTokyo()
		fc.hourly = []types.HourlyPoint{{TimestampLocal: "00:00"}}
		summ := &fakeSummarizer{enabled: true, text: "x"}
		s := NewSession(NewOrchestrator(geo, fc, nil, WithSummarizer(summ)))

		st, err := s.Search(context.Background(), "Delhi", types.ModeHourly)
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, st.Status)
		assert.Zero(t, summ.Calls())
	})

	t.Run("disabled by option", func(t *testing.T) {
		geo, fc := delhiAndTokyo()
		summ := &fakeSummarizer{enabled: true, text: "x"}
		s := NewSession(NewOrchestrator(geo, fc, nil, WithSummarizer(summ)), WithoutSummaries())

		_, err := s.Search(context.Background(), "Delhi", types.ModeCurrent)
		require.NoError(t, err)
		assert.Zero(t, summ.Calls())
	})
}

func TestSession_NewSearchClearsPreviousResult(t *testing.T) {
	geo, fc := delhiAndTokyo()
	log := &stateLog{}
	s := NewSession(NewOrchestrator(geo, fc, nil), WithObserver(log.observe))

	_, err := s.Search(context.Background(), "Delhi", types.ModeCurrent)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "Qwxyzville", types.ModeCurrent)
	require.Error(t, err)

	log.mu.Lock()
	defer log.mu.Unlock()
	loading := log.states[2]
	assert.Equal(t, StatusLoading, loading.Status)
	assert.Nil(t, loading.View)
	assert.Empty(t, loading.ErrorMessage)
	assert.Equal(t, uint64(2), loading.Seq)
}

func TestSession_StaleResultIsDiscarded(t *testing.T) {
	geo, fc := delhiAndTokyo()
	gate := make(chan struct{})
	geo.gates = map[string]chan struct{}{"Delhi": gate}
	metrics := &fakeMetrics{}
	s := NewSession(NewOrchestrator(geo, fc, nil, WithMetrics(metrics)))

	type result struct {
		st  State
		err error
	}
	first := make(chan result, 1)
	go func() {
		st, err := s.Search(context.Background(), "Delhi", types.ModeCurrent)
		first <- result{st, err}
	}()

	require.Eventually(t, func() bool { return len(geo.Calls()) == 1 }, time.Second, time.Millisecond)

	second, err := s.Search(context.Background(), "Tokyo", types.ModeCurrent)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", second.View.City)

	close(gate)
	got := <-first

	assert.ErrorIs(t, got.err, ErrSuperseded)
	assert.Equal(t, "Tokyo", got.st.View.City)
	final := s.State()
	assert.Equal(t, StatusSuccess, final.Status)
	assert.Equal(t, "Tokyo", final.View.City, "the older Delhi response must not overwrite Tokyo")
	assert.Equal(t, uint64(2), final.Seq)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Contains(t, metrics.searches, recordedSearch{types.ModeCurrent, types.OutcomeStale})
}

func TestSession_ObserverSeesLatestSearchLast(t *testing.T) {
	geo, fc := delhiAndTokyo()
	log := &stateLog{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	observer := func(st State) {
		if st.Status == StatusSuccess && st.Query == "Delhi" {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
		log.observe(st)
	}
	s := NewSession(NewOrchestrator(geo, fc, nil), WithObserver(observer))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = s.Search(context.Background(), "Delhi", types.ModeCurrent)
	}()
	<-entered

	go func() {
		defer wg.Done()
		_, _ = s.Search(context.Background(), "Tokyo", types.ModeCurrent)
	}()
	require.Eventually(t, func() bool { return s.State().Seq == 2 }, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	log.mu.Lock()
	defer log.mu.Unlock()
	require.NotEmpty(t, log.states)
	for i := 1; i < len(log.states); i++ {
		assert.GreaterOrEqual(t, log.states[i].Seq, log.states[i-1].Seq, "transition %d delivered out of order", i)
	}
	last := log.states[len(log.states)-1]
	assert.Equal(t, uint64(2), last.Seq)
	assert.Equal(t, StatusSuccess, last.Status)
	assert.Equal(t, "Tokyo", last.View.City)
}

func TestSession_NotifySkipsSupersededSnapshot(t *testing.T) {
	geo, fc := delhiAndTokyo()
	log := &stateLog{}
	s := NewSession(NewOrchestrator(geo, fc, nil), WithObserver(log.observe))

	_, err := s.Search(context.Background(), "Delhi", types.ModeCurrent)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "Tokyo", types.ModeCurrent)
	require.NoError(t, err)
	delivered := len(log.statuses())

	s.notify(State{Status: StatusSuccess, Seq: 1, Query: "Delhi"})

	assert.Len(t, log.statuses(), delivered, "a snapshot older than the latest search is not delivered")
}

func TestSession_ModeIsNormalized(t *testing.T) {
	geo, fc := delhiAndTokyo()
	log := &stateLog{}
	s := NewSession(NewOrchestrator(geo, fc, nil), WithObserver(log.observe))

	st, err := s.Search(context.Background(), "Delhi", "")
	require.NoError(t, err)
	assert.Equal(t, types.ModeCurrent, st.Mode)

	log.mu.Lock()
	assert.Equal(t, types.ModeCurrent, log.states[0].Mode, "loading state carries the resolved mode")
	log.mu.Unlock()

	before := s.State()
	after, err := s.Search(context.Background(), "Tokyo", types.Mode("weekly"))
	assert.True(t, types.HasCode(err, types.ErrCodeValidationInvalidMode))
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"Delhi"}, geo.Calls(), "an invalid mode must not reach the geocoder")
}
