package weather

import (
	"context"
	"errors"
	"sync"

	"skycast/internal/types"
)

// Status is the phase of a Session.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// ErrSuperseded is returned by Session.Search when a newer search was issued
// before this one finished. Its result was discarded.
var ErrSuperseded = errors.New("search superseded by a newer search")

// State is a snapshot of a Session.
type State struct {
	Status       Status
	Seq          uint64
	Query        string
	Mode         types.Mode
	View         *types.WeatherViewModel
	ErrorCode    types.ErrorCode
	ErrorMessage string

	// Summary is empty until a summary arrives; SummaryPending is true while
	// one is being fetched.
	Summary        string
	SummaryPending bool
}

// Loading reports whether a search is in flight.
func (s State) Loading() bool {
	return s.Status == StatusLoading
}

// Session holds the state of one interactive client. Each accepted search
// takes the next sequence number and only the latest search may write its
// results; responses from older searches are dropped.
type Session struct {
	orch      *Orchestrator
	summaries bool
	observer  func(State)

	mu    sync.Mutex
	seq   uint64
	state State

	// notifyMu serializes observer calls so snapshots are delivered in
	// sequence order.
	notifyMu sync.Mutex
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithObserver registers fn to receive state transitions in order. fn is
// called without the session lock held, one call at a time. Transitions of a
// search that has been superseded by the time they are delivered are skipped.
func WithObserver(fn func(State)) SessionOption {
	return func(s *Session) { s.observer = fn }
}

// WithoutSummaries disables the summary step.
func WithoutSummaries() SessionOption {
	return func(s *Session) { s.summaries = false }
}

// NewSession creates an idle Session.
func NewSession(orch *Orchestrator, opts ...SessionOption) *Session {
	s := &Session{orch: orch, summaries: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Search runs a search and returns the resulting state.
//
// A blank query is rejected with types.ErrCodeValidationEmptyQuery and an
// unknown mode with types.ErrCodeValidationInvalidMode; in both cases the
// state is left untouched. An empty mode means current. Otherwise the session enters StatusLoading with
// the previous result, error and summary cleared, then ends in StatusSuccess
// or StatusFailure. In current mode a summary is requested after success; its
// failure leaves the session in StatusSuccess without a summary.
//
// If another search starts first, the result is dropped and ErrSuperseded is
// returned alongside the newer state.
func (s *Session) Search(ctx context.Context, city string, mode types.Mode) (State, error) {
	query, err := NormalizeQuery(city)
	if err != nil {
		return s.State(), err
	}
	mode, err = types.ParseMode(string(mode))
	if err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state = State{Status: StatusLoading, Seq: seq, Query: query, Mode: mode}
	snapshot := s.state
	s.mu.Unlock()
	s.notify(snapshot)

	vm, searchErr := s.orch.Search(ctx, query, mode)

	snapshot, ok := s.apply(seq, func(st *State) {
		if searchErr != nil {
			st.Status = StatusFailure
			st.ErrorCode = types.CodeOf(searchErr)
			st.ErrorMessage = userMessage(searchErr)
			return
		}
		st.Status = StatusSuccess
		st.View = vm
		st.SummaryPending = s.wantSummary(vm)
	})
	if !ok {
		s.orch.metrics.RecordSearch(ctx, mode, types.OutcomeStale, 0)
		return snapshot, ErrSuperseded
	}
	if searchErr != nil || !snapshot.SummaryPending {
		return snapshot, searchErr
	}

	text, sumErr := s.orch.Summarize(ctx, vm)
	snapshot, ok = s.apply(seq, func(st *State) {
		st.SummaryPending = false
		if sumErr == nil {
			st.Summary = text
		}
	})
	if !ok {
		return snapshot, ErrSuperseded
	}
	return snapshot, nil
}

func (s *Session) wantSummary(vm *types.WeatherViewModel) bool {
	return s.summaries && vm.Current != nil && s.orch.SummariesEnabled()
}

// apply mutates the state if seq is still the latest search. It returns the
// resulting snapshot and whether the mutation happened.
func (s *Session) apply(seq uint64, mutate func(*State)) (State, bool) {
	s.mu.Lock()
	if seq != s.seq {
		snapshot := s.state
		s.mu.Unlock()
		return snapshot, false
	}
	mutate(&s.state)
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
	return snapshot, true
}

func (s *Session) notify(st State) {
	if s.observer == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	latest := s.seq
	s.mu.Unlock()
	if st.Seq < latest {
		return
	}
	s.observer(st)
}

func userMessage(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return types.MsgForecastFailed
}
