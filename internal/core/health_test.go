package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	name  string
	err   error
	delay time.Duration
	panic bool
}

func (p *fakeProbe) Name() string { return p.name }

func (p *fakeProbe) Check(ctx context.Context) error {
	if p.panic {
		panic("probe exploded")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

func serveHealth(t *testing.T, features map[string]bool, probes ...HealthProbe) (int, healthResponse) {
	t.Helper()
	srv := newTestServer(t)
	srv.HealthProbes = probes
	srv.Features = features

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestHandleHealth_NoProbes(t *testing.T) {
	code, resp := serveHealth(t, map[string]bool{"summary": false})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, map[string]bool{"summary": false}, resp.Features)
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	code, resp := serveHealth(t, nil,
		&fakeProbe{name: "open-meteo-geocoding"},
		&fakeProbe{name: "open-meteo-forecast"},
	)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp.Status)
	assert.Len(t, resp.Components, 2)
}

func TestHandleHealth_OneUnhealthy(t *testing.T) {
	code, resp := serveHealth(t, nil,
		&fakeProbe{name: "open-meteo-geocoding"},
		&fakeProbe{name: "open-meteo-forecast", err: errors.New("circuit breaker open")},
	)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, componentStatus{Status: "healthy"}, resp.Components["open-meteo-geocoding"])
	assert.Equal(t, componentStatus{Status: "unhealthy", Message: "circuit breaker open"}, resp.Components["open-meteo-forecast"])
}

func TestHandleHealth_PanickingProbe(t *testing.T) {
	code, resp := serveHealth(t, nil, &fakeProbe{name: "flaky", panic: true})

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, resp.Components["flaky"].Message, "probe exploded")
}

func TestHandleHealth_SlowProbeTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the health deadline")
	}

	start := time.Now()
	code, resp := serveHealth(t, nil, &fakeProbe{name: "slow", delay: 10 * time.Second})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", resp.Components["slow"].Status)
}
