package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skycast/internal/types"
)

// setUpstreams points the client at canned Open-Meteo stubs. Only "Delhi"
// resolves.
func setUpstreams(t *testing.T) {
	t.Helper()
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "Delhi" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"name":"Delhi","latitude":28.6,"longitude":77.2,"country":"India"}]}`))
	}))
	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("hourly") != "" {
			// 2025-10-18T00:00Z in 3 hour steps, IST offset.
			_, _ = w.Write([]byte(`{"utc_offset_seconds":19800,"hourly":{"time":[1760745600,1760756400],"temperature_2m":[24.5,26]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"current_weather":{"temperature":29,"weathercode":3}}`))
	}))
	t.Cleanup(geo.Close)
	t.Cleanup(forecast.Close)

	t.Setenv("APP_ENV", "local")
	t.Setenv("GEOCODING_BASE_URL", geo.URL)
	t.Setenv("FORECAST_BASE_URL", forecast.URL)
	t.Setenv("SUMMARY_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out, io.Discard)
	return out.String(), err
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-city", "Delhi", "-mode", "hourly", "-summary=false"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, options{city: "Delhi", mode: types.ModeHourly, summary: false, logLevel: "warn"}, opts)

	opts, err = parseFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, types.ModeCurrent, opts.mode)
	assert.True(t, opts.summary)

	_, err = parseFlags([]string{"-mode", "weekly"}, io.Discard)
	assert.True(t, types.HasCode(err, types.ErrCodeValidationInvalidMode))

	opts, err = parseFlags([]string{"-log-level", "info"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "info", opts.logLevel)

	_, err = parseFlags([]string{"-log-level", "verbose"}, io.Discard)
	assert.Error(t, err)
}

func TestNewLogger_Levels(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
	}
	for _, tt := range tests {
		logger := newLogger(tt.level, io.Discard)
		assert.True(t, logger.Enabled(ctx, tt.want), "%q enables %s", tt.level, tt.want)
		assert.False(t, logger.Enabled(ctx, tt.want-1), "%q disables below %s", tt.level, tt.want)
	}
}

func TestRun_OneShotCurrent(t *testing.T) {
	setUpstreams(t)

	out, err := runCLI(t, "", "-city", "Delhi")
	require.NoError(t, err)

	assert.Contains(t, out, "Fetching current weather for Delhi...")
	assert.Contains(t, out, "Delhi, India")
	assert.Contains(t, out, "⛅  Cloudy  29.0°C")
	assert.Contains(t, out, "Humidity: 60%")
}

func TestRun_OneShotHourly(t *testing.T) {
	setUpstreams(t)

	out, err := runCLI(t, "", "-city", "Delhi", "-mode", "hourly")
	require.NoError(t, err)

	assert.Contains(t, out, "Next 2 hours (local time)")
	assert.Contains(t, out, "05:30   24.5°C")
	assert.Contains(t, out, "08:30   26.0°C")
	assert.NotContains(t, out, "Humidity")
}

func TestRun_OneShotNotFound(t *testing.T) {
	setUpstreams(t)

	out, err := runCLI(t, "", "-city", "Qwxyzville")
	assert.ErrorIs(t, err, errSearchFailed)
	assert.Contains(t, out, types.MsgCityNotFound)
}

func TestRun_Interactive(t *testing.T) {
	setUpstreams(t)

	stdin := strings.Join([]string{
		"   ",
		"Delhi",
		":mode hourly",
		"Delhi",
		":mode weekly",
		":quit",
		"never reached",
	}, "\n")

	out, err := runCLI(t, stdin)
	require.NoError(t, err)

	assert.Contains(t, out, types.MsgEmptyQuery)
	assert.Contains(t, out, "[current] city> ")
	assert.Contains(t, out, "[hourly] city> ")
	assert.Contains(t, out, "Humidity: 60%")
	assert.Contains(t, out, "Next 2 hours (local time)")
	assert.Contains(t, out, "Unknown mode.")
	assert.NotContains(t, out, "never reached")
}

func TestRun_InteractiveEOF(t *testing.T) {
	setUpstreams(t)

	_, err := runCLI(t, "Delhi")
	assert.NoError(t, err)
}

func TestRun_MissingEnvFile(t *testing.T) {
	setUpstreams(t)

	_, err := runCLI(t, "", "-env-file", "does-not-exist.env", "-city", "Delhi")
	assert.Error(t, err)
}
