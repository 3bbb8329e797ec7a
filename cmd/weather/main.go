// Package main is a terminal client for Skycast.
//
// Usage:
//
//	go run ./cmd/weather -city=Delhi
//	go run ./cmd/weather -city=Delhi -mode=hourly
//	go run ./cmd/weather                 # interactive prompt
//
// Logs go to stderr at -log-level (default warn) so they stay out of the
// prompt. LOG_LEVEL configures the API server only.
// In interactive mode every line is a city search. ":mode hourly" and
// ":mode current" switch the forecast variant, ":quit" or EOF exits.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"skycast/internal/config"
	"skycast/internal/external"
	"skycast/internal/telemetry"
	"skycast/internal/types"
	"skycast/internal/weather"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errSearchFailed) {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		}
		os.Exit(1)
	}
}

// errSearchFailed marks a one-shot search whose failure was already printed.
var errSearchFailed = errors.New("search failed")

type options struct {
	city     string
	mode     types.Mode
	summary  bool
	envFile  string
	logLevel string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("weather", flag.ContinueOnError)
	fs.SetOutput(stderr)

	city := fs.String("city", "", "City to look up; omit for an interactive prompt")
	mode := fs.String("mode", string(types.ModeCurrent), "Forecast variant: current or hourly")
	summary := fs.Bool("summary", true, "Request an AI summary for current conditions when configured")
	envFile := fs.String("env-file", "", "Dotenv file to load (default: .env if present)")
	logLevel := fs.String("log-level", "warn", "Log level on stderr: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	m, err := types.ParseMode(*mode)
	if err != nil {
		return options{}, err
	}
	switch *logLevel {
	case "debug", "info", "warn", "error":
	default:
		return options{}, fmt.Errorf("invalid -log-level %q: want debug, info, warn or error", *logLevel)
	}
	return options{city: *city, mode: m, summary: *summary, envFile: *envFile, logLevel: *logLevel}, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.LoadConfig(config.NewEnvVarProvider(), envFiles...)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(opts.logLevel, stderr)
	recorder, err := telemetry.New(ctx, cfg, types.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	registry := external.NewClientRegistry(cfg, logger)
	orch := weather.NewOrchestrator(registry.Geocoder, registry.Forecaster, logger,
		weather.WithSummarizer(registry.Summarizer),
		weather.WithMetrics(recorder),
	)

	c := newClient(stdout)
	sessionOpts := []weather.SessionOption{weather.WithObserver(c.observe)}
	if !opts.summary {
		sessionOpts = append(sessionOpts, weather.WithoutSummaries())
	}
	c.session = weather.NewSession(orch, sessionOpts...)

	if opts.city != "" {
		if !c.search(ctx, opts.city, opts.mode) {
			return errSearchFailed
		}
		return nil
	}
	return c.interactive(ctx, stdin, opts.mode)
}

// client renders session states to a terminal.
type client struct {
	session *weather.Session
	out     io.Writer
	p       *message.Printer
}

func newClient(out io.Writer) *client {
	return &client{out: out, p: message.NewPrinter(language.English)}
}

func (c *client) observe(st weather.State) {
	if st.Status == weather.StatusLoading {
		c.p.Fprintf(c.out, "Fetching %s weather for %s...\n", st.Mode, st.Query)
	}
}

// search runs one search and prints the outcome. It reports whether the
// search succeeded.
func (c *client) search(ctx context.Context, city string, mode types.Mode) bool {
	st, err := c.session.Search(ctx, city, mode)
	switch {
	case types.HasCode(err, types.ErrCodeValidationEmptyQuery):
		c.p.Fprintln(c.out, types.MsgEmptyQuery)
		return false
	case errors.Is(err, weather.ErrSuperseded):
		return false
	}
	c.render(st)
	return st.Status == weather.StatusSuccess
}

func (c *client) interactive(ctx context.Context, in io.Reader, mode types.Mode) error {
	scanner := bufio.NewScanner(in)
	for {
		c.p.Fprintf(c.out, "[%s] city> ", mode)
		if !scanner.Scan() {
			c.p.Fprintln(c.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == ":quit" || line == ":q":
			return nil
		case strings.HasPrefix(line, ":mode"):
			next, err := types.ParseMode(strings.TrimSpace(strings.TrimPrefix(line, ":mode")))
			if err != nil {
				c.p.Fprintln(c.out, "Unknown mode. Use :mode current or :mode hourly.")
				continue
			}
			mode = next
			continue
		}

		c.search(ctx, line, mode)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *client) render(st weather.State) {
	if st.Status == weather.StatusFailure {
		c.p.Fprintf(c.out, "%s\n", st.ErrorMessage)
		return
	}
	vm := st.View
	if vm == nil {
		return
	}

	c.p.Fprintf(c.out, "\n%s, %s\n", vm.City, vm.Country)
	if vm.Current != nil {
		theme := vm.Theme
		if theme != nil {
			c.p.Fprintf(c.out, "%s  %s  %.1f°C\n", theme.Icon, theme.Label, vm.Current.TemperatureCelsius)
			c.p.Fprintf(c.out, "%s\n", theme.Message)
		} else {
			c.p.Fprintf(c.out, "%.1f°C\n", vm.Current.TemperatureCelsius)
		}
		c.p.Fprintf(c.out, "Humidity: %d%%\n", vm.Current.HumidityPercent)
		if st.Summary != "" {
			c.p.Fprintf(c.out, "\n%s\n", st.Summary)
		}
	}
	if len(vm.HourlySeries) > 0 {
		c.p.Fprintf(c.out, "Next %d hours (local time)\n", len(vm.HourlySeries))
		for _, pt := range vm.HourlySeries {
			c.p.Fprintf(c.out, "  %s  %5.1f°C\n", pt.TimestampLocal, pt.TemperatureCelsius)
		}
	}
	c.p.Fprintln(c.out)
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
