// Package external is the anti-corruption layer between the weather domain and
// third-party HTTP APIs (Open-Meteo geocoding and forecast, the generative-text
// summary endpoint). All outbound calls go through BaseClient, which applies
// circuit breaking, trace propagation and error mapping. Requests are never
// retried.
package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"skycast/internal/types"
)

// BreakerSettings tunes the circuit breaker of a BaseClient.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker once reached.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a probe request.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings returns the defaults used when none are configured.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// BaseClient wraps an *http.Client and a circuit breaker. Provider clients
// embed it to share the same outbound behavior.
type BaseClient struct {
	name      string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*baseClientOptions)

type baseClientOptions struct {
	breaker BreakerSettings
}

// WithBreakerSettings overrides the circuit breaker thresholds.
func WithBreakerSettings(s BreakerSettings) BaseClientOption {
	return func(o *baseClientOptions) {
		if s.ConsecutiveFailures > 0 {
			o.breaker.ConsecutiveFailures = s.ConsecutiveFailures
		}
		if s.OpenTimeout > 0 {
			o.breaker.OpenTimeout = s.OpenTimeout
		}
	}
}

// NewBaseClient creates a BaseClient named name (used for the breaker and in
// health output).
func NewBaseClient(httpClient *http.Client, name string, userAgent string, opts ...BaseClientOption) *BaseClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	o := baseClientOptions{breaker: DefaultBreakerSettings()}
	for _, opt := range opts {
		opt(&o)
	}

	threshold := o.breaker.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     o.breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller that gives up says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BaseClient{
		name:      name,
		client:    httpClient,
		breaker:   cb,
		userAgent: userAgent,
	}
}

// Name returns the client's breaker name.
func (c *BaseClient) Name() string {
	return c.name
}

// BreakerState reports the current circuit breaker state.
func (c *BaseClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Check reports an error while the circuit breaker is open, which makes a
// BaseClient usable as a health probe. It never calls the upstream.
func (c *BaseClient) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state := c.breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker %s", state)
	}
	return nil
}

// Do executes req once with:
//  1. Trace ID injection (X-B3-TraceId from the request ID in context)
//  2. User-Agent injection
//  3. Circuit breaker wrapping (5xx, 429 and transport errors count as
//     failures; caller cancellation does not)
//  4. Error mapping to types.AppError
//
// 2xx, 3xx and 4xx responses other than 429 are returned as-is and the caller
// closes the body. Do satisfies the HTTPDoer contract expected by SDK clients.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err == nil {
		return resp, nil
	}

	if resp != nil {
		resp.Body.Close()
	}
	return nil, c.mapError(resp, err)
}

// mapError translates HTTP-level failures into AppErrors.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("circuit breaker %q is open", c.name),
			err,
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(types.ErrCodeUpstreamRateLimited, "upstream rate limit exceeded", err)
		case resp.StatusCode >= 500:
			return types.NewAppError(
				types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d", resp.StatusCode),
				err,
			)
		}
	}

	return types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream request failed", err)
}

// statusError builds the AppError for a non-2xx response that BaseClient
// passed through.
func statusError(provider string, resp *http.Response) *types.AppError {
	return types.NewAppError(
		types.ErrCodeUpstreamRejected,
		fmt.Sprintf("%s returned %d", provider, resp.StatusCode),
		nil,
	).WithDetails(map[string]any{"status": resp.StatusCode})
}
