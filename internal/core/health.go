package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// healthCheckTimeout bounds all probes together.
const healthCheckTimeout = 2 * time.Second

// HealthProbe checks one dependency.
type HealthProbe interface {
	// Name identifies the probe in the response (e.g. "open-meteo-forecast").
	Name() string
	// Check returns an error when the dependency is unusable. It must honor
	// the context deadline.
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components,omitempty"`
	Features   map[string]bool            `json:"features,omitempty"`
}

// HandleHealth runs all probes concurrently under a 2 second deadline and
// returns 200 when every probe passes, 503 otherwise. A probe that has not
// finished by the deadline counts as unhealthy.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "healthy", Features: s.Features}
	if s.Config != nil {
		resp.Version = s.Config.Build.Version
	}

	probes := s.HealthProbes
	if len(probes) == 0 {
		JSON(w, r, http.StatusOK, resp)
		return
	}

	var (
		mu        sync.Mutex
		completed = make(map[string]error, len(probes))
	)

	g := new(errgroup.Group)
	for _, probe := range probes {
		g.Go(func() error {
			err := runProbe(ctx, probe)
			mu.Lock()
			completed[probe.Name()] = err
			mu.Unlock()
			// Never abort sibling probes.
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	resp.Components = make(map[string]componentStatus, len(probes))
	mu.Lock()
	for _, probe := range probes {
		name := probe.Name()
		err, ok := completed[name]
		switch {
		case !ok:
			resp.Status = "unhealthy"
			resp.Components[name] = componentStatus{Status: "unhealthy", Message: "health check timed out"}
		case err != nil:
			resp.Status = "unhealthy"
			resp.Components[name] = componentStatus{Status: "unhealthy", Message: err.Error()}
		default:
			resp.Components[name] = componentStatus{Status: "healthy"}
		}
	}
	mu.Unlock()

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	JSON(w, r, status, resp)
}

func runProbe(ctx context.Context, p HealthProbe) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("probe panicked: %v", rvr)
		}
	}()
	return p.Check(ctx)
}
