package core

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"

	"skycast/internal/types"
)

// defaultRequestTimeout applies when the config does not set one.
const defaultRequestTimeout = 20 * time.Second

// requestIDHeader carries the correlation id in both directions.
const requestIDHeader = "X-Request-Id"

// defaultRedactedHeaders are masked in request logs.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
	"X-Api-Key",
}

// MountRoutes registers the global middleware chain, the /v1 group and the
// top-level routes.
func (s *Server) MountRoutes() {
	s.registerGlobalMiddleware()

	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleNotFound)

	s.router.Route("/v1", s.mountV1)
	s.router.Get("/health", s.HandleHealth)
}

// registerGlobalMiddleware applies middleware in strict order:
//  1. Recoverer       - outermost, catches every panic.
//  2. ContextTimeout  - soft deadline below the Lambda hard timeout.
//  3. RequestID       - correlation id for logs and error bodies.
//  4. SecurityHeaders
//  5. RequestLogger   - structured, with redacted headers.
//  6. CORS
//  7. Metrics
//  8. Gzip            - innermost so logging and metrics see the real status.
func (s *Server) registerGlobalMiddleware() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.requestTimeout()))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(NewCORSMiddleware(s.corsAllowedOrigins()))
	s.router.Use(s.MetricsMiddleware)
	s.router.Use(GzipMiddleware)
}

func (s *Server) mountV1(r chi.Router) {
	for _, registrar := range s.V1RouteRegistrars {
		registrar(r)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, types.NewAppError(types.ErrCodeNotFoundRoute, "route not found", nil))
}

func (s *Server) requestTimeout() time.Duration {
	if s.Config != nil && s.Config.Server.RequestTimeout > 0 {
		return s.Config.Server.RequestTimeout
	}
	return defaultRequestTimeout
}

func (s *Server) corsAllowedOrigins() []string {
	if s.Config != nil && len(s.Config.Server.CORSAllowedOrigins) > 0 {
		return s.Config.Server.CORSAllowedOrigins
	}
	return []string{"*"}
}

// ContextTimeoutMiddleware sets a deadline on the request context. Handlers
// observe it through the context passed to upstream calls.
func ContextTimeoutMiddleware(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware reuses the caller's X-Request-Id or generates a UUID,
// stores it in the context and echoes it in the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := types.WithRequestID(r.Context(), requestID)
		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GzipMiddleware compresses responses when the client accepts gzip.
func GzipMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
