// Package middleware brackets each HTTP request with association tracking.
package middleware

import (
	"context"
	"net/http"

	"github.com/ammar0144/bullet4go/pkg/association"
	"github.com/ammar0144/bullet4go/pkg/notify"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// TrackConfig holds configuration for the tracking middleware
type TrackConfig struct {
	// Detection configures each request's tracker; nil uses association.DefaultConfig
	Detection *association.Config
	// Notifier receives every finished request's summary; nil only logs
	Notifier notify.Notifier
	// Logger is used for misuse and notifier errors
	Logger *zap.Logger
	// SkipPaths is a list of paths that are not tracked
	SkipPaths []string
}

// Track creates a middleware that starts a request-scoped tracker, exposes it
// through the request context and notifies its summary when the handler returns
func Track(config TrackConfig) Middleware {
	detection := config.Detection
	if detection == nil {
		detection = association.DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := config.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !detection.Enabled || skipped(config.SkipPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			req := association.NewRequest(detection, logger)
			r = r.WithContext(association.WithRequest(r.Context(), req))
			defer finish(r, req, notifier, logger)

			next.ServeHTTP(w, r)
		})
	}
}

// RequestFrom returns the tracker attached to r by Track
func RequestFrom(r *http.Request) (*association.Request, bool) {
	return association.FromContext(r.Context())
}

func finish(r *http.Request, req *association.Request, notifier notify.Notifier, logger *zap.Logger) {
	summary, err := req.Summary()
	if err != nil {
		// the handler ended the request itself
		return
	}
	summary.Label = label(r)

	if err := req.End(); err != nil {
		logger.Error("association tracking misuse", zap.String("request_id", req.ID()), zap.Error(err))
	}

	ctx := context.WithoutCancel(r.Context())
	if err := notifier.Notify(ctx, summary); err != nil {
		logger.Error("failed to notify findings", zap.String("request_id", req.ID()), zap.Error(err))
	}
}

// label prefers the matched chi route pattern over the raw path
func label(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return r.Method + " " + pattern
		}
	}
	return r.Method + " " + r.URL.Path
}

func skipped(paths []string, path string) bool {
	for _, p := range paths {
		if p == path {
			return true
		}
	}
	return false
}
