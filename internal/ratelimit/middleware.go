package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"enrollment/pkg/platform/httputil"
	"enrollment/pkg/requestcontext"
)

type Middleware struct {
	store  Store
	logger *slog.Logger
}

func NewMiddleware(store Store, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{store: store, logger: logger}
}

// PerClientIP limits requests by the client IP recorded by the metadata
// middleware.
func (m *Middleware) PerClientIP(name string, p Policy) func(http.Handler) http.Handler {
	return m.limit(name, p, func(r *http.Request) string {
		return requestcontext.ClientIP(r.Context())
	})
}

// PerSession limits requests by the session bound to the bearer token. It
// must run after session authentication.
func (m *Middleware) PerSession(name string, p Policy) func(http.Handler) http.Handler {
	return m.limit(name, p, func(r *http.Request) string {
		return requestcontext.SessionID(r.Context())
	})
}

// limit fails open: a store error is logged and the request proceeds.
func (m *Middleware) limit(name string, p Policy, keyOf func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil || !p.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			subject := keyOf(r)
			if subject == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := m.store.Allow(ctx, name+":"+subject, p)
			if err != nil {
				m.logger.ErrorContext(ctx, "rate limit check failed",
					"limit", name, "request_id", requestcontext.RequestID(ctx), "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"limit", name, "request_id", requestcontext.RequestID(ctx))
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":             "rate_limit_exceeded",
					"error_description": "Too many requests. Please try again later.",
					"retry_after":       result.RetryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
