// Package requesttime pins one "now" per HTTP request so session timestamps,
// application dates and audit events agree.
package requesttime

import (
	"net/http"
	"time"

	"enrollment/pkg/requestcontext"
)

// Middleware captures the request start time into the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
