package httpserver

import (
	"net/http"
	"time"
)

// New builds the intake HTTP server. Uploads make requests slow to read, so
// only the header read is bounded here.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
