// Package httpserver builds the http.Server for the governance API.
package httpserver

import (
	"net/http"
	"time"
)

// The API carries document metadata only; artifact bytes stay in object
// storage, so request bodies are small and timeouts can be tight. The write
// timeout sits above the 30s per-request middleware timeout so the handler
// deadline fires first and the client still gets the timeout response.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 35 * time.Second
	idleTimeout       = 60 * time.Second
)

// New builds the API server with the project's timeout profile.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    1 << 20,
	}
}
