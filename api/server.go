package api

import (
	"net/http"
	"time"

	"github.com/vivetti/salesdesk-backend/pkg/config"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	// PDF rendering of long quotes dominates the write budget.
	writeTimeout = 60 * time.Second
	idleTimeout  = 120 * time.Second
)

// NewServer returns the HTTP server that cmd/api runs. PORT overrides the configured port.
func NewServer(cfg config.AppConfig, port string, handler http.Handler) *http.Server {
	if port == "" {
		port = cfg.Port
	}
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
