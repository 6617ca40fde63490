package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

// New builds the HTTP server. Write timeouts stay generous because a write
// request may wait on bcrypt and a tenant database. Server-level errors
// (TLS handshakes, panics outside handlers) go to logger at warn.
func New(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
