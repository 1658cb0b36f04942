package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Timeouts are the http.Server timeouts as duration strings. Empty or
// unparsable values leave the timeout unset.
type Timeouts struct {
	Read  string
	Write string
	Idle  string
}

// HTTPServer serves the link API on a TCP address.
type HTTPServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewHTTP builds an HTTPServer listening on addr.
func NewHTTP(addr string, handler http.Handler, timeouts Timeouts, logger *slog.Logger) *HTTPServer {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
	}

	if timeout, err := time.ParseDuration(timeouts.Read); err == nil {
		srv.ReadTimeout = timeout
	}
	if timeout, err := time.ParseDuration(timeouts.Write); err == nil {
		srv.WriteTimeout = timeout
	}
	if timeout, err := time.ParseDuration(timeouts.Idle); err == nil {
		srv.IdleTimeout = timeout
	}

	return &HTTPServer{server: srv, logger: logger}
}

// Start binds the listen address, then serves in the background.
func (s *HTTPServer) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

// Stop drains in-flight requests until ctx is done.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Timeouts returns the configured read, write and idle timeouts.
func (s *HTTPServer) Timeouts() (read, write, idle time.Duration) {
	return s.server.ReadTimeout, s.server.WriteTimeout, s.server.IdleTimeout
}
