// Package server implements the HTTP server that receives dispatch requests.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/orgu/internal/config"
	"github.com/sevigo/orgu/internal/core"
)

// Server wraps an HTTP server with graceful shutdown capabilities.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with the given configuration and dispatcher.
func NewServer(ctx context.Context, cfg *config.Config, dispatcher core.Dispatcher, logger *slog.Logger) *Server {
	router := NewRouter(cfg, dispatcher, logger)
	timeout := RequestTimeout(cfg)

	return &Server{
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Address, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      timeout + 10*time.Second,
			IdleTimeout:       120 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		},
		shutdownTimeout: timeout,
		logger:          logger,
	}
}

// Start starts the HTTP server and blocks until shutdown or error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight dispatches.
func (s *Server) Stop() error {
	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
