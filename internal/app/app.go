// Package app ties the runner's components together and controls their lifecycle.
package app

import (
	"log/slog"

	"github.com/sevigo/orgu/internal/config"
	"github.com/sevigo/orgu/internal/gitutil"
	"github.com/sevigo/orgu/internal/jobs"
	"github.com/sevigo/orgu/internal/server"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	dispatcher *jobs.Dispatcher
	engine     *gitutil.Engine
	logger     *slog.Logger
}

// NewApp sets up the application from its already constructed dependencies.
func NewApp(
	cfg *config.Config,
	srv *server.Server,
	dispatcher *jobs.Dispatcher,
	engine *gitutil.Engine,
	logger *slog.Logger,
) *App {
	return &App{
		cfg:        cfg,
		server:     srv,
		dispatcher: dispatcher,
		engine:     engine,
		logger:     logger,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.logger.Info("starting runner",
		"address", a.cfg.Server.Address,
		"port", a.cfg.Server.Port,
		"job_name", a.cfg.Job.Name,
		"select", a.cfg.Server.Select,
		"max_dispatches", a.cfg.Server.MaxDispatches)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down runner")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()

	if n := a.engine.Abandoned(); n > 0 {
		a.logger.Info("waiting for abandoned checkout workers", "count", n)
	}
	a.engine.Wait()

	if serverErr != nil {
		return serverErr
	}
	a.logger.Info("runner stopped successfully")
	return nil
}
