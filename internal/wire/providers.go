package wire

import (
	"log/slog"
	"net/http"

	"github.com/google/wire"

	"github.com/sevigo/orgu/internal/app"
	"github.com/sevigo/orgu/internal/config"
	"github.com/sevigo/orgu/internal/core"
	"github.com/sevigo/orgu/internal/github"
	"github.com/sevigo/orgu/internal/gitutil"
	"github.com/sevigo/orgu/internal/jobs"
	"github.com/sevigo/orgu/internal/logger"
	"github.com/sevigo/orgu/internal/server"
)

// AppSet provides everything needed to build the runner application.
var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	config.LoadConfig,
	provideLogger,
	provideHTTPClient,
	provideCheckRunClient,
	provideTokenSource,
	provideEngine,
	provideRunJob,
	provideDispatcher,
	wire.Bind(new(gitutil.Checkouter), new(*gitutil.Engine)),
	wire.Bind(new(core.Dispatcher), new(*jobs.Dispatcher)),
)

func provideLogger(cfg *config.Config) *slog.Logger {
	l := logger.NewLogger(cfg.Logging, nil)
	slog.SetDefault(l)
	return l
}

func provideHTTPClient(cfg *config.Config, logger *slog.Logger) *http.Client {
	return github.NewHTTPClient(cfg.API, logger)
}

func provideCheckRunClient(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (github.CheckRunClient, error) {
	return github.NewInstallationClient(cfg.GitHub, httpClient, logger)
}

func provideTokenSource(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (github.TokenSource, error) {
	return github.NewAppTokenSource(cfg.GitHub, httpClient, logger)
}

func provideEngine(cfg *config.Config, logger *slog.Logger) *gitutil.Engine {
	return gitutil.NewEngine(cfg.Checkout, cfg.GitHub.GitURL, logger)
}

func provideRunJob(
	cfg *config.Config,
	client github.CheckRunClient,
	tokens github.TokenSource,
	checkout gitutil.Checkouter,
	logger *slog.Logger,
) *jobs.RunJob {
	return jobs.NewRunJob(cfg.Job, cfg.GitHub.InstallationID, client, tokens, checkout, logger)
}

func provideDispatcher(cfg *config.Config, job *jobs.RunJob, logger *slog.Logger) *jobs.Dispatcher {
	return jobs.NewDispatcher(job, cfg.Server.MaxDispatches, cfg.Server.QueueSize, logger)
}
