// Package jobs runs the configured CI job for dispatch requests and reports
// the result as a GitHub check run.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/orgu/internal/config"
	"github.com/sevigo/orgu/internal/core"
	"github.com/sevigo/orgu/internal/github"
	"github.com/sevigo/orgu/internal/gitutil"
)

// RunJob checks out the commit of a dispatch, runs the job command in it and
// reports the outcome. Once a check run has been created it is completed
// exactly once, whatever fails afterwards.
type RunJob struct {
	job            config.JobConfig
	installationID int64
	status         github.StatusUpdater
	tokens         github.TokenSource
	checkout       gitutil.Checkouter
	executor       *Executor
	logger         *slog.Logger
}

// NewRunJob creates a RunJob. Only requests from installationID are run,
// except for manual re-runs.
func NewRunJob(
	job config.JobConfig,
	installationID int64,
	client github.CheckRunClient,
	tokens github.TokenSource,
	checkout gitutil.Checkouter,
	logger *slog.Logger,
) *RunJob {
	return &RunJob{
		job:            job,
		installationID: installationID,
		status:         github.NewStatusUpdater(client, job.CheckRunName(), job.WrapStdout),
		tokens:         tokens,
		checkout:       checkout,
		executor:       NewExecutor(logger),
		logger:         logger,
	}
}

// HandleDispatch implements core.Dispatcher.
func (j *RunJob) HandleDispatch(ctx context.Context, req *core.DispatchRequest) error {
	if req == nil {
		return fmt.Errorf("dispatch request cannot be nil")
	}

	logger := j.logger.With(req.LogAttrs()...)
	logger.Info("handling event", "event_name", req.EventName, "action", req.Action)
	start := time.Now()

	if err := j.handle(ctx, logger, req); err != nil {
		logger.Error("event handling failed", "error", err, "elapsed", time.Since(start))
		return err
	}
	logger.Info("event handled successfully", "elapsed", time.Since(start))
	return nil
}

func (j *RunJob) handle(ctx context.Context, logger *slog.Logger, req *core.DispatchRequest) error {
	if !core.Accept(req, j.installationID) {
		logger.Info("skipping event from different installation", "expected_installation_id", j.installationID)
		return nil
	}

	checkRunID, err := j.status.InProgress(ctx, req, j.job.Command)
	if err != nil {
		return err
	}
	logger = logger.With("check_run_id", checkRunID)

	return j.ensureCompleted(ctx, logger, req, checkRunID, func() error {
		return j.run(ctx, logger, req, checkRunID)
	})
}

// ensureCompleted reports a failure on the check run when fn returns an
// error, then returns that error to the caller.
func (j *RunJob) ensureCompleted(ctx context.Context, logger *slog.Logger, req *core.DispatchRequest, checkRunID int64, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if updateErr := j.status.Completed(ctx, req, checkRunID, core.HandlerFailed{Err: err}); updateErr != nil {
		logger.Error("failed to report handler failure on check run", "error", updateErr)
		return errors.Join(err, fmt.Errorf("failed to update check run %d: %w", checkRunID, updateErr))
	}
	return err
}

func (j *RunJob) run(ctx context.Context, logger *slog.Logger, req *core.DispatchRequest, checkRunID int64) error {
	token, err := j.tokens.FetchToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch token: %w", err)
	}

	spec := gitutil.CheckoutSpec{Owner: req.Owner(), Repo: req.Repo(), SHA: req.HeadSHA, Token: token}
	workDir, err := j.checkout.CreateDirAndCheckout(ctx, spec)
	if err != nil {
		var timeout *gitutil.TimeoutError
		if errors.As(err, &timeout) {
			logger.Info("checkout timed out", "duration", timeout.Duration)
			return j.status.Completed(ctx, req, checkRunID, core.CheckoutTimedOut{Duration: timeout.Duration})
		}
		return fmt.Errorf("failed to checkout repository: %w", err)
	}
	defer func() {
		if err := workDir.Close(); err != nil {
			logger.Warn("failed to remove working directory", "error", err)
		}
	}()

	env := BuildJobEnv(req, token, j.job.Name)
	outcome, err := j.executor.Run(ctx, j.job.Command, workDir.Path, env, j.job.Timeout)
	if err != nil {
		return err
	}
	return j.status.Completed(ctx, req, checkRunID, outcome)
}
