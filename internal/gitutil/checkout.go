// Package gitutil checks out repositories at a single commit with go-git.
package gitutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/sync/semaphore"

	"github.com/sevigo/orgu/internal/config"
)

const (
	workerRunning int32 = iota
	workerDone
	workerAbandoned
)

const (
	remoteName = "origin"
	// checkoutRef is where the fetched commit is stored so it stays reachable.
	checkoutRef = "refs/remotes/origin/orgu-checkout"
)

// Checkouter checks out a repository at a specific commit.
//
//go:generate mockgen -destination=../../mocks/mock_checkouter.go -package=mocks . Checkouter
type Checkouter interface {
	// CreateDirAndCheckout checks out spec into a new temporary directory.
	// The caller must Close the returned WorkDir.
	CreateDirAndCheckout(ctx context.Context, spec CheckoutSpec) (*WorkDir, error)
	// CheckoutUnder checks out spec into dir, creating it when needed.
	CheckoutUnder(ctx context.Context, spec CheckoutSpec, dir string) error
}

// CheckoutSpec identifies the commit to check out. Token is used for HTTP
// basic auth and is never logged.
type CheckoutSpec struct {
	Owner string
	Repo  string
	SHA   string
	Token string
}

// FullName returns "owner/repo".
func (s CheckoutSpec) FullName() string {
	return s.Owner + "/" + s.Repo
}

// LogValue implements slog.LogValuer.
func (s CheckoutSpec) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("owner", s.Owner),
		slog.String("repo", s.Repo),
		slog.String("sha", s.SHA),
	)
}

// TimeoutError is returned when a checkout does not finish within the fetch
// timeout. The worker may still be running when it is returned.
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout fetching repository took too long: %s", e.Duration)
}

// WorkDir is a checked out repository in a disposable directory.
type WorkDir struct {
	Path string
	root string
}

// NewWorkDir wraps an existing directory. Close removes root when it is not empty.
func NewWorkDir(path, root string) *WorkDir {
	return &WorkDir{Path: path, root: root}
}

// Close removes the temporary directory holding the checkout.
func (w *WorkDir) Close() error {
	if w == nil || w.root == "" {
		return nil
	}
	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("failed to cleanup temporary directory %s: %w", w.root, err)
	}
	return nil
}

// Engine runs checkouts on background workers raced against a timer.
// Workers that lose the race are asked to stop but are not forcibly
// terminated; they keep their semaphore slot until they actually exit.
type Engine struct {
	cfg    config.CheckoutConfig
	gitURL string
	logger *slog.Logger

	sem       *semaphore.Weighted
	wg        sync.WaitGroup
	abandoned atomic.Int64
}

// NewEngine creates a checkout engine fetching from gitURL.
func NewEngine(cfg config.CheckoutConfig, gitURL string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Engine{
		cfg:    cfg,
		gitURL: strings.TrimSuffix(gitURL, "/"),
		logger: logger,
		sem:    semaphore.NewWeighted(int64(workers)),
	}
}

// Abandoned returns the number of workers that timed out and have not exited yet.
func (e *Engine) Abandoned() int64 {
	return e.abandoned.Load()
}

// Wait blocks until every worker, including abandoned ones, has exited.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// CreateDirAndCheckout creates a fresh temporary directory and checks out
// spec under <tmp>/<repo>. When the worker is abandoned the directory is
// removed once it exits.
func (e *Engine) CreateDirAndCheckout(ctx context.Context, spec CheckoutSpec) (*WorkDir, error) {
	if err := validateRepoName(spec.Repo); err != nil {
		return nil, err
	}
	root, err := os.MkdirTemp("", "orgu-checkout-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	dir := filepath.Join(root, spec.Repo)

	abandoned, err := e.fetchWithTimeout(ctx, spec, dir, func() { e.removeAll(root) })
	if err != nil {
		if !abandoned {
			e.removeAll(root)
		}
		return nil, err
	}
	return &WorkDir{Path: dir, root: root}, nil
}

// CheckoutUnder checks out spec into dir.
func (e *Engine) CheckoutUnder(ctx context.Context, spec CheckoutSpec, dir string) error {
	_, err := e.fetchWithTimeout(ctx, spec, dir, nil)
	return err
}

// fetchWithTimeout runs the checkout on a worker. It reports whether the
// worker was abandoned while still running; in that case onExit, if set, is
// called after the worker exits.
func (e *Engine) fetchWithTimeout(ctx context.Context, spec CheckoutSpec, dir string, onExit func()) (bool, error) {
	timeout := e.cfg.FetchTimeout
	e.logger.InfoContext(ctx, "fetching repository with timeout", "timeout", timeout, "spec", spec, "dir", dir)

	raceCtx, cancelRace := context.WithTimeout(ctx, timeout)
	defer cancelRace()

	if err := e.sem.Acquire(raceCtx, 1); err != nil {
		if ctx.Err() == nil {
			e.logger.WarnContext(ctx, "no checkout worker became available in time", "abandoned_workers", e.Abandoned())
			return false, &TimeoutError{Duration: timeout}
		}
		return false, err
	}

	// The worker outlives ctx; it is stopped through token and cancelWork only.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	token := &CancelToken{}
	result := make(chan error, 1)
	var state atomic.Int32 // workerRunning, workerDone or workerAbandoned

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.sem.Release(1)
		defer cancelWork()

		result <- e.checkout(workCtx, token, spec, dir)
		if state.CompareAndSwap(workerRunning, workerDone) {
			return
		}
		e.abandoned.Add(-1)
		e.logger.Info("abandoned checkout worker exited", "spec", spec)
		if onExit != nil {
			onExit()
		}
	}()

	select {
	case err := <-result:
		return false, err
	case <-raceCtx.Done():
	}

	n := e.abandoned.Add(1)
	if !state.CompareAndSwap(workerRunning, workerAbandoned) {
		// The worker finished while the timer fired.
		e.abandoned.Add(-1)
		return false, <-result
	}
	token.Cancel()
	cancelWork()

	if ctx.Err() != nil {
		e.logger.WarnContext(ctx, "checkout aborted, worker asked to stop", "spec", spec, "abandoned_workers", n)
		return true, fmt.Errorf("checkout of %s aborted: %w", spec.FullName(), ctx.Err())
	}
	e.logger.WarnContext(ctx, "checkout timed out, worker asked to stop", "spec", spec, "timeout", timeout, "abandoned_workers", n)
	return true, &TimeoutError{Duration: timeout}
}

func (e *Engine) checkout(ctx context.Context, token *CancelToken, spec CheckoutSpec, dir string) error {
	repo, err := git.PlainInit(dir, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		repo, err = git.PlainOpen(dir)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize repository at %s: %w", dir, err)
	}

	remoteURL := RemoteURL(e.gitURL, spec.Owner, spec.Repo)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: remoteName, URLs: []string{remoteURL}})
	if err != nil && !errors.Is(err, git.ErrRemoteExists) {
		return fmt.Errorf("failed to create remote %s: %w", remoteURL, err)
	}

	if e.cfg.NoFetch {
		e.logger.Info("no fetch is enabled, skipping fetch and checkout", "spec", spec)
		return nil
	}

	if !plumbing.IsHash(spec.SHA) {
		return fmt.Errorf("invalid commit SHA: sha=%s", spec.SHA)
	}
	hash := plumbing.NewHash(spec.SHA)

	opts := &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf("+%s:%s", spec.SHA, checkoutRef))},
		Depth:      e.cfg.FetchDepth,
		Tags:       git.NoTags,
		Progress:   &progressWriter{token: token, logger: e.logger},
	}
	if spec.Token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: spec.Token}
	}

	e.logger.Debug("fetching commit", "spec", spec, "depth", e.cfg.FetchDepth)
	if err := repo.FetchContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		if token.Cancelled() {
			return fmt.Errorf("fetch of %s cancelled: %w", spec.FullName(), ErrCancelled)
		}
		return fmt.Errorf("failed to fetch %s:%s: %w", spec.FullName(), spec.SHA, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return fmt.Errorf("failed to checkout %s:%s: %w", spec.FullName(), spec.SHA, err)
	}
	e.logger.Debug("checked out commit", "spec", spec)
	return nil
}

func (e *Engine) removeAll(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		e.logger.Error("failed to remove checkout directory", "path", dir, "error", err)
	}
}

func validateRepoName(repo string) error {
	if repo == "" || repo == "." || repo == ".." || strings.ContainsAny(repo, `/\`) {
		return fmt.Errorf("invalid repository name %q", repo)
	}
	return nil
}
