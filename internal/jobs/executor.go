package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sevigo/orgu/internal/core"
)

// ErrEmptyCommand is returned when no job command is configured.
var ErrEmptyCommand = errors.New("empty COMMAND arg given. See --help.")

// waitDelay bounds how long Wait keeps copying output after the process was
// killed, e.g. when a grandchild still holds stdout open.
const waitDelay = 5 * time.Second

// Executor runs the job command without a shell.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logger}
}

// Run executes command in dir. The process sees only env and the runner's
// PATH. A non-zero exit or a timeout is an outcome, not an error; errors are
// reserved for commands that can not be started.
func (e *Executor) Run(ctx context.Context, command []string, dir string, env core.JobEnv, timeout time.Duration) (core.Outcome, error) {
	if len(command) == 0 {
		return nil, ErrEmptyCommand
	}
	cmdline := strings.Join(command, " ")

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = env.Environ()
	if path, ok := os.LookupEnv("PATH"); ok {
		cmd.Env = append(cmd.Env, "PATH="+path)
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Info("running command with timeout", "command", cmdline, "dir", dir, "timeout", timeout)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to run command: %s: %w", cmdline, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run command: %s: %w", cmdline, err)
		}
		state := cmd.ProcessState
		if state.Success() {
			e.logger.Info("command succeeded", "elapsed", time.Since(start))
		} else {
			e.logger.Info("command failed", "status", state.String(), "elapsed", time.Since(start))
		}
		e.logger.Debug("command output", "stdout", stdout.String(), "stderr", stderr.String())

		return core.CommandCompleted{
			Command: command,
			Success: state.Success(),
			Status:  state.String(),
			Stdout:  stdout.Bytes(),
			Stderr:  stderr.Bytes(),
			Env:     env,
		}, nil
	case <-timer.C:
		e.kill(cmd)
		e.logger.Info("command timed out", "elapsed", time.Since(start), "timeout", timeout)
		return core.CommandTimedOut{Command: command, Duration: timeout}, nil
	case <-ctx.Done():
		e.kill(cmd)
		return nil, fmt.Errorf("command %s aborted: %w", cmdline, ctx.Err())
	}
}

// kill signals the child only; grandchildren it spawned are not tracked.
func (e *Executor) kill(cmd *exec.Cmd) {
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		e.logger.Warn("failed to kill command", "pid", cmd.Process.Pid, "error", err)
	}
}
