package core

import "time"

// Outcome is the terminal result of a dispatch that reached check run
// creation. Each variant is rendered into exactly one check run update.
type Outcome interface {
	isOutcome()
}

// CheckoutTimedOut reports that the repository could not be checked out
// within the configured fetch timeout.
type CheckoutTimedOut struct {
	Duration time.Duration
}

// CommandTimedOut reports that the job exceeded its time budget and was
// asked to terminate.
type CommandTimedOut struct {
	Command  []string
	Duration time.Duration
}

// CommandCompleted reports a job that exited on its own. A non-zero exit is a
// failure of the job, not of the runner.
type CommandCompleted struct {
	Command []string
	Success bool
	// Status is the rendered process state, e.g. "exit status 1".
	Status string
	Stdout []byte
	Stderr []byte
	Env    JobEnv
}

// HandlerFailed wraps an error that escaped the pipeline after the check run
// was created.
type HandlerFailed struct {
	Err error
}

func (CheckoutTimedOut) isOutcome() {}
func (CommandTimedOut) isOutcome()  {}
func (CommandCompleted) isOutcome() {}
func (HandlerFailed) isOutcome()    {}
