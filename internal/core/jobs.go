package core

import (
	"context"
)

// Dispatcher defines the contract for a component that handles one dispatch
// end to end. It decouples the ingress (an HTTP relay endpoint or a local
// oneshot run) from the orchestration of checkout, execution and reporting.
type Dispatcher interface {
	// HandleDispatch runs the configured job for req and reports its terminal
	// status. A returned error means the runner itself failed; failures of the
	// job are reported remotely and are not errors.
	HandleDispatch(ctx context.Context, req *DispatchRequest) error
}
