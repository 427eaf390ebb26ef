package gitutil

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
)

// ErrCancelled is reported by a fetch that observed a cancellation request.
var ErrCancelled = errors.New("checkout cancelled")

// CancelToken is a cancellation request polled from inside blocking git
// operations. Cancelling is advisory; the operation stops at its next poll.
type CancelToken struct {
	cancelled atomic.Bool
}

// Cancel requests cancellation.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel was called.
func (t *CancelToken) Cancelled() bool {
	return t.cancelled.Load()
}

// progressWriter receives sideband progress from the remote. Returning an
// error aborts the transfer, which is how the token is observed mid-fetch.
type progressWriter struct {
	token  *CancelToken
	logger *slog.Logger
}

func (w *progressWriter) Write(p []byte) (int, error) {
	if w.token.Cancelled() {
		return 0, ErrCancelled
	}
	if msg := strings.TrimSpace(string(p)); msg != "" {
		w.logger.Debug("fetch progress", "message", msg)
	}
	return len(p), nil
}
