package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sevigo/orgu/internal/core"
)

// ErrQueueFull is returned when the dispatcher can not accept more work.
var ErrQueueFull = errors.New("dispatch queue is full, cannot accept new job")

// ErrStopped is returned for dispatches submitted after Stop.
var ErrStopped = errors.New("dispatcher is stopped")

type task struct {
	ctx    context.Context
	req    *core.DispatchRequest
	result chan error
}

// Dispatcher bounds the number of concurrently running dispatches with a
// pool of worker goroutines. HandleDispatch blocks until the job has run so
// callers still see its error.
type Dispatcher struct {
	job        core.Dispatcher // Job executed by each worker.
	queue      chan *task      // Dispatches waiting for a worker.
	maxWorkers int
	wg         sync.WaitGroup // Tracks active workers for graceful shutdown.
	mu         sync.RWMutex
	stopped    bool
	logger     *slog.Logger
}

// NewDispatcher starts maxWorkers workers. If maxWorkers is 0 or negative,
// it defaults to 1; a queueSize below 1 defaults to maxWorkers.
func NewDispatcher(job core.Dispatcher, maxWorkers, queueSize int, logger *slog.Logger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if queueSize < 1 {
		queueSize = maxWorkers
	}
	d := &Dispatcher{
		job:        job,
		queue:      make(chan *task, queueSize),
		maxWorkers: maxWorkers,
		logger:     logger,
	}
	d.startWorkers()
	return d
}

func (d *Dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

func (d *Dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("starting dispatch worker", "id", workerID)

	for t := range d.queue {
		t.result <- d.job.HandleDispatch(t.ctx, t.req)
	}

	d.logger.Debug("shutting down dispatch worker", "id", workerID)
}

// HandleDispatch implements core.Dispatcher. It queues req for a worker and
// waits for the job to finish.
func (d *Dispatcher) HandleDispatch(ctx context.Context, req *core.DispatchRequest) error {
	t := &task{ctx: ctx, req: req, result: make(chan error, 1)}

	d.mu.RLock()
	if d.stopped {
		d.mu.RUnlock()
		return ErrStopped
	}
	select {
	case d.queue <- t:
		d.mu.RUnlock()
	default:
		d.mu.RUnlock()
		d.logger.Warn("rejecting dispatch, queue is full", "request_id", req.RequestID)
		return ErrQueueFull
	}

	return <-t.result
}

// Stop stops accepting dispatches and waits for queued and running ones to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	d.wg.Wait()
	d.logger.Info("all dispatches have finished")
}
