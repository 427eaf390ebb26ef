package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/orgu/internal/core"
)

type recordingJob struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (j *recordingJob) HandleDispatch(context.Context, *core.DispatchRequest) error {
	j.calls.Add(1)
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func TestDispatcher_ReturnsJobResult(t *testing.T) {
	jobErr := errors.New("checkout failed")
	job := &recordingJob{err: jobErr}
	d := NewDispatcher(job, 2, 10, testLogger())
	defer d.Stop()

	err := d.HandleDispatch(context.Background(), &core.DispatchRequest{RequestID: "1"})
	assert.ErrorIs(t, err, jobErr)
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestDispatcher_RejectsWhenFull(t *testing.T) {
	job := &recordingJob{block: make(chan struct{})}
	d := NewDispatcher(job, 1, 1, testLogger())

	var wg sync.WaitGroup
	dispatch := func(id string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.HandleDispatch(context.Background(), &core.DispatchRequest{RequestID: id})
		}()
	}

	// The first dispatch occupies the only worker, the second fills the queue.
	dispatch("running")
	require.Eventually(t, func() bool { return job.calls.Load() == 1 }, time.Second, time.Millisecond)
	dispatch("queued")
	require.Eventually(t, func() bool { return len(d.queue) == 1 }, time.Second, time.Millisecond)

	err := d.HandleDispatch(context.Background(), &core.DispatchRequest{RequestID: "overflow"})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(job.block)
	wg.Wait()
	d.Stop()
	assert.Equal(t, int32(2), job.calls.Load())
}

func TestDispatcher_Stop(t *testing.T) {
	d := NewDispatcher(&recordingJob{}, 1, 1, testLogger())
	d.Stop()
	d.Stop()

	err := d.HandleDispatch(context.Background(), &core.DispatchRequest{RequestID: "late"})
	assert.ErrorIs(t, err, ErrStopped)
}
