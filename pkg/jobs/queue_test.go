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
	"go.uber.org/goleak"
)

func TestQueueProcessesJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	var wg sync.WaitGroup
	var seen sync.Map
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		seen.Store(job.ID, job.Payload)
		wg.Done()
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())

	wg.Add(3)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id, Kind: "export", Payload: id}))
	}
	wg.Wait()
	q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		v, ok := seen.Load(id)
		require.True(t, ok)
		assert.Equal(t, id, v)
	}
}

func TestQueueRetriesThenDeadLetters(t *testing.T) {
	defer goleak.VerifyNone(t)

	var attempts int32
	dead := make(chan Job, 1)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("render failed")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		DeadLetter: func(ctx context.Context, job Job, err error) {
			dead <- job
		},
	})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))

	select {
	case job := <-dead:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never dead-lettered")
	}
	q.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueRecoversPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	dead := make(chan error, 1)
	q := NewQueue("panic", func(ctx context.Context, job Job) error {
		panic("boom")
	}, QueueConfig{
		MaxRetries: 0,
		DeadLetter: func(ctx context.Context, job Job, err error) { dead <- err },
	})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "p"}))

	select {
	case err := <-dead:
		assert.Contains(t, err.Error(), "panicked")
	case <-time.After(2 * time.Second):
		t.Fatal("panic not reported")
	}
	q.Stop()
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
	q.Stop()
}
