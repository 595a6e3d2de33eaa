package importer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4, 8)
	pool.Start(context.Background())

	var ran int64
	for i := 0; i < 100; i++ {
		err := pool.Submit(context.Background(), func(context.Context) {
			atomic.AddInt64(&ran, 1)
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	pool.Close()

	if got := atomic.LoadInt64(&ran); got != 100 {
		t.Errorf("expected 100 jobs to run, got %d", got)
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	pool.Start(context.Background())
	pool.Close()

	err := pool.Submit(context.Background(), func(context.Context) {})
	if err != ErrPoolClosed {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
	// Close is idempotent.
	pool.Close()
}

func TestWorkerPoolSubmitHonorsContext(t *testing.T) {
	// No workers started, queue of one: the second submit must block
	// until the context gives up.
	pool := NewWorkerPool(1, 1)
	if err := pool.Submit(context.Background(), func(context.Context) {}); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pool.Submit(ctx, func(context.Context) {})
	if err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestWorkerPoolDefaults(t *testing.T) {
	pool := NewWorkerPool(0, 0)
	if pool.workers != 1 {
		t.Errorf("expected 1 worker, got %d", pool.workers)
	}
	if cap(pool.jobs) != 2 {
		t.Errorf("expected queue of 2, got %d", cap(pool.jobs))
	}
}
