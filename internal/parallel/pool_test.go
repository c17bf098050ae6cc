package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestWorkerPool_CreateZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	if want := runtime.GOMAXPROCS(0); pool.Workers() != want {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), want)
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}

	if err := pool.ExecuteAll(context.Background(), work); err != nil {
		t.Fatalf("ExecuteAll() = %v", err)
	}
	if got := counter.Load(); got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestWorkerPool_ExecuteAllCancelled(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var counter atomic.Int64
	work := make([]func(), 50)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}

	err := pool.ExecuteAll(ctx, work)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ExecuteAll() = %v, want context.Canceled", err)
	}
	if got := counter.Load(); got != 0 {
		t.Errorf("counter = %d, want 0 after cancellation", got)
	}
}

func TestWorkerPool_ExecuteAllAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	var counter atomic.Int64
	work := []func(){func() { counter.Add(1) }, func() { counter.Add(1) }}
	if err := pool.ExecuteAll(context.Background(), work); err != nil {
		t.Fatalf("ExecuteAll() = %v", err)
	}
	if got := counter.Load(); got != 2 {
		t.Errorf("counter = %d, want 2 (inline execution)", got)
	}
}
