// Package worker runs detached background jobs and periodic tasks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by Go after Shutdown has started.
var ErrPoolClosed = errors.New("worker pool is shut down")

// Pool runs fire-and-forget jobs outside of any request lifecycle.
// Jobs get the pool's own context, which is only cancelled when Shutdown gives up waiting.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    *semaphore.Weighted
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool that runs at most concurrency jobs at a time; extra jobs wait for a slot.
func NewPool(concurrency int64) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		ctx:    ctx,
		cancel: cancel,
		sem:    semaphore.NewWeighted(concurrency),
	}
}

// Go schedules job and returns immediately. Errors and panics are logged, never propagated.
func (p *Pool) Go(name string, job func(ctx context.Context) error) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			slog.Warn("background job dropped", "job", name, "error", err)
			return
		}
		defer p.sem.Release(1)

		err := run(p.ctx, job)
		if err != nil {
			slog.Error("background job failed", "job", name, "error", err)
			return
		}
		slog.Debug("background job finished", "job", name)
	}()

	return nil
}

func run(ctx context.Context, job func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return job(ctx)
}

// Shutdown stops accepting jobs and waits for running and queued ones.
// When ctx expires first, the job context is cancelled and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
