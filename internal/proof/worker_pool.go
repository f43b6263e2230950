package proof

import (
	"context"
	"fmt"
	"sync"
)

// job is the unit of work dispatched to a worker.
type job[T, R any] struct {
	payload T
	result  chan<- jobResult[T, R]
}

type jobResult[T, R any] struct {
	payload T
	value   R
	err     error
}

// workerPool is a fixed-size goroutine pool with a bounded input queue.
// Each job's outcome is delivered on the channel given to Submit; a panic
// in one job is captured as that job's error.
type workerPool[T, R any] struct {
	queue   chan job[T, R]
	process func(ctx context.Context, t T) (R, error)
	wg      sync.WaitGroup
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
func newWorkerPool[T, R any](ctx context.Context, n, cap int, fn func(context.Context, T) (R, error)) *workerPool[T, R] {
	if n < 1 {
		n = 1
	}
	p := &workerPool[T, R]{
		queue:   make(chan job[T, R], cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

// run drains the queue until it is closed. Jobs left after ctx is done
// are still handed to process so every submitter gets an answer; process
// is expected to fail fast on a done ctx.
func (p *workerPool[T, R]) run(ctx context.Context) {
	for j := range p.queue {
		v, err := p.safeProcess(ctx, j.payload)
		if j.result != nil {
			j.result <- jobResult[T, R]{payload: j.payload, value: v, err: err}
		}
	}
}

func (p *workerPool[T, R]) safeProcess(ctx context.Context, t T) (v R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.process(ctx, t)
}

// Submit enqueues a job without blocking (returns false if full).
func (p *workerPool[T, R]) Submit(t T, result chan<- jobResult[T, R]) bool {
	select {
	case p.queue <- job[T, R]{payload: t, result: result}:
		return true
	default:
		return false
	}
}

// Drain closes the queue and waits for all workers to finish.
func (p *workerPool[T, R]) Drain() {
	close(p.queue)
	p.wg.Wait()
}
