package runtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/panyam/ohscript/core"
	"golang.org/x/sync/semaphore"
)

// Executor runs async block bodies and future continuations.
type Executor interface {
	Submit(ctx context.Context, task func()) error
}

// WorkerPool runs tasks on goroutines, at most Size at a time. Submit never
// blocks; tasks wait for a slot on their own goroutine.
type WorkerPool struct {
	Size   int
	Logger core.Logger

	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	closed atomic.Bool
}

func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = core.DefaultAsyncWorkers
	}
	return &WorkerPool{
		Size:   size,
		Logger: core.Log().Named("async"),
		sem:    semaphore.NewWeighted(int64(size)),
	}
}

func (p *WorkerPool) Submit(ctx context.Context, task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		// async work is not cancellable once submitted
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			p.Logger.Error("worker pool acquire failed: %v", err)
			return
		}
		defer p.sem.Release(1)
		task()
	}()
	return nil
}

// Wait blocks until every submitted task has finished.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Close rejects further submissions and waits for the running ones.
func (p *WorkerPool) Close() {
	p.closed.Store(true)
	p.wg.Wait()
}

// Future is the result of an async block.
type Future struct {
	exec Executor
	done chan struct{}

	mu        sync.Mutex
	result    *Value
	err       error
	settled   bool
	callbacks []func(*Value, error)
}

func NewFuture(exec Executor) *Future {
	return &Future{exec: exec, done: make(chan struct{})}
}

func (f *Future) Done() <-chan struct{} { return f.done }

// Await blocks until the future settles or ctx is done.
func (f *Future) Await(ctx context.Context) (*Value, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

// Then registers cb to run on the executor once the future settles. It
// runs right away (on the executor) if the future already has.
func (f *Future) Then(cb func(*Value, error)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	result, err := f.result, f.err
	f.mu.Unlock()
	f.dispatch(cb, result, err)
}

func (f *Future) resolve(v *Value) { f.settle(v, nil) }
func (f *Future) fail(err error)   { f.settle(nil, err) }

func (f *Future) settle(v *Value, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.result, f.err, f.settled = v, err, true
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		f.dispatch(cb, v, err)
	}
}

func (f *Future) dispatch(cb func(*Value, error), v *Value, err error) {
	if f.exec == nil {
		cb(v, err)
		return
	}
	if serr := f.exec.Submit(context.Background(), func() { cb(v, err) }); serr != nil {
		core.Warn("continuation not scheduled, running inline: %v", serr)
		cb(v, err)
	}
}
