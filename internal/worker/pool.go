// Package worker runs independent build tasks on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrClosed is returned for tasks handed to a closed pool.
	ErrClosed = errors.New("worker: pool closed")

	// ErrPanic wraps the value recovered from a panicking task.
	ErrPanic = errors.New("worker: task panicked")
)

// Task is one unit of work. It receives the context given to Run.
type Task func(ctx context.Context) error

// Pool is a pool of goroutines with per-worker queues. A worker whose own
// queue is empty steals from the others, so slow tasks do not stall the
// rest of a batch.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// mu orders enqueues before Close; holders of the read lock may send
	// to queues, Close takes the write lock before signalling done.
	mu sync.RWMutex
}

// New starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.loop(i)
	}
	return p
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
		default:
			if fn := p.steal(id); fn != nil {
				fn()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case fn := <-own:
				fn()
			}
		}
	}
}

func drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			fn()
		default:
			return
		}
	}
}

// steal takes one item from another worker's queue, or returns nil.
func (p *Pool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case fn := <-p.queues[i]:
			return fn
		default:
		}
	}
	return nil
}

// Run distributes tasks round-robin across the workers and waits for all
// of them. The result holds one error per task, nil on success. Tasks that
// have not started when ctx is done are skipped with ctx.Err(); a panicking
// task reports ErrPanic. On a closed pool every task reports ErrClosed.
func (p *Pool) Run(ctx context.Context, tasks []Task) []error {
	errs := make([]error, len(tasks))
	if len(tasks) == 0 {
		return errs
	}

	p.mu.RLock()
	if !p.running.Load() {
		p.mu.RUnlock()
		for i := range errs {
			errs[i] = ErrClosed
		}
		return errs
	}

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		p.queues[i%p.workers] <- func() {
			defer wg.Done()
			errs[i] = runTask(ctx, i, task)
		}
	}
	p.mu.RUnlock()

	wg.Wait()
	return errs
}

func runTask(ctx context.Context, i int, task Task) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: task %d: %v", ErrPanic, i, r)
		}
	}()
	return task(ctx)
}

// Go queues fn on the worker with the shortest queue without waiting.
// It reports false if the pool is closed.
func (p *Pool) Go(fn func()) bool {
	if fn == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		return false
	}

	idx := 0
	for i := 1; i < p.workers; i++ {
		if len(p.queues[i]) < len(p.queues[idx]) {
			idx = i
		}
	}
	p.queues[idx] <- fn
	return true
}

// Close stops accepting work, runs everything already queued and stops the
// workers. Close is safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Running reports whether the pool accepts work.
func (p *Pool) Running() bool {
	return p.running.Load()
}

// Pending returns the approximate number of queued items.
func (p *Pool) Pending() int {
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}
