// Package parallel runs independent CPU work, such as image decoding, on a
// fixed set of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool runs work items on a fixed number of goroutines.
//
// Every worker owns a queue. A worker whose queue is empty takes items
// from the other queues, so one slow item does not hold back the rest.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool starts a pool with n workers. n <= 0 uses GOMAXPROCS.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	depth := max(n*4, 8)

	p := &Pool{
		workers: n,
		queues:  make([]chan func(), n),
		done:    make(chan struct{}),
	}
	for i := range n {
		p.queues[i] = make(chan func(), depth)
	}
	p.running.Store(true)

	p.wg.Add(n)
	for i := range n {
		go p.work(i)
	}
	return p
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
			continue
		default:
		}

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

// Run executes every item of work and waits for the queued ones to
// finish. Items not yet queued when ctx is done are skipped and Run
// returns ctx.Err(). Run on a closed pool does nothing.
func (p *Pool) Run(ctx context.Context, work []func()) error {
	if len(work) == 0 || !p.running.Load() {
		return ctx.Err()
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	for i, fn := range work {
		if err := ctx.Err(); err != nil {
			return err
		}
		wg.Add(1)
		item := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.queues[i%p.workers] <- item:
		case <-ctx.Done():
			wg.Done()
			return ctx.Err()
		case <-p.done:
			wg.Done()
			return nil
		}
	}
	return nil
}

// Map applies fn to every item on p and returns the results in input order.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(T) R) ([]R, error) {
	out := make([]R, len(items))
	work := make([]func(), len(items))
	for i, item := range items {
		work[i] = func() { out[i] = fn(item) }
	}
	err := p.Run(ctx, work)
	return out, err
}

// Close waits for queued work and stops the workers. Close is idempotent.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return p.workers }
