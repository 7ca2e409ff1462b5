// Package workerpool provides bounded fan-out for CPU-bound work, built
// directly on golang.org/x/sync/semaphore — the module the teacher already
// depends on transitively through errgroup — rather than a hand-rolled
// channel-of-tokens pattern.
package workerpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent execution of Go-submitted tasks to a fixed width.
type Pool struct {
	sem *semaphore.Weighted
	ctx context.Context
	n   int
	ch  chan struct{}
}

// New constructs a Pool with the given width. width <= 0 defaults to
// runtime.NumCPU(), matching spec's "bounded parallelism, default: number
// of hardware threads."
func New(width int) *Pool {
	if width <= 0 {
		width = runtime.NumCPU()
	}
	return &Pool{
		sem: semaphore.NewWeighted(int64(width)),
		ctx: context.Background(),
		ch:  make(chan struct{}, width),
	}
}

// Go submits fn to run once a slot is free. It never blocks the caller
// past the point of acquiring a slot; call Wait to block until every
// submitted task has finished.
func (p *Pool) Go(fn func()) {
	_ = p.sem.Acquire(p.ctx, 1)
	p.n++
	go func() {
		defer func() { p.ch <- struct{}{} }()
		defer p.sem.Release(1)
		fn()
	}()
}

// Wait blocks until every task submitted via Go has completed.
func (p *Pool) Wait() {
	for i := 0; i < p.n; i++ {
		<-p.ch
	}
}
