// Package ioworker provides the process-wide blocking-I/O worker pool used
// by the resolver and file streams so blocking directory reads, file opens
// and gzip header reads never stall the cooperative poll path.
package ioworker

import "github.com/alitto/pond"

// Pool wraps a single pond worker pool created at startup and torn down on
// server shutdown.
type Pool struct {
	pool *pond.WorkerPool
}

// New creates a pool with maxWorkers concurrent goroutines and a bounded
// task queue sized at 4x maxWorkers.
func New(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Pool{pool: pond.New(maxWorkers, maxWorkers*4)}
}

// Result is the outcome of a Submit call.
type Result[T any] struct {
	Value T
	Err   error
}

// Submit runs fn on the pool and returns a channel that receives its single
// result once fn completes. The channel is buffered so Submit never blocks
// on a slow or absent receiver.
func Submit[T any](p *Pool, fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	p.pool.Submit(func() {
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
	})
	return ch
}

// StopAndWait drains in-flight tasks and stops accepting new ones.
func (p *Pool) StopAndWait() {
	p.pool.StopAndWait()
}
