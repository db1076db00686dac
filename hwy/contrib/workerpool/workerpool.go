// Copyright 2025 The go-loopnest Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides the persistent worker pool behind the
// multi-threaded loop policies.
//
// A Pool is created once and reused by every kernel run, so a parallel loop
// costs a channel send per chunk rather than a goroutine spawn.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	chunks := pool.Split(n)
//	pool.ParallelForAtomic(len(chunks), func(c int) {
//	    for i := chunks[c].Start; i < chunks[c].End; i++ {
//	        process(i)
//	    }
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. Workers are spawned once at creation
// and reused until Close.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// Chunk is a half-open index range [Start, End).
type Chunk struct {
	Start, End int
}

// Len returns the number of indices in the chunk.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// New creates a new worker pool with the specified number of workers.
// If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Closed reports whether Close has been called.
func (p *Pool) Closed() bool {
	return p.closed.Load()
}

// Close shuts down the worker pool. All pending work will complete.
// Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// Split divides [0, n) into at most NumWorkers contiguous, non-empty chunks
// of nearly equal size, in index order. It returns nil for n <= 0.
func (p *Pool) Split(n int) []Chunk {
	if n <= 0 {
		return nil
	}
	workers := min(p.numWorkers, n)
	chunkSize := (n + workers - 1) / workers
	chunks := make([]Chunk, 0, workers)
	for start := 0; start < n; start += chunkSize {
		chunks = append(chunks, Chunk{Start: start, End: min(start+chunkSize, n)})
	}
	return chunks
}

// ParallelFor executes fn for each chunk of Split(n) on the pool and blocks
// until all chunks complete. fn receives the chunk bounds [start, end).
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	chunks := p.Split(n)
	p.ParallelForAtomic(len(chunks), func(c int) {
		fn(chunks[c].Start, chunks[c].End)
	})
}

// ParallelForAtomic executes fn(i) for each i in [0, n). Workers claim
// indices with an atomic counter, so unevenly sized items still balance.
// Blocks until all work completes. A closed pool runs fn inline, in order.
//
// fn must not call back into the same pool: a worker blocked on a nested
// call cannot drain the queue it is waiting on.
func (p *Pool) ParallelForAtomic(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		for i := range n {
			fn(i)
		}
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					idx := int(next.Add(1)) - 1
					if idx >= n {
						return
					}
					fn(idx)
				}
			},
			barrier: &wg,
		}
	}
	wg.Wait()
}
