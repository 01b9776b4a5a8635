// Package parallel provides the worker pool used to evaluate line strips
// on the CPU for previews and tests.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines fed from one shared queue.
// Range hands each worker a loop over a shared cursor instead of one task
// per item, so instances with expensive round caps never stall behind a
// single worker.
//
// Thread safety: WorkerPool is safe for concurrent use. A Range that
// overlaps Close either completes all of its items or runs none.
type WorkerPool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup

	// mu guards closed and the send side of tasks.
	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		tasks:   make(chan func(), workers),
	}
	p.wg.Add(workers)
	for range workers {
		go p.run()
	}
	return p
}

func (p *WorkerPool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Range calls fn(i) for every i in [0, n) across the workers and waits
// for all calls to return. Range is a no-op on a closed pool.
func (p *WorkerPool) Range(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return
	}
	var (
		cursor  atomic.Int64
		pending sync.WaitGroup
	)
	loops := min(n, p.workers)
	pending.Add(loops)
	for range loops {
		p.tasks <- func() {
			defer pending.Done()
			for {
				i := int(cursor.Add(1) - 1)
				if i >= n {
					return
				}
				fn(i)
			}
		}
	}
	p.mu.RUnlock()

	pending.Wait()
}

// Close stops the pool after the queued work has run.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}
