package worker

import (
	"errors"
	"sync"
)

// Pool runs a fixed set of workers over a shared backlog of work. Unlike a
// long-lived service pool there is no wakeup signalling; the pool is built
// for batch CLI commands that process a known set of items and exit.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
	started bool
}

func NewPool() *Pool {
	return &Pool{workers: make([]*Worker, 0)}
}

// Push inserts the provided workers in to the pool. Pushing to a pool
// that has already been started is an error.
func (pool *Pool) Push(workers ...*Worker) error {
	if pool.started {
		return errors.New("cannot push worker to already started worker pool")
	}

	pool.workers = append(pool.workers, workers...)
	return nil
}

// Start launches one goroutine per worker. It does not block; use Wait
// to block until the backlog is drained.
func (pool *Pool) Start() error {
	if pool.started {
		return errors.New("cannot start an already started worker pool")
	}

	pool.started = true
	for _, worker := range pool.workers {
		pool.wg.Add(1)
		go func(w *Worker) {
			defer pool.wg.Done()
			w.Run()
		}(worker)
	}

	return nil
}

// Wait blocks until every worker has drained, returning the first error
// any worker retained.
func (pool *Pool) Wait() error {
	pool.wg.Wait()
	for _, w := range pool.workers {
		if err := w.Err(); err != nil {
			return err
		}
	}

	return nil
}
