package scraper

import (
	"context"
	"sync"
)

type Task func(ctx context.Context) error

type Result struct {
	Err error
}

// WorkerPool runs detail-page fetches with bounded concurrency so one
// sweep cannot hammer a platform.
type WorkerPool struct {
	workers int
	tasks   chan Task
}

func NewWorkerPool(workers, buffer int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &WorkerPool{
		workers: workers,
		tasks:   make(chan Task, buffer),
	}
}

func (p *WorkerPool) Submit(t Task) {
	if p == nil || t == nil {
		return
	}
	p.tasks <- t
}

// Close stops intake. Run's result channel closes once the queue
// drains.
func (p *WorkerPool) Close() {
	if p == nil {
		return
	}
	close(p.tasks)
}

func (p *WorkerPool) Run(ctx context.Context) <-chan Result {
	results := make(chan Result, p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range p.tasks {
				if ctx.Err() != nil {
					results <- Result{Err: ctx.Err()}
					continue
				}
				results <- Result{Err: task(ctx)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
