package workers

import (
	"context"
	"sync"

	"github.com/convgate/convgate/models"
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed number of workers over a bounded queue. A full
// queue rejects submission instead of spawning more goroutines, so conversion
// backpressure is enforced at admission time.
type Pool struct {
	queue   chan Task
	workers int
	wg      sync.WaitGroup
}

func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		queue:   make(chan Task, queueSize),
		workers: workers,
	}
}

// Start launches the workers. They exit when ctx is cancelled or the queue closes.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task, ok := <-p.queue:
					if !ok {
						return
					}
					task(ctx)
				}
			}
		}()
	}
}

// Submit enqueues a task without blocking. Returns ErrQueueFull when the
// queue is saturated.
func (p *Pool) Submit(task Task) error {
	select {
	case p.queue <- task:
		return nil
	default:
		return models.ErrQueueFull
	}
}

// Wait closes the queue and blocks until in-flight tasks finish.
func (p *Pool) Wait() {
	close(p.queue)
	p.wg.Wait()
}
