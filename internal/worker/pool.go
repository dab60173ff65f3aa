package worker

import (
	"sync"

	"moneypot-backend/internal/metrics"
)

type task func()

// Pool runs background jobs off the request path: reconciliation retries and
// cache invalidation after a committed contribution.
type Pool struct {
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	jobs   chan task
}

func NewPool(n int) *Pool {
	p := &Pool{jobs: make(chan task, 1024)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
				metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
			}
		}()
	}
	return p
}

// Submit enqueues a job. After Stop the job is dropped; shutdown races with
// in-flight requests and a dropped background job is recoverable via the
// reconcile endpoint.
func (p *Pool) Submit(f task) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	p.jobs <- f
	metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
}

func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	close(p.jobs)
	p.wg.Wait()
}
