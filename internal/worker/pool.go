package worker

import (
	"log/slog"
	"sync"
)

type Task func()

// Pool runs background jobs off the request path (session teardown).
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	log  *slog.Logger

	mu      sync.RWMutex
	stopped bool
}

func NewPool(n int, log *slog.Logger) *Pool {
	if n < 1 {
		n = 1
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Pool{jobs: make(chan Task, 1024), log: log}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.run(job)
			}
		}()
	}
	return p
}

func (p *Pool) run(job Task) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("worker job panic", "err", rec)
		}
	}()
	job()
}

// Submit queues f. After Stop it runs f inline so teardown work is never lost.
func (p *Pool) Submit(f Task) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		p.run(f)
		return
	}
	p.jobs <- f
}

// Stop drains queued jobs and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
