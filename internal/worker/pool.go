package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/martinsuchenak/vlanaudit/internal/log"
)

// ErrPoolStopped is returned when submitting to a stopped pool
var ErrPoolStopped = errors.New("worker pool stopped")

// WorkerPool runs audit jobs on a fixed number of goroutines
type WorkerPool struct {
	maxWorkers int
	jobs       chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

// Job represents a unit of work
type Job struct {
	ID      string
	Handler func(context.Context) error
	Result  chan error // optional, receives the handler error
}

// NewWorkerPool creates a new worker pool bound to ctx
func NewWorkerPool(ctx context.Context, maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		maxWorkers: maxWorkers,
		jobs:       make(chan Job, maxWorkers*2),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the worker pool
func (p *WorkerPool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Debug("Worker pool started", "workers", p.maxWorkers)
}

// Wait closes the queue and blocks until every submitted job has run
func (p *WorkerPool) Wait() {
	p.closeQueue()
	p.wg.Wait()
	p.cancel()
}

// Stop cancels running jobs and waits for the workers to exit
func (p *WorkerPool) Stop() {
	p.cancel()
	p.closeQueue()
	p.wg.Wait()
}

func (p *WorkerPool) closeQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
}

// Submit queues a job, blocking while the queue is full
func (p *WorkerPool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// worker is the worker goroutine
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		var err error
		if cerr := p.ctx.Err(); cerr != nil {
			err = cerr
		} else {
			log.Debug("Worker executing job", "worker_id", id, "job_id", job.ID)
			err = job.Handler(p.ctx)
		}
		if job.Result != nil {
			job.Result <- err
		}
	}
}
