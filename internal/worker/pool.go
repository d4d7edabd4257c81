// Package worker holds the concurrency primitives shared by the CLI and the
// HTTP API: a bounded worker pool and per-caller rate limiters.
package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrPoolClosed is returned by Submit after Wait or Shutdown
var ErrPoolClosed = errors.New("worker pool closed")

// Job is a unit of work executed by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a Job
type Result interface {
	GetError() error
}

type queued struct {
	seq int
	job Job
}

type finished struct {
	seq    int
	result Result
}

// Pool runs jobs on a fixed number of goroutines. Wait returns results in
// submission order.
type Pool struct {
	workers int
	jobs    chan queued
	results chan finished
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu        sync.Mutex
	next      int
	closed    bool
	started   bool
	collected []finished
	drained   chan struct{}
	waitOnce  sync.Once
	final     []Result
}

// NewPool creates a pool bound to ctx. workers <= 0 means one worker.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers: workers,
		jobs:    make(chan queued, workers*2),
		results: make(chan finished, workers*2),
		drained: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Workers returns the pool size
func (p *Pool) Workers() int { return p.workers }

// Start launches the workers and the result collector
func (p *Pool) Start() {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	go func() {
		defer close(p.drained)
		for f := range p.results {
			p.collected = append(p.collected, f)
		}
	}()
}

func (p *Pool) work() {
	defer p.wg.Done()
	for q := range p.jobs {
		res := q.job.Execute(p.ctx)
		p.results <- finished{seq: q.seq, result: res}
	}
}

// Submit queues job, blocking while the queue is full. Jobs already queued
// run even if ctx is canceled; they observe cancellation through their ctx.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	if err := p.ctx.Err(); err != nil {
		return err
	}

	select {
	case p.jobs <- queued{seq: p.next, job: job}:
		p.next++
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Wait stops accepting jobs, waits for the running ones and returns every
// result in submission order.
func (p *Pool) Wait() []Result {
	p.waitOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		started := p.started
		p.mu.Unlock()
		close(p.jobs)

		p.wg.Wait()
		close(p.results)
		if started {
			<-p.drained
		}
		p.cancel()

		sort.Slice(p.collected, func(i, j int) bool { return p.collected[i].seq < p.collected[j].seq })
		p.final = make([]Result, len(p.collected))
		for i, f := range p.collected {
			p.final[i] = f.result
		}
	})
	return p.final
}

// Shutdown cancels running jobs and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancel()
	_ = p.Wait()
}
