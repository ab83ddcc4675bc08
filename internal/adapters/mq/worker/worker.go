// Package worker runs offloaded computations on a fixed pool of goroutines
// fed by a bounded queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/auge/internal/adapters/mq/queue"
	"github.com/okian/auge/pkg/logger"
	"github.com/okian/auge/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Queue defines how workers receive jobs and how the pool submits them.
type Queue interface {
	Enqueue(ctx context.Context, j queue.Job) bool
	Dequeue(ctx context.Context) <-chan queue.Job
	Close() error
}

// Worker runs jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, the queue is
	// drained after Close, or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue  Queue
	name   string
	active *atomic.Int32

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from q.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		name:     "worker",
		active:   new(atomic.Int32),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job. A panicking job is dropped with ErrJobPanicked and
// the worker keeps running.
func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) {
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		if r := recover(); r != nil {
			metrics.RecordWorkerError()
			w.logger.Error(ctx, "job panicked",
				logger.String("job", j.Name),
				logger.Any("panic", r))
			j.Drop(fmt.Errorf("%w: %s: %v", ErrJobPanicked, j.Name, r))
		}
	}()
	if j.Run == nil {
		return
	}
	j.Run(ctx)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  atomic.Int32
	started atomic.Bool
	stopped atomic.Bool

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses
// one worker per CPU.
func NewPool(workerCount int, q Queue, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.GetOrNop().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, wopts...)
		w.active = &p.active
		p.workers[i] = w
	}
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Submit hands j to the queue without blocking.
func (p *Pool) Submit(ctx context.Context, j queue.Job) error {
	if p.stopped.Load() {
		return ErrStopped
	}
	if !p.queue.Enqueue(ctx, j) {
		return fmt.Errorf("%w: %s", ErrQueueRejected, j.Name)
	}
	return nil
}

// Shutdown closes the queue and waits for the workers to drain it. Jobs
// still queued when ctx or the pool timeout expires are dropped with
// ErrStopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		if !p.started.Load() {
			break
		}
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		for _, w := range p.workers {
			select {
			case <-w.shutdown:
			default:
				close(w.shutdown)
			}
		}
	}
	for {
		select {
		case j, ok := <-p.queue.Dequeue(ctx):
			if !ok {
				return nil
			}
			j.Drop(ErrStopped)
		default:
			return nil
		}
	}
}
