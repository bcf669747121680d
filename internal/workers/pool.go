// Package workers provides a bounded worker pool for parallel computation,
// used to fan grid-sweep cells and batched simulations across CPUs.
package workers

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Task is a unit of work.
type Task interface {
	Execute() error
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func() error

func (f TaskFunc) Execute() error { return f() }

// PoolConfig configures a pool.
type PoolConfig struct {
	Name       string
	NumWorkers int
	QueueSize  int
}

// DefaultPoolConfig sizes the pool for CPU-bound work.
func DefaultPoolConfig(name string) *PoolConfig {
	return &PoolConfig{
		Name:       name,
		NumWorkers: runtime.NumCPU(),
		QueueSize:  1024,
	}
}

// Pool runs submitted tasks on a fixed set of worker goroutines. Workers
// recover panics so one bad cell cannot take down a whole sweep.
type Pool struct {
	logger *zap.Logger
	config *PoolConfig

	taskQueue chan Task
	wg        sync.WaitGroup
	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc

	completed atomic.Int64
	failed    atomic.Int64
	panicked  atomic.Int64
}

// NewPool creates a pool; nil config selects defaults.
func NewPool(logger *zap.Logger, config *PoolConfig) *Pool {
	if config == nil {
		config = DefaultPoolConfig("default")
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = runtime.NumCPU()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1024
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		logger:    logger,
		config:    config,
		taskQueue: make(chan Task, config.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	if p.running.Swap(true) {
		return
	}
	p.logger.Debug("starting worker pool",
		zap.String("name", p.config.Name),
		zap.Int("workers", p.config.NumWorkers),
	)
	for i := 0; i < p.config.NumWorkers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			p.execute(id, task)
		}
	}
}

func (p *Pool) execute(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("worker recovered from panic",
				zap.Int("worker_id", id),
				zap.Any("panic", r),
			)
		}
	}()
	if err := task.Execute(); err != nil {
		p.failed.Add(1)
		p.logger.Debug("task failed", zap.Int("worker_id", id), zap.Error(err))
		return
	}
	p.completed.Add(1)
}

// Submit queues a task, returning ErrQueueFull when the queue has no room.
func (p *Pool) Submit(task Task) error {
	if !p.running.Load() {
		return ErrPoolStopped
	}
	select {
	case p.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitFunc queues a function as a task.
func (p *Pool) SubmitFunc(fn func() error) error {
	return p.Submit(TaskFunc(fn))
}

// Stop drains in-flight workers and shuts the pool down.
func (p *Pool) Stop() {
	if !p.running.Swap(false) {
		return
	}
	close(p.taskQueue)
	p.wg.Wait()
	p.cancel()
	p.logger.Debug("worker pool stopped",
		zap.String("name", p.config.Name),
		zap.Int64("completed", p.completed.Load()),
		zap.Int64("failed", p.failed.Load()),
	)
}

// Stats reports cumulative task counts.
func (p *Pool) Stats() (completed, failed, panicked int64) {
	return p.completed.Load(), p.failed.Load(), p.panicked.Load()
}

// PoolError is a pool lifecycle error.
type PoolError struct {
	Message string
}

func (e *PoolError) Error() string { return e.Message }

var (
	ErrPoolStopped = &PoolError{Message: "pool is stopped"}
	ErrQueueFull   = &PoolError{Message: "task queue is full"}
)
