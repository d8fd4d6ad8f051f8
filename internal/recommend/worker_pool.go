package recommend

import (
	"context"
	"log/slog"
	"sync"
)

// Task is a unit of work run by the pool.
type Task func(ctx context.Context) error

// WorkerPool runs submitted tasks on a fixed number of goroutines. Once its
// context is done, queued tasks are dropped without running.
type WorkerPool struct {
	workerCount int
	taskQueue   chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closed      bool
	done        bool
	err         error
	closeMux    sync.Mutex
	logger      *slog.Logger
	onError     func(err error)
}

// NewWorkerPool creates a pool bound to ctx. onError, if set, receives every
// task error; it may be called from several workers at once.
func NewWorkerPool(ctx context.Context, workerCount int, logger *slog.Logger, onError func(err error)) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		workerCount: workerCount,
		taskQueue:   make(chan Task, workerCount*2),
		ctx:         poolCtx,
		cancel:      cancel,
		logger:      logger,
		onError:     onError,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.logger.Debug("worker_pool_started", "workers", wp.workerCount)
}

// Submit queues a task, blocking while the queue is full. It returns the
// context error if the pool is cancelled first. Submit must not be called
// after Wait.
func (wp *WorkerPool) Submit(task Task) error {
	select {
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	default:
	}
	select {
	case wp.taskQueue <- task:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Wait closes the queue and blocks until every worker has returned.
func (wp *WorkerPool) Wait() {
	wp.closeMux.Lock()
	if !wp.closed {
		close(wp.taskQueue)
		wp.closed = true
	}
	wp.closeMux.Unlock()

	wp.wg.Wait()

	wp.closeMux.Lock()
	if !wp.done {
		wp.err = wp.ctx.Err()
		wp.done = true
	}
	wp.closeMux.Unlock()
	wp.cancel()
	wp.logger.Debug("worker_pool_completed")
}

// Shutdown cancels outstanding work and waits for the workers.
func (wp *WorkerPool) Shutdown() {
	wp.cancel()
	wp.Wait()
}

// Err reports why the pool's context ended before its work was done, if it
// did. After Wait it is fixed to the state observed when the workers returned.
func (wp *WorkerPool) Err() error {
	wp.closeMux.Lock()
	defer wp.closeMux.Unlock()
	if wp.done {
		return wp.err
	}
	return wp.ctx.Err()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		select {
		case <-wp.ctx.Done():
			// drain the rest without running it
			continue
		default:
		}

		if err := task(wp.ctx); err != nil {
			wp.logger.Warn("worker_task_failed", "worker", id, "error", err)
			if wp.onError != nil {
				wp.onError(err)
			}
		}
	}
}
