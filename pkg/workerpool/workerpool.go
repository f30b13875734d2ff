package workerpool

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("worker pool closed")

// Task is a unit of work. ResultC is optional and must be buffered if the
// submitter does not read from it right away.
type Task struct {
	Fn      func() (any, error)
	ResultC chan Result
}

type Result struct {
	Value any
	Err   error
}

// WorkerPool runs submitted tasks on a fixed number of goroutines. With a
// single worker tasks run strictly in submission order.
type WorkerPool struct {
	tasks   chan Task
	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup
	pending sync.WaitGroup
}

func NewWorkerPool(workerCount int, queueSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	wp := &WorkerPool{
		tasks: make(chan Task, queueSize),
	}
	wp.workers.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.workers.Done()
	for task := range wp.tasks {
		res, err := task.Fn()
		if task.ResultC != nil {
			task.ResultC <- Result{Value: res, Err: err}
		}
		wp.pending.Done()
	}
}

// Submit queues a task. It blocks while the queue is full.
func (wp *WorkerPool) Submit(task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrClosed
	}
	wp.pending.Add(1)
	wp.tasks <- task
	return nil
}

// Wait blocks until every task submitted so far has finished.
func (wp *WorkerPool) Wait() {
	wp.pending.Wait()
}

// Close stops accepting tasks, lets queued ones finish and stops the workers.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.tasks)
	wp.mu.Unlock()
	wp.workers.Wait()
}
