// Package worker runs jobs one by one in a dedicated goroutine. Jobs
// are executed in the order they were posted.
package worker

import (
	"errors"
	"sync"
)

// ErrStopped is returned when job is posted to stopped worker.
var ErrStopped = errors.New("worker stopped")

// Job is a unit of work.
type Job func()

// Worker executes posted jobs. Posting never blocks, so jobs can post
// other jobs.
type Worker struct {
	mu      sync.Mutex
	jobs    []Job
	stopped bool
	// wakec signals that new jobs are posted or worker is stopped.
	// created in constructor, never closed.
	wakec chan struct{}
	// done is closed when all jobs are executed after Stop.
	done chan struct{}
}

// New starts a worker.
func New() *Worker {
	w := Worker{
		wakec: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go w.run()
	return &w
}

func (w *Worker) run() {
	defer close(w.done)
	for range w.wakec {
		w.mu.Lock()
		jobs, stopped := w.jobs, w.stopped
		w.jobs = nil
		w.mu.Unlock()
		for _, j := range jobs {
			j()
		}
		if stopped && w.empty() {
			return
		}
	}
}

func (w *Worker) empty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.jobs) == 0
}

func (w *Worker) wake() {
	select {
	case w.wakec <- struct{}{}:
	default:
	}
}

// Post adds job to the queue.
func (w *Worker) Post(j Job) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrStopped
	}
	w.jobs = append(w.jobs, j)
	w.wake()
	return nil
}

// Sync blocks until all jobs posted before are executed. It must not be
// called from a job.
func (w *Worker) Sync() error {
	done := make(chan struct{})
	if err := w.Post(func() { close(done) }); err != nil {
		return err
	}
	<-done
	return nil
}

// Stop executes already posted jobs and stops the worker. Jobs posted
// after Stop are rejected.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		w.wake()
	}
	w.mu.Unlock()
	<-w.done
}
