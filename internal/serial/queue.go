// Package serial provides the serialization domain: a FIFO of tasks drained
// by exactly one worker goroutine.
//
// Timer callbacks post their counter mutations here instead of touching the
// counter directly. Because one goroutine runs every task in posting order,
// concurrent firings are linearized into a single well-defined sequence.
package serial

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/eapache/queue"

	"github.com/Iron-Ham/prodcon/internal/errors"
	"github.com/Iron-Ham/prodcon/internal/logging"
)

// Queue runs posted tasks one at a time, in order, on its own goroutine.
// Post never blocks: pending tasks are buffered without bound.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *queue.Queue
	closed  bool
	done    chan struct{}

	processed uint64 // guarded by mu
	logger    *logging.Logger
}

// New creates a Queue and starts its worker.
func New(logger *logging.Logger) *Queue {
	if logger == nil {
		logger = logging.NopLogger()
	}
	q := &Queue{
		pending: queue.New(),
		done:    make(chan struct{}),
		logger:  logger,
	}
	q.cond = sync.NewCond(&q.mu)
	go q.work()
	return q
}

// Post enqueues task. It returns errors.ErrClosed once Close has been called.
func (q *Queue) Post(task func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.ErrClosed
	}
	q.pending.Add(task)
	q.cond.Signal()
	return nil
}

// Sync posts task and waits until it has run. Every task posted before it
// has run by then too. Calling Sync from inside a task deadlocks.
func (q *Queue) Sync(task func()) error {
	ran := make(chan struct{})
	if err := q.Post(func() {
		defer close(ran)
		task()
	}); err != nil {
		return err
	}
	<-ran
	return nil
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Length()
}

// Processed returns the number of tasks that have finished running.
func (q *Queue) Processed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processed
}

// Close stops accepting tasks, lets the worker drain what is already queued
// and waits for it to exit. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) work() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for q.pending.Length() == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.pending.Length() == 0 {
			q.mu.Unlock()
			return
		}
		task := q.pending.Remove().(func())
		q.mu.Unlock()

		q.run(task)

		q.mu.Lock()
		q.processed++
		q.mu.Unlock()
	}
}

func (q *Queue) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("serial task panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	task()
}
