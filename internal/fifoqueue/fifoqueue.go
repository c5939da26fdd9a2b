// Package fifoqueue serializes asynchronous tasks per owner key (spec.md
// §4.5, C5): CloudWatch Logs sequence-token handling requires at most one
// PutLogEvents call in flight per log stream, in submission order, while
// different owners (streams) proceed fully in parallel and a failure on
// one owner's task never affects another's.
//
// Grounded on the teacher's per-key channel worker pattern in
// internal/queue/notifier.go (ChannelNotifier's per-queue subscriber
// channels) and the panic-isolation idiom (safeGo) in
// internal/executor/executor_options.go.
package fifoqueue

import (
	"context"
	"errors"
	"log/slog"
)

// ErrClosed is returned by Enqueue once the Queue has been closed.
var ErrClosed = errors.New("fifoqueue: queue is closed")

// Task is a unit of work submitted to a named owner's queue.
type Task func(ctx context.Context) (any, error)

// Future is the handle returned by Enqueue; Wait blocks for the task's
// result.
type Future struct {
	done   chan struct{}
	result any
	err    error
}

// Wait blocks until the task completes or ctx is done, whichever comes
// first.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type taskItem struct {
	ctx    context.Context
	task   Task
	future *Future
}

type ownerWorker struct {
	tasks chan taskItem
}

func newOwnerWorker() *ownerWorker {
	w := &ownerWorker{tasks: make(chan taskItem, 256)}
	go w.run()
	return w
}

func (w *ownerWorker) run() {
	for item := range w.tasks {
		result, err := runTask(item.ctx, item.task)
		item.future.result = result
		item.future.err = err
		close(item.future.done)
	}
}

// runTask executes task with panic isolation so one misbehaving task can
// never take down the owner's worker goroutine and block every task queued
// behind it.
func runTask(ctx context.Context, task Task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered panic in fifoqueue task", "panic", r)
			err = panicError{r}
		}
	}()
	return task(ctx)
}

type panicError struct{ value any }

func (p panicError) Error() string {
	return "fifoqueue: task panicked"
}

// Queue dispatches tasks to per-owner FIFO workers, created lazily on
// first use and kept alive for the life of the Queue.
type Queue struct {
	owners   chan ownerRequest
	done     chan struct{}
	registry map[string]*ownerWorker
}

type ownerRequest struct {
	owner  string
	result chan *ownerWorker
}

// New returns a Queue ready to accept enqueues. Internally it runs a single
// dispatcher goroutine owning the owner registry, avoiding a mutex on the
// hot path at the cost of one extra channel hop.
func New() *Queue {
	q := &Queue{
		owners:   make(chan ownerRequest),
		done:     make(chan struct{}),
		registry: make(map[string]*ownerWorker),
	}
	go q.dispatch()
	return q
}

func (q *Queue) dispatch() {
	for {
		select {
		case req := <-q.owners:
			w, ok := q.registry[req.owner]
			if !ok {
				w = newOwnerWorker()
				q.registry[req.owner] = w
			}
			req.result <- w
		case <-q.done:
			return
		}
	}
}

// Enqueue submits task to owner's FIFO queue and returns a Future for its
// result. Tasks for the same owner always execute in submission order,
// one at a time; tasks for different owners run concurrently.
func (q *Queue) Enqueue(ctx context.Context, owner string, task Task) *Future {
	future := &Future{done: make(chan struct{})}

	resultCh := make(chan *ownerWorker, 1)
	select {
	case q.owners <- ownerRequest{owner: owner, result: resultCh}:
	case <-q.done:
		future.err = ErrClosed
		close(future.done)
		return future
	}

	w := <-resultCh
	select {
	case w.tasks <- taskItem{ctx: ctx, task: task, future: future}:
	case <-ctx.Done():
		future.err = ctx.Err()
		close(future.done)
	}
	return future
}

// Close stops the dispatcher. Owner workers already created keep draining
// their buffered tasks but accept no new dispatch requests.
func (q *Queue) Close() {
	close(q.done)
}
