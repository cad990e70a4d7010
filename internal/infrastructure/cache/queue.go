package cache

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueClosed is returned by Submit after Close
var ErrQueueClosed = errors.New("cache: queue closed")

// Priority orders queued tasks. Higher runs first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	}
	return "UNKNOWN"
}

// Task is a unit of work run by a queue worker
type Task func(ctx context.Context) error

type queuedTask struct {
	ctx      context.Context
	priority Priority
	seq      uint64
	enqueued time.Time
	run      Task
	done     chan error
}

// taskHeap is a max-heap on priority, then a min-heap on sequence (FIFO)
type taskHeap []*queuedTask

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*queuedTask)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Queue runs tasks on a fixed number of workers, highest priority first
// and FIFO within a priority.
type Queue struct {
	name    string
	metrics *Metrics

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  taskHeap
	seq    uint64
	closed bool
	wg     sync.WaitGroup
}

// NewQueue starts workers goroutines. metrics may be nil.
func NewQueue(name string, workers int, metrics *Metrics) *Queue {
	if workers < 1 {
		workers = 1
	}
	q := &Queue{name: name, metrics: metrics}
	q.cond = sync.NewCond(&q.mu)
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

// Submit enqueues task and blocks until it has run or ctx is done.
// A task whose ctx ends while it is still queued is skipped.
func (q *Queue) Submit(ctx context.Context, p Priority, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &queuedTask{
		ctx:      ctx,
		priority: p,
		enqueued: time.Now(),
		run:      task,
		done:     make(chan error, 1),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.seq++
	t.seq = q.seq
	heap.Push(&q.tasks, t)
	q.mu.Unlock()
	q.metrics.queueDepth(q.name, p, 1)
	q.cond.Signal()

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of tasks waiting for a worker
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.Len()
}

// Close stops accepting tasks, lets the workers drain what is queued and waits for them
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		for q.tasks.Len() == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.tasks.Len() == 0 {
			q.mu.Unlock()
			return
		}
		t := heap.Pop(&q.tasks).(*queuedTask)
		q.mu.Unlock()

		q.metrics.queueDepth(q.name, t.priority, -1)
		q.metrics.queueWait(q.name, t.priority, time.Since(t.enqueued).Seconds())

		if err := t.ctx.Err(); err != nil {
			q.metrics.queueTask(q.name, t.priority, "skipped")
			t.done <- err
			continue
		}
		err := t.run(t.ctx)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		q.metrics.queueTask(q.name, t.priority, outcome)
		t.done <- err
	}
}

// Run submits fn and returns its result. When ctx ends first the zero value is returned.
func Run[T any](ctx context.Context, q *Queue, p Priority, fn func(ctx context.Context) (T, error)) (T, error) {
	result := make(chan T, 1)
	err := q.Submit(ctx, p, func(ctx context.Context) error {
		v, err := fn(ctx)
		result <- v
		return err
	})
	select {
	case v := <-result:
		return v, err
	default:
		var zero T
		return zero, err
	}
}
