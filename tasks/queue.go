package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReportDishesTask mails the daily dish report.
const ReportDishesTask = "menus.report_dishes"

var ErrQueueClosed = errors.New("task queue closed")

type Task struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func NewTask(name string) Task {
	return Task{
		ID:         uuid.NewString(),
		Name:       name,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Queue hands tasks from producers (scheduler, HTTP) to the worker.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// Dequeue blocks until a task is available or ctx is done.
	Dequeue(ctx context.Context) (Task, error)
	Close() error
}

// MemoryQueue is an in-process queue used when no broker is configured.
type MemoryQueue struct {
	tasks  chan Task
	closed chan struct{}
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		tasks:  make(chan Task, size),
		closed: make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	select {
	case <-q.closed:
		return ErrQueueClosed
	default:
	}

	select {
	case q.tasks <- task:
		return nil
	case <-q.closed:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Task, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-q.closed:
		return Task{}, ErrQueueClosed
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

func (q *MemoryQueue) Close() error {
	select {
	case <-q.closed:
	default:
		close(q.closed)
	}
	return nil
}
