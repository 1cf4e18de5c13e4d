package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emenuapi/emenu-backend/metrics"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/sirupsen/logrus"
)

type HandlerFunc func(ctx context.Context) error

// Worker consumes a Queue and runs the handler registered for each task.
// Failed tasks are logged and dropped.
type Worker struct {
	queue    Queue
	handlers map[string]HandlerFunc
	mu       sync.RWMutex

	cancel context.CancelFunc
	done   chan struct{}

	RetryDelay time.Duration
}

func NewWorker(queue Queue) *Worker {
	return &Worker{
		queue:      queue,
		handlers:   make(map[string]HandlerFunc),
		RetryDelay: time.Second,
	}
}

func (w *Worker) Register(name string, handler HandlerFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[name] = handler
}

// Start runs the consume loop in a goroutine until Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		w.Run(ctx)
	}()
	utils.InfoLogger.Println("Task worker started")
}

func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	utils.InfoLogger.Println("Task worker stopped")
}

// Run blocks consuming tasks until ctx is done or the queue is closed.
func (w *Worker) Run(ctx context.Context) {
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrQueueClosed) {
				return
			}
			utils.ErrorLogger.WithError(err).Error("Error dequeuing task")
			select {
			case <-time.After(w.RetryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}

		w.Process(ctx, task)
	}
}

// Process runs a single task and reports whether it succeeded.
func (w *Worker) Process(ctx context.Context, task Task) (ok bool) {
	log := utils.InfoLogger.WithFields(logrus.Fields{
		"task":    task.Name,
		"task_id": task.ID,
	})

	w.mu.RLock()
	handler, exists := w.handlers[task.Name]
	w.mu.RUnlock()
	if !exists {
		utils.ErrorLogger.WithField("task", task.Name).Error("No handler registered for task")
		metrics.RecordTask(task.Name, false)
		return false
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			utils.ErrorLogger.WithField("task", task.Name).Errorf("Task panicked: %v", r)
			ok = false
		}
		metrics.RecordTask(task.Name, ok)
	}()

	if err := handler(ctx); err != nil {
		utils.ErrorLogger.WithError(fmt.Errorf("task %s: %w", task.Name, err)).Error("Task failed")
		return false
	}

	log.WithField("duration", time.Since(start)).Info("Task succeeded")
	return true
}
