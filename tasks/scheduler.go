package tasks

import (
	"context"
	"time"

	"github.com/emenuapi/emenu-backend/utils"
	"github.com/robfig/cron/v3"
)

// Scheduler enqueues tasks on cron schedules.
type Scheduler struct {
	cron  *cron.Cron
	queue Queue
}

func NewScheduler(queue Queue, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(loc)),
		queue: queue,
	}
}

// Schedule enqueues taskName whenever the five-field cron spec fires.
func (s *Scheduler) Schedule(spec, taskName string) error {
	_, err := s.cron.AddFunc(spec, func() {
		task := NewTask(taskName)
		if err := s.queue.Enqueue(context.Background(), task); err != nil {
			utils.ErrorLogger.WithError(err).WithField("task", taskName).Error("Failed to enqueue scheduled task")
			return
		}
		utils.InfoLogger.WithField("task", taskName).Info("Scheduled task enqueued")
	})
	return err
}

func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) Start() {
	s.cron.Start()
	utils.InfoLogger.Println("Task scheduler started")
}

// Stop halts the scheduler and waits for running enqueue jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
