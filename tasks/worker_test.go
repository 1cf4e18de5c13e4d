package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerProcess(t *testing.T) {
	w := NewWorker(NewMemoryQueue(1))

	var calls int32
	w.Register("ok", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	w.Register("fails", func(ctx context.Context) error {
		return errors.New("boom")
	})
	w.Register("panics", func(ctx context.Context) error {
		panic("boom")
	})

	ctx := context.Background()
	assert.True(t, w.Process(ctx, NewTask("ok")))
	assert.False(t, w.Process(ctx, NewTask("fails")))
	assert.False(t, w.Process(ctx, NewTask("panics")))
	assert.False(t, w.Process(ctx, NewTask("unknown")))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWorkerConsumesQueue(t *testing.T) {
	q := NewMemoryQueue(4)
	w := NewWorker(q)

	done := make(chan struct{}, 2)
	w.Register(ReportDishesTask, func(ctx context.Context) error {
		done <- struct{}{}
		return nil
	})

	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, q.Enqueue(context.Background(), NewTask(ReportDishesTask)))
	require.NoError(t, q.Enqueue(context.Background(), NewTask(ReportDishesTask)))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("task was not processed")
		}
	}
}

func TestSchedulerEnqueuesOnSchedule(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)

	s := NewScheduler(NewMemoryQueue(1), loc)
	require.NoError(t, s.Schedule("0 10 * * *", ReportDishesTask))

	entries := s.Entries()
	require.Len(t, entries, 1)

	from := time.Date(2021, 10, 3, 11, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2021, 10, 4, 10, 0, 0, 0, loc), entries[0].Schedule.Next(from))
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	s := NewScheduler(NewMemoryQueue(1), nil)
	assert.Error(t, s.Schedule("every morning", ReportDishesTask))
}
