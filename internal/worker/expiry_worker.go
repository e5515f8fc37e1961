package worker

import (
	"context"
	"time"

	"taskboard/internal/logger"
	"taskboard/internal/metrics"
	"taskboard/internal/models/task"

	"go.uber.org/zap"
)

const defaultInterval = time.Minute

// TaskSource is the part of the service the worker reads from.
type TaskSource interface {
	Tasks() []task.Task
	Today() task.Date
	Refresh()
}

// ExpiryWorker periodically recounts expired tasks and, when the calendar
// day changes, asks the service to re-publish the list so that every view
// re-evaluates expiry against the new date.
type ExpiryWorker struct {
	source   TaskSource
	interval time.Duration

	lastDay task.Date
	started bool
}

func NewExpiryWorker(source TaskSource, interval time.Duration) *ExpiryWorker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &ExpiryWorker{
		source:   source,
		interval: interval,
	}
}

func (w *ExpiryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновая проверка сроков запущена", zap.Duration("interval", w.interval))
	w.Check()

	for {
		select {
		case <-ticker.C:
			w.Check()
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка сроков останавливается")
			return
		}
	}
}

// Check updates the expired gauge and reports whether the day rolled over
// since the previous call.
func (w *ExpiryWorker) Check() bool {
	start := time.Now()
	today := w.source.Today()
	tasks := w.source.Tasks()

	expired := 0
	for _, t := range tasks {
		if task.IsExpired(t.Deadline, today) {
			expired++
		}
	}
	metrics.ExpiredTasks.Set(float64(expired))

	rolled := w.started && today != w.lastDay
	w.lastDay = today
	w.started = true

	if rolled {
		logger.Info("Worker: Наступил новый день, обновляем список", zap.Stringer("today", today))
		w.source.Refresh()
	}

	logger.Debug(
		"Worker: Завершение проверки сроков",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(tasks)),
		zap.Int("expired", expired),
	)
	return rolled
}
