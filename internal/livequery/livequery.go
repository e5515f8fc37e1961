// Package livequery turns a store's change signals into a stream of full,
// ordered snapshots of the task collection.
package livequery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"taskboard/internal/logger"
	"taskboard/internal/models/task"

	"go.uber.org/zap"
)

// ErrWatchClosed ends a subscription whose change feed was closed by the store.
var ErrWatchClosed = errors.New("поток изменений закрыт")

type Source interface {
	List(ctx context.Context) ([]task.Task, error)
	Watch(ctx context.Context) (<-chan struct{}, error)
}

type Snapshot struct {
	Seq   uint64
	Tasks []task.Task
	At    time.Time
}

type Subscription struct {
	src    Source
	out    chan Snapshot
	cancel context.CancelFunc
	done   chan struct{}

	mtx sync.Mutex
	err error
}

// Open starts watching before the first query, so no change made between
// the two is lost. The initial snapshot is the first value on Snapshots.
func Open(ctx context.Context, src Source) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	changes, err := src.Watch(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("подписка на изменения: %w", err)
	}

	tasks, err := src.List(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("первичная выборка: %w", err)
	}

	s := &Subscription{
		src:    src,
		out:    make(chan Snapshot),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, changes, Snapshot{Seq: 1, Tasks: tasks, At: time.Now()})

	logger.Debug("LiveQuery: Подписка открыта", zap.Int("tasks", len(tasks)))
	return s, nil
}

// Snapshots is closed when the subscription ends.
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.out
}

// Close stops the subscription and waits for it to finish.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Done is closed when the subscription has ended.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the subscription ended on its own; nil after Close.
func (s *Subscription) Err() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.err
}

func (s *Subscription) run(ctx context.Context, changes <-chan struct{}, snap Snapshot) {
	defer close(s.done)
	defer close(s.out)

	if !s.send(ctx, snap) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() == nil {
					s.fail(ErrWatchClosed)
					logger.Warn("LiveQuery: Поток изменений закрыт хранилищем")
				}
				return
			}

			start := time.Now()
			tasks, err := s.src.List(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// the previous snapshot stays current
				logger.Error("LiveQuery: Не удалось обновить снимок", err)
				continue
			}

			snap = Snapshot{Seq: snap.Seq + 1, Tasks: tasks, At: time.Now()}
			logger.Debug("LiveQuery: Новый снимок",
				zap.Uint64("seq", snap.Seq),
				zap.Int("tasks", len(tasks)),
				zap.Duration("ms", time.Since(start)),
			)
			if !s.send(ctx, snap) {
				return
			}
		}
	}
}

func (s *Subscription) send(ctx context.Context, snap Snapshot) bool {
	select {
	case s.out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Subscription) fail(err error) {
	s.mtx.Lock()
	s.err = err
	s.mtx.Unlock()
}
