package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"taskboard/internal/blob"
	"taskboard/internal/livequery"
	"taskboard/internal/logger"
	"taskboard/internal/metrics"
	"taskboard/internal/models/task"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const defaultEventBuffer = 32

var errSubscriptionEnded = errors.New("подписка на задачи завершена")

// TaskService держит актуальный снимок списка задач и выполняет записи в
// фоне: Create, ToggleDone и Delete возвращаются сразу, результат приходит
// новым снимком и событием Result.
type TaskService struct {
	repo     TaskRepository
	blobs    BlobStore
	validate *validator.Validate
	now      func() time.Time
	loc      *time.Location

	// фоновые операции живут дольше запроса, который их вызвал
	bgCtx    context.Context
	bgCancel context.CancelFunc
	inflight sync.WaitGroup

	mtx      sync.RWMutex
	sub      *livequery.Subscription
	consumed chan struct{}
	tasks    []task.Task
	seq      uint64

	eventBuffer int
	subsMtx     sync.Mutex
	subs        map[chan Event]struct{}
	subsClosed  bool
}

func NewTaskService(repo TaskRepository, blobs BlobStore, opts ...Option) *TaskService {
	ctx, cancel := context.WithCancel(context.Background())

	s := &TaskService{
		repo:        repo,
		blobs:       blobs,
		validate:    newValidator(),
		now:         time.Now,
		loc:         time.UTC,
		bgCtx:       ctx,
		bgCancel:    cancel,
		eventBuffer: defaultEventBuffer,
		subs:        make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the live query and returns once the first snapshot is applied.
func (s *TaskService) Start(ctx context.Context) error {
	s.mtx.Lock()
	if s.sub != nil {
		s.mtx.Unlock()
		return errors.New("сервис уже запущен")
	}
	s.mtx.Unlock()

	sub, err := livequery.Open(ctx, s.repo)
	if err != nil {
		logger.Error("Service: Не удалось открыть подписку", err)
		return fmt.Errorf("запуск сервиса: %w", err)
	}

	select {
	case snap, ok := <-sub.Snapshots():
		if !ok {
			sub.Close()
			return fmt.Errorf("запуск сервиса: %w", ctx.Err())
		}
		s.apply(snap)
	case <-ctx.Done():
		sub.Close()
		return fmt.Errorf("запуск сервиса: %w", ctx.Err())
	}

	s.mtx.Lock()
	s.sub = sub
	s.consumed = make(chan struct{})
	s.mtx.Unlock()

	go s.consume(sub, s.consumed)

	logger.Info("Service: Подписка на задачи открыта", zap.Int("tasks", len(s.Tasks())))
	return nil
}

func (s *TaskService) consume(sub *livequery.Subscription, done chan struct{}) {
	defer close(done)

	for snap := range sub.Snapshots() {
		s.apply(snap)
	}
	if err := sub.Err(); err != nil {
		logger.Error("Service: Подписка на задачи прервана", err)
	}
}

// apply replaces the whole list with the snapshot.
func (s *TaskService) apply(snap livequery.Snapshot) {
	s.mtx.Lock()
	s.tasks = snap.Tasks
	s.seq = snap.Seq
	s.mtx.Unlock()

	metrics.Snapshots.Inc()
	metrics.Tasks.Set(float64(len(snap.Tasks)))

	s.publish(Event{Kind: EventSnapshot, Seq: snap.Seq, Tasks: cloneTasks(snap.Tasks)})
}

// Stop closes the live query and waits for background writes to finish.
func (s *TaskService) Stop() {
	s.mtx.Lock()
	sub, consumed := s.sub, s.consumed
	s.sub = nil
	s.mtx.Unlock()

	if sub != nil {
		sub.Close()
		<-consumed
	}

	s.inflight.Wait()
	s.bgCancel()
	s.CloseSubscribers()
	logger.Info("Service: Остановлен")
}

// Wait blocks until every background write issued so far has finished.
func (s *TaskService) Wait() {
	s.inflight.Wait()
}

// HealthCheck fails when the store is unreachable or the live query has
// ended without Stop.
func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		logger.Error("Service: Проверка здоровья не пройдена", err)
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}

	s.mtx.RLock()
	sub := s.sub
	s.mtx.RUnlock()
	if sub == nil {
		return nil
	}

	select {
	case <-sub.Done():
		err := sub.Err()
		if err == nil {
			err = errSubscriptionEnded
		}
		logger.Error("Service: Проверка здоровья не пройдена", err)
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	default:
		return nil
	}
}

// Tasks returns a copy of the current list, newest first.
func (s *TaskService) Tasks() []task.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return cloneTasks(s.tasks)
}

// Snapshot returns the current list with its sequence number.
func (s *TaskService) Snapshot() (uint64, []task.Task) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.seq, cloneTasks(s.tasks)
}

func (s *TaskService) Lookup(id string) (task.Task, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

// Today is the current calendar date in the display location.
func (s *TaskService) Today() task.Date {
	return task.DateOf(s.now().In(s.loc))
}

// Refresh re-publishes the current snapshot, so views re-evaluate expiry.
func (s *TaskService) Refresh() {
	seq, tasks := s.Snapshot()
	s.publish(Event{Kind: EventSnapshot, Seq: seq, Tasks: tasks})
}

// Create validates the draft and writes the task in the background. With a
// file the upload happens first; no record is created if it fails.
func (s *TaskService) Create(ctx context.Context, d Draft) error {
	req, att, err := s.parse(d)
	if err != nil {
		logger.Debug("Service: Черновик не прошёл проверку", zap.Error(err))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var data []byte
	if att != nil {
		data = d.File.Data
	}

	s.spawn(OpCreate, "", func(ctx context.Context) (string, error) {
		if att != nil {
			url, err := s.upload(ctx, att.path, data)
			if err != nil {
				return "", err
			}
			req.AttachedFileName = att.name
			req.AttachedFileURL = url
		}

		created, err := s.repo.Insert(ctx, req)
		if err != nil {
			return "", fmt.Errorf("создание задачи: %w", err)
		}
		return created.ID, nil
	})
	return nil
}

func (s *TaskService) upload(ctx context.Context, path string, data []byte) (string, error) {
	size := int64(len(data))
	step := int64(0)

	progress := func(written, total int64) {
		if total <= 0 {
			return
		}
		pct := written * 100 / total
		if pct/25 > step {
			step = pct / 25
			logger.Debug("Service: Загрузка файла",
				zap.String("path", path),
				zap.Int64("percent", pct),
			)
		}
	}

	if err := s.blobs.Upload(ctx, path, bytes.NewReader(data), size, progress); err != nil {
		return "", fmt.Errorf("загрузка файла %s: %w", path, err)
	}
	metrics.UploadedBytes.Add(float64(size))

	url, err := s.blobs.URL(ctx, path)
	if err != nil {
		return "", fmt.Errorf("получение ссылки на %s: %w", path, err)
	}
	return url, nil
}

// ToggleDone flips IsDone of a task from the current snapshot.
func (s *TaskService) ToggleDone(ctx context.Context, id string) error {
	t, ok := s.Lookup(id)
	if !ok {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return NewNotFound("Задача", id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	patch := task.SetDone(!t.IsDone)
	s.spawn(OpToggleDone, id, func(ctx context.Context) (string, error) {
		if err := s.repo.Update(ctx, id, patch); err != nil {
			return id, fmt.Errorf("обновление задачи: %w", err)
		}
		return id, nil
	})
	return nil
}

// Delete removes the record and, independently, its attached file.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	t, ok := s.Lookup(id)
	if !ok {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return NewNotFound("Задача", id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.spawn(OpDelete, id, func(ctx context.Context) (string, error) {
		if err := s.repo.Delete(ctx, id); err != nil {
			return id, fmt.Errorf("удаление задачи: %w", err)
		}
		return id, nil
	})

	if t.HasAttachment() {
		path, err := blob.Path(t.AttachedFileName)
		if err != nil {
			logger.Warn("Service: Некорректное имя файла", zap.String("file", t.AttachedFileName))
			return nil
		}
		s.spawn(OpDeleteFile, id, func(ctx context.Context) (string, error) {
			if err := s.blobs.Delete(ctx, path); err != nil {
				return id, fmt.Errorf("удаление файла %s: %w", path, err)
			}
			return id, nil
		})
	}
	return nil
}

// spawn runs a write in the background. Failures are logged and reported
// as a Result event, never retried.
func (s *TaskService) spawn(op Op, taskID string, fn func(ctx context.Context) (string, error)) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		start := time.Now()
		id, err := fn(s.bgCtx)
		if id == "" {
			id = taskID
		}

		metrics.Operations.WithLabelValues(string(op), metrics.Outcome(err)).Inc()
		fields := []zap.Field{
			zap.String("op", string(op)),
			zap.String("task_id", id),
			zap.Duration("ms", time.Since(start)),
		}
		if err != nil {
			logger.Error("Service: Операция не выполнена", err, fields...)
		} else {
			logger.Info("Service: Операция выполнена", fields...)
		}

		s.publish(Event{Kind: EventResult, Result: Result{Op: op, TaskID: id, Err: err}})
	}()
}

func cloneTasks(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	copy(out, tasks)
	return out
}
