package inmemory

import (
	"context"
	"sync"
	"time"

	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"

	"github.com/google/uuid"
)

type TaskStorage struct {
	storage  map[string]*task.Task
	mtx      *sync.RWMutex
	ids      []string
	notifier *repo.Notifier
	now      func() time.Time
	last     time.Time
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage:  make(map[string]*task.Task),
		mtx:      &sync.RWMutex{},
		ids:      []string{},
		notifier: repo.NewNotifier(),
		now:      time.Now,
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Close() {}

func (s *TaskStorage) Insert(ctx context.Context, req task.NewTask) (task.Task, error) {
	if err := req.Validate(); err != nil {
		return task.Task{}, err
	}

	s.mtx.Lock()
	createdAt := s.now().UTC()
	// время создания строго возрастает, чтобы порядок не зависел от разрешения часов
	if !createdAt.After(s.last) {
		createdAt = s.last.Add(time.Microsecond)
	}
	s.last = createdAt

	created := req.Build(uuid.NewString(), createdAt)
	s.storage[created.ID] = &created
	s.ids = append(s.ids, created.ID)
	s.mtx.Unlock()

	s.notifier.Notify()
	return created, nil
}

func (s *TaskStorage) Update(ctx context.Context, id string, patch task.Patch) error {
	s.mtx.Lock()
	existing, ok := s.storage[id]
	if !ok {
		s.mtx.Unlock()
		return repo.ErrNotFound
	}
	patch.Apply(existing)
	s.mtx.Unlock()

	s.notifier.Notify()
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, id string) error {
	s.mtx.Lock()
	if _, ok := s.storage[id]; !ok {
		s.mtx.Unlock()
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	s.mtx.Unlock()

	s.notifier.Notify()
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id string) (task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.storage[id]
	if !ok {
		return task.Task{}, repo.ErrNotFound
	}
	return *t, nil
}

// List returns all tasks, newest first.
func (s *TaskStorage) List(ctx context.Context) ([]task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]task.Task, 0, len(s.ids))
	for i := len(s.ids) - 1; i >= 0; i-- {
		res = append(res, *s.storage[s.ids[i]])
	}
	return res, nil
}

func (s *TaskStorage) Watch(ctx context.Context) (<-chan struct{}, error) {
	return s.notifier.Subscribe(ctx), nil
}
