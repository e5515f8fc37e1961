// Package sqlite stores tasks in a local SQLite database. Change signals are
// delivered in-process only, so every writer must share one Storage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type Storage struct {
	db       *sqlx.DB
	notifier *repo.Notifier

	clockMtx sync.Mutex
	last     int64
}

type taskRow struct {
	ID               string `db:"id"`
	Description      string `db:"description"`
	CreatedAt        int64  `db:"created_at"`
	Deadline         string `db:"deadline"`
	AttachedFileName string `db:"attached_file_name"`
	AttachedFileURL  string `db:"attached_file_url"`
	IsDone           bool   `db:"is_done"`
}

// New opens (or creates) the database at path and applies pending migrations.
func New(path string) (*Storage, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}
	// один коннект: запись в sqlite всё равно последовательная, а ":memory:" живёт в пределах соединения
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("включение WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("установка busy_timeout: %w", err)
	}

	s := &Storage{db: db, notifier: repo.NewNotifier()}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("миграции: %w", err)
	}

	logger.Info("Repository: SQLite открыт", zap.String("path", path))
	return s, nil
}

func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		logger.Warn("Repository: Ошибка закрытия SQLite", zap.Error(err))
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) runMigrations() error {
	current := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("проверка schema_version: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("чтение версии схемы: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("применение миграции v%d: %w", m.version, err)
		}
	}
	return nil
}

// createdAt is assigned by the store and strictly increases within the process.
func (s *Storage) createdAt() int64 {
	s.clockMtx.Lock()
	defer s.clockMtx.Unlock()

	now := time.Now().UnixNano()
	if now <= s.last {
		now = s.last + 1
	}
	s.last = now
	return now
}

func (s *Storage) Insert(ctx context.Context, req task.NewTask) (task.Task, error) {
	if err := req.Validate(); err != nil {
		return task.Task{}, err
	}
	start := time.Now()

	created := req.Build(uuid.NewString(), time.Unix(0, s.createdAt()).UTC())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, description, created_at, deadline,
			attached_file_name, attached_file_url, is_done
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Description, created.CreatedAt.UnixNano(), created.Deadline.String(),
		created.AttachedFileName, created.AttachedFileURL, created.IsDone,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return task.Task{}, fmt.Errorf("добавление задачи: %w", err)
	}

	s.notifier.Notify()
	return created, nil
}

func (s *Storage) Update(ctx context.Context, id string, patch task.Patch) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET is_done = COALESCE(?, is_done) WHERE id = ?",
		patch.IsDone, id,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.String("task_id", id))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}

	s.notifier.Notify()
	return nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.String("task_id", id))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}

	s.notifier.Notify()
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id string) (task.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM tasks WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, repo.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("получение задачи: %w", err)
	}
	return row.toTask()
}

// List returns all tasks, newest first.
func (s *Storage) List(ctx context.Context) ([]task.Task, error) {
	start := time.Now()

	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM tasks ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}

func (s *Storage) Watch(ctx context.Context) (<-chan struct{}, error) {
	return s.notifier.Subscribe(ctx), nil
}

func (r taskRow) toTask() (task.Task, error) {
	deadline, err := task.ParseDate(r.Deadline)
	if err != nil {
		return task.Task{}, fmt.Errorf("задача %s: %w", r.ID, err)
	}
	return task.Task{
		ID:               r.ID,
		Description:      r.Description,
		CreatedAt:        time.Unix(0, r.CreatedAt).UTC(),
		Deadline:         deadline,
		AttachedFileName: r.AttachedFileName,
		AttachedFileURL:  r.AttachedFileURL,
		IsDone:           r.IsDone,
	}, nil
}
