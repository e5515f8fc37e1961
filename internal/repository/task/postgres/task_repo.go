package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// changesChannel is the NOTIFY channel fed by the tasks_changed trigger.
const changesChannel = "tasks_changed"

const slowQuery = 100 * time.Millisecond

const selectTasks = `SELECT
				id::text,
				description,
				created_at,
				deadline,
				attached_file_name,
				attached_file_url,
				is_done
				FROM tasks`

type Config struct {
	URL            string
	MaxConnections int32
	MinConnections int32
	IdleTimeout    time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if cfg.MaxConnections > 0 {
		config.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		config.MinConns = cfg.MinConnections
	}
	if cfg.IdleTimeout > 0 {
		config.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

// Insert lets the database assign id and created_at.
func (s *Storage) Insert(ctx context.Context, req task.NewTask) (task.Task, error) {
	if err := req.Validate(); err != nil {
		return task.Task{}, err
	}
	start := time.Now()

	query := `INSERT INTO tasks
				(description, deadline, attached_file_name, attached_file_url, is_done)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id::text, created_at`

	var (
		id        string
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx, query,
		req.Description,
		req.Deadline.Time(),
		req.AttachedFileName,
		req.AttachedFileURL,
		req.IsDone,
	).Scan(&id, &createdAt)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return task.Task{}, fmt.Errorf("добавление задачи: %w", err)
	}

	warnSlow(start)
	return req.Build(id, createdAt), nil
}

func (s *Storage) Update(ctx context.Context, id string, patch task.Patch) error {
	if _, err := uuid.Parse(id); err != nil {
		return repo.ErrNotFound
	}
	start := time.Now()

	query := `UPDATE tasks
			SET is_done = COALESCE($1::boolean, is_done)
			WHERE id = $2`

	tag, err := s.pool.Exec(ctx, query, patch.IsDone, id)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.String("task_id", id))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnSlow(start)
	return nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repo.ErrNotFound
	}
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnSlow(start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id string) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, repo.ErrNotFound
	}

	t, err := scanTask(s.pool.QueryRow(ctx, selectTasks+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.String("task_id", id))
		return task.Task{}, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

// List returns all tasks, newest first.
func (s *Storage) List(ctx context.Context) ([]task.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, selectTasks+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка чтения строки", err)
			return nil, fmt.Errorf("чтение задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по задачам: %w", err)
	}

	warnSlow(start)
	return tasks, nil
}

// Watch holds a dedicated connection in LISTEN and signals every change made
// by any client of the database. The connection leaves the pool for good.
func (s *Storage) Watch(ctx context.Context) (<-chan struct{}, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение соединения для LISTEN: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+changesChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("LISTEN %s: %w", changesChannel, err)
	}
	listener := conn.Hijack()

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer listener.Close(context.Background())

		for {
			n, err := listener.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("Repository: Ошибка ожидания уведомления", err)
				}
				return
			}
			logger.Debug("Repository: Изменение задач", zap.String("op", n.Payload))

			select {
			case changes <- struct{}{}:
			default:
			}
		}
	}()

	logger.Info("Repository: Подписка на изменения", zap.String("channel", changesChannel))
	return changes, nil
}

func scanTask(row pgx.Row) (task.Task, error) {
	var (
		t        task.Task
		deadline time.Time
	)
	err := row.Scan(
		&t.ID,
		&t.Description,
		&t.CreatedAt,
		&deadline,
		&t.AttachedFileName,
		&t.AttachedFileURL,
		&t.IsDone,
	)
	if err != nil {
		return task.Task{}, err
	}
	t.Deadline = task.DateOf(deadline)
	return t, nil
}

func warnSlow(start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
