package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"taskboard/internal/blob/gcs"
	"taskboard/internal/blob/local"
	"taskboard/internal/config"
	"taskboard/internal/handlers"
	"taskboard/internal/logger"
	"taskboard/internal/repository/task/inmemory"
	"taskboard/internal/repository/task/postgres"
	"taskboard/internal/repository/task/sqlite"
	"taskboard/internal/service"

	"go.uber.org/zap"
)

type repository interface {
	service.TaskRepository
	Close()
}

// Backend is the document store plus the blob store a service runs against.
type Backend struct {
	Repo  service.TaskRepository
	Blobs service.BlobStore
	// Files serves uploaded files over HTTP; nil when blobs live in GCS.
	Files handlers.BlobOpener

	closers []func()
}

func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b.Repo = repo
	b.closers = append(b.closers, repo.Close)

	switch cfg.Blob.Type {
	case "gcs":
		store, err := gcs.New(ctx, gcs.Config{
			Bucket:          cfg.Blob.GCS.Bucket,
			Endpoint:        cfg.Blob.GCS.Endpoint,
			CredentialsFile: cfg.Blob.GCS.CredentialsFile,
			PublicBaseURL:   cfg.Blob.GCS.PublicBaseURL,
			ChunkSize:       cfg.Blob.GCS.ChunkSize,
		})
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("подключение к GCS: %w", err)
		}
		b.Blobs = store
	default:
		store, err := local.NewOnDisk(cfg.Blob.Dir, cfg.Blob.BaseURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("подготовка каталога файлов: %w", err)
		}
		b.Blobs = store
		b.Files = store
	}

	logger.Info("App: Хранилища открыты",
		zap.String("repository", cfg.Repository.Type),
		zap.String("blob", cfg.Blob.Type),
	)
	return b, nil
}

func openRepository(ctx context.Context, cfg *config.Config) (repository, error) {
	switch cfg.Repository.Type {
	case "postgres":
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			return nil, fmt.Errorf("миграции PostgreSQL: %w", err)
		}
		repo, err := postgres.New(ctx, postgres.Config{
			URL:            cfg.Database.URL,
			MaxConnections: cfg.Database.MaxConnections,
			MinConnections: cfg.Database.MinConnections,
			IdleTimeout:    cfg.Database.IdleTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		return repo, nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("каталог базы SQLite: %w", err)
			}
		}
		repo, err := sqlite.New(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("открытие SQLite: %w", err)
		}
		return repo, nil
	default:
		return inmemory.NewTaskStorage(), nil
	}
}

// NewService builds a task service on b. The caller starts and stops it.
func (b *Backend) NewService(cfg *config.Config, opts ...service.Option) (*service.TaskService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	opts = append([]service.Option{service.WithLocation(loc)}, opts...)
	return service.NewTaskService(b.Repo, b.Blobs, opts...), nil
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
