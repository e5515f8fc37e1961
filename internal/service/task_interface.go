package service

import (
	"context"
	"io"

	"taskboard/internal/blob"
	"taskboard/internal/models/task"
)

type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	Insert(ctx context.Context, req task.NewTask) (task.Task, error)
	Update(ctx context.Context, id string, patch task.Patch) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]task.Task, error)
	Watch(ctx context.Context) (<-chan struct{}, error)
}

type BlobStore interface {
	Upload(ctx context.Context, path string, r io.Reader, size int64, progress blob.ProgressFunc) error
	URL(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, path string) error
}
