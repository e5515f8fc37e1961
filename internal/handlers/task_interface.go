package handlers

import (
	"context"
	"os"

	"taskboard/internal/models/task"
	"taskboard/internal/service"

	"github.com/spf13/afero"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	Tasks() []task.Task
	Today() task.Date
	Create(ctx context.Context, d service.Draft) error
	ToggleDone(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Subscribe() (<-chan service.Event, func())
}

// BlobOpener serves stored files back; only the local blob store has one.
type BlobOpener interface {
	Open(path string) (afero.File, os.FileInfo, error)
}
