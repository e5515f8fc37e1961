package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"taskboard/internal/models/task"
	"taskboard/internal/repository"
	"taskboard/internal/repository/task/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) (*sqlite.Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, path
}

func deadline(t *testing.T, s string) task.Date {
	t.Helper()
	d, err := task.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestStorage_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newStorage(t)

	created, err := s.Insert(ctx, task.NewTaskRequest("report", deadline(t, "2025-02-01"),
		task.WithAttachment("fileX", "/blobs/files/fileX")))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "report", got.Description)
	assert.Equal(t, "2025-02-01", got.Deadline.String())
	assert.Equal(t, "fileX", got.AttachedFileName)
	assert.Equal(t, "/blobs/files/fileX", got.AttachedFileURL)
	assert.False(t, got.IsDone)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStorage_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, _ := newStorage(t)

	for i := 1; i <= 3; i++ {
		_, err := s.Insert(ctx, task.NewTaskRequest(fmt.Sprintf("t%d", i), deadline(t, "2025-01-10")))
		require.NoError(t, err)
	}

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"},
		[]string{tasks[0].Description, tasks[1].Description, tasks[2].Description})
}

func TestStorage_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newStorage(t)

	created, err := s.Insert(ctx, task.NewTaskRequest("buy milk", deadline(t, "2025-01-10")))
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, created.ID, task.SetDone(true)))
	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDone)

	// пустой патч ничего не меняет
	require.NoError(t, s.Update(ctx, created.ID, task.Patch{}))
	got, err = s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDone)

	assert.ErrorIs(t, s.Update(ctx, "missing", task.SetDone(true)), repository.ErrNotFound)

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.ErrorIs(t, s.Delete(ctx, created.ID), repository.ErrNotFound)

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStorage_RejectsHalfAttachment(t *testing.T) {
	ctx := context.Background()
	s, _ := newStorage(t)

	_, err := s.Insert(ctx, task.NewTask{
		Description:     "x",
		Deadline:        deadline(t, "2025-01-10"),
		AttachedFileURL: "/blobs/files/x",
	})
	assert.ErrorIs(t, err, task.ErrAttachmentMismatch)
}

func TestStorage_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, _ := newStorage(t)

	changes, err := s.Watch(ctx)
	require.NoError(t, err)

	created, err := s.Insert(ctx, task.NewTaskRequest("x", deadline(t, "2025-01-10")))
	require.NoError(t, err)
	waitSignal(t, changes)

	require.NoError(t, s.Update(ctx, created.ID, task.SetDone(true)))
	waitSignal(t, changes)

	require.NoError(t, s.Delete(ctx, created.ID))
	waitSignal(t, changes)
}

func TestStorage_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	created, err := s.Insert(ctx, task.NewTaskRequest("persisted", deadline(t, "2025-01-10")))
	require.NoError(t, err)
	s.Close()

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Description)
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("нет сигнала об изменении")
	}
}
