package local

import (
	"context"
	"io"
	"strings"
	"testing"

	"taskboard/internal/blob"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*Store, afero.Fs) {
	fsys := afero.NewMemMapFs()
	return New(fsys, "http://localhost:8080/blobs/"), fsys
}

func TestStore_UploadAndURL(t *testing.T) {
	s, fsys := newTestStore()
	ctx := context.Background()

	var last int64
	err := s.Upload(ctx, "files/report v1.pdf", strings.NewReader("hello"), 5, func(written, total int64) {
		last = written
		assert.Equal(t, int64(5), total)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), last)

	data, err := afero.ReadFile(fsys, "files/report v1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	exists, err := afero.Exists(fsys, "files/report v1.pdf.part")
	require.NoError(t, err)
	assert.False(t, exists)

	u, err := s.URL(ctx, "files/report v1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/blobs/files/report%20v1.pdf", u)
}

func TestStore_UploadOverwrites(t *testing.T) {
	s, fsys := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "files/a.txt", strings.NewReader("first"), 5, nil))
	require.NoError(t, s.Upload(ctx, "files/a.txt", strings.NewReader("second"), 6, nil))

	data, err := afero.ReadFile(fsys, "files/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestStore_UploadCancelled(t *testing.T) {
	s, fsys := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Upload(ctx, "files/a.txt", strings.NewReader("data"), 4, nil)
	require.ErrorIs(t, err, context.Canceled)

	exists, err := afero.Exists(fsys, "files/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = afero.Exists(fsys, "files/a.txt.part")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_Delete(t *testing.T) {
	s, fsys := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "files/a.txt", strings.NewReader("x"), 1, nil))
	require.NoError(t, s.Delete(ctx, "files/a.txt"))

	exists, err := afero.Exists(fsys, "files/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, s.Delete(ctx, "files/a.txt"), blob.ErrNotFound)
	_, err = s.URL(ctx, "files/a.txt")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestStore_Open(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "files/a.txt", strings.NewReader("content"), 7, nil))

	f, info, err := s.Open("files/a.txt")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, int64(7), info.Size())

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	_, _, err = s.Open("files")
	assert.ErrorIs(t, err, blob.ErrNotFound)
	_, _, err = s.Open("files/missing")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}
