// Package local keeps attached files on an afero filesystem and serves
// them back over HTTP under a configured base URL.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"taskboard/internal/blob"
	"taskboard/internal/logger"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type Store struct {
	fs      afero.Fs
	baseURL string
}

// New roots the store at fs. baseURL is the prefix download links are built
// from, e.g. "http://localhost:8080/blobs".
func New(fsys afero.Fs, baseURL string) *Store {
	return &Store{fs: fsys, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewOnDisk stores files under dir on the OS filesystem.
func NewOnDisk(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("создание каталога файлов: %w", err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL), nil
}

// Upload writes the object through a temporary file and renames it into
// place, so a cancelled upload never leaves a partial object at p.
func (s *Store) Upload(ctx context.Context, p string, r io.Reader, size int64, progress blob.ProgressFunc) error {
	start := time.Now()

	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("создание каталога: %w", err)
	}

	tmp := p + ".part"
	f, err := s.fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("создание файла: %w", err)
	}

	pr := blob.NewProgressReader(&ctxReader{ctx: ctx, r: r}, size, progress)
	_, copyErr := io.Copy(f, pr)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = s.fs.Remove(tmp)
		logger.Error("Blob: Не удалось загрузить файл", copyErr, zap.String("path", p))
		return fmt.Errorf("загрузка файла: %w", copyErr)
	}

	if err := s.fs.Rename(tmp, p); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("сохранение файла: %w", err)
	}

	logger.Debug("Blob: Файл загружен",
		zap.String("path", p),
		zap.Int64("bytes", pr.Written()),
		zap.Duration("ms", time.Since(start)),
	)
	return nil
}

func (s *Store) URL(ctx context.Context, p string) (string, error) {
	if _, err := s.fs.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", blob.ErrNotFound
		}
		return "", fmt.Errorf("получение файла: %w", err)
	}

	// каноническое экранирование: у запроса по такой ссылке не будет RawPath
	return s.baseURL + (&url.URL{Path: "/" + p}).EscapedPath(), nil
}

func (s *Store) Delete(ctx context.Context, p string) error {
	if _, err := s.fs.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return blob.ErrNotFound
		}
		return fmt.Errorf("получение файла: %w", err)
	}
	if err := s.fs.Remove(p); err != nil {
		logger.Error("Blob: Не удалось удалить файл", err, zap.String("path", p))
		return fmt.Errorf("удаление файла: %w", err)
	}
	return nil
}

// Open returns the object for reading. The caller closes it.
func (s *Store) Open(p string) (afero.File, os.FileInfo, error) {
	info, err := s.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, blob.ErrNotFound
		}
		return nil, nil, fmt.Errorf("получение файла: %w", err)
	}
	if info.IsDir() {
		return nil, nil, blob.ErrNotFound
	}
	f, err := s.fs.Open(p)
	if err != nil {
		return nil, nil, fmt.Errorf("открытие файла: %w", err)
	}
	return f, info, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}
