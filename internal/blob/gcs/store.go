// Package gcs keeps attached files in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"taskboard/internal/blob"
	"taskboard/internal/logger"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

type Config struct {
	Bucket string
	// Endpoint overrides the JSON API base path, e.g. for an emulator.
	Endpoint        string
	CredentialsFile string
	// PublicBaseURL, when set, is used to build download links instead of
	// the object's media link.
	PublicBaseURL string
	// ChunkSize switches uploads larger than it to resumable chunked uploads.
	ChunkSize int
}

type Store struct {
	objects       *storage.ObjectsService
	bucket        string
	publicBaseURL string
	chunkSize     int
}

func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("не указан bucket")
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	srv, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("создание клиента storage: %w", err)
	}

	logger.Info("Blob: Подключение к Cloud Storage", zap.String("bucket", cfg.Bucket))
	return &Store{
		objects:       srv.Objects,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		chunkSize:     cfg.ChunkSize,
	}, nil
}

func (s *Store) Upload(ctx context.Context, p string, r io.Reader, size int64, progress blob.ProgressFunc) error {
	start := time.Now()

	mediaOpts := []googleapi.MediaOption{}
	if s.chunkSize > 0 {
		mediaOpts = append(mediaOpts, googleapi.ChunkSize(s.chunkSize))
	}
	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType != "" {
		mediaOpts = append(mediaOpts, googleapi.ContentType(contentType))
	}

	pr := blob.NewProgressReader(r, size, progress)
	obj, err := s.objects.Insert(s.bucket, &storage.Object{Name: p, ContentType: contentType}).
		Media(pr, mediaOpts...).
		Context(ctx).
		Do()
	if err != nil {
		logger.Error("Blob: Не удалось загрузить файл", err, zap.String("path", p))
		return fmt.Errorf("загрузка файла: %w", err)
	}

	logger.Debug("Blob: Файл загружен",
		zap.String("path", obj.Name),
		zap.Uint64("bytes", obj.Size),
		zap.Duration("ms", time.Since(start)),
	)
	return nil
}

func (s *Store) URL(ctx context.Context, p string) (string, error) {
	obj, err := s.objects.Get(s.bucket, p).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return "", blob.ErrNotFound
		}
		return "", fmt.Errorf("получение файла: %w", err)
	}

	if s.publicBaseURL != "" {
		segments := strings.Split(obj.Name, "/")
		for i, seg := range segments {
			segments[i] = url.PathEscape(seg)
		}
		return s.publicBaseURL + "/" + strings.Join(segments, "/"), nil
	}
	return obj.MediaLink, nil
}

func (s *Store) Delete(ctx context.Context, p string) error {
	if err := s.objects.Delete(s.bucket, p).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return blob.ErrNotFound
		}
		logger.Error("Blob: Не удалось удалить файл", err, zap.String("path", p))
		return fmt.Errorf("удаление файла: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
