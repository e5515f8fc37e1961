package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.GetServerAddr())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "inmemory", cfg.Repository.Type)
	assert.Equal(t, "local", cfg.Blob.Type)
	assert.Equal(t, int32(10), cfg.Database.MaxConnections)
	assert.Equal(t, 5*time.Minute, cfg.Database.IdleTimeout)
	assert.Equal(t, time.Minute, cfg.Worker.ExpiryInterval)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: "9090"
  write_timeout: 1m
repository:
  type: postgres
database:
  url: postgres://u:p@localhost:5432/tasks
  max_connections: 4
blob:
  type: gcs
  gcs:
    bucket: tasks-files
    public_base_url: https://cdn.example/tasks
display:
  timezone: Europe/Moscow
worker:
  expiry_interval: 30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.GetServerAddr())
	assert.Equal(t, time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "postgres", cfg.Repository.Type)
	assert.Equal(t, int32(4), cfg.Database.MaxConnections)
	assert.Equal(t, int32(2), cfg.Database.MinConnections)
	assert.Equal(t, "tasks-files", cfg.Blob.GCS.Bucket)
	assert.Equal(t, 8<<20, cfg.Blob.GCS.ChunkSize)
	assert.Equal(t, 30*time.Second, cfg.Worker.ExpiryInterval)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TASKBOARD_REPOSITORY_TYPE", "sqlite")
	t.Setenv("TASKBOARD_DATABASE_SQLITE_PATH", "/tmp/tasks.db")
	t.Setenv("TASKBOARD_BLOB_GCS_BUCKET", "from-env")

	path := writeConfig(t, "repository:\n  type: inmemory\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Repository.Type)
	assert.Equal(t, "/tmp/tasks.db", cfg.Database.SQLitePath)
	assert.Equal(t, "from-env", cfg.Blob.GCS.Bucket)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{name: "unknown repository", content: "repository:\n  type: mongo\n", errText: "repository.type"},
		{name: "postgres without url", content: "repository:\n  type: postgres\n", errText: "database.url"},
		{name: "unknown blob", content: "blob:\n  type: s3\n", errText: "blob.type"},
		{name: "gcs without bucket", content: "blob:\n  type: gcs\n", errText: "blob.gcs.bucket"},
		{name: "bad timezone", content: "display:\n  timezone: Mars/Olympus\n", errText: "display.timezone"},
		{name: "zero interval", content: "worker:\n  expiry_interval: 0s\n", errText: "worker.expiry_interval"},
		{name: "broken yaml", content: "server: [\n", errText: "ошибка парсинга"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}
