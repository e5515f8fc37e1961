package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"taskboard/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, repoType string) string {
	t.Helper()
	dir := t.TempDir()
	content := "repository:\n  type: " + repoType + "\n" +
		"database:\n  sqlite_path: " + filepath.Join(dir, "tasks.db") + "\n" +
		"blob:\n  dir: " + filepath.Join(dir, "blobs") + "\n"

	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAddAndList(t *testing.T) {
	cfgPath := writeTestConfig(t, "sqlite")

	attachment := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(attachment, []byte("итоги квартала"), 0o644))

	out, err := execute(t, "add", "--config", cfgPath, "-d", "Сдать отчёт", "-D", "2000-01-01", "--file", attachment)
	require.NoError(t, err)
	assert.Contains(t, out, "Задача создана:")

	out, err = execute(t, "add", "--config", cfgPath, "--description", "Купить молоко", "--deadline", "2999-12-31")
	require.NoError(t, err)
	assert.Contains(t, out, "Задача создана:")

	out, err = execute(t, "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Купить молоко")
	assert.Contains(t, out, "Дедлайн: 31.12.2999")
	assert.Contains(t, out, "Сдать отчёт")
	assert.Contains(t, out, "Срок истек")
	assert.Contains(t, out, "Файл: report.txt")
	assert.Contains(t, out, "Задач: 2, просрочено: 1")
}

func TestAdd_Invalid(t *testing.T) {
	cfgPath := writeTestConfig(t, "inmemory")

	tests := []struct {
		name    string
		args    []string
		errText string
	}{
		{
			name:    "blank description",
			args:    []string{"-d", "   ", "-D", "2025-01-10"},
			errText: "description",
		},
		{
			name:    "bad deadline",
			args:    []string{"-d", "Купить молоко", "-D", "10.01.2025"},
			errText: "deadline",
		},
		{
			name:    "missing file",
			args:    []string{"-d", "Купить молоко", "-D", "2025-01-10", "-f", filepath.Join(t.TempDir(), "nope.txt")},
			errText: "чтение файла",
		},
		{
			name:    "missing flag",
			args:    []string{"-d", "Купить молоко"},
			errText: "deadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"add", "--config", cfgPath}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestList_WritesLogsToStderr(t *testing.T) {
	prev := logger.Logger
	t.Cleanup(func() { logger.Logger = prev })

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"list", "--config", writeTestConfig(t, "inmemory")})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "Задач: 0, просрочено: 0")
	assert.Contains(t, stderr.String(), "Service: Остановлен")
	assert.NotContains(t, stdout.String(), "Service:")
}

func TestMigrate(t *testing.T) {
	out, err := execute(t, "migrate", "--config", writeTestConfig(t, "sqlite"))
	require.NoError(t, err)
	assert.Contains(t, out, "Миграции sqlite применены")

	out, err = execute(t, "migrate", "--config", writeTestConfig(t, "inmemory"))
	require.NoError(t, err)
	assert.Contains(t, out, "не требует миграций")
}

func TestList_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("repository:\n  type: mongo\n"), 0o644))

	_, err := execute(t, "list", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "загрузка конфигурации")
}
