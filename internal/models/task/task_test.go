package task_test

import (
	"encoding/json"
	"testing"
	"time"

	"taskboard/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) task.Date {
	t.Helper()
	d, err := task.ParseDate(s)
	require.NoError(t, err)
	return d
}

// TestIsExpired проверяет границу просрочки: сегодня ещё не просрочено
func TestIsExpired(t *testing.T) {
	today := mustDate(t, "2025-01-10")

	tests := []struct {
		name     string
		deadline string
		expected bool
	}{
		{name: "deadline today", deadline: "2025-01-10", expected: false},
		{name: "deadline yesterday", deadline: "2025-01-09", expected: true},
		{name: "deadline tomorrow", deadline: "2025-01-11", expected: false},
		{name: "deadline last year", deadline: "2024-12-31", expected: true},
		{name: "deadline across leap day", deadline: "2024-02-29", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, task.IsExpired(mustDate(t, tt.deadline), today))
		})
	}
}

func TestTask_IsExpired_UsesCalendarDay(t *testing.T) {
	tk := task.Task{Deadline: mustDate(t, "2025-01-10")}

	// поздний вечер дня дедлайна - задача ещё не просрочена
	assert.False(t, tk.IsExpired(time.Date(2025, 1, 10, 23, 59, 59, 0, time.UTC)))
	// первая секунда следующего дня
	assert.True(t, tk.IsExpired(time.Date(2025, 1, 11, 0, 0, 1, 0, time.UTC)))
}

func TestDateOf_RespectsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	instant := time.Date(2025, 1, 10, 22, 30, 0, 0, time.UTC)

	assert.Equal(t, "2025-01-10", task.DateOf(instant).String())
	assert.Equal(t, "2025-01-11", task.DateOf(instant.In(loc)).String())
}

func TestDate_Format(t *testing.T) {
	assert.Equal(t, "05.03.2025", mustDate(t, "2025-03-05").Format())
	assert.Equal(t, "31.12.1999", mustDate(t, "1999-12-31").Format())
	assert.Equal(t, "", task.Date{}.Format())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "10.01.2025", "2025-13-01", "2025-02-30", "2025-1-5"} {
		_, err := task.ParseDate(s)
		assert.Error(t, err, s)
	}
}

func TestDate_DaysUntil(t *testing.T) {
	from := mustDate(t, "2025-03-30")
	assert.Equal(t, 2, from.DaysUntil(mustDate(t, "2025-04-01")))
	assert.Equal(t, -30, from.DaysUntil(mustDate(t, "2025-02-28")))
	assert.Equal(t, 0, from.DaysUntil(from))
}

func TestDate_JSON(t *testing.T) {
	tk := task.Task{ID: "a", Description: "buy milk", Deadline: mustDate(t, "2025-01-10")}

	raw, err := json.Marshal(tk)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"deadline":"2025-01-10"`)

	var decoded task.Task
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, tk.Deadline, decoded.Deadline)
}

// TestNewTaskRequest проверяет инвариант: имя и ссылка файла задаются вместе
func TestNewTaskRequest(t *testing.T) {
	deadline := mustDate(t, "2025-02-01")

	t.Run("without attachment", func(t *testing.T) {
		n := task.NewTaskRequest("buy milk", deadline)
		require.NoError(t, n.Validate())
		assert.False(t, n.IsDone)
		assert.Empty(t, n.AttachedFileName)
		assert.Empty(t, n.AttachedFileURL)
	})

	t.Run("with attachment", func(t *testing.T) {
		n := task.NewTaskRequest("report", deadline, task.WithAttachment("fileX", "http://blobs/files/fileX"))
		require.NoError(t, n.Validate())
		assert.Equal(t, "fileX", n.AttachedFileName)
		assert.Equal(t, "http://blobs/files/fileX", n.AttachedFileURL)
		assert.True(t, n.Build("id", time.Now()).HasAttachment())
	})

	t.Run("half attachment is ignored", func(t *testing.T) {
		n := task.NewTaskRequest("report", deadline, task.WithAttachment("fileX", ""))
		require.NoError(t, n.Validate())
		assert.Empty(t, n.AttachedFileName)
	})
}

func TestValidate(t *testing.T) {
	deadline := mustDate(t, "2025-02-01")

	tests := []struct {
		name string
		req  task.NewTask
		err  error
	}{
		{name: "ok", req: task.NewTask{Description: "x", Deadline: deadline}},
		{name: "blank description", req: task.NewTask{Description: "  ", Deadline: deadline}, err: task.ErrEmptyDescription},
		{name: "no deadline", req: task.NewTask{Description: "x"}, err: task.ErrNoDeadline},
		{name: "name without url", req: task.NewTask{Description: "x", Deadline: deadline, AttachedFileName: "f"}, err: task.ErrAttachmentMismatch},
		{name: "url without name", req: task.NewTask{Description: "x", Deadline: deadline, AttachedFileURL: "u"}, err: task.ErrAttachmentMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPatch_Apply(t *testing.T) {
	tk := task.Task{IsDone: false}

	task.SetDone(true).Apply(&tk)
	assert.True(t, tk.IsDone)

	task.Patch{}.Apply(&tk)
	assert.True(t, tk.IsDone)
}
