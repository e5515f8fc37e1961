package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"taskboard/internal/view"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	today   task.Date
	tasks   []task.Task
	events  chan service.Event
	toggled []string
	deleted []string
	err     error
}

func newFakeService(tasks ...task.Task) *fakeService {
	return &fakeService{
		today:  task.Date{Year: 2025, Month: time.January, Day: 10},
		tasks:  tasks,
		events: make(chan service.Event, 4),
	}
}

func (f *fakeService) Today() task.Date   { return f.today }
func (f *fakeService) Tasks() []task.Task { return f.tasks }

func (f *fakeService) ToggleDone(ctx context.Context, id string) error {
	f.toggled = append(f.toggled, id)
	return f.err
}

func (f *fakeService) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeService) Subscribe() (<-chan service.Event, func()) {
	return f.events, func() {}
}

func sample() []task.Task {
	return []task.Task{
		{ID: "a", Description: "Купить молоко", Deadline: task.Date{Year: 2025, Month: time.January, Day: 9}},
		{ID: "b", Description: "Сдать отчёт", Deadline: task.Date{Year: 2025, Month: time.January, Day: 12}, IsDone: true,
			AttachedFileName: "report.pdf", AttachedFileURL: "http://x/files/report.pdf"},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestModel_View(t *testing.T) {
	m := New(newFakeService(sample()...), DefaultKeyMap())

	out := m.View()

	assert.Contains(t, out, "ToDo App")
	assert.Contains(t, out, "Купить молоко")
	assert.Contains(t, out, "Дедлайн: 09.01.2025")
	assert.Contains(t, out, "Срок истек")
	assert.Contains(t, out, "[x]")
	assert.Contains(t, out, "Файл: report.pdf")
	assert.Contains(t, out, "Задач: 2, просрочено: 1")
}

func TestModel_Navigation(t *testing.T) {
	m := New(newFakeService(sample()...), DefaultKeyMap())

	m, _ = update(t, m, keyRunes("k"))
	assert.Equal(t, 0, m.cursor)

	m, _ = update(t, m, keyRunes("j"))
	assert.Equal(t, 1, m.cursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
}

func TestModel_Actions(t *testing.T) {
	svc := newFakeService(sample()...)
	m := New(svc, DefaultKeyMap())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, []string{"a"}, svc.toggled)

	m, _ = update(t, m, keyRunes("j"))
	_, cmd = update(t, m, keyRunes("x"))
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, []string{"b"}, svc.deleted)
}

func TestModel_ActionRejected(t *testing.T) {
	svc := newFakeService(sample()...)
	svc.err = service.NewNotFound("Задача", "a")
	m := New(svc, DefaultKeyMap())

	_, cmd := update(t, m, keyRunes("x"))
	msg := cmd()
	require.IsType(t, actionErrMsg{}, msg)

	m, _ = update(t, m, msg)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "не найден")
}

func TestModel_EmptyListIgnoresActions(t *testing.T) {
	svc := newFakeService()
	m := New(svc, DefaultKeyMap())

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Nil(t, cmd)
	assert.Empty(t, svc.toggled)
	assert.Contains(t, m.View(), "Задач пока нет")
}

func TestModel_Events(t *testing.T) {
	svc := newFakeService(sample()...)
	m := New(svc, DefaultKeyMap())
	m, _ = update(t, m, keyRunes("j"))

	svc.events <- service.Event{Kind: service.EventSnapshot, Seq: 2, Tasks: sample()[:1]}
	msg := m.Init()()
	m, cmd := update(t, m, msg)
	require.NotNil(t, cmd)
	assert.Len(t, m.items, 1)
	assert.Equal(t, 0, m.cursor)

	svc.events <- service.Event{Kind: service.EventResult, Result: service.Result{
		Op: service.OpDelete, TaskID: "a", Err: errors.New("connection reset"),
	}}
	m, _ = update(t, m, cmd())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "Не удалось удалить задачу: connection reset")

	svc.events <- service.Event{Kind: service.EventResult, Result: service.Result{Op: service.OpCreate}}
	m, _ = update(t, m, cmd())
	assert.False(t, m.statusErr)
	assert.Empty(t, m.status)
}

func TestModel_StreamClosedQuits(t *testing.T) {
	svc := newFakeService()
	m := New(svc, DefaultKeyMap())
	close(svc.events)

	msg := m.Init()()
	assert.IsType(t, streamClosedMsg{}, msg)

	_, cmd := update(t, m, msg)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_Quit(t *testing.T) {
	m := New(newFakeService(), DefaultKeyMap())

	_, cmd := update(t, m, keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenderList_NoCursor(t *testing.T) {
	items := view.NewList(sample(), task.Date{Year: 2025, Month: time.January, Day: 10})

	out := RenderList(items, noCursor)
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[ ]  Купить молоко")
	assert.Contains(t, lines[1], "Дедлайн: 12.01.2025")
	assert.NotContains(t, lines[1], "Срок истек")
}
