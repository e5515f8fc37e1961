// Package tui is a terminal view of the live task list.
package tui

import (
	"context"
	"fmt"
	"strings"

	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"taskboard/internal/view"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const title = "ToDo App"

type TaskService interface {
	Today() task.Date
	Tasks() []task.Task
	ToggleDone(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Subscribe() (<-chan service.Event, func())
}

// eventMsg carries one service event into Update.
type eventMsg service.Event

// streamClosedMsg is sent when the service ends the event stream.
type streamClosedMsg struct{}

// actionErrMsg is a synchronous rejection of ToggleDone or Delete.
type actionErrMsg struct {
	err error
}

type Model struct {
	svc    TaskService
	keys   KeyMap
	events <-chan service.Event
	cancel func()

	items     []view.Item
	cursor    int
	status    string
	statusErr bool
	width     int
	height    int
}

// New subscribes to svc and renders its current list.
func New(svc TaskService, keys KeyMap) Model {
	events, cancel := svc.Subscribe()
	return Model{
		svc:    svc,
		keys:   keys,
		events: events,
		cancel: cancel,
		items:  view.NewList(svc.Tasks(), svc.Today()),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// waitForEvent returns a tea.Cmd that blocks on the next service event.
func waitForEvent(events <-chan service.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		m.handleEvent(service.Event(msg))
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		return m, tea.Quit

	case actionErrMsg:
		m.status = msg.err.Error()
		m.statusErr = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleEvent(ev service.Event) {
	switch ev.Kind {
	case service.EventSnapshot:
		m.items = view.NewList(ev.Tasks, m.svc.Today())
		if m.cursor >= len(m.items) {
			m.cursor = max(len(m.items)-1, 0)
		}
	case service.EventResult:
		if ev.Result.OK() {
			m.status = ""
			m.statusErr = false
			return
		}
		m.status = fmt.Sprintf("Не удалось %s: %v", opLabel(ev.Result.Op), ev.Result.Err)
		m.statusErr = true
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if id, ok := m.selected(); ok {
			return m, m.toggleDone(id)
		}

	case key.Matches(msg, m.keys.Delete):
		if id, ok := m.selected(); ok {
			return m, m.delete(id)
		}
	}
	return m, nil
}

func (m Model) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return "", false
	}
	return m.items[m.cursor].ID, true
}

func (m Model) toggleDone(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if err := svc.ToggleDone(context.Background(), id); err != nil {
			return actionErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) delete(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if err := svc.Delete(context.Background(), id); err != nil {
			return actionErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(RenderList(m.items, m.cursor))
	b.WriteString("\n\n")

	status := fmt.Sprintf("Задач: %d, просрочено: %d", len(m.items), view.Expired(m.items))
	if m.status != "" {
		status = m.status
	}
	if m.statusErr {
		b.WriteString(statusErrStyle.Render(status))
	} else {
		b.WriteString(statusStyle.Render(status))
	}
	b.WriteString("\n")

	help := make([]string, 0, len(m.keys.help()))
	for _, k := range m.keys.help() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(helpStyle.Render(strings.Join(help, " • ")))

	return b.String()
}

func opLabel(op service.Op) string {
	switch op {
	case service.OpCreate:
		return "создать задачу"
	case service.OpToggleDone:
		return "обновить задачу"
	case service.OpDelete:
		return "удалить задачу"
	case service.OpDeleteFile:
		return "удалить файл"
	default:
		return string(op)
	}
}

// Run shows the model full screen until the user quits.
func Run(svc TaskService) error {
	m := New(svc, DefaultKeyMap())
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
