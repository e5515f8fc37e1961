package service

import (
	"taskboard/internal/logger"
	"taskboard/internal/models/task"

	"go.uber.org/zap"
)

type EventKind int

const (
	EventSnapshot EventKind = iota + 1
	EventResult
)

type Op string

const (
	OpCreate     Op = "create"
	OpToggleDone Op = "toggle_done"
	OpDelete     Op = "delete"
	OpDeleteFile Op = "delete_file"
)

// Result is the outcome of one background write.
type Result struct {
	Op     Op
	TaskID string
	Err    error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Event is either a new list snapshot or the result of a background write.
type Event struct {
	Kind   EventKind
	Seq    uint64
	Tasks  []task.Task
	Result Result
}

func (s *TaskService) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, s.eventBuffer)

	s.subsMtx.Lock()
	if s.subsClosed {
		s.subsMtx.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.subsMtx.Unlock()

	cancel := func() {
		s.subsMtx.Lock()
		defer s.subsMtx.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// CloseSubscribers ends every event stream, e.g. before HTTP shutdown so
// that open SSE connections return.
func (s *TaskService) CloseSubscribers() {
	s.subsMtx.Lock()
	defer s.subsMtx.Unlock()

	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
	s.subsClosed = true
}

func (s *TaskService) publish(ev Event) {
	s.subsMtx.Lock()
	defer s.subsMtx.Unlock()

	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
			logger.Warn("Service: Подписчик не успевает, событие пропущено",
				zap.Int("kind", int(ev.Kind)),
				zap.Uint64("seq", ev.Seq),
			)
		}
	}
}
