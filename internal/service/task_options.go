package service

import "time"

// Option настраивает TaskService при создании
type Option func(*TaskService)

// WithLocation задаёт часовой пояс, в котором считается "сегодня"
func WithLocation(loc *time.Location) Option {
	return func(s *TaskService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock подменяет источник текущего времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEventBuffer задаёт размер буфера канала событий подписчика
func WithEventBuffer(size int) Option {
	return func(s *TaskService) {
		if size > 0 {
			s.eventBuffer = size
		}
	}
}
