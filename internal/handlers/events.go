package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/handlers/dto"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"taskboard/internal/view"

	"go.uber.org/zap"
)

const keepAlive = 25 * time.Second

// Events GET /events streams "snapshot" events carrying the list fragment
// and "result" events carrying the outcome of background writes.
func (h *TaskHandler) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// стрим живёт дольше WriteTimeout сервера
	_ = rc.SetWriteDeadline(time.Time{})

	events, cancel := h.TaskService.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := h.writeSnapshot(w, h.TaskService.Tasks()); err != nil {
		logger.Error("HTTP: Ошибка отправки события", err)
		return
	}
	if err := rc.Flush(); err != nil {
		logger.Error("HTTP: Поток событий не поддерживается", err)
		return
	}

	logger.Debug("HTTP: Подписка на события", zap.String("client_ip", r.RemoteAddr))

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			logger.Debug("HTTP: Клиент отключился", zap.String("client_ip", r.RemoteAddr))
			return
		case <-ticker.C:
			_, err = io.WriteString(w, ": ping\n\n")
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case service.EventSnapshot:
				err = h.writeSnapshot(w, ev.Tasks)
			case service.EventResult:
				err = writeResult(w, ev.Result)
			}
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			logger.Warn("HTTP: Поток событий прерван", zap.Error(err))
			return
		}
	}
}

func (h *TaskHandler) writeSnapshot(w io.Writer, tasks []task.Task) error {
	html, err := h.renderer.ListHTML(view.NewList(tasks, h.TaskService.Today()))
	if err != nil {
		return err
	}
	return writeEvent(w, "snapshot", html)
}

func writeResult(w io.Writer, res service.Result) error {
	data, err := json.Marshal(dto.FromResult(res))
	if err != nil {
		return err
	}
	return writeEvent(w, "result", string(data))
}

func writeEvent(w io.Writer, event, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", strings.TrimSuffix(line, "\r"))
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
