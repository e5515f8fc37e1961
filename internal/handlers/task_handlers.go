package handlers

import (
	"net/http"
	"time"

	"taskboard/internal/handlers/dto"
	"taskboard/internal/logger"
	"taskboard/internal/service"
	"taskboard/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultMaxUpload = 10 << 20

type TaskHandler struct {
	TaskService TaskService
	renderer    *view.Renderer
	blobs       BlobOpener
	maxUpload   int64
}

type HandlerOption func(*TaskHandler)

// WithBlobs enables GET /blobs/* for a store that can serve its files.
func WithBlobs(blobs BlobOpener) HandlerOption {
	return func(h *TaskHandler) {
		h.blobs = blobs
	}
}

func WithMaxUpload(n int64) HandlerOption {
	return func(h *TaskHandler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

func NewTaskHandler(taskService TaskService, renderer *view.Renderer, opts ...HandlerOption) *TaskHandler {
	h := &TaskHandler{
		TaskService: taskService,
		renderer:    renderer,
		maxUpload:   defaultMaxUpload,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", "taskboard"),
		)
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", "taskboard"),
	)
}

// GetTasks GET /api/tasks
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	today := h.TaskService.Today()
	tasks := h.TaskService.Tasks()

	logger.Debug("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK,
		toPayload("today", today.String()),
		toPayload("tasks", dto.FromTaskList(tasks, today)),
	)
}

// PostTask POST /api/tasks
func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	var (
		draft service.Draft
		err   error
	)
	switch {
	case checkContentType(r, "application/json"):
		draft, err = readJSON(r)
	case checkContentType(r, "multipart/form-data"), checkContentType(r, "application/x-www-form-urlencoded"):
		draft, err = readForm(w, r, h.maxUpload)
	default:
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType,
			"Content-Type должен быть application/json или multipart/form-data")
		return
	}
	if err == nil {
		err = h.TaskService.Create(r.Context(), draft)
	}
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	responseAccepted(w)
}

// PostDone POST /api/tasks/{id}/done
func (h *TaskHandler) PostDone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.TaskService.ToggleDone(r.Context(), id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err, zap.String("task_id", id))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	responseAccepted(w)
}

// DeleteTask DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.TaskService.Delete(r.Context(), id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err, zap.String("task_id", id))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	responseAccepted(w)
}
