package handlers

import (
	"net/http"

	"taskboard/internal/logger"
	"taskboard/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Index GET /
func (h *TaskHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, http.StatusOK, view.Form{}, "")
}

// SubmitTask POST /tasks
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	draft, err := readForm(w, r, h.maxUpload)
	if err == nil {
		err = h.TaskService.Create(r.Context(), draft)
	}
	if err != nil {
		h.pageError(w, err, view.Form{Description: draft.Description, Deadline: draft.Deadline})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SubmitDone POST /tasks/{id}/done
func (h *TaskHandler) SubmitDone(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.ToggleDone(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.pageError(w, err, view.Form{})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SubmitDelete POST /tasks/{id}/delete
func (h *TaskHandler) SubmitDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.pageError(w, err, view.Form{})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *TaskHandler) pageError(w http.ResponseWriter, err error, form view.Form) {
	if businessErr, ok := asBusinessError(err); ok {
		status := mapBusinessErrorToHTTP(businessErr.Code)
		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", status))
		h.renderPage(w, status, form, businessErr.Message)
		return
	}
	logger.Error("HTTP: Ошибка Service", err)
	h.renderPage(w, http.StatusInternalServerError, form, "Внутренняя ошибка сервера")
}

func (h *TaskHandler) renderPage(w http.ResponseWriter, status int, form view.Form, message string) {
	today := h.TaskService.Today()
	page := view.Page{
		Items: view.NewList(h.TaskService.Tasks(), today),
		Form:  form,
		Error: message,
		Today: today.Format(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.Page(w, page); err != nil {
		logger.Error("HTTP: Ошибка отрисовки страницы", err)
	}
}
