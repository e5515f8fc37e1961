package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"path"

	"taskboard/internal/blob"
	"taskboard/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GetBlob GET /blobs/*
func (h *TaskHandler) GetBlob(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		http.NotFound(w, r)
		return
	}

	raw := chi.URLParam(r, "*")
	// chi маршрутизирует по RawPath, если он есть, и параметр остаётся экранированным
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(raw)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		raw = unescaped
	}

	p, err := blob.CleanPath(raw)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	f, info, err := h.blobs.Open(p)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.Error("HTTP: Ошибка чтения файла", err, zap.String("path", p))
		responseWithError(w, http.StatusInternalServerError, "не удалось прочитать файл")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", `attachment; filename*=UTF-8''`+url.PathEscape(path.Base(p)))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
