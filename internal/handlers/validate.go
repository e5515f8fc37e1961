package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"taskboard/internal/handlers/dto"
	"taskboard/internal/service"
)

const formMemory = 8 << 20

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// readForm reads a create form, urlencoded or multipart with an optional
// "file" part, into a draft. An attached file is held in memory.
func readForm(w http.ResponseWriter, r *http.Request, maxUpload int64) (service.Draft, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+formMemory)

	if checkContentType(r, "multipart/form-data") {
		if err := r.ParseMultipartForm(formMemory); err != nil {
			return service.Draft{}, formError(err, maxUpload)
		}
	} else if err := r.ParseForm(); err != nil {
		return service.Draft{}, formError(err, maxUpload)
	}

	draft := service.Draft{
		Description: r.PostFormValue("description"),
		Deadline:    r.PostFormValue("deadline"),
	}

	if r.MultipartForm == nil {
		return draft, nil
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return draft, nil
		}
		return service.Draft{}, fmt.Errorf("чтение файла: %w", err)
	}
	defer f.Close()

	// пустое поле выбора файла
	if header.Filename == "" && header.Size == 0 {
		return draft, nil
	}
	if header.Size > maxUpload {
		return service.Draft{}, tooLarge(maxUpload)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxUpload+1))
	if err != nil {
		return service.Draft{}, fmt.Errorf("чтение файла: %w", err)
	}
	if int64(len(data)) > maxUpload {
		return service.Draft{}, tooLarge(maxUpload)
	}

	draft.File = &service.File{Name: header.Filename, Data: data}
	return draft, nil
}

func readJSON(r *http.Request) (service.Draft, error) {
	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return service.Draft{}, service.NewValidationError("body", "неверное тело запроса: "+err.Error())
	}
	return request.ToDraft(), nil
}

func formError(err error, maxUpload int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return tooLarge(maxUpload)
	}
	return service.NewValidationError("form", err.Error())
}

func tooLarge(maxUpload int64) error {
	return service.NewValidationError("file", fmt.Sprintf("файл больше %d байт", maxUpload))
}
