package dto

import (
	"time"

	"taskboard/internal/models/task"
	"taskboard/internal/service"
)

type CreateTaskRequest struct {
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
}

func (r CreateTaskRequest) ToDraft() service.Draft {
	return service.Draft{
		Description: r.Description,
		Deadline:    r.Deadline,
	}
}

type TaskResponse struct {
	ID                string    `json:"id"`
	Description       string    `json:"description"`
	Deadline          string    `json:"deadline"`
	DeadlineFormatted string    `json:"deadline_formatted"`
	CreatedAt         time.Time `json:"created_at"`
	FileName          string    `json:"file_name,omitempty"`
	FileURL           string    `json:"file_url,omitempty"`
	IsDone            bool      `json:"is_done"`
	Expired           bool      `json:"expired"`
}

func FromTask(t task.Task, today task.Date) TaskResponse {
	resp := TaskResponse{
		ID:                t.ID,
		Description:       t.Description,
		Deadline:          t.Deadline.String(),
		DeadlineFormatted: t.Deadline.Format(),
		CreatedAt:         t.CreatedAt,
		IsDone:            t.IsDone,
		Expired:           task.IsExpired(t.Deadline, today),
	}
	if t.HasAttachment() {
		resp.FileName = t.AttachedFileName
		resp.FileURL = t.AttachedFileURL
	}
	return resp
}

func FromTaskList(tasks []task.Task, today task.Date) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, today)
	}
	return result
}

type ResultResponse struct {
	Op     string `json:"op"`
	TaskID string `json:"task_id,omitempty"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

func FromResult(r service.Result) ResultResponse {
	resp := ResultResponse{
		Op:     string(r.Op),
		TaskID: r.TaskID,
		OK:     r.OK(),
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}
