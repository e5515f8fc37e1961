package task

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyDescription   = errors.New("описание задачи не может быть пустым")
	ErrNoDeadline         = errors.New("дедлайн должен быть задан")
	ErrAttachmentMismatch = errors.New("имя и ссылка файла задаются только вместе")
)

type Task struct {
	ID               string    `json:"id" db:"id"`
	Description      string    `json:"description" db:"description"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	Deadline         Date      `json:"deadline" db:"deadline"`
	AttachedFileName string    `json:"attached_file_name" db:"attached_file_name"`
	AttachedFileURL  string    `json:"attached_file_url" db:"attached_file_url"`
	IsDone           bool      `json:"is_done" db:"is_done"`
}

// NewTask is an insert request: everything the client supplies.
// ID and CreatedAt are assigned by the store.
type NewTask struct {
	Description      string
	Deadline         Date
	AttachedFileName string
	AttachedFileURL  string
	IsDone           bool
}

// Patch is a partial update. IsDone is the only field mutable after creation.
type Patch struct {
	IsDone *bool
}

func (t Task) HasAttachment() bool {
	return t.AttachedFileName != "" && t.AttachedFileURL != ""
}

func (t Task) IsExpired(now time.Time) bool {
	return IsExpired(t.Deadline, DateOf(now))
}

func (t Task) Validate() error {
	return validate(t.Description, t.Deadline, t.AttachedFileName, t.AttachedFileURL)
}

func (n NewTask) Validate() error {
	return validate(n.Description, n.Deadline, n.AttachedFileName, n.AttachedFileURL)
}

// Build turns an accepted insert request into a stored task.
func (n NewTask) Build(id string, createdAt time.Time) Task {
	return Task{
		ID:               id,
		Description:      n.Description,
		CreatedAt:        createdAt,
		Deadline:         n.Deadline,
		AttachedFileName: n.AttachedFileName,
		AttachedFileURL:  n.AttachedFileURL,
		IsDone:           n.IsDone,
	}
}

func (p Patch) Apply(t *Task) {
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
}

func validate(description string, deadline Date, fileName, fileURL string) error {
	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}
	if deadline.IsZero() {
		return ErrNoDeadline
	}
	if (fileName == "") != (fileURL == "") {
		return ErrAttachmentMismatch
	}
	return nil
}
