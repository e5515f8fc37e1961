// Package view turns tasks into what a user sees: display items with the
// expiry flag and formatted deadline, and the HTML page and list fragment.
package view

import (
	"net/url"

	"taskboard/internal/models/task"
)

type Item struct {
	ID          string
	Description string
	// Deadline is DD.MM.YYYY.
	Deadline     string
	DeadlineISO  string
	Expired      bool
	Done         bool
	FileName     string
	FileURL      string
	HasFile      bool
	DoneAction   string
	DeleteAction string
}

// NewItem is pure: the same task and day always give the same item.
func NewItem(t task.Task, today task.Date) Item {
	escaped := url.PathEscape(t.ID)
	item := Item{
		ID:           t.ID,
		Description:  t.Description,
		Deadline:     t.Deadline.Format(),
		DeadlineISO:  t.Deadline.String(),
		Expired:      task.IsExpired(t.Deadline, today),
		Done:         t.IsDone,
		DoneAction:   "/tasks/" + escaped + "/done",
		DeleteAction: "/tasks/" + escaped + "/delete",
	}
	if t.HasAttachment() {
		item.HasFile = true
		item.FileName = t.AttachedFileName
		item.FileURL = t.AttachedFileURL
	}
	return item
}

// NewList keeps the order of tasks.
func NewList(tasks []task.Task, today task.Date) []Item {
	items := make([]Item, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, NewItem(t, today))
	}
	return items
}

// Expired counts the items whose deadline has passed.
func Expired(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Expired {
			n++
		}
	}
	return n
}
