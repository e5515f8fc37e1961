package tui

import (
	"strings"

	"taskboard/internal/view"
)

const noCursor = -1

// RenderList draws items one per line. cursor marks the selected row;
// pass a negative value for a plain listing.
func RenderList(items []view.Item, cursor int) string {
	if len(items) == 0 {
		return emptyStyle.Render("Задач пока нет")
	}

	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		row := renderItem(it)
		if i == cursor {
			b.WriteString(selectedStyle.Render(row))
		} else {
			b.WriteString(itemStyle.Render(row))
		}
	}
	return b.String()
}

func renderItem(it view.Item) string {
	check := "[ ]"
	desc := it.Description
	if it.Done {
		check = "[x]"
		desc = doneStyle.Render(desc)
	}

	parts := []string{check, desc, metaStyle.Render("Дедлайн: " + it.Deadline)}
	if it.Expired {
		parts = append(parts, expiredStyle.Render("Срок истек"))
	}
	if it.HasFile {
		parts = append(parts, metaStyle.Render("Файл: "+it.FileName))
	}
	return strings.Join(parts, "  ")
}
