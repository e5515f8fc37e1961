package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Form holds what the user typed, so a rejected form is shown again filled in.
type Form struct {
	Description string
	Deadline    string
}

type Page struct {
	Title string
	Items []Item
	Form  Form
	Error string
	Today string
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("разбор шаблонов: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Page(w io.Writer, p Page) error {
	if p.Title == "" {
		p.Title = "ToDo App"
	}
	return r.tmpl.ExecuteTemplate(w, "page", p)
}

func (r *Renderer) List(w io.Writer, items []Item) error {
	return r.tmpl.ExecuteTemplate(w, "list", items)
}

// ListHTML renders the list fragment to a string, e.g. for an SSE payload.
func (r *Renderer) ListHTML(items []Item) (string, error) {
	var buf bytes.Buffer
	if err := r.List(&buf, items); err != nil {
		return "", err
	}
	return buf.String(), nil
}
