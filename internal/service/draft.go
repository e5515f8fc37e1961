package service

import (
	"errors"
	"reflect"
	"strings"

	"taskboard/internal/blob"
	"taskboard/internal/models/task"

	"github.com/go-playground/validator/v10"
)

// Draft is the create-form input as typed by the user.
type Draft struct {
	Description string `json:"description" validate:"notblank"`
	Deadline    string `json:"deadline" validate:"required,datetime=2006-01-02"`
	File        *File  `json:"file" validate:"omitempty"`
}

type File struct {
	Name string `json:"name" validate:"required"`
	Data []byte `json:"-"`
}

var reasons = map[string]string{
	"notblank": "не может быть пустым",
	"required": "обязательное поле",
	"datetime": "ожидается дата в формате ГГГГ-ММ-ДД",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	return v
}

// attachment is where a draft's file goes: the name shown to users and the
// blob path it is stored under. Both come from the same base name.
type attachment struct {
	name string
	path string
}

// parse validates the draft and turns it into an insert request without
// the attachment, plus the attachment of the file if there is one.
func (s *TaskService) parse(d Draft) (task.NewTask, *attachment, error) {
	if err := s.validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return task.NewTask{}, nil, fieldError(verrs[0])
		}
		return task.NewTask{}, nil, NewValidationError("draft", err.Error())
	}

	deadline, err := task.ParseDate(d.Deadline)
	if err != nil {
		return task.NewTask{}, nil, NewValidationError("deadline", reasons["datetime"])
	}

	var att *attachment
	if d.File != nil {
		name, err := blob.BaseName(d.File.Name)
		if err != nil {
			return task.NewTask{}, nil, NewValidationError("file.name", err.Error())
		}
		p, _ := blob.Path(name)
		att = &attachment{name: name, path: p}
	}

	return task.NewTaskRequest(d.Description, deadline), att, nil
}

func fieldError(fe validator.FieldError) *BusinessError {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	reason, ok := reasons[fe.Tag()]
	if !ok {
		reason = fe.Tag()
	}
	return NewValidationError(field, reason)
}
