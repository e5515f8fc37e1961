package task

type Option func(*NewTask)

func NewTaskRequest(description string, deadline Date, opts ...Option) NewTask {
	n := NewTask{
		Description: description,
		Deadline:    deadline,
		IsDone:      false,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&n)
		}
	}
	return n
}

// WithAttachment sets both file fields together; an empty name or url
// leaves the task without an attachment.
func WithAttachment(name, url string) Option {
	if name == "" || url == "" {
		return nil
	}
	return func(n *NewTask) {
		n.AttachedFileName = name
		n.AttachedFileURL = url
	}
}

func SetDone(done bool) Patch {
	return Patch{IsDone: &done}
}
