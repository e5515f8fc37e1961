// Package blob holds what the blob store implementations share: object
// paths for attached files, upload progress reporting and errors.
package blob

import (
	"errors"
	"io"
	"path"
	"strings"
)

const filesPrefix = "files"

var (
	ErrNotFound    = errors.New("файл не найден")
	ErrInvalidName = errors.New("недопустимое имя файла")
)

// ProgressFunc receives the number of bytes written so far and the total
// size (-1 when unknown).
type ProgressFunc func(written, total int64)

// BaseName strips any directory part a client sent along with a file name.
func BaseName(fileName string) (string, error) {
	name := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", ErrInvalidName
	}
	return name, nil
}

// Path derives the object path of an attached file from its name.
func Path(fileName string) (string, error) {
	name, err := BaseName(fileName)
	if err != nil {
		return "", err
	}
	return filesPrefix + "/" + name, nil
}

// CleanPath validates an object path received from outside (URLs).
func CleanPath(p string) (string, error) {
	cleaned := path.Clean("/" + p)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(p, "/") {
		return "", ErrInvalidName
	}
	return cleaned, nil
}

type ProgressReader struct {
	r        io.Reader
	total    int64
	written  int64
	progress ProgressFunc
}

func NewProgressReader(r io.Reader, total int64, progress ProgressFunc) *ProgressReader {
	return &ProgressReader{r: r, total: total, progress: progress}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		if p.progress != nil {
			p.progress(p.written, p.total)
		}
	}
	return n, err
}

func (p *ProgressReader) Written() int64 {
	return p.written
}
