package blob_test

import (
	"bytes"
	"io"
	"testing"

	"taskboard/internal/blob"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected string
		err      error
	}{
		{name: "plain", fileName: "report.pdf", expected: "files/report.pdf"},
		{name: "unix dirs stripped", fileName: "/home/u/report.pdf", expected: "files/report.pdf"},
		{name: "windows dirs stripped", fileName: `C:\docs\report.pdf`, expected: "files/report.pdf"},
		{name: "traversal", fileName: "../../etc/passwd", expected: "files/passwd"},
		{name: "empty", fileName: "", err: blob.ErrInvalidName},
		{name: "dot dot", fileName: "..", err: blob.ErrInvalidName},
		{name: "slash", fileName: "/", err: blob.ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := blob.Path(tt.fileName)
			name, nameErr := blob.BaseName(tt.fileName)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.ErrorIs(t, nameErr, tt.err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, nameErr)
			assert.Equal(t, tt.expected, p)
			assert.Equal(t, "files/"+name, p)
		})
	}
}

func TestCleanPath(t *testing.T) {
	p, err := blob.CleanPath("files/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "files/report.pdf", p)

	for _, bad := range []string{"", "../secret", "files/../../x", "files//x"} {
		_, err := blob.CleanPath(bad)
		assert.ErrorIs(t, err, blob.ErrInvalidName, bad)
	}
}

func TestProgressReader(t *testing.T) {
	data := bytes.Repeat([]byte("a"), 10)
	var calls [][2]int64

	r := blob.NewProgressReader(bytes.NewReader(data), int64(len(data)), func(written, total int64) {
		calls = append(calls, [2]int64{written, total})
	})

	buf := make([]byte, 4)
	for {
		_, err := r.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, int64(10), r.Written())
	require.NotEmpty(t, calls)
	assert.Equal(t, [2]int64{10, 10}, calls[len(calls)-1])
	for i := 1; i < len(calls); i++ {
		assert.Greater(t, calls[i][0], calls[i-1][0])
	}
}
