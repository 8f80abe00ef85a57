package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{name: "precision 1", precision: 1, value: 66.666, expected: "66.7"},
		{name: "precision 0", precision: 0, value: 33.3, expected: "33"},
		{name: "precision 2", precision: 2, value: 100, expected: "100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]any{"status": "pending", "total": 3}))
	assert.Equal(t, "{\n  \"status\": \"pending\",\n  \"total\": 3\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"path", "last_error"}, func(w *csv.Writer) error {
		return w.Write([]string{"DAL/OrderRepository.cs", "no artifacts, try again"})
	})
	require.NoError(t, err)
	assert.Equal(t, "path,last_error\nDAL/OrderRepository.cs,\"no artifacts, try again\"\n", buf.String())

	err = writeCSVWithHeader(&buf, []string{"path"}, func(*csv.Writer) error { return assert.AnError })
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFile(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		called := false
		err := writeWithFile("", func(io.Writer) error {
			called = true
			return nil
		}, "Wrote table")
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "status.txt")
		require.NoError(t, writeWithFile(out, func(w io.Writer) error {
			_, err := w.Write([]byte("migrating"))
			return err
		}, "Wrote table"))
		content, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "migrating", string(content))
	})

	t.Run("writer error", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "status.txt")
		err := writeWithFile(out, func(io.Writer) error { return assert.AnError }, "Wrote table")
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := writeWithFile("/nonexistent/path/file.txt", func(io.Writer) error { return nil }, "Wrote table")
		assert.Error(t, err)
	})
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", formatTime(time.Time{}))
	assert.Equal(t, "-", formatOptionalTime(nil))

	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01T09:30:00Z", formatTime(ts))
	assert.Equal(t, "2026-03-01T09:30:00Z", formatOptionalTime(&ts))
}
