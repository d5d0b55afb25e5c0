// File: internal/runlog/runlog_test.go
package runlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRecorderWritesSequencedArtifacts(t *testing.T) {
	root := t.TempDir()
	rec, err := New(root, "0826-120000_tid_demo_abc123", zaptest.NewLogger(t))
	require.NoError(t, err)

	rec.LogText("prompt", "click the button")
	rec.LogJSON("parsed_action", map[string]string{"action": "CLICK"})

	entries, err := os.ReadDir(rec.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "001_prompt.txt", entries[0].Name())
	assert.Equal(t, "002_parsed_action.json", entries[1].Name())

	data, err := os.ReadFile(filepath.Join(rec.Dir(), "002_parsed_action.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"CLICK"`)
}

func TestNilRecorderIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.LogText("prompt", "noop")
		l.LogJSON("raw", struct{}{})
		_ = l.Dir()
	})
}

func TestWriteFailureDoesNotPanic(t *testing.T) {
	rec, err := New(t.TempDir(), "task", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(rec.Dir()))
	require.NoError(t, os.WriteFile(rec.Dir(), []byte("not a dir"), 0o644))

	assert.NotPanics(t, func() { rec.LogText("prompt", "lost") })
}
