// File: internal/runlog/runlog.go
// Package runlog persists per-task diagnostic artifacts: raw and parsed model
// output, prompts, and screenshots. Artifacts are write-only diagnostics;
// nothing in the execution path ever reads them back, and a failed write must
// never abort the step that produced it.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Recorder is the write-only artifact sink handed to the loop and the
// backends. A nil *Logger is a valid no-op recorder.
type Recorder interface {
	LogJSON(name string, v interface{})
	LogText(name, text string)
	Dir() string
}

// Logger writes artifacts into one per-task directory. Sequence numbers keep
// repeated artifacts of the same name ordered and distinct.
type Logger struct {
	dir    string
	seq    atomic.Int64
	logger *zap.Logger
}

// New creates the task directory under root and returns a Logger bound to it.
func New(root, taskID string, logger *zap.Logger) (*Logger, error) {
	dir := filepath.Join(root, taskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run log dir: %w", err)
	}
	return &Logger{dir: dir, logger: logger.Named("runlog")}, nil
}

// Dir returns the task's artifact directory.
func (l *Logger) Dir() string {
	if l == nil {
		return ""
	}
	return l.dir
}

// LogJSON marshals v and writes it as <seq>_<name>.json. Failures are logged
// and swallowed.
func (l *Logger) LogJSON(name string, v interface{}) {
	if l == nil {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		l.logger.Warn("Failed to marshal run artifact.", zap.String("name", name), zap.Error(err))
		return
	}
	l.write(name+".json", data)
}

// LogText writes free text as <seq>_<name>.txt. Failures are logged and
// swallowed.
func (l *Logger) LogText(name, text string) {
	if l == nil {
		return
	}
	l.write(name+".txt", []byte(text))
}

func (l *Logger) write(name string, data []byte) {
	n := l.seq.Add(1)
	path := filepath.Join(l.dir, fmt.Sprintf("%03d_%s", n, name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		l.logger.Warn("Failed to write run artifact.", zap.String("path", path), zap.Error(err))
	}
}
