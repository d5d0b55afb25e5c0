// File: internal/feedback/marker.go
// Package feedback renders the transient click marker a human operator sees
// before each injected click. The marker runs in a detached child process so
// a windowing-toolkit hang or crash can never stall input execution.
package feedback

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultLife is how long a spawned marker stays on screen.
const DefaultLife = 1600 * time.Millisecond

// Marker shows a short-lived visual cue at a desktop coordinate. Show must
// return immediately; implementations never block on the rendering side.
type Marker interface {
	Show(x, y int)
}

// NopMarker ignores every request. Used when animation is configured off and
// unconditionally on darwin, where the overlay toolkit fights the window
// server.
type NopMarker struct{}

func (NopMarker) Show(int, int) {}

// ProcessMarker re-executes the running binary's hidden marker subcommand as
// a detached child. Spawn failures are logged and dropped; the click that
// follows must not care.
type ProcessMarker struct {
	executable string
	life       time.Duration
	logger     *zap.Logger
}

// NewMarker picks the marker implementation for the current configuration
// and platform.
func NewMarker(enabled bool, logger *zap.Logger) Marker {
	if !enabled || runtime.GOOS == "darwin" {
		return NopMarker{}
	}
	exe, err := os.Executable()
	if err != nil {
		logger.Warn("Cannot resolve own executable; click marker disabled.", zap.Error(err))
		return NopMarker{}
	}
	return &ProcessMarker{executable: exe, life: DefaultLife, logger: logger.Named("marker")}
}

func (m *ProcessMarker) Show(x, y int) {
	cmd := exec.Command(m.executable, "marker",
		"--x", strconv.Itoa(x),
		"--y", strconv.Itoa(y),
		"--life", fmt.Sprintf("%dms", m.life.Milliseconds()),
	)
	// Detach stdio so the child cannot block on the parent's pipes.
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		m.logger.Warn("Failed to spawn click marker process.", zap.Error(err))
		return
	}
	// Reap the child in the background; its exit status is irrelevant.
	go func() { _ = cmd.Wait() }()
}
