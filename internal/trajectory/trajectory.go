// File: internal/trajectory/trajectory.go
// Package trajectory tracks per-run identity and the textual action history
// the planner consumes as context.
package trajectory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewTaskID mints a run identifier: timestamp, trace name, and a short
// random suffix. The format is shared with external log-mining tooling and
// must not drift.
func NewTaskID(trace string, now time.Time) string {
	if trace == "" {
		trace = "default"
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return fmt.Sprintf("%s_tid_%s_%s", now.Format("0102-150405"), trace, suffix)
}

// History accumulates one formatted entry per executed step. Safe for
// concurrent use; the gateway reads it while the loop appends.
type History struct {
	mu      sync.Mutex
	entries []string
}

// Append records one step. The entry format is part of the planner prompt
// contract.
func (h *History) Append(index int, plan, action string) {
	entry := fmt.Sprintf("Executing guidance trajectory step [%d]: {Plan: %s, Action: %s}\n", index, plan, action)
	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()
}

// Entries returns a copy of the recorded history.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len reports the number of recorded steps.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Clear drops all history. Called on every run exit, normal or fatal.
func (h *History) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}
