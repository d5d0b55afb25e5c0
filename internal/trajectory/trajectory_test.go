// File: internal/trajectory/trajectory_test.go
package trajectory

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskIDFormat(t *testing.T) {
	now := time.Date(2026, 8, 26, 14, 30, 5, 0, time.UTC)
	id := NewTaskID("demo", now)
	assert.Regexp(t, regexp.MustCompile(`^0826-143005_tid_demo_[0-9a-f]{6}$`), id)
}

func TestNewTaskIDEmptyTrace(t *testing.T) {
	id := NewTaskID("", time.Now())
	assert.Contains(t, id, "_tid_default_")
}

func TestNewTaskIDUnique(t *testing.T) {
	now := time.Now()
	assert.NotEqual(t, NewTaskID("a", now), NewTaskID("a", now))
}

func TestHistoryEntryFormat(t *testing.T) {
	var h History
	h.Append(0, "click the gear icon", `{"action":"CLICK"}`)

	entries := h.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t,
		"Executing guidance trajectory step [0]: {Plan: click the gear icon, Action: {\"action\":\"CLICK\"}}\n",
		entries[0])
}

func TestHistoryClear(t *testing.T) {
	var h History
	h.Append(0, "p", "a")
	h.Append(1, "p", "a")
	assert.Equal(t, 2, h.Len())

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Entries())
}

func TestHistoryEntriesReturnsCopy(t *testing.T) {
	var h History
	h.Append(0, "p", "a")
	entries := h.Entries()
	entries[0] = "mutated"
	assert.NotEqual(t, "mutated", h.Entries()[0])
}
