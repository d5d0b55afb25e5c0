// File: internal/screen/screen.go
// Package screen resolves multi-monitor geometry: which physical display a
// zero-based index refers to, where that display sits in global desktop
// pixel space, and how raw pixels map onto the canonical scaling targets.
//
// Displays are re-enumerated on every call because monitor topology can
// change between steps (docking, projector attach). The selected index is
// the caller's to keep stable for the lifetime of a run.
package screen

import (
	"errors"
	"fmt"
	"sort"
)

// ErrIndexOutOfRange reports a selected-screen index outside [0, count).
var ErrIndexOutOfRange = errors.New("screen index out of range")

// ErrNoDisplays reports that enumeration found no connected displays.
var ErrNoDisplays = errors.New("no displays detected")

// Display describes one physical monitor in global desktop pixel space.
type Display struct {
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// Enumerator lists the connected displays. One implementation per target OS
// is selected at build time; tests substitute fixtures.
type Enumerator interface {
	Displays() ([]Display, error)
}

// NewEnumerator returns the enumeration strategy for the build platform:
// a monitor-enumeration API on windows, per-display bounds via CoreGraphics
// on darwin, and xrandr output parsing on linux.
func NewEnumerator() Enumerator {
	return newPlatformEnumerator()
}

// Resolve enumerates fresh, sorts the displays left to right by x origin,
// and returns the display at the given index. Index 0 is always the
// leftmost monitor on every platform. An index outside [0, count) is an
// error, never clamped.
//
// A display reporting a negative origin is a known source of downstream
// capture failures; in that case the primary display's bounds are
// substituted.
func Resolve(e Enumerator, index int) (Display, error) {
	displays, err := e.Displays()
	if err != nil {
		return Display{}, fmt.Errorf("enumerating displays: %w", err)
	}
	if len(displays) == 0 {
		return Display{}, ErrNoDisplays
	}

	sort.SliceStable(displays, func(i, j int) bool { return displays[i].X < displays[j].X })

	if index < 0 || index >= len(displays) {
		return Display{}, fmt.Errorf("index %d with %d display(s): %w", index, len(displays), ErrIndexOutOfRange)
	}

	selected := displays[index]
	if selected.X < 0 || selected.Y < 0 {
		if primary, ok := primaryOf(displays); ok {
			return primary, nil
		}
	}
	return selected, nil
}

// Offset returns the selected display's origin in global desktop pixel
// space.
func Offset(e Enumerator, index int) (x, y int, err error) {
	d, err := Resolve(e, index)
	if err != nil {
		return 0, 0, err
	}
	return d.X, d.Y, nil
}

func primaryOf(displays []Display) (Display, bool) {
	for _, d := range displays {
		if d.Primary {
			return d, true
		}
	}
	return Display{}, false
}

// Detail is one line of the human-readable display listing.
type Detail struct {
	Index    int
	Display  Display
	Layout   string // Left, Center, Right
	Position string // Primary, Secondary
}

// Details enumerates and annotates every display for operator-facing
// listings, and reports which sorted index holds the primary monitor.
func Details(e Enumerator) ([]Detail, int, error) {
	displays, err := e.Displays()
	if err != nil {
		return nil, 0, fmt.Errorf("enumerating displays: %w", err)
	}
	if len(displays) == 0 {
		return nil, 0, ErrNoDisplays
	}

	sort.SliceStable(displays, func(i, j int) bool { return displays[i].X < displays[j].X })

	details := make([]Detail, 0, len(displays))
	primaryIndex := 0
	for i, d := range displays {
		layout := "Center"
		switch {
		case i == 0:
			layout = "Left"
		case i == len(displays)-1:
			layout = "Right"
		}
		position := "Secondary"
		if d.Primary {
			position = "Primary"
			primaryIndex = i
		}
		details = append(details, Detail{Index: i, Display: d, Layout: layout, Position: position})
	}
	return details, primaryIndex, nil
}

// String renders a Detail the way the screens command prints it.
func (d Detail) String() string {
	return fmt.Sprintf("Screen %d: %dx%d, %s, %s", d.Index+1, d.Display.Width, d.Display.Height, d.Layout, d.Position)
}
