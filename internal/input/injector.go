// File: internal/input/injector.go
// Package input wraps OS-level synthetic input. The Injector interface is
// the capability boundary the device layer executes against; the robotgo
// implementation is the only production one, and tests substitute mocks.
package input

import (
	"time"
)

// Button names accepted by the click family.
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "center"
)

// Injector issues primitive input events to the live OS. Coordinates are in
// global desktop pixel space; every positional call expects the caller to
// have resolved scaling and monitor offsets already.
type Injector interface {
	// MoveMouse positions the cursor.
	MoveMouse(x, y int) error
	// Click presses and releases a button at the given point.
	Click(x, y int, button string, count int) error
	// ButtonDown and ButtonUp split a click for press-and-hold semantics.
	ButtonDown(x, y int, button string) error
	ButtonUp(x, y int, button string) error
	// Drag moves from the current cursor position to (x, y) with the left
	// button held.
	Drag(x, y int) error
	// KeyTap presses and releases one named key.
	KeyTap(key string) error
	// KeyDown and KeyUp hold and release one named key; chords are built
	// from ordered down calls and reverse-ordered up calls.
	KeyDown(key string) error
	KeyUp(key string) error
	// TypeText sends literal text with a fixed per-character delay.
	TypeText(text string, perChar time.Duration) error
	// Scroll moves the wheel by a signed magnitude; positive scrolls up.
	Scroll(amount int) error
	// ScrollAt anchors the scroll at a point before issuing it.
	ScrollAt(x, y int, amount int) error
	// CursorPosition reads the live cursor location from the OS.
	CursorPosition() (x, y int)
}
