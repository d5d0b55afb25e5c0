//go:build darwin

// File: internal/device/multiclick_darwin.go
package device

/*
#cgo LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>
*/
import "C"

import (
	"errors"
	"time"
)

var errNoNativeMultiClick = errors.New("native multi-click unavailable")

// nativeMultiClick posts a CGEvent click sequence with an increasing click
// state so the window server coalesces it into one double or triple click.
// Synthesized repeat single clicks are not coalesced on macOS.
func nativeMultiClick(x, y, count int) error {
	point := C.CGPointMake(C.double(x), C.double(y))

	move := C.CGEventCreateMouseEvent(0, C.kCGEventMouseMoved, point, C.kCGMouseButtonLeft)
	if move == 0 {
		return errors.New("CGEventCreateMouseEvent failed")
	}
	C.CGEventPost(C.kCGHIDEventTap, move)
	C.CFRelease(C.CFTypeRef(move))
	time.Sleep(10 * time.Millisecond)

	for state := 1; state <= count; state++ {
		down := C.CGEventCreateMouseEvent(0, C.kCGEventLeftMouseDown, point, C.kCGMouseButtonLeft)
		up := C.CGEventCreateMouseEvent(0, C.kCGEventLeftMouseUp, point, C.kCGMouseButtonLeft)
		if down == 0 || up == 0 {
			if down != 0 {
				C.CFRelease(C.CFTypeRef(down))
			}
			if up != 0 {
				C.CFRelease(C.CFTypeRef(up))
			}
			return errors.New("CGEventCreateMouseEvent failed")
		}
		C.CGEventSetIntegerValueField(down, C.kCGMouseEventClickState, C.int64_t(state))
		C.CGEventSetIntegerValueField(up, C.kCGMouseEventClickState, C.int64_t(state))
		C.CGEventPost(C.kCGHIDEventTap, down)
		C.CGEventPost(C.kCGHIDEventTap, up)
		C.CFRelease(C.CFTypeRef(down))
		C.CFRelease(C.CFTypeRef(up))
		time.Sleep(60 * time.Millisecond)
	}
	return nil
}
