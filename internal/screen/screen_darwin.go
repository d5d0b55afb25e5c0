//go:build darwin

// File: internal/screen/screen_darwin.go
package screen

/*
#cgo LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>
*/
import "C"

import (
	"fmt"
)

const maxDisplays = 32

// displayBoundsEnumerator is the darwin strategy: per-display bounds from
// the native CoreGraphics display list.
type displayBoundsEnumerator struct{}

func newPlatformEnumerator() Enumerator {
	return displayBoundsEnumerator{}
}

func (displayBoundsEnumerator) Displays() ([]Display, error) {
	var ids [maxDisplays]C.CGDirectDisplayID
	var count C.uint32_t
	if err := C.CGGetActiveDisplayList(maxDisplays, &ids[0], &count); err != C.kCGErrorSuccess {
		return nil, fmt.Errorf("CGGetActiveDisplayList failed: %d", int(err))
	}
	displays := make([]Display, 0, int(count))
	for i := 0; i < int(count); i++ {
		bounds := C.CGDisplayBounds(ids[i])
		displays = append(displays, Display{
			X:       int(bounds.origin.x),
			Y:       int(bounds.origin.y),
			Width:   int(bounds.size.width),
			Height:  int(bounds.size.height),
			Primary: C.CGDisplayIsMain(ids[i]) != 0,
		})
	}
	return displays, nil
}
