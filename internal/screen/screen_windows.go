//go:build windows

// File: internal/screen/screen_windows.go
package screen

import (
	"github.com/kbinani/screenshot"
)

// monitorEnumerator is the windows strategy: the monitor-enumeration API
// exposed through the screenshot library's active display list.
type monitorEnumerator struct{}

func newPlatformEnumerator() Enumerator {
	return monitorEnumerator{}
}

func (monitorEnumerator) Displays() ([]Display, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, ErrNoDisplays
	}
	displays := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		displays = append(displays, Display{
			X:      bounds.Min.X,
			Y:      bounds.Min.Y,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			// Display 0 holds the primary monitor in this API.
			Primary: i == 0,
		})
	}
	return displays, nil
}
