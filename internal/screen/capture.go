// File: internal/screen/capture.go
package screen

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Capturer grabs raw pixels for a display region. The production
// implementation delegates to the OS capture API; tests substitute fixtures.
type Capturer interface {
	CaptureRect(bounds image.Rectangle) (*image.RGBA, error)
}

// osCapturer is the production capturer.
type osCapturer struct{}

// NewCapturer returns the OS screen-capture implementation.
func NewCapturer() Capturer {
	return osCapturer{}
}

func (osCapturer) CaptureRect(bounds image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(bounds)
}

// CaptureDisplay resolves the selected display and captures its bounding
// box. The negative-origin fallback in Resolve applies, so the captured
// region never has a negative corner.
func CaptureDisplay(e Enumerator, c Capturer, index int) (*image.RGBA, Display, error) {
	d, err := Resolve(e, index)
	if err != nil {
		return nil, Display{}, err
	}
	img, err := c.CaptureRect(image.Rect(d.X, d.Y, d.X+d.Width, d.Y+d.Height))
	if err != nil {
		return nil, Display{}, fmt.Errorf("capturing display %d: %w", index, err)
	}
	return img, d, nil
}
