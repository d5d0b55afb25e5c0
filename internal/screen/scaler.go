// File: internal/screen/scaler.go
package screen

import (
	"fmt"
	"math"
)

// Target is one of the canonical resolutions coordinates are scaled to.
type Target struct {
	Name   string
	Width  int
	Height int
}

// The predefined scaling targets, in aspect-ratio match order.
var (
	TargetXGA   = Target{Name: "XGA", Width: 1024, Height: 768}    // 4:3
	TargetWXGA  = Target{Name: "WXGA", Width: 1280, Height: 800}   // 16:10
	TargetFWXGA = Target{Name: "FWXGA", Width: 1366, Height: 768}  // ~16:9
)

var scalingTargets = []Target{TargetXGA, TargetWXGA, TargetFWXGA}

// aspectTolerance absorbs displays whose ratio is close to but not exactly a
// canonical one (1366x768 is not exactly 16:9).
const aspectTolerance = 0.02

// Source distinguishes the direction of a coordinate conversion.
type Source int

const (
	// SourceAPI converts logical backend coordinates up to device pixels.
	SourceAPI Source = iota
	// SourceComputer converts device pixels down to logical coordinates.
	SourceComputer
)

// Scaler maps coordinates between the real display resolution and the chosen
// canonical target. Construct one per run; the display size is fixed at
// construction the same way the selected index is.
type Scaler struct {
	width   int
	height  int
	enabled bool
	target  Target
	matched bool
}

// NewScaler picks the scaling target for a display: the first predefined
// target whose aspect ratio matches within tolerance and whose width is
// smaller than the real width. No match falls back to WXGA.
func NewScaler(width, height int, enabled bool) *Scaler {
	s := &Scaler{width: width, height: height, enabled: enabled, target: TargetWXGA}
	if height <= 0 {
		return s
	}
	ratio := float64(width) / float64(height)
	for _, t := range scalingTargets {
		if math.Abs(float64(t.Width)/float64(t.Height)-ratio) < aspectTolerance {
			if t.Width < width {
				s.target = t
				s.matched = true
			}
			break
		}
	}
	return s
}

// Target returns the chosen canonical resolution.
func (s *Scaler) Target() Target {
	return s.target
}

// RatioMatched reports whether a predefined target actually matched the
// display's aspect ratio. When false the WXGA fallback is in effect and
// screenshots are padded to 16:10 before resizing.
func (s *Scaler) RatioMatched() bool {
	return s.matched
}

// Scale converts a coordinate between logical and device space. SourceAPI
// input beyond the real display bounds is an error rather than a clamp; the
// backend has hallucinated a point that does not exist.
func (s *Scaler) Scale(source Source, x, y int) (int, int, error) {
	if !s.enabled {
		return x, y, nil
	}
	xFactor := float64(s.target.Width) / float64(s.width)
	yFactor := float64(s.target.Height) / float64(s.height)
	if source == SourceAPI {
		if x > s.width || y > s.height {
			return 0, 0, fmt.Errorf("coordinates %d, %d are out of bounds", x, y)
		}
		return int(math.Round(float64(x) / xFactor)), int(math.Round(float64(y) / yFactor)), nil
	}
	return int(math.Round(float64(x) * xFactor)), int(math.Round(float64(y) * yFactor)), nil
}
