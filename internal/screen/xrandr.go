// File: internal/screen/xrandr.go
package screen

import (
	"regexp"
	"strconv"
	"strings"
)

// xrandr connected-output geometry, e.g.
//   eDP-1 connected primary 1920x1080+0+0 (normal left ...) 309mm x 174mm
var xrandrGeometry = regexp.MustCompile(`(\d+)x(\d+)\+(-?\d+)\+(-?\d+)`)

// parseXrandrPrimary extracts the primary output's geometry from xrandr
// output. The reported offset is deliberately discarded: the linux strategy
// assumes a single primary display anchored at (0,0).
func parseXrandrPrimary(output string) (Display, bool) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, " connected") || !strings.Contains(line, "primary") {
			continue
		}
		m := xrandrGeometry.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		width, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		height, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		return Display{X: 0, Y: 0, Width: width, Height: height, Primary: true}, true
	}
	return Display{}, false
}
