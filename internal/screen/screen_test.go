// File: internal/screen/screen_test.go
package screen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEnumerator returns a fixed display list, unsorted on purpose so the
// tests exercise the left-to-right ordering contract.
type fakeEnumerator struct {
	displays []Display
	err      error
}

func (f fakeEnumerator) Displays() ([]Display, error) {
	return f.displays, f.err
}

func TestResolveSortsLeftToRight(t *testing.T) {
	enum := fakeEnumerator{displays: []Display{
		{X: 1920, Y: 0, Width: 2560, Height: 1440, Primary: true},
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 4480, Y: 0, Width: 1920, Height: 1200},
	}}

	leftmost, err := Resolve(enum, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, leftmost.X)
	assert.Equal(t, 1920, leftmost.Width)

	center, err := Resolve(enum, 1)
	require.NoError(t, err)
	assert.Equal(t, 1920, center.X)
	assert.True(t, center.Primary)

	rightmost, err := Resolve(enum, 2)
	require.NoError(t, err)
	assert.Equal(t, 4480, rightmost.X)
}

func TestResolveIndexOutOfRange(t *testing.T) {
	enum := fakeEnumerator{displays: []Display{
		{X: 0, Y: 0, Width: 1920, Height: 1080, Primary: true},
		{X: 1920, Y: 0, Width: 1920, Height: 1080},
	}}

	_, err := Resolve(enum, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Resolve(enum, -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestResolveNegativeOriginFallsBackToPrimary(t *testing.T) {
	enum := fakeEnumerator{displays: []Display{
		{X: -1920, Y: 0, Width: 1920, Height: 1080},
		{X: 0, Y: 0, Width: 2560, Height: 1440, Primary: true},
	}}

	// Index 0 is the leftmost display, which sits at a negative origin; the
	// capture layer cannot handle that, so the primary bounds substitute.
	d, err := Resolve(enum, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, d.X)
	assert.Equal(t, 2560, d.Width)
	assert.True(t, d.Primary)
}

func TestResolveEnumerationFailure(t *testing.T) {
	enum := fakeEnumerator{err: errors.New("display server gone")}
	_, err := Resolve(enum, 0)
	assert.Error(t, err)

	_, err = Resolve(fakeEnumerator{}, 0)
	assert.ErrorIs(t, err, ErrNoDisplays)
}

func TestOffset(t *testing.T) {
	enum := fakeEnumerator{displays: []Display{
		{X: 0, Y: 0, Width: 1920, Height: 1080, Primary: true},
		{X: 1920, Y: 120, Width: 2560, Height: 1440},
	}}

	x, y, err := Offset(enum, 1)
	require.NoError(t, err)
	assert.Equal(t, 1920, x)
	assert.Equal(t, 120, y)
}

func TestDetails(t *testing.T) {
	enum := fakeEnumerator{displays: []Display{
		{X: 1920, Y: 0, Width: 2560, Height: 1440, Primary: true},
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 4480, Y: 0, Width: 1920, Height: 1200},
	}}

	details, primaryIndex, err := Details(enum)
	require.NoError(t, err)
	require.Len(t, details, 3)

	assert.Equal(t, 1, primaryIndex)
	assert.Equal(t, "Screen 1: 1920x1080, Left, Secondary", details[0].String())
	assert.Equal(t, "Screen 2: 2560x1440, Center, Primary", details[1].String())
	assert.Equal(t, "Screen 3: 1920x1200, Right, Secondary", details[2].String())
}

func TestParseXrandrPrimary(t *testing.T) {
	out := `Screen 0: minimum 320 x 200, current 1920 x 1080, maximum 16384 x 16384
eDP-1 connected primary 1920x1080+0+0 (normal left inverted right x axis y axis) 309mm x 174mm
   1920x1080     60.01*+  59.97    59.96    59.93
HDMI-1 disconnected (normal left inverted right x axis y axis)
`
	d, ok := parseXrandrPrimary(out)
	require.True(t, ok)
	assert.Equal(t, Display{X: 0, Y: 0, Width: 1920, Height: 1080, Primary: true}, d)

	_, ok = parseXrandrPrimary("HDMI-1 disconnected\n")
	assert.False(t, ok)
}
