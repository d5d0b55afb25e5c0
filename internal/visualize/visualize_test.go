// File: internal/visualize/visualize_test.go
package visualize

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestMarkDrawsCrossAtCoordinate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "screenshot_ab.png")
	writeTestPNG(t, src, 100, 80)

	dst, err := Mark(src, dir, 50, 40)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "screenshot_ab_marked.png"), dst)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	r, _, _, _ := img.At(50, 40).RGBA()
	assert.NotZero(t, r, "cross center should be red")
	cr, cg, cb, _ := img.At(0, 0).RGBA()
	assert.Equal(t, color.RGBA{}.R, uint8(cr>>8))
	assert.Zero(t, cg)
	assert.Zero(t, cb)
}

func TestMarkClipsAtEdges(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "edge.png")
	writeTestPNG(t, src, 30, 30)

	_, err := Mark(src, dir, 0, 0)
	assert.NoError(t, err)
}

func TestMarkMissingSource(t *testing.T) {
	_, err := Mark(filepath.Join(t.TempDir(), "missing.png"), t.TempDir(), 1, 1)
	assert.Error(t, err)
}
