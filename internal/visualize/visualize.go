// File: internal/visualize/visualize.go
// Package visualize writes diagnostic copies of screenshots with the
// acted-upon coordinate marked. Purely write-only artifacts; failures are the
// caller's to log and ignore.
package visualize

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

const (
	crossArm   = 12
	crossWidth = 2
)

var crossColor = color.RGBA{R: 0xE5, G: 0x2B, B: 0x2B, A: 0xFF}

// Mark reads the screenshot at srcPath, draws a red cross at (x, y), and
// writes the copy next to the destination directory as
// <basename>_marked.png. Returns the written path.
func Mark(srcPath, dstDir string, x, y int) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("opening screenshot: %w", err)
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decoding screenshot: %w", err)
	}

	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)
	drawCross(canvas, x, y)

	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	dst := filepath.Join(dstDir, base+"_marked.png")

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating marked copy: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, canvas); err != nil {
		return "", fmt.Errorf("encoding marked copy: %w", err)
	}
	return dst, nil
}

func drawCross(img *image.RGBA, x, y int) {
	bounds := img.Bounds()
	for d := -crossArm; d <= crossArm; d++ {
		for w := -crossWidth; w <= crossWidth; w++ {
			setIn(img, bounds, x+d, y+w)
			setIn(img, bounds, x+w, y+d)
		}
	}
}

func setIn(img *image.RGBA, bounds image.Rectangle, x, y int) {
	if image.Pt(x, y).In(bounds) {
		img.SetRGBA(x, y, crossColor)
	}
}
