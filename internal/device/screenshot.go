// File: internal/device/screenshot.go
package device

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/screen"
)

// screenshotSettle lets the UI finish repainting after the previous action
// before the capture fires.
const screenshotSettle = 1 * time.Second

func (t *Tool) screenshot(op schemas.Operation) (schemas.Result, error) {
	if op.Text != nil || op.Coordinate != nil {
		return schemas.Result{}, opErrorf("no arguments accepted for %s", op.Kind)
	}
	t.sleep(screenshotSettle)

	// Topology can change between steps, so the display box is re-resolved
	// on every capture rather than cached from construction.
	img, _, err := screen.CaptureDisplay(t.enum, t.capturer, t.selected)
	if err != nil {
		return schemas.Result{}, fmt.Errorf("capturing screenshot: %w", err)
	}

	path, b64, err := t.persistScreenshot(img)
	if err != nil {
		return schemas.Result{}, err
	}
	t.logger.Debug("Screenshot captured.", zap.String("path", path))
	return schemas.NewImageResult(b64), nil
}

// CaptureScreenshot is the loop-facing capture entry: same pipeline as the
// screenshot operation, returning the saved path alongside the payload.
func (t *Tool) CaptureScreenshot() (path string, b64 string, err error) {
	img, _, err := screen.CaptureDisplay(t.enum, t.capturer, t.selected)
	if err != nil {
		return "", "", fmt.Errorf("capturing screenshot: %w", err)
	}
	return t.persistScreenshot(img)
}

func (t *Tool) persistScreenshot(img image.Image) (string, string, error) {
	framed := t.composeScreenshot(img)

	if err := os.MkdirAll(t.outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output dir: %w", err)
	}
	u := uuid.New()
	path := filepath.Join(t.outputDir, fmt.Sprintf("screenshot_%x.png", u[:]))

	var buf bytes.Buffer
	if err := png.Encode(&buf, framed); err != nil {
		return "", "", fmt.Errorf("encoding screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", "", fmt.Errorf("saving screenshot: %w", err)
	}
	return path, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// composeScreenshot pads the raw capture to a 16:10 canvas when no scaling
// target matched the display's aspect ratio, then resizes to the canonical
// target resolution.
func (t *Tool) composeScreenshot(img image.Image) image.Image {
	out := img
	if !t.scaler.RatioMatched() {
		out = padTo16x10(out)
	}
	target := t.scaler.Target()
	return resize.Resize(uint(target.Width), uint(target.Height), out, resize.Bilinear)
}

// padTo16x10 widens the image onto a white 16:10 canvas, anchored top-left.
func padTo16x10(img image.Image) image.Image {
	bounds := img.Bounds()
	height := bounds.Dy()
	newWidth := height * 16 / 10
	if newWidth <= bounds.Dx() {
		return img
	}
	canvas := image.NewRGBA(image.Rect(0, 0, newWidth, height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, bounds.Dx(), height), img, bounds.Min, draw.Src)
	return canvas
}
