// File: internal/feedback/overlay.go
package feedback

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
)

const markerSize = 50

// RenderOverlay runs the marker window event loop. It is only ever called
// from the hidden marker subcommand, inside the spawned child process; it
// blocks until the marker's lifetime elapses.
func RenderOverlay(x, y int, life time.Duration) {
	a := app.New()

	var w fyne.Window
	if drv, ok := a.Driver().(desktop.Driver); ok {
		// A splash window has no decorations and stays above normal windows.
		w = drv.CreateSplashWindow()
	} else {
		w = a.NewWindow("")
	}

	ring := canvas.NewCircle(color.Transparent)
	ring.StrokeColor = color.NRGBA{R: 0xE5, G: 0x39, B: 0x35, A: 0xE0}
	ring.StrokeWidth = 4

	dot := canvas.NewCircle(color.NRGBA{R: 0xE5, G: 0x39, B: 0x35, A: 0x90})

	w.SetContent(container.NewStack(ring, dot))
	w.Resize(fyne.NewSize(markerSize, markerSize))

	go func() {
		time.Sleep(life)
		fyne.Do(a.Quit)
	}()

	w.Show()
	// Best effort placement at the click point; not every window manager
	// honors programmatic moves for override-redirect windows.
	moveWindow(w, x-markerSize/2, y-markerSize/2)
	a.Run()
}

func moveWindow(w fyne.Window, x, y int) {
	type mover interface {
		SetPos(fyne.Position)
	}
	if m, ok := w.(mover); ok {
		m.SetPos(fyne.NewPos(float32(x), float32(y)))
	}
}
