// File: internal/device/tool.go
// Package device executes primitive operations against the live OS input
// subsystem. One Tool instance is bound to one selected display for the
// lifetime of a run; its offset and scaling target never change mid-task.
package device

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/feedback"
	"github.com/deskhand/deskhand/internal/input"
	"github.com/deskhand/deskhand/internal/screen"
)

// directScrollStep is the fixed wheel magnitude for direction-only scrolls.
const directScrollStep = 200

// darwinScrollDivisor converts pixel-ish scroll amounts into the coarser
// wheel units macOS expects.
const darwinScrollDivisor = 14

// tripleClickDelay is the shorter marker settle used for triple clicks and
// press-and-hold, matching the faster visual rhythm of those gestures.
const tripleClickDelay = 500 * time.Millisecond

// Tool executes one primitive operation at a time. It is not safe for
// concurrent use; the single-worker-per-run invariant is the caller's.
type Tool struct {
	cfg      config.InputConfig
	injector input.Injector
	keymap   *input.Keymap
	marker   feedback.Marker
	enum     screen.Enumerator
	capturer screen.Capturer
	scaler   *screen.Scaler
	logger   *zap.Logger

	selected         int
	offsetX, offsetY int
	width, height    int
	outputDir        string
	animate          bool

	// Overridable seams for tests.
	sleep func(time.Duration)
	goos  string
}

// NewTool binds a Tool to the selected display. Enumeration happens here
// once to fix the offset and scaling target; screenshots re-enumerate per
// capture because topology can change between steps.
func NewTool(
	inputCfg config.InputConfig,
	screenCfg config.ScreenConfig,
	outputDir string,
	injector input.Injector,
	enum screen.Enumerator,
	capturer screen.Capturer,
	marker feedback.Marker,
	logger *zap.Logger,
) (*Tool, error) {
	d, err := screen.Resolve(enum, screenCfg.SelectedIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving selected display: %w", err)
	}

	t := &Tool{
		cfg:       inputCfg,
		injector:  injector,
		keymap:    input.NewKeymap(),
		marker:    marker,
		enum:      enum,
		capturer:  capturer,
		scaler:    screen.NewScaler(d.Width, d.Height, screenCfg.ScalingEnabled),
		logger:    logger.Named("device"),
		selected:  screenCfg.SelectedIndex,
		offsetX:   d.X,
		offsetY:   d.Y,
		width:     d.Width,
		height:    d.Height,
		outputDir: outputDir,
		animate:   inputCfg.AnimationEnabled && runtime.GOOS != "darwin",
		sleep:     time.Sleep,
		goos:      runtime.GOOS,
	}
	t.logger.Info("Device tool bound to display.",
		zap.Int("screen_index", t.selected),
		zap.Int("offset_x", t.offsetX),
		zap.Int("offset_y", t.offsetY),
		zap.Int("width", t.width),
		zap.Int("height", t.height),
		zap.String("scaling_target", t.scaler.Target().Name),
	)
	return t, nil
}

// ScalingTarget exposes the resolution screenshots are resized to.
func (t *Tool) ScalingTarget() screen.Target {
	return t.scaler.Target()
}

// Execute runs one primitive operation and wraps the outcome in the uniform
// result envelope. It never returns a Go error; every failure, precondition
// or device-level, becomes an error-typed result.
func (t *Tool) Execute(op schemas.Operation) schemas.Result {
	res, err := t.run(op)
	if err != nil {
		var opErr *OpError
		if errors.As(err, &opErr) {
			t.logger.Warn("Operation rejected.", zap.String("op", string(op.Kind)), zap.String("reason", opErr.Message))
			return schemas.NewErrorResult(opErr.Message)
		}
		t.logger.Error("Operation failed.", zap.String("op", string(op.Kind)), zap.Error(err))
		return schemas.NewErrorResult(err.Error())
	}
	return res
}

func (t *Tool) run(op schemas.Operation) (schemas.Result, error) {
	switch op.Kind {
	case schemas.OpMouseMove:
		return t.mouseMove(op)
	case schemas.OpLeftClickDrag:
		return t.drag(op)
	case schemas.OpKey, schemas.OpKeyDown, schemas.OpKeyUp, schemas.OpType:
		return t.keyAction(op)
	case schemas.OpLeftClick, schemas.OpRightClick, schemas.OpMiddleClick,
		schemas.OpDoubleClick, schemas.OpTripleClick, schemas.OpLeftPress:
		return t.clickAction(op)
	case schemas.OpScroll:
		return t.scroll(op)
	case schemas.OpWait:
		return t.wait(op)
	case schemas.OpScreenshot:
		return t.screenshot(op)
	case schemas.OpCursorPosition:
		return t.cursorPosition(op)
	case schemas.OpNoop:
		label := op.TextPayload()
		if label == "" {
			label = "NOOP"
		}
		return schemas.NewActionResult(label+" acknowledged", "noop"), nil
	default:
		return schemas.Result{}, opErrorf("invalid action: %s", op.Kind)
	}
}

// -- Coordinate resolution --

// resolveTarget maps an explicit API-space coordinate into global desktop
// pixels: scaling first, then the display offset.
func (t *Tool) resolveTarget(p schemas.Point) (int, int, error) {
	x, y, err := t.scaler.Scale(screen.SourceAPI, p.X, p.Y)
	if err != nil {
		return 0, 0, opErrorf("%s", err.Error())
	}
	return x + t.offsetX, y + t.offsetY, nil
}

// targetOrCursor resolves the operation's coordinate, falling back to the
// live cursor position read from the OS.
func (t *Tool) targetOrCursor(op schemas.Operation) (int, int, error) {
	if op.Coordinate == nil {
		x, y := t.injector.CursorPosition()
		return x, y, nil
	}
	return t.resolveTarget(*op.Coordinate)
}

// -- Handlers --

func (t *Tool) mouseMove(op schemas.Operation) (schemas.Result, error) {
	if op.Coordinate == nil {
		return schemas.Result{}, opErrorf("coordinate is required for %s", op.Kind)
	}
	if op.Text != nil {
		return schemas.Result{}, opErrorf("text is not accepted for %s", op.Kind)
	}
	x, y, err := t.resolveTarget(*op.Coordinate)
	if err != nil {
		return schemas.Result{}, err
	}
	if err := t.injector.MoveMouse(x, y); err != nil {
		return schemas.Result{}, fmt.Errorf("mouse move: %w", err)
	}
	return schemas.NewActionResult("Mouse move", "move"), nil
}

func (t *Tool) drag(op schemas.Operation) (schemas.Result, error) {
	if op.Coordinate == nil {
		return schemas.Result{}, opErrorf("coordinate is required for %s", op.Kind)
	}
	x, y, err := t.resolveTarget(*op.Coordinate)
	if err != nil {
		return schemas.Result{}, err
	}
	if err := t.injector.Drag(x, y); err != nil {
		return schemas.Result{}, fmt.Errorf("drag: %w", err)
	}
	return schemas.NewActionResult("Mouse drag", "move"), nil
}

func (t *Tool) keyAction(op schemas.Operation) (schemas.Result, error) {
	if op.Text == nil {
		return schemas.Result{}, opErrorf("text is required for %s", op.Kind)
	}
	if op.Coordinate != nil {
		return schemas.Result{}, opErrorf("coordinate is not accepted for %s", op.Kind)
	}
	text := *op.Text

	switch op.Kind {
	case schemas.OpKey:
		// Chord semantics: press every key down in order, release in
		// reverse order.
		keys := t.keymap.SplitChord(text)
		if len(keys) == 0 {
			return schemas.Result{}, opErrorf("empty key for %s", op.Kind)
		}
		for _, k := range keys {
			if err := t.injector.KeyDown(k); err != nil {
				return schemas.Result{}, fmt.Errorf("key down: %w", err)
			}
		}
		for i := len(keys) - 1; i >= 0; i-- {
			if err := t.injector.KeyUp(keys[i]); err != nil {
				return schemas.Result{}, fmt.Errorf("key up: %w", err)
			}
		}
		return schemas.NewActionResult(fmt.Sprintf("Press key '%s'", text), "key"), nil

	case schemas.OpKeyDown:
		if err := t.injector.KeyDown(t.keymap.Translate(text)); err != nil {
			return schemas.Result{}, fmt.Errorf("key down: %w", err)
		}
		return schemas.NewActionResult(fmt.Sprintf("Press key '%s'", text), "key"), nil

	case schemas.OpKeyUp:
		if err := t.injector.KeyUp(t.keymap.Translate(text)); err != nil {
			return schemas.Result{}, fmt.Errorf("key up: %w", err)
		}
		return schemas.NewActionResult(fmt.Sprintf("Release key '%s'", text), "key"), nil

	default: // OpType
		delay := time.Duration(t.cfg.TypingDelayMS) * time.Millisecond
		for _, group := range chunks(text, t.cfg.TypingGroupSize) {
			if err := t.injector.TypeText(group, delay); err != nil {
				return schemas.Result{}, fmt.Errorf("type: %w", err)
			}
		}
		return schemas.NewActionResult(fmt.Sprintf("Type '%s'", text), "type"), nil
	}
}

func (t *Tool) clickAction(op schemas.Operation) (schemas.Result, error) {
	if op.Text != nil {
		return schemas.Result{}, opErrorf("text is not accepted for %s", op.Kind)
	}
	x, y, err := t.targetOrCursor(op)
	if err != nil {
		return schemas.Result{}, err
	}

	switch op.Kind {
	case schemas.OpLeftClick:
		t.animateClick(x, y, t.clickDelay())
		if err := t.injector.Click(x, y, input.ButtonLeft, 1); err != nil {
			return schemas.Result{}, fmt.Errorf("left click: %w", err)
		}
		return schemas.NewActionResult("Left click", "click"), nil

	case schemas.OpRightClick:
		t.animateClick(x, y, t.clickDelay())
		if err := t.injector.Click(x, y, input.ButtonRight, 1); err != nil {
			return schemas.Result{}, fmt.Errorf("right click: %w", err)
		}
		return schemas.NewActionResult("Right click", "click"), nil

	case schemas.OpMiddleClick:
		t.animateClick(x, y, t.clickDelay())
		if err := t.injector.Click(x, y, input.ButtonMiddle, 1); err != nil {
			return schemas.Result{}, fmt.Errorf("middle click: %w", err)
		}
		return schemas.NewActionResult("Middle click", "click"), nil

	case schemas.OpDoubleClick:
		if err := t.multiClick(x, y, 2, t.clickDelay()); err != nil {
			return schemas.Result{}, fmt.Errorf("double click: %w", err)
		}
		return schemas.NewActionResult("Double click", "click"), nil

	case schemas.OpTripleClick:
		if err := t.multiClick(x, y, 3, tripleClickDelay); err != nil {
			return schemas.Result{}, fmt.Errorf("triple click: %w", err)
		}
		return schemas.NewActionResult("Triple click", "click"), nil

	default: // OpLeftPress
		t.animateClick(x, y, tripleClickDelay)
		if err := t.injector.ButtonDown(x, y, input.ButtonLeft); err != nil {
			return schemas.Result{}, fmt.Errorf("left press: %w", err)
		}
		t.sleep(time.Duration(t.cfg.PressHoldMS) * time.Millisecond)
		if err := t.injector.ButtonUp(x, y, input.ButtonLeft); err != nil {
			return schemas.Result{}, fmt.Errorf("left press release: %w", err)
		}
		return schemas.NewActionResult("Left press", "click"), nil
	}
}

// multiClick issues a double or triple click. On darwin the native CGEvent
// click-state sequence is tried first because synthesized repeat clicks are
// not coalesced there; the injector path is the fallback.
func (t *Tool) multiClick(x, y, count int, delay time.Duration) error {
	if t.goos == "darwin" {
		if err := nativeMultiClick(x, y, count); err == nil {
			return nil
		} else if !errors.Is(err, errNoNativeMultiClick) {
			t.logger.Warn("Native multi-click failed; falling back to injector.", zap.Error(err))
		}
	} else {
		t.animateClick(x, y, delay)
	}
	return t.injector.Click(x, y, input.ButtonLeft, count)
}

func (t *Tool) clickDelay() time.Duration {
	return time.Duration(t.cfg.ClickDelayMS) * time.Millisecond
}

// animateClick shows the feedback marker and holds long enough for a human
// to see where the click will land. Marker failures are swallowed inside
// the marker; this never blocks on the rendering side.
func (t *Tool) animateClick(x, y int, delay time.Duration) {
	if !t.animate {
		return
	}
	t.marker.Show(x, y)
	t.sleep(delay)
}

func (t *Tool) scroll(op schemas.Operation) (schemas.Result, error) {
	if op.Text == nil {
		return schemas.Result{}, opErrorf("text is required for %s", op.Kind)
	}
	text := strings.TrimSpace(*op.Text)

	var amount int
	switch strings.ToLower(text) {
	case "down":
		amount = -directScrollStep
	case "up":
		amount = directScrollStep
	default:
		raw, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return schemas.Result{}, opErrorf("scroll amount must be an integer, got '%s'", text)
		}
		amount = int(raw)
		if t.goos == "darwin" {
			scaled := amount / darwinScrollDivisor
			// Preserve intent for small nonzero amounts that round to zero.
			if scaled == 0 && amount != 0 {
				if amount > 0 {
					scaled = 1
				} else {
					scaled = -1
				}
			}
			amount = scaled
		}
	}

	if op.Coordinate != nil {
		x, y, err := t.resolveTarget(*op.Coordinate)
		if err != nil {
			return schemas.Result{}, err
		}
		if err := t.injector.ScrollAt(x, y, amount); err != nil {
			return schemas.Result{}, fmt.Errorf("scroll: %w", err)
		}
	} else if err := t.injector.Scroll(amount); err != nil {
		return schemas.Result{}, fmt.Errorf("scroll: %w", err)
	}
	return schemas.NewActionResult(fmt.Sprintf("Scroll %d", amount), "scroll"), nil
}

func (t *Tool) wait(op schemas.Operation) (schemas.Result, error) {
	seconds := 5.0
	if op.Text != nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(*op.Text), 64); err == nil {
			seconds = parsed
		}
	}
	if seconds < 0 {
		seconds = 0
	}
	t.sleep(time.Duration(seconds * float64(time.Second)))
	return schemas.NewActionResult(fmt.Sprintf("Waited %g seconds", seconds), "wait"), nil
}

func (t *Tool) cursorPosition(op schemas.Operation) (schemas.Result, error) {
	if op.Text != nil || op.Coordinate != nil {
		return schemas.Result{}, opErrorf("no arguments accepted for %s", op.Kind)
	}
	x, y := t.injector.CursorPosition()
	return schemas.NewTextResult(fmt.Sprintf("Cursor position (%d,%d)", x, y), "cursor_position"), nil
}

// chunks splits text into typing groups so one runaway string cannot hold
// the injection layer in a single uninterruptible call.
func chunks(s string, size int) []string {
	if size <= 0 || len(s) <= size {
		return []string{s}
	}
	runes := []rune(s)
	out := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}
