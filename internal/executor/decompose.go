// File: internal/executor/decompose.go
// Package executor turns canonical actions into ordered primitive operation
// sequences and streams their execution against the device layer.
package executor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/deskhand/deskhand/api/schemas"
)

// ErrUnsupportedAction tags any action whose type is outside the canonical
// vocabulary. Callers catch it and keep the run alive; nothing executes.
var ErrUnsupportedAction = errors.New("unsupported action")

type decomposeFunc func(schemas.Action) ([]schemas.Operation, error)

// vocabulary is every decomposable action type. STOP and ERROR are absent on
// purpose: both terminate handling upstream and must never reach dispatch.
var vocabulary = []schemas.ActionType{
	schemas.ActionClick,
	schemas.ActionRightClick,
	schemas.ActionDoubleClick,
	schemas.ActionTripleClick,
	schemas.ActionMove,
	schemas.ActionHover,
	schemas.ActionEnter,
	schemas.ActionEsc,
	schemas.ActionEscape,
	schemas.ActionPress,
	schemas.ActionKey,
	schemas.ActionHotkey,
	schemas.ActionInput,
	schemas.ActionDrag,
	schemas.ActionScroll,
	schemas.ActionWait,
	schemas.ActionPause,
	schemas.ActionContinue,
	schemas.ActionScreenshot,
}

var dispatch map[schemas.ActionType]decomposeFunc

func init() {
	dispatch = map[schemas.ActionType]decomposeFunc{
		schemas.ActionClick:       clickPair(schemas.OpLeftClick),
		schemas.ActionRightClick:  clickPair(schemas.OpRightClick),
		schemas.ActionDoubleClick: moveThenBareClick(schemas.OpDoubleClick),
		schemas.ActionTripleClick: moveThenBareClick(schemas.OpTripleClick),
		schemas.ActionMove:        moveOnly,
		schemas.ActionHover:       moveOnly,
		schemas.ActionEnter:       singleKey("Enter"),
		schemas.ActionEsc:         singleKey("Escape"),
		schemas.ActionEscape:      singleKey("Escape"),
		schemas.ActionPress:       moveThenBareClick(schemas.OpLeftPress),
		schemas.ActionKey:         keyAction,
		schemas.ActionHotkey:      keyAction,
		schemas.ActionInput:       inputAction,
		schemas.ActionDrag:        dragAction,
		schemas.ActionScroll:      scrollAction,
		schemas.ActionWait:        waitAction,
		schemas.ActionPause:       noopAction,
		schemas.ActionContinue:    noopAction,
		schemas.ActionScreenshot:  screenshotAction,
	}
	// The table and the vocabulary must stay in lockstep; a new action type
	// with no handler is a programming error worth failing loud at startup.
	for _, t := range vocabulary {
		if _, ok := dispatch[t]; !ok {
			panic(fmt.Sprintf("executor: no decomposition rule for action type %s", t))
		}
	}
}

// Decompose maps one canonical action to its ordered primitive operation
// sequence. The tag is upper-cased on entry; an unknown tag yields
// ErrUnsupportedAction and no operations.
func Decompose(a schemas.Action) ([]schemas.Operation, error) {
	a = schemas.Canonicalize(a)
	fn, ok := dispatch[a.Type]
	if !ok {
		return nil, fmt.Errorf("action type '%s': %w", a.Type, ErrUnsupportedAction)
	}
	return fn(a)
}

func requirePosition(a schemas.Action) (schemas.Point, error) {
	p, ok := a.PositionPoint()
	if !ok {
		return schemas.Point{}, fmt.Errorf("%s action requires a position", a.Type)
	}
	return p, nil
}

// clickPair emits the move-then-click pair for single clicks; the click op
// repeats the coordinate.
func clickPair(kind schemas.OpKind) decomposeFunc {
	return func(a schemas.Action) ([]schemas.Operation, error) {
		p, err := requirePosition(a)
		if err != nil {
			return nil, err
		}
		return []schemas.Operation{
			schemas.MoveOp(p),
			schemas.ClickOp(kind, &p),
		}, nil
	}
}

// moveThenBareClick positions the cursor and then clicks without a
// coordinate; the click lands where the move left the cursor.
func moveThenBareClick(kind schemas.OpKind) decomposeFunc {
	return func(a schemas.Action) ([]schemas.Operation, error) {
		p, err := requirePosition(a)
		if err != nil {
			return nil, err
		}
		return []schemas.Operation{
			schemas.MoveOp(p),
			schemas.ClickOp(kind, nil),
		}, nil
	}
}

func moveOnly(a schemas.Action) ([]schemas.Operation, error) {
	p, err := requirePosition(a)
	if err != nil {
		return nil, err
	}
	return []schemas.Operation{schemas.MoveOp(p)}, nil
}

func singleKey(name string) decomposeFunc {
	return func(schemas.Action) ([]schemas.Operation, error) {
		return []schemas.Operation{schemas.KeyOp(name)}, nil
	}
}

// keyAction handles KEY and HOTKEY. A list value becomes one key press per
// entry; a scalar becomes a single key op and any "+" chord inside it is the
// device layer's to split.
func keyAction(a schemas.Action) ([]schemas.Operation, error) {
	if list, ok := a.ValueStrings(); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("%s action requires at least one key", a.Type)
		}
		ops := make([]schemas.Operation, 0, len(list))
		for _, k := range list {
			ops = append(ops, schemas.KeyOp(k))
		}
		return ops, nil
	}
	key, ok := a.ValueText()
	if !ok || strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%s action requires a key value", a.Type)
	}
	return []schemas.Operation{schemas.KeyOp(key)}, nil
}

func inputAction(a schemas.Action) ([]schemas.Operation, error) {
	text, ok := a.InputText()
	if !ok {
		return nil, errors.New("INPUT action requires a text or value payload")
	}
	return []schemas.Operation{schemas.TypeOp(text)}, nil
}

func dragAction(a schemas.Action) ([]schemas.Operation, error) {
	start, end, ok := a.DragEndpoints()
	if !ok {
		return nil, errors.New("DRAG action requires both start and end coordinates")
	}
	return []schemas.Operation{
		schemas.MoveOp(start),
		schemas.DragOp(end),
	}, nil
}

// scrollAction negates the canonical magnitude: positive canonical value
// means scroll content down, and the device convention is positive = up.
// Direction keywords ("down"/"up") already express intent and pass through
// untouched; the device maps them to its fixed step.
func scrollAction(a schemas.Action) ([]schemas.Operation, error) {
	var magnitude string
	if text, ok := a.ValueText(); ok {
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "down", "up":
			magnitude = strings.ToLower(strings.TrimSpace(text))
		case "left", "right":
			return nil, errors.New("horizontal scroll is not supported")
		}
	}
	if magnitude == "" {
		amount, ok := a.ScrollAmount()
		if !ok {
			return nil, errors.New("SCROLL action requires a numeric value or direction")
		}
		magnitude = strconv.FormatFloat(-amount, 'f', -1, 64)
	}

	if p, ok := a.PositionPoint(); ok {
		return []schemas.Operation{
			schemas.MoveOp(p),
			schemas.ScrollOp(magnitude, &p),
		}, nil
	}
	return []schemas.Operation{schemas.ScrollOp(magnitude, nil)}, nil
}

func waitAction(a schemas.Action) ([]schemas.Operation, error) {
	return []schemas.Operation{schemas.WaitOp(formatSeconds(a.WaitSeconds()))}, nil
}

func noopAction(a schemas.Action) ([]schemas.Operation, error) {
	return []schemas.Operation{schemas.NoopOp(string(a.Type))}, nil
}

func screenshotAction(schemas.Action) ([]schemas.Operation, error) {
	return []schemas.Operation{schemas.ScreenshotOp()}, nil
}

// formatSeconds renders a duration the way the wait primitive expects:
// shortest decimal form, always carrying a fractional part ("2.0", "0.5").
func formatSeconds(s float64) string {
	out := strconv.FormatFloat(s, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}
