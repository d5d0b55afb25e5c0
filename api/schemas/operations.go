// File: api/schemas/operations.go
package schemas

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is an integer pixel coordinate. It marshals to the wire form
// [x, y] and tolerates fractional input by rounding, since backends report
// scaled coordinates that are not always whole pixels.
type Point struct {
	X int
	Y int
}

// MarshalJSON encodes the point as a two-element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON decodes a two-element numeric array, rounding fractional
// coordinates to the nearest pixel.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinate must have exactly 2 elements, got %d", len(pair))
	}
	p.X = int(math.Round(pair[0]))
	p.Y = int(math.Round(pair[1]))
	return nil
}

func pointFromRaw(raw json.RawMessage) (Point, bool) {
	if len(raw) == 0 {
		return Point{}, false
	}
	var p Point
	if err := json.Unmarshal(raw, &p); err != nil {
		return Point{}, false
	}
	return p, true
}

// OpKind identifies one primitive device operation.
type OpKind string

const (
	OpMouseMove      OpKind = "mouse_move"
	OpLeftClick      OpKind = "left_click"
	OpRightClick     OpKind = "right_click"
	OpMiddleClick    OpKind = "middle_click"
	OpDoubleClick    OpKind = "double_click"
	OpTripleClick    OpKind = "triple_click"
	OpLeftClickDrag  OpKind = "left_click_drag"
	OpLeftPress      OpKind = "left_press"
	OpKey            OpKind = "key"
	OpKeyDown        OpKind = "key_down"
	OpKeyUp          OpKind = "key_up"
	OpType           OpKind = "type"
	OpScroll         OpKind = "scroll"
	OpWait           OpKind = "wait"
	OpScreenshot     OpKind = "screenshot"
	OpCursorPosition OpKind = "cursor_position"
	OpNoop           OpKind = "noop" // Acknowledgment-only marker for PAUSE/CONTINUE.
)

// Operation is one executable primitive. A canonical action decomposes into
// an ordered sequence of one or two of these, and the order is load bearing:
// a click depends on the cursor position established by the preceding move.
type Operation struct {
	Kind       OpKind  `json:"op"`
	Text       *string `json:"text,omitempty"`
	Coordinate *Point  `json:"coordinate,omitempty"`
}

// MoveOp positions the cursor.
func MoveOp(p Point) Operation {
	return Operation{Kind: OpMouseMove, Coordinate: &p}
}

// ClickOp emits a click-family operation, optionally anchored at a
// coordinate. Double and triple clicks deliberately carry no coordinate;
// they rely on the mouse_move emitted immediately before them.
func ClickOp(kind OpKind, p *Point) Operation {
	return Operation{Kind: kind, Coordinate: p}
}

// DragOp releases a left-button drag at the destination coordinate.
func DragOp(to Point) Operation {
	return Operation{Kind: OpLeftClickDrag, Coordinate: &to}
}

// KeyOp presses a named key or a "+"-delimited chord.
func KeyOp(name string) Operation {
	return Operation{Kind: OpKey, Text: &name}
}

// TypeOp types literal text.
func TypeOp(text string) Operation {
	return Operation{Kind: OpType, Text: &text}
}

// ScrollOp scrolls by a signed magnitude (carried as text), optionally
// anchored at a coordinate.
func ScrollOp(magnitude string, p *Point) Operation {
	return Operation{Kind: OpScroll, Text: &magnitude, Coordinate: p}
}

// WaitOp sleeps for the duration carried as text, in seconds.
func WaitOp(seconds string) Operation {
	return Operation{Kind: OpWait, Text: &seconds}
}

// NoopOp acknowledges an action without any device interaction.
func NoopOp(label string) Operation {
	return Operation{Kind: OpNoop, Text: &label}
}

// ScreenshotOp captures the selected display.
func ScreenshotOp() Operation {
	return Operation{Kind: OpScreenshot}
}

// TextPayload returns the operation's text payload, or "" when absent.
func (o Operation) TextPayload() string {
	if o.Text == nil {
		return ""
	}
	return *o.Text
}
