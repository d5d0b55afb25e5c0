// File: api/schemas/actions.go
package schemas

import (
	"encoding/json"
	"strings"
)

// ActionType is the canonical, backend agnostic tag for one user-level action.
// Every normalizer emits exactly one of these; the decomposer rejects anything
// outside the set before dispatch.
type ActionType string

const (
	ActionClick       ActionType = "CLICK"
	ActionRightClick  ActionType = "RIGHT_CLICK"
	ActionDoubleClick ActionType = "DOUBLE_CLICK"
	ActionTripleClick ActionType = "TRIPLE_CLICK"
	ActionMove        ActionType = "MOVE"
	ActionHover       ActionType = "HOVER"
	ActionEnter       ActionType = "ENTER"
	ActionEsc         ActionType = "ESC"
	ActionEscape      ActionType = "ESCAPE"
	ActionPress       ActionType = "PRESS"
	ActionKey         ActionType = "KEY"
	ActionHotkey      ActionType = "HOTKEY"
	ActionInput       ActionType = "INPUT"
	ActionDrag        ActionType = "DRAG"
	ActionScroll      ActionType = "SCROLL"
	ActionWait        ActionType = "WAIT"
	ActionPause       ActionType = "PAUSE"
	ActionContinue    ActionType = "CONTINUE"
	ActionScreenshot  ActionType = "SCREENSHOT"
	ActionStop        ActionType = "STOP"      // Terminates the owning run; never decomposed.
	ActionError       ActionType = "ERROR"     // Normalization failure carrying a diagnostic value.
)

// Action is the canonical action record exchanged between normalizers, the
// decomposer, and any external recorder tooling. The wire shape is
// {"action":"<TAG>","value":<any>,"position":[x,y]|""|null} plus the optional
// drag/wait/input variants below. The polymorphic fields are kept as raw JSON
// and are only ever read through the extraction helpers in this file.
type Action struct {
	Type     ActionType      `json:"action"`
	Value    json.RawMessage `json:"value,omitempty"`
	Position json.RawMessage `json:"position,omitempty"`

	// Drag endpoint variants. Start resolves from From, Start, then Value;
	// end resolves from To, End, then Position. First present field wins.
	From  json.RawMessage `json:"from,omitempty"`
	To    json.RawMessage `json:"to,omitempty"`
	Start json.RawMessage `json:"start,omitempty"`
	End   json.RawMessage `json:"end,omitempty"`

	// Text overrides Value as the payload of an INPUT action when present.
	Text *string `json:"text,omitempty"`

	// Wait duration variants. An explicitly present MS always wins over
	// Seconds, and zero milliseconds is a valid zero-length wait.
	MS      *float64 `json:"ms,omitempty"`
	Seconds *float64 `json:"seconds,omitempty"`

	// Direction is diagnostic scroll metadata ("up", "down", ...). The sign
	// of the scroll value stays authoritative for decomposition.
	Direction string `json:"direction,omitempty"`
}

// Canonicalize applies the pass-through normalization rule: the tag is
// upper-cased and every other field is preserved byte for byte.
func Canonicalize(a Action) Action {
	a.Type = ActionType(strings.ToUpper(strings.TrimSpace(string(a.Type))))
	return a
}

// IsTerminal reports whether the action ends the owning run iteration
// instead of being decomposed into device operations.
func (a Action) IsTerminal() bool {
	return a.Type == ActionStop
}

// emptyValue is the literal empty-string placeholder the wire contract uses
// for absent value/position payloads.
var emptyValue = json.RawMessage(`""`)

// NewPositionalAction builds a canonical action with a position and an empty
// value, the shape emitted for the click/move family.
func NewPositionalAction(t ActionType, p Point) Action {
	return Action{Type: t, Value: emptyValue, Position: mustRaw(p)}
}

// NewTextAction builds a canonical action whose value is free text (INPUT,
// KEY, HOTKEY and friends) and whose position is empty.
func NewTextAction(t ActionType, text string) Action {
	return Action{Type: t, Value: mustRaw(text), Position: emptyValue}
}

// NewValueAction builds a canonical action from an arbitrary value payload.
func NewValueAction(t ActionType, value interface{}) Action {
	return Action{Type: t, Value: mustRaw(value), Position: emptyValue}
}

// NewErrorAction is the uniform normalization-failure record: an ERROR tag, a
// human readable diagnostic, and a [0,0] position.
func NewErrorAction(diagnostic string) Action {
	return Action{Type: ActionError, Value: mustRaw(diagnostic), Position: mustRaw(Point{X: 0, Y: 0})}
}

// NewStopAction signals explicit task completion from a backend.
func NewStopAction(note string) Action {
	return Action{Type: ActionStop, Value: mustRaw(note), Position: emptyValue}
}

// NewDragAction builds a canonical DRAG using the from/to field convention.
func NewDragAction(start, end Point) Action {
	return Action{Type: ActionDrag, Value: emptyValue, Position: emptyValue, From: mustRaw(start), To: mustRaw(end)}
}

// NewScrollAction preserves the raw [x,y] deltas in the value and optionally
// carries the scroll origin as the position.
func NewScrollAction(deltaX, deltaY float64, at *Point) Action {
	a := Action{Type: ActionScroll, Value: mustRaw([2]float64{deltaX, deltaY}), Position: emptyValue}
	if deltaY > 0 {
		a.Direction = "down"
	} else if deltaY < 0 {
		a.Direction = "up"
	}
	if at != nil {
		a.Position = mustRaw(*at)
	}
	return a
}

// NewWaitAction builds a WAIT with an explicit millisecond duration.
func NewWaitAction(ms float64) Action {
	return Action{Type: ActionWait, Value: emptyValue, Position: emptyValue, MS: &ms}
}

// ValueText extracts the value as a string. Numbers are not coerced; callers
// that accept numeric payloads use ValueNumber instead.
func (a Action) ValueText() (string, bool) {
	var s string
	if err := json.Unmarshal(a.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

// ValueStrings extracts the value as a list of string tokens (the KEY list
// form).
func (a Action) ValueStrings() ([]string, bool) {
	var list []string
	if err := json.Unmarshal(a.Value, &list); err != nil {
		return nil, false
	}
	return list, true
}

// ValueNumber extracts a scalar numeric value.
func (a Action) ValueNumber() (float64, bool) {
	var f float64
	if err := json.Unmarshal(a.Value, &f); err != nil {
		return 0, false
	}
	return f, true
}

// ValuePair extracts the value as a two-element numeric pair, tolerating
// fractional components.
func (a Action) ValuePair() (x, y float64, ok bool) {
	var pair []float64
	if err := json.Unmarshal(a.Value, &pair); err != nil || len(pair) != 2 {
		return 0, 0, false
	}
	return pair[0], pair[1], true
}

// ScrollAmount resolves the vertical scroll magnitude from either a scalar
// value or the y component of an [x,y] pair.
func (a Action) ScrollAmount() (float64, bool) {
	if v, ok := a.ValueNumber(); ok {
		return v, true
	}
	if _, y, ok := a.ValuePair(); ok {
		return y, true
	}
	return 0, false
}

// PositionPoint extracts the position as a coordinate, if one is present.
func (a Action) PositionPoint() (Point, bool) {
	return pointFromRaw(a.Position)
}

// InputText resolves the payload of an INPUT action: the text field wins over
// the value field; absence of both is reported to the caller.
func (a Action) InputText() (string, bool) {
	if a.Text != nil {
		return *a.Text, true
	}
	return a.ValueText()
}

// DragEndpoints resolves the start and end coordinates of a DRAG across the
// three accepted field-name conventions. Start falls back through from,
// start, value; end falls back through to, end, position.
func (a Action) DragEndpoints() (start, end Point, ok bool) {
	start, sok := firstPoint(a.From, a.Start, a.Value)
	end, eok := firstPoint(a.To, a.End, a.Position)
	return start, end, sok && eok
}

// WaitSeconds resolves the wait duration in seconds. A present MS field
// always wins (ms=0 means "no wait"); otherwise Seconds; otherwise the 5
// second default.
func (a Action) WaitSeconds() float64 {
	if a.MS != nil {
		return *a.MS / 1000.0
	}
	if a.Seconds != nil {
		return *a.Seconds
	}
	return 5
}

func firstPoint(raws ...json.RawMessage) (Point, bool) {
	for _, raw := range raws {
		if p, ok := pointFromRaw(raw); ok {
			return p, true
		}
	}
	return Point{}, false
}

func mustRaw(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		// Only reachable for unmarshalable Go values, which the canonical
		// constructors never produce.
		return emptyValue
	}
	return raw
}
