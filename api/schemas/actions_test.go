// File: api/schemas/actions_test.go
package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionWireShape(t *testing.T) {
	a := NewPositionalAction(ActionClick, Point{X: 100, Y: 200})
	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"CLICK","value":"","position":[100,200]}`, string(data))

	e := NewErrorAction("no recognizable action")
	data, err = json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"ERROR","value":"no recognizable action","position":[0,0]}`, string(data))
}

func TestCanonicalizePassThrough(t *testing.T) {
	raw := []byte(`{"action":"click","value":"","position":[10.0, 20.0]}`)
	var a Action
	require.NoError(t, json.Unmarshal(raw, &a))

	got := Canonicalize(a)

	assert.Equal(t, ActionClick, got.Type)
	// Everything except the tag is preserved byte for byte.
	assert.Equal(t, a.Value, got.Value)
	assert.Equal(t, a.Position, got.Position)
	assert.Equal(t, a.Text, got.Text)
	assert.Equal(t, a.MS, got.MS)
}

func TestCanonicalizeTrimsAndUppercases(t *testing.T) {
	got := Canonicalize(Action{Type: " scroll "})
	assert.Equal(t, ActionScroll, got.Type)
}

func TestDragEndpointPriority(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantStart Point
		wantEnd   Point
		wantOK    bool
	}{
		{
			name:      "from/to convention",
			payload:   `{"action":"DRAG","from":[10,10],"to":[50,60]}`,
			wantStart: Point{10, 10},
			wantEnd:   Point{50, 60},
			wantOK:    true,
		},
		{
			name:      "start/end convention",
			payload:   `{"action":"DRAG","start":[1,2],"end":[3,4]}`,
			wantStart: Point{1, 2},
			wantEnd:   Point{3, 4},
			wantOK:    true,
		},
		{
			name:      "value/position convention",
			payload:   `{"action":"DRAG","value":[5,6],"position":[7,8]}`,
			wantStart: Point{5, 6},
			wantEnd:   Point{7, 8},
			wantOK:    true,
		},
		{
			name:      "from wins over start and value",
			payload:   `{"action":"DRAG","from":[9,9],"start":[1,1],"value":[2,2],"to":[3,3]}`,
			wantStart: Point{9, 9},
			wantEnd:   Point{3, 3},
			wantOK:    true,
		},
		{
			name:    "missing end",
			payload: `{"action":"DRAG","from":[10,10]}`,
			wantOK:  false,
		},
		{
			name:    "missing both",
			payload: `{"action":"DRAG"}`,
			wantOK:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var a Action
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &a))
			start, end, ok := a.DragEndpoints()
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantStart, start)
				assert.Equal(t, tc.wantEnd, end)
			}
		})
	}
}

func TestWaitSecondsResolution(t *testing.T) {
	ms := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		a    Action
		want float64
	}{
		{"ms wins over seconds", Action{Type: ActionWait, MS: ms(2000), Seconds: ms(9)}, 2.0},
		{"explicit zero ms is a zero wait", Action{Type: ActionWait, MS: ms(0), Seconds: ms(9)}, 0},
		{"seconds when ms absent", Action{Type: ActionWait, Seconds: ms(3)}, 3},
		{"default five seconds", Action{Type: ActionWait}, 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.a.WaitSeconds(), 1e-9)
		})
	}
}

func TestScrollAmount(t *testing.T) {
	var a Action
	require.NoError(t, json.Unmarshal([]byte(`{"action":"SCROLL","value":300}`), &a))
	amount, ok := a.ScrollAmount()
	require.True(t, ok)
	assert.InDelta(t, 300, amount, 1e-9)

	require.NoError(t, json.Unmarshal([]byte(`{"action":"SCROLL","value":[120,-480]}`), &a))
	amount, ok = a.ScrollAmount()
	require.True(t, ok)
	assert.InDelta(t, -480, amount, 1e-9)

	require.NoError(t, json.Unmarshal([]byte(`{"action":"SCROLL","value":""}`), &a))
	_, ok = a.ScrollAmount()
	assert.False(t, ok)
}

func TestInputTextPrecedence(t *testing.T) {
	text := "typed"
	a := NewTextAction(ActionInput, "from value")
	a.Text = &text
	got, ok := a.InputText()
	require.True(t, ok)
	assert.Equal(t, "typed", got)

	a.Text = nil
	got, ok = a.InputText()
	require.True(t, ok)
	assert.Equal(t, "from value", got)

	missing := Action{Type: ActionInput}
	_, ok = missing.InputText()
	assert.False(t, ok)
}

func TestPointUnmarshal(t *testing.T) {
	var p Point
	require.NoError(t, json.Unmarshal([]byte(`[959.6, 540.2]`), &p))
	assert.Equal(t, Point{X: 960, Y: 540}, p)

	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &p))
	assert.Error(t, json.Unmarshal([]byte(`"100,200"`), &p))
}

func TestScrollActionDirection(t *testing.T) {
	down := NewScrollAction(0, 300, nil)
	assert.Equal(t, "down", down.Direction)

	up := NewScrollAction(0, -120, &Point{X: 960, Y: 540})
	assert.Equal(t, "up", up.Direction)
	pos, ok := up.PositionPoint()
	require.True(t, ok)
	assert.Equal(t, Point{X: 960, Y: 540}, pos)
}
