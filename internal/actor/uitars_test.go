// File: internal/actor/uitars_test.go
package actor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/config"
)

func TestParseUITarsClick(t *testing.T) {
	action, complete := ParseUITars(`click(start_box='(123,456)')`)
	assert.False(t, complete)
	assert.Equal(t, schemas.ActionClick, action.Type)
	p, ok := action.PositionPoint()
	require.True(t, ok)
	assert.Equal(t, schemas.Point{X: 123, Y: 456}, p)
}

func TestParseUITarsClickBracketVariant(t *testing.T) {
	action, _ := ParseUITars(`click(start_box='[10,20]')`)
	p, ok := action.PositionPoint()
	require.True(t, ok)
	assert.Equal(t, schemas.Point{X: 10, Y: 20}, p)
}

func TestParseUITarsHotkey(t *testing.T) {
	action, _ := ParseUITars(`hotkey(key='Enter')`)
	assert.Equal(t, schemas.ActionEnter, action.Type)

	action, _ = ParseUITars(`hotkey(key='Esc')`)
	assert.Equal(t, schemas.ActionEsc, action.Type)

	action, _ = ParseUITars(`hotkey(key='escape')`)
	assert.Equal(t, schemas.ActionEsc, action.Type)

	action, _ = ParseUITars(`hotkey(key='Ctrl S')`)
	assert.Equal(t, schemas.ActionHotkey, action.Type)
	v, _ := action.ValueText()
	assert.Equal(t, "ctrl s", v)
}

func TestParseUITarsType(t *testing.T) {
	action, _ := ParseUITars(`type(content='hello \'world\'\n')`)
	assert.Equal(t, schemas.ActionInput, action.Type)
	text, ok := action.InputText()
	require.True(t, ok)
	assert.Equal(t, "hello 'world'\n", text)
}

func TestParseUITarsScroll(t *testing.T) {
	action, _ := ParseUITars(`scroll(start_box='(500,300)', direction='down')`)
	assert.Equal(t, schemas.ActionScroll, action.Type)
	v, ok := action.ValueText()
	require.True(t, ok)
	assert.Equal(t, "down", v)
	p, ok := action.PositionPoint()
	require.True(t, ok)
	assert.Equal(t, schemas.Point{X: 500, Y: 300}, p)
}

func TestParseUITarsTerminalCalls(t *testing.T) {
	for _, line := range []string{"wait()", "finished()", "call_user()"} {
		action, _ := ParseUITars(line)
		assert.Equal(t, schemas.ActionStop, action.Type, "line %s", line)
	}
}

func TestParseUITarsCompleteOnlyOnFinished(t *testing.T) {
	_, complete := ParseUITars("finished()")
	assert.True(t, complete)

	_, complete = ParseUITars("wait()")
	assert.False(t, complete)

	_, complete = ParseUITars(`click(start_box='(1,2)')`)
	assert.False(t, complete)
}

func TestParseUITarsUnrecognizedLine(t *testing.T) {
	action, complete := ParseUITars("fly_to_moon()")
	assert.False(t, complete)
	assert.Equal(t, schemas.ActionStop, action.Type)
	v, _ := action.ValueText()
	assert.Contains(t, v, "fly_to_moon")
}

func TestFactoryUnknownModeYieldsErrorDecision(t *testing.T) {
	a := New(config.ActorConfig{Mode: "telepathy"}, 1280, 800, nil, zaptest.NewLogger(t))
	d, err := a.Act(context.Background(), Observation{Task: "anything"})
	require.NoError(t, err)
	assert.Equal(t, schemas.ActionError, d.Action.Type)
	v, _ := d.Action.ValueText()
	assert.Contains(t, v, "telepathy")
}
