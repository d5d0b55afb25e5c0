// File: internal/actor/keypress_test.go
package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhand/deskhand/api/schemas"
)

func TestClassifyKeypress(t *testing.T) {
	cases := []struct {
		name   string
		tokens []string
		tag    schemas.ActionType
		value  string
	}{
		{"single letter types", []string{"a"}, schemas.ActionInput, "a"},
		{"letter sequence types", []string{"h", "i"}, schemas.ActionInput, "hi"},
		{"space maps to blank", []string{"space"}, schemas.ActionInput, " "},
		{"modifier forces chord", []string{"ctrl", "s"}, schemas.ActionHotkey, "ctrl+s"},
		{"mixed order still chord", []string{"A", "shift"}, schemas.ActionHotkey, "a+shift"},
		{"multi-char key is chord", []string{"enter"}, schemas.ActionHotkey, "enter"},
		{"meta chord", []string{"meta", "tab"}, schemas.ActionHotkey, "meta+tab"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := classifyKeypress(tc.tokens)
			assert.Equal(t, tc.tag, a.Type)
			v, ok := a.ValueText()
			require.True(t, ok)
			assert.Equal(t, tc.value, v)
		})
	}
}

func TestClassifyKeypressEmpty(t *testing.T) {
	a := classifyKeypress(nil)
	assert.Equal(t, schemas.ActionError, a.Type)
}
