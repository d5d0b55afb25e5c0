// File: internal/actor/keypress.go
package actor

import (
	"strings"
	"unicode/utf8"

	"github.com/deskhand/deskhand/api/schemas"
)

// modifierTokens are the key names that always force chord semantics.
var modifierTokens = map[string]struct{}{
	"ctrl":    {},
	"control": {},
	"shift":   {},
	"alt":     {},
	"meta":    {},
	"cmd":     {},
	"command": {},
	"win":     {},
	"super":   {},
}

// classifyKeypress turns a backend keypress token list into either typed text
// or a hotkey chord. A list is pure typing only when every token is a single
// printable character or the literal "space"; any modifier or multi-character
// token makes the whole list a chord, lowercased and joined with "+".
func classifyKeypress(tokens []string) schemas.Action {
	if len(tokens) == 0 {
		return schemas.NewErrorAction("keypress with no keys")
	}

	typing := true
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if _, mod := modifierTokens[lower]; mod {
			typing = false
			break
		}
		if lower != "space" && utf8.RuneCountInString(tok) != 1 {
			typing = false
			break
		}
	}

	if typing {
		var b strings.Builder
		for _, tok := range tokens {
			if strings.ToLower(tok) == "space" {
				b.WriteString(" ")
			} else {
				b.WriteString(tok)
			}
		}
		return schemas.NewTextAction(schemas.ActionInput, b.String())
	}

	lowered := make([]string, len(tokens))
	for i, tok := range tokens {
		lowered[i] = strings.ToLower(tok)
	}
	return schemas.NewTextAction(schemas.ActionHotkey, strings.Join(lowered, "+"))
}
