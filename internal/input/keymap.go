// File: internal/input/keymap.go
package input

import (
	"runtime"
	"strings"
)

// Keymap remaps cross-platform key aliases to the names the OS injection
// layer understands. It is built once per process for the running platform.
type Keymap struct {
	aliases map[string]string
}

// NewKeymap builds the translation table for the build platform.
func NewKeymap() *Keymap {
	return newKeymapFor(runtime.GOOS)
}

func newKeymapFor(goos string) *Keymap {
	aliases := map[string]string{
		"page_down": "pagedown",
		"page_up":   "pageup",
		"escape":    "esc",
		"return":    "enter",
	}
	if goos == "darwin" {
		aliases["super_l"] = "command"
		aliases["super"] = "command"
		aliases["win"] = "command"
		aliases["cmd"] = "command"
		aliases["meta"] = "command"
	} else {
		aliases["super_l"] = "win"
		aliases["super"] = "win"
		aliases["cmd"] = "win"
		aliases["command"] = "win"
		aliases["meta"] = "win"
	}
	return &Keymap{aliases: aliases}
}

// Translate maps one key name to its OS-native form. Unknown names pass
// through lowercased; single printable characters pass through untouched so
// "A" stays shifted typing, not a key alias.
func (k *Keymap) Translate(name string) string {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) == 1 {
		return trimmed
	}
	lower := strings.ToLower(trimmed)
	if native, ok := k.aliases[lower]; ok {
		return native
	}
	return lower
}

// SplitChord breaks a "+"-delimited key string into translated tokens in
// press order. A single key yields a one-element chord.
func (k *Keymap) SplitChord(combo string) []string {
	parts := strings.Split(combo, "+")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			keys = append(keys, k.Translate(trimmed))
		}
	}
	return keys
}
