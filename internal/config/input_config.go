// File: internal/config/input_config.go
// This file defines the InputConfig struct, the tunable parameters for
// synthetic input injection: typing cadence, click feedback animation, and
// the settle delays that keep injected events visible to a human observer.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// InputConfig controls how primitive operations are issued to the OS input
// subsystem.
type InputConfig struct {
	// TypingDelayMS is the fixed per-character delay while typing.
	TypingDelayMS int `mapstructure:"typing_delay_ms" yaml:"typing_delay_ms"`
	// TypingGroupSize bounds how many characters are sent per injected batch.
	TypingGroupSize int `mapstructure:"typing_group_size" yaml:"typing_group_size"`
	// AnimationEnabled toggles the transient click marker. It is force
	// disabled on darwin regardless of this value.
	AnimationEnabled bool `mapstructure:"animation_enabled" yaml:"animation_enabled"`
	// ClickDelayMS is the settle delay between showing the marker and
	// issuing the click.
	ClickDelayMS int `mapstructure:"click_delay_ms" yaml:"click_delay_ms"`
	// PressHoldMS is how long left_press holds the button down.
	PressHoldMS int `mapstructure:"press_hold_ms" yaml:"press_hold_ms"`
}

func setInputDefaults(v *viper.Viper) {
	v.SetDefault("input.typing_delay_ms", 12)
	v.SetDefault("input.typing_group_size", 50)
	v.SetDefault("input.animation_enabled", true)
	v.SetDefault("input.click_delay_ms", 700)
	v.SetDefault("input.press_hold_ms", 1000)
}

// Validate checks the input tunables for sane values.
func (i *InputConfig) Validate() error {
	if i.TypingDelayMS < 0 {
		return fmt.Errorf("typing_delay_ms must not be negative")
	}
	if i.TypingGroupSize <= 0 {
		return fmt.Errorf("typing_group_size must be a positive integer")
	}
	if i.ClickDelayMS < 0 || i.PressHoldMS < 0 {
		return fmt.Errorf("click_delay_ms and press_hold_ms must not be negative")
	}
	return nil
}
