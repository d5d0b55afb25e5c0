// File: internal/input/robotgo.go
package input

import (
	"fmt"
	"time"

	"github.com/go-vgo/robotgo"
)

// RobotgoInjector is the production Injector.
type RobotgoInjector struct{}

// NewInjector returns the OS input-injection implementation.
func NewInjector() *RobotgoInjector {
	return &RobotgoInjector{}
}

func (r *RobotgoInjector) MoveMouse(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (r *RobotgoInjector) Click(x, y int, button string, count int) error {
	robotgo.Move(x, y)
	if count <= 1 {
		robotgo.Click(button)
		return nil
	}
	if count == 2 && button == ButtonLeft {
		robotgo.Click(button, true)
		return nil
	}
	for i := 0; i < count; i++ {
		robotgo.Click(button)
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

func (r *RobotgoInjector) ButtonDown(x, y int, button string) error {
	robotgo.Move(x, y)
	if err := robotgo.Toggle(button, "down"); err != nil {
		return fmt.Errorf("button down %q: %w", button, err)
	}
	return nil
}

func (r *RobotgoInjector) ButtonUp(x, y int, button string) error {
	robotgo.Move(x, y)
	if err := robotgo.Toggle(button, "up"); err != nil {
		return fmt.Errorf("button up %q: %w", button, err)
	}
	return nil
}

func (r *RobotgoInjector) Drag(x, y int) error {
	robotgo.DragSmooth(x, y)
	return nil
}

func (r *RobotgoInjector) KeyTap(key string) error {
	if err := robotgo.KeyTap(key); err != nil {
		return fmt.Errorf("key tap %q: %w", key, err)
	}
	return nil
}

func (r *RobotgoInjector) KeyDown(key string) error {
	if err := robotgo.KeyDown(key); err != nil {
		return fmt.Errorf("key down %q: %w", key, err)
	}
	return nil
}

func (r *RobotgoInjector) KeyUp(key string) error {
	if err := robotgo.KeyUp(key); err != nil {
		return fmt.Errorf("key up %q: %w", key, err)
	}
	return nil
}

func (r *RobotgoInjector) TypeText(text string, perChar time.Duration) error {
	for _, ch := range text {
		robotgo.TypeStr(string(ch))
		time.Sleep(perChar)
	}
	return nil
}

func (r *RobotgoInjector) Scroll(amount int) error {
	// robotgo's vertical scroll takes a magnitude and direction; the
	// injector contract is pyautogui-style signed (positive = up).
	if amount >= 0 {
		robotgo.ScrollDir(amount, "up")
	} else {
		robotgo.ScrollDir(-amount, "down")
	}
	return nil
}

func (r *RobotgoInjector) ScrollAt(x, y int, amount int) error {
	robotgo.Move(x, y)
	return r.Scroll(amount)
}

func (r *RobotgoInjector) CursorPosition() (int, int) {
	return robotgo.Location()
}
