//go:build !darwin

// File: internal/device/multiclick_other.go
package device

import "errors"

var errNoNativeMultiClick = errors.New("native multi-click unavailable")

// nativeMultiClick only has a real implementation on darwin; everywhere else
// the injector's repeated-click path handles multi-clicks directly.
func nativeMultiClick(x, y, count int) error {
	return errNoNativeMultiClick
}
