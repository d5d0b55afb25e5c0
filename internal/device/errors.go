// File: internal/device/errors.go
package device

import (
	"fmt"

	"github.com/deskhand/deskhand/api/schemas"
)

// OpError is a primitive operation precondition or execution failure. It is
// always caught at the dispatch boundary and converted into an error-typed
// result; it never escapes the device layer as a fault.
type OpError struct {
	Message        string
	ActionBaseType string
}

func (e *OpError) Error() string {
	return e.Message
}

// opErrorf builds the standard precondition failure with the "error" action
// base type the wire contract requires.
func opErrorf(format string, args ...interface{}) *OpError {
	return &OpError{
		Message:        fmt.Sprintf(format, args...),
		ActionBaseType: schemas.ActionBaseError,
	}
}
