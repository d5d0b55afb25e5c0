// File: api/schemas/results.go
package schemas

// Result type discriminators. Every primitive operation outcome is wrapped
// in exactly one Result; failures become error-typed results instead of
// propagating as faults.
const (
	ResultTypeAction = "action"
	ResultTypeText   = "text"
	ResultTypeImage  = "image_base64"
	ResultTypeError  = "error"
)

// ActionBaseError is the action_base_type carried by operation precondition
// failures.
const ActionBaseError = "error"

// Result is the uniform envelope for one primitive operation outcome.
type Result struct {
	Role       string `json:"role,omitempty"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	ActionType string `json:"action_type,omitempty"`
}

// NewActionResult wraps a successful device interaction.
func NewActionResult(content, actionType string) Result {
	return Result{Role: "assistant", Content: content, Type: ResultTypeAction, ActionType: actionType}
}

// NewTextResult wraps informational output such as a cursor position.
func NewTextResult(content, actionType string) Result {
	return Result{Role: "assistant", Content: content, Type: ResultTypeText, ActionType: actionType}
}

// NewImageResult wraps a base64 screenshot payload.
func NewImageResult(b64 string) Result {
	return Result{Role: "assistant", Content: b64, Type: ResultTypeImage, ActionType: "screenshot"}
}

// NewErrorResult wraps a failure message. Error results carry no role so the
// consumer can distinguish them from assistant output at a glance.
func NewErrorResult(message string) Result {
	return Result{Content: message, Type: ResultTypeError}
}

// IsError reports whether the result records a failure.
func (r Result) IsError() bool {
	return r.Type == ResultTypeError
}
