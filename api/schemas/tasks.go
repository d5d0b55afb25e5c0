// File: api/schemas/tasks.go
package schemas

// -- Control surface wire contract --

// RunTaskRequest starts one execution run.
type RunTaskRequest struct {
	Task      string `json:"task"`
	TraceName string `json:"trace_name,omitempty"`
	MaxSteps  int    `json:"max_steps,omitempty"`
}

// RunTaskResponse acknowledges an accepted run.
type RunTaskResponse struct {
	Status string `json:"status"`
	TaskID string `json:"task_id"`
}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Status string `json:"status"`
}

// StatusResponse reports the current run state.
type StatusResponse struct {
	State  string `json:"state"`
	TaskID string `json:"task_id,omitempty"`
	Step   int    `json:"step"`
}

// APIError is the uniform error body for rejected control requests.
type APIError struct {
	Error string `json:"error"`
}
