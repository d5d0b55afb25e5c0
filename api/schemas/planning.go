// File: api/schemas/planning.go
package schemas

// -- Planner wire contract --
//
// The loop produces PlanRequest and consumes PlanResponse when driven by a
// remote planner service. The JSON field names are a compatibility surface
// shared with external recorder/replay tooling and must not drift.

// PlanRequest is the inference request posted once per loop iteration.
type PlanRequest struct {
	TaskID        string   `json:"task_id"`
	Screenshot    string   `json:"screenshot"`
	Query         string   `json:"query"`
	ActionHistory []string `json:"action_history"`
	TraceName     string   `json:"trace_name,omitempty"`
}

// GeneratedPlan carries the planner's reasoning for one step.
type GeneratedPlan struct {
	Observation string `json:"observation"`
	Reasoning   string `json:"reasoning"`
	StepInfo    string `json:"step_info"`
}

// GeneratedAction wraps the canonical action chosen for the step.
type GeneratedAction struct {
	Content Action `json:"content"`
}

// PlanResponse is the planner's answer for one step.
type PlanResponse struct {
	Status          string          `json:"status"`
	GeneratedPlan   GeneratedPlan   `json:"generated_plan"`
	GeneratedAction GeneratedAction `json:"generated_action"`
	CurrentTrajStep int             `json:"current_traj_step"`
	CompleteFlag    bool            `json:"complete_flag"`
}
