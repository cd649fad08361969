package messagequeue

// PlanStartedPayload is the schema for plans.started messages.
type PlanStartedPayload struct {
	PlanID     string `json:"plan_id"`
	RootPlanID string `json:"root_plan_id"`
	ToolName   string `json:"tool_name"`
	StepCount  int    `json:"step_count"`
}

// PlanStepPayload is the schema for plans.step messages.
type PlanStepPayload struct {
	PlanID     string `json:"plan_id"`
	StepIndex  int    `json:"step_index"`
	AgentName  string `json:"agent_name"`
	StepStatus string `json:"step_status"`
}

// PlanCompletedPayload is the schema for plans.completed messages.
type PlanCompletedPayload struct {
	PlanID      string `json:"plan_id"`
	RootPlanID  string `json:"root_plan_id"`
	Status      string `json:"status"`
	FinalResult string `json:"final_result"`
	DurationMS  int64  `json:"duration_ms"`
}
