// Package plan defines the Plan execution record and its step/cycle structure.
//
// A Plan is mutated by exactly one goroutine (its worker) for its whole
// lifetime. Everything another goroutine sees is a deep copy produced by
// Snapshot, so readers never observe a half-written step.
package plan

import "time"

// Status represents the lifecycle state of a plan.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

// IsTerminal returns true if the plan has finished, for any reason.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStopped:
		return true
	}
	return false
}

// StepStatus represents the lifecycle state of an individual execution step.
type StepStatus string

const (
	StepRunning           StepStatus = "running"
	StepSuccess           StepStatus = "success"
	StepSuccessWithErrors StepStatus = "success_with_errors"
	StepFailed            StepStatus = "failed"
)

// Plan is one orchestrated execution of a tool/workflow request.
// RootPlanID equals PlanID for top-level plans; sub-plans inherit the
// spawning plan's root, which scopes file storage and progress monitoring.
type Plan struct {
	PlanID           string            `json:"planId"`
	RootPlanID       string            `json:"rootPlanId"`
	ToolName         string            `json:"toolName"`
	ServiceGroup     string            `json:"serviceGroup,omitempty"`
	Parameters       map[string]string `json:"parameters,omitempty"`
	Steps            []ExecutionStep   `json:"steps"`
	CurrentStepIndex int               `json:"currentStepIndex"`
	Status           Status            `json:"status"`
	FinalResult      string            `json:"finalResult,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
}

// ExecutionStep is one ordered phase of a plan.
// Steps are append-only while the plan runs and indices increase
// monotonically. EndTime is set exactly once, when the status leaves RUNNING.
type ExecutionStep struct {
	StepIndex       int              `json:"stepIndex"`
	AgentName       string           `json:"agentName"`
	StepRequirement string           `json:"stepRequirement"`
	StartTime       time.Time        `json:"startTime"`
	EndTime         *time.Time       `json:"endTime,omitempty"`
	ThinkActRecords []ThinkActRecord `json:"thinkActRecords"`
	Status          StepStatus       `json:"status"`
}

// ThinkActRecord is one reasoning pass followed by zero or more tool
// invocations. A record with no tool calls is valid (pure reasoning).
type ThinkActRecord struct {
	ThinkContent string           `json:"thinkContent"`
	ToolCalls    []ToolCallRecord `json:"toolCalls,omitempty"`
}

// ToolCallRecord is one invocation of a tool within a think-act cycle.
type ToolCallRecord struct {
	ToolKey         string `json:"toolKey"`
	InputParameters string `json:"inputParameters,omitempty"`
	ResultSummary   string `json:"resultSummary,omitempty"`
	SavedFileName   string `json:"savedFileName,omitempty"`
	Succeeded       bool   `json:"succeeded"`
	ErrorKind       string `json:"errorKind,omitempty"`
}

// Snapshot returns a deep copy safe for concurrent readers.
func (p *Plan) Snapshot() *Plan {
	cp := *p

	if p.Parameters != nil {
		cp.Parameters = make(map[string]string, len(p.Parameters))
		for k, v := range p.Parameters {
			cp.Parameters[k] = v
		}
	}

	if p.CompletedAt != nil {
		t := *p.CompletedAt
		cp.CompletedAt = &t
	}

	cp.Steps = make([]ExecutionStep, len(p.Steps))
	for i := range p.Steps {
		cp.Steps[i] = p.Steps[i].snapshot()
	}

	return &cp
}

func (s *ExecutionStep) snapshot() ExecutionStep {
	cp := *s

	if s.EndTime != nil {
		t := *s.EndTime
		cp.EndTime = &t
	}

	cp.ThinkActRecords = make([]ThinkActRecord, len(s.ThinkActRecords))
	for i := range s.ThinkActRecords {
		rec := s.ThinkActRecords[i]
		cpRec := ThinkActRecord{ThinkContent: rec.ThinkContent}
		if rec.ToolCalls != nil {
			cpRec.ToolCalls = make([]ToolCallRecord, len(rec.ToolCalls))
			copy(cpRec.ToolCalls, rec.ToolCalls)
		}
		cp.ThinkActRecords[i] = cpRec
	}

	return cp
}

// SubmitRequest holds the fields needed to start a new plan.
type SubmitRequest struct {
	ToolName     string            `json:"toolName"`
	ServiceGroup string            `json:"serviceGroup,omitempty"`
	Parameters   map[string]string `json:"replacementParams,omitempty"`
	UploadKey    string            `json:"uploadKey,omitempty"`

	// RootPlanID is set only when the request spawns a sub-plan; the engine
	// fills it with the new plan's own ID for top-level submissions.
	RootPlanID string `json:"-"`
}
