package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventPlanStatus = "plan.status"
	EventPlanStep   = "plan.step"
)

// PlanStatusEvent is broadcast when a plan starts or reaches a terminal state.
type PlanStatusEvent struct {
	PlanID      string `json:"plan_id"`
	RootPlanID  string `json:"root_plan_id"`
	ToolName    string `json:"tool_name"`
	Status      string `json:"status"`
	FinalResult string `json:"final_result,omitempty"`
}

// PlanStepEvent is broadcast when a step changes status.
type PlanStepEvent struct {
	PlanID     string `json:"plan_id"`
	StepIndex  int    `json:"step_index"`
	AgentName  string `json:"agent_name"`
	StepStatus string `json:"step_status"`
}

// BroadcastEvent marshals a typed event and broadcasts it to all clients.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
