package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/planforge/planforge/internal/adapter/ws"
	"github.com/planforge/planforge/internal/domain/plan"
	"github.com/planforge/planforge/internal/port/messagequeue"
)

// Event emission is best-effort: a down queue or empty hub never affects
// plan execution.

func (e *Executor) publishStarted(p *plan.Plan) {
	e.publishQueue(messagequeue.SubjectPlanStarted, messagequeue.PlanStartedPayload{
		PlanID:     p.PlanID,
		RootPlanID: p.RootPlanID,
		ToolName:   p.ToolName,
		StepCount:  len(p.Steps),
	})
	if e.deps.Hub != nil {
		e.deps.Hub.BroadcastEvent(context.Background(), ws.EventPlanStatus, ws.PlanStatusEvent{
			PlanID:     p.PlanID,
			RootPlanID: p.RootPlanID,
			ToolName:   p.ToolName,
			Status:     string(p.Status),
		})
	}
}

func (e *Executor) publishStep(p *plan.Plan, step *plan.ExecutionStep) {
	e.publishQueue(messagequeue.SubjectPlanStep, messagequeue.PlanStepPayload{
		PlanID:     p.PlanID,
		StepIndex:  step.StepIndex,
		AgentName:  step.AgentName,
		StepStatus: string(step.Status),
	})
	if e.deps.Hub != nil {
		e.deps.Hub.BroadcastEvent(context.Background(), ws.EventPlanStep, ws.PlanStepEvent{
			PlanID:     p.PlanID,
			StepIndex:  step.StepIndex,
			AgentName:  step.AgentName,
			StepStatus: string(step.Status),
		})
	}
}

func (e *Executor) publishCompleted(p *plan.Plan, duration time.Duration) {
	e.publishQueue(messagequeue.SubjectPlanCompleted, messagequeue.PlanCompletedPayload{
		PlanID:      p.PlanID,
		RootPlanID:  p.RootPlanID,
		Status:      string(p.Status),
		FinalResult: p.FinalResult,
		DurationMS:  duration.Milliseconds(),
	})
	if e.deps.Hub != nil {
		e.deps.Hub.BroadcastEvent(context.Background(), ws.EventPlanStatus, ws.PlanStatusEvent{
			PlanID:      p.PlanID,
			RootPlanID:  p.RootPlanID,
			ToolName:    p.ToolName,
			Status:      string(p.Status),
			FinalResult: p.FinalResult,
		})
	}
}

func (e *Executor) publishQueue(subject string, payload any) {
	if e.deps.Queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		e.log.Error("marshal lifecycle event", "subject", subject, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.deps.Queue.Publish(ctx, subject, data); err != nil {
		e.log.Warn("lifecycle event publish failed", "subject", subject, "error", err)
	}
}

// errorKind extracts a failure category from errors that carry one, such as
// classified MCP connection errors.
func errorKind(err error) string {
	var categorized interface{ Category() string }
	if errors.As(err, &categorized) {
		return categorized.Category()
	}
	return ""
}
