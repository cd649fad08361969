package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/planforge/planforge/internal/adapter/otel"
	"github.com/planforge/planforge/internal/domain/plan"
	"github.com/planforge/planforge/internal/domain/tool"
	"github.com/planforge/planforge/internal/port/reasoner"
)

// stepOutcome is the executor-internal result of running one step.
type stepOutcome int

const (
	stepDone stepOutcome = iota
	stepStopped
	stepExhausted
)

// run is the worker goroutine for one plan. It owns the plan value; all
// other goroutines observe it through published snapshots.
func (e *Executor) run(p *plan.Plan, exec *execution) {
	ctx := context.Background()
	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.finalize(p, exec, plan.StatusFailed, "executor shutting down")
		return
	}
	defer e.sem.Release(1)

	ctx, span := otel.StartPlanSpan(ctx, p.PlanID, p.RootPlanID, p.ToolName)
	defer span.End()

	p.Status = plan.StatusRunning
	exec.publish(p)
	if m := e.deps.Metrics; m != nil {
		m.PlansStarted.Add(ctx, 1)
	}
	e.publishStarted(p)

	// One think-act cycle budget for the whole plan, spent across steps.
	budget := e.cfg.MaxSteps
	var lastResult string

	for i := range p.Steps {
		if exec.stop.Load() {
			e.finalize(p, exec, plan.StatusStopped, lastResult)
			return
		}
		p.CurrentStepIndex = i

		result, outcome := e.runStep(ctx, p, exec, i, &budget)
		if result != "" {
			lastResult = result
		}

		switch outcome {
		case stepStopped:
			e.finalize(p, exec, plan.StatusStopped, lastResult)
			return
		case stepExhausted:
			e.finalize(p, exec, plan.StatusFailed,
				fmt.Sprintf("cycle budget of %d exhausted at step %d", e.cfg.MaxSteps, i))
			return
		}
		// A failed step does not halt the plan; later steps may still be
		// able to make progress with what earlier ones produced.
	}

	e.finalize(p, exec, plan.StatusCompleted, lastResult)
}

// runStep drives think-act cycles for one step until the reasoner calls
// terminate, the budget runs out, or a stop is requested.
func (e *Executor) runStep(ctx context.Context, p *plan.Plan, exec *execution, idx int, budget *int) (string, stepOutcome) {
	step := &p.Steps[idx]
	step.StartTime = e.now()
	step.Status = plan.StepRunning
	exec.publish(p)
	e.publishStep(p, step)

	ctx, span := otel.StartStepSpan(ctx, p.PlanID, idx, step.AgentName)
	defer span.End()

	var (
		history    []string
		hadFailure bool
	)

	for {
		if exec.stop.Load() {
			e.endStep(p, exec, step, plan.StepFailed)
			return "", stepStopped
		}
		if *budget <= 0 {
			e.log.Warn("cycle budget exhausted",
				"plan_id", p.PlanID, "step_index", idx, "max_steps", e.cfg.MaxSteps)
			e.endStep(p, exec, step, plan.StepFailed)
			return "", stepExhausted
		}
		*budget--

		res, err := e.deps.Reasoner.Think(ctx, reasoner.ThinkRequest{
			PlanID:          p.PlanID,
			AgentName:       step.AgentName,
			StepRequirement: step.StepRequirement,
			History:         history,
			Tools:           e.describeTools(),
		})
		if err != nil {
			e.log.Error("reasoner failed", "plan_id", p.PlanID, "step_index", idx, "error", err)
			e.endStep(p, exec, step, plan.StepFailed)
			return "", stepDone
		}

		step.ThinkActRecords = append(step.ThinkActRecords, plan.ThinkActRecord{
			ThinkContent: res.Content,
		})
		rec := &step.ThinkActRecords[len(step.ThinkActRecords)-1]
		if res.Content != "" {
			history = append(history, res.Content)
		}

		terminateMsg, terminated := e.executeCalls(ctx, p, rec, res.ToolCalls, res.Parallel, &history)
		for _, call := range rec.ToolCalls {
			if !call.Succeeded {
				hadFailure = true
			}
		}

		exec.publish(p)
		e.publishStep(p, step)

		if terminated {
			status := plan.StepSuccess
			if n := len(rec.ToolCalls); n > 0 && !rec.ToolCalls[n-1].Succeeded {
				status = plan.StepFailed
			} else if hadFailure {
				status = plan.StepSuccessWithErrors
			}
			e.endStep(p, exec, step, status)
			return terminateMsg, stepDone
		}
	}
}

// executeCalls runs the cycle's tool calls, sequentially by default or
// fanned out when the reasoner asked for it. Fan-out joins on all siblings;
// one failing call never cancels the others. The terminate call is intrinsic:
// it is recorded but handled by the loop, not dispatched to the registry.
func (e *Executor) executeCalls(ctx context.Context, p *plan.Plan, rec *plan.ThinkActRecord, calls []reasoner.ToolCallRequest, parallel bool, history *[]string) (string, bool) {
	var (
		terminateMsg string
		terminated   bool
	)

	type job struct {
		call   reasoner.ToolCallRequest
		recIdx int
	}
	var jobs []job

	for _, call := range calls {
		if call.ToolKey == tool.TerminateName {
			terminated = true
			terminateMsg = parseTerminateMessage(call.Arguments)
			rec.ToolCalls = append(rec.ToolCalls, plan.ToolCallRecord{
				ToolKey:         tool.TerminateName,
				InputParameters: string(call.Arguments),
				ResultSummary:   terminateMsg,
				Succeeded:       true,
			})
			continue
		}
		rec.ToolCalls = append(rec.ToolCalls, plan.ToolCallRecord{
			ToolKey:         call.ToolKey,
			InputParameters: string(call.Arguments),
		})
		jobs = append(jobs, job{call: call, recIdx: len(rec.ToolCalls) - 1})
	}

	runOne := func(j job) {
		out := &rec.ToolCalls[j.recIdx]

		callCtx, span := otel.StartToolCallSpan(ctx, p.PlanID, j.call.ToolKey)
		defer span.End()
		if m := e.deps.Metrics; m != nil {
			m.ToolCalls.Add(callCtx, 1)
		}

		result, err := e.invokeTool(callCtx, p, j.call)
		if err != nil {
			e.log.Warn("tool call failed",
				"plan_id", p.PlanID, "tool_key", j.call.ToolKey, "error", err)
			out.Succeeded = false
			out.ErrorKind = errorKind(err)
			out.ResultSummary = err.Error()
			return
		}

		saved := e.deps.Saver.Process(p.PlanID, p.RootPlanID, result, j.call.ToolKey)
		out.Succeeded = true
		out.ResultSummary = saved.Summary
		out.SavedFileName = saved.FileName
	}

	if parallel && len(jobs) > 1 {
		var wg sync.WaitGroup
		for _, j := range jobs {
			wg.Add(1)
			go func(j job) {
				defer wg.Done()
				runOne(j)
			}(j)
		}
		wg.Wait()
	} else {
		for _, j := range jobs {
			runOne(j)
		}
	}

	for _, j := range jobs {
		out := rec.ToolCalls[j.recIdx]
		*history = append(*history,
			fmt.Sprintf("Tool %s result: %s", out.ToolKey, out.ResultSummary))
	}

	return terminateMsg, terminated
}

// invokeTool dispatches one tool call. Keys that resolve to no registered
// tool fall back to plan templates: a template under the same name runs as
// a sub-plan sharing this plan's root, its final result becoming the tool
// output.
func (e *Executor) invokeTool(ctx context.Context, p *plan.Plan, call reasoner.ToolCallRequest) (string, error) {
	key := NormalizeToolKey(call.ToolKey)

	t, err := e.deps.Registry.Get(key)
	if err == nil {
		return t.Invoke(ctx, tool.Call{
			PlanID:     p.PlanID,
			RootPlanID: p.RootPlanID,
			Arguments:  string(call.Arguments),
		})
	}

	if _, tplErr := e.deps.Templates.Get(ctx, key); tplErr != nil {
		return "", err // original not-found, not the template miss
	}
	return e.runSubPlan(ctx, p, key, call.Arguments)
}

// runSubPlan executes a template as a nested plan and blocks until it
// reaches a terminal state.
func (e *Executor) runSubPlan(ctx context.Context, parent *plan.Plan, toolName string, args []byte) (string, error) {
	var params map[string]string
	if len(args) > 0 {
		// Non-object arguments are ignored; the sub-plan runs without
		// parameter substitution.
		_ = json.Unmarshal(args, &params)
	}

	subExec, subID, err := e.submit(ctx, plan.SubmitRequest{
		ToolName:   toolName,
		Parameters: params,
		RootPlanID: parent.RootPlanID,
	})
	if err != nil {
		return "", fmt.Errorf("sub-plan %s: %w", toolName, err)
	}

	e.log.Info("sub-plan started",
		"plan_id", subID, "parent_plan_id", parent.PlanID, "tool_name", toolName)

	// Hand the parent's worker slot back while blocked on the child; a pool
	// full of parents all waiting on sub-plans would otherwise deadlock.
	e.sem.Release(1)
	select {
	case <-subExec.done:
	case <-ctx.Done():
		e.Stop(subID)
		<-subExec.done
	}
	_ = e.sem.Acquire(context.Background(), 1)

	final := subExec.snapshot.Load()
	if final.Status != plan.StatusCompleted {
		return final.FinalResult, fmt.Errorf("sub-plan %s finished %s", subID, final.Status)
	}
	return final.FinalResult, nil
}

// endStep closes the step with a terminal status. EndTime is set exactly
// once, here.
func (e *Executor) endStep(p *plan.Plan, exec *execution, step *plan.ExecutionStep, status plan.StepStatus) {
	now := e.now()
	step.EndTime = &now
	step.Status = status
	exec.publish(p)
	e.publishStep(p, step)
}

func (e *Executor) describeTools() []reasoner.ToolDescriptor {
	descriptors := e.deps.Registry.Describe()
	out := make([]reasoner.ToolDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, reasoner.ToolDescriptor{Key: d.Key, Description: d.Description})
	}
	return out
}

// parseTerminateMessage extracts the message argument of a terminate call.
// Arguments that are not the expected JSON object pass through verbatim.
func parseTerminateMessage(args []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(args, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(args)
}
