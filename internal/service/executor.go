// Package service contains PlanForge's application services: the plan
// executor, service group indexing, and oversized content offloading.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/planforge/planforge/internal/adapter/otel"
	"github.com/planforge/planforge/internal/config"
	"github.com/planforge/planforge/internal/domain"
	"github.com/planforge/planforge/internal/domain/plan"
	"github.com/planforge/planforge/internal/domain/tool"
	"github.com/planforge/planforge/internal/idgen"
	"github.com/planforge/planforge/internal/port/broadcast"
	"github.com/planforge/planforge/internal/port/messagequeue"
	"github.com/planforge/planforge/internal/port/reasoner"
	"github.com/planforge/planforge/internal/port/templates"
)

// Retention keeps finished plans queryable after the executor releases them.
type Retention interface {
	Store(p *plan.Plan) error
	Lookup(planID string) (*plan.Plan, bool)
}

// execution is the executor's live handle for one running plan. The worker
// goroutine owns the plan value; everyone else reads the published snapshot.
type execution struct {
	snapshot atomic.Pointer[plan.Plan]
	stop     atomic.Bool
	done     chan struct{}
}

func (e *execution) publish(p *plan.Plan) {
	e.snapshot.Store(p.Snapshot())
}

// Deps bundles the executor's collaborators. Queue, Hub, Metrics, and
// Retention may be nil; the executor degrades to running plans without
// events, instrumentation, or post-completion lookups.
type Deps struct {
	Registry  *tool.Registry
	Templates templates.Store
	Reasoner  reasoner.Reasoner
	Saver     *ContentSaver
	Groups    *GroupIndex
	Retention Retention
	Queue     messagequeue.Queue
	Hub       broadcast.Broadcaster
	Metrics   *otel.Metrics
	Logger    *slog.Logger
}

// Executor runs plans asynchronously on a bounded worker pool. Submissions
// are acknowledged immediately; progress is observable through snapshots,
// the event stream, and lifecycle events.
type Executor struct {
	cfg  config.Engine
	deps Deps
	log  *slog.Logger

	sem  *semaphore.Weighted
	live sync.Map // planID -> *execution

	now func() time.Time // injectable for tests
}

// NewExecutor builds an executor sized by cfg.Workers.
func NewExecutor(cfg config.Engine, deps Deps) *Executor {
	return &Executor{
		cfg:  cfg,
		deps: deps,
		log:  deps.Logger.With("service", "executor"),
		sem:  semaphore.NewWeighted(int64(cfg.Workers)),
		now:  time.Now,
	}
}

// Submit resolves req's tool name to a plan template, enqueues the plan for
// asynchronous execution, and returns its ID. Template resolution failures
// surface synchronously; everything after the returned ID is asynchronous.
func (e *Executor) Submit(ctx context.Context, req plan.SubmitRequest) (string, error) {
	_, id, err := e.submit(ctx, req)
	return id, err
}

func (e *Executor) submit(ctx context.Context, req plan.SubmitRequest) (*execution, string, error) {
	if req.ToolName == "" {
		return nil, "", fmt.Errorf("%w: toolName is required", domain.ErrValidation)
	}

	tpl, err := e.deps.Templates.Get(ctx, req.ToolName)
	if err != nil {
		return nil, "", err
	}

	id := idgen.NewPlanID()
	root := req.RootPlanID
	if root == "" {
		root = id
	}

	p := &plan.Plan{
		PlanID:       id,
		RootPlanID:   root,
		ToolName:     req.ToolName,
		ServiceGroup: tpl.ServiceGroup,
		Parameters:   req.Parameters,
		Status:       plan.StatusPending,
		CreatedAt:    e.now(),
		Steps:        make([]plan.ExecutionStep, len(tpl.Steps)),
	}
	for i, s := range tpl.Steps {
		p.Steps[i] = plan.ExecutionStep{
			StepIndex:       i,
			AgentName:       s.AgentName,
			StepRequirement: applyParams(s.StepRequirement, req.Parameters),
		}
	}

	if tpl.ServiceGroup != "" {
		e.deps.Groups.GetOrAssign(tpl.ServiceGroup)
	}

	exec := &execution{done: make(chan struct{})}
	exec.publish(p)
	e.live.Store(id, exec)

	e.log.Info("plan submitted",
		"plan_id", id,
		"root_plan_id", root,
		"tool_name", req.ToolName,
		"steps", len(p.Steps),
	)

	go e.run(p, exec)
	return exec, id, nil
}

// GetDetails returns a snapshot of the plan: live if still executing,
// retained if recently finished, ErrNotFound otherwise.
func (e *Executor) GetDetails(planID string) (*plan.Plan, error) {
	if v, ok := e.live.Load(planID); ok {
		return v.(*execution).snapshot.Load(), nil
	}
	if e.deps.Retention != nil {
		if p, ok := e.deps.Retention.Lookup(planID); ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: plan %q", domain.ErrNotFound, planID)
}

// IsRunning reports whether the plan is still being executed.
func (e *Executor) IsRunning(planID string) bool {
	_, ok := e.live.Load(planID)
	return ok
}

// Stop requests cooperative termination of a running plan. The flag is
// honored at the next step or cycle boundary, never mid tool call. Stop is
// idempotent: a plan that is already stopping, or that already reached a
// terminal state and is still retained, reports true. Only a genuinely
// unknown planID reports false.
func (e *Executor) Stop(planID string) bool {
	if v, ok := e.live.Load(planID); ok {
		exec := v.(*execution)
		if exec.stop.CompareAndSwap(false, true) {
			e.log.Info("stop requested", "plan_id", planID)
		}
		return true
	}
	if e.deps.Retention != nil {
		if _, ok := e.deps.Retention.Lookup(planID); ok {
			return true
		}
	}
	return false
}

// finalize moves the plan to its terminal status, retains the final
// snapshot, emits lifecycle signals, and releases the live handle.
func (e *Executor) finalize(p *plan.Plan, exec *execution, status plan.Status, finalResult string) {
	now := e.now()
	p.Status = status
	p.CompletedAt = &now
	if finalResult != "" {
		p.FinalResult = finalResult
	}
	exec.publish(p)

	final := exec.snapshot.Load()
	if e.deps.Retention != nil {
		if err := e.deps.Retention.Store(final); err != nil {
			e.log.Error("plan retention failed", "plan_id", p.PlanID, "error", err)
		}
	}

	duration := now.Sub(p.CreatedAt)
	e.log.Info("plan finished",
		"plan_id", p.PlanID,
		"status", string(status),
		"duration", duration,
	)
	if m := e.deps.Metrics; m != nil {
		ctx := context.Background()
		switch status {
		case plan.StatusCompleted:
			m.PlansCompleted.Add(ctx, 1)
		case plan.StatusFailed:
			m.PlansFailed.Add(ctx, 1)
		case plan.StatusStopped:
			m.PlansStopped.Add(ctx, 1)
		}
		m.PlanDuration.Record(ctx, duration.Seconds())
	}

	e.publishCompleted(final, duration)

	close(exec.done)
	e.live.Delete(p.PlanID)
}

// applyParams substitutes <<key>> placeholders in a step requirement with
// the submitted parameter values.
func applyParams(requirement string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(requirement, "<<") {
		return requirement
	}
	for k, v := range params {
		requirement = strings.ReplaceAll(requirement, "<<"+k+">>", v)
	}
	return requirement
}
