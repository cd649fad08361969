// Package http exposes PlanForge's REST and SSE API.
package http

import (
	"net/http"
	"strconv"

	"github.com/planforge/planforge/internal/adapter/sse"
	"github.com/planforge/planforge/internal/domain/plan"
	"github.com/planforge/planforge/internal/domain/tool"
	"github.com/planforge/planforge/internal/port/messagequeue"
	"github.com/planforge/planforge/internal/port/templates"
	"github.com/planforge/planforge/internal/service"
)

// Handlers holds the HTTP handler dependencies. Queue may be nil when no
// broker is configured.
type Handlers struct {
	Executor  *service.Executor
	Templates templates.Store
	Registry  *tool.Registry
	Stream    *sse.Publisher
	Queue     messagequeue.Queue
}

// NewHandlers creates the handler set.
func NewHandlers(executor *service.Executor, store templates.Store, registry *tool.Registry, stream *sse.Publisher, queue messagequeue.Queue) *Handlers {
	return &Handlers{
		Executor:  executor,
		Templates: store,
		Registry:  registry,
		Stream:    stream,
		Queue:     queue,
	}
}

type submitResponse struct {
	PlanID  string `json:"planId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ExecuteByToolNameAsync accepts a tool execution request and returns
// immediately with the plan ID; execution continues in the background.
func (h *Handlers) ExecuteByToolNameAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[plan.SubmitRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.ToolName, "toolName") {
		return
	}

	planID, err := h.Executor.Submit(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "tool not found: "+req.ToolName)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		PlanID:  planID,
		Status:  "processing",
		Message: "task submitted, use the planId to track progress",
	})
}

type detailsResponse struct {
	*plan.Plan
	Completed bool `json:"completed"`
}

// GetDetails returns the full execution record of a plan.
func (h *Handlers) GetDetails(w http.ResponseWriter, r *http.Request) {
	planID := urlParam(r, "planId")

	p, err := h.Executor.GetDetails(planID)
	if err != nil {
		writeDomainError(w, err, "plan not found: "+planID)
		return
	}
	writeJSON(w, http.StatusOK, detailsResponse{
		Plan:      p,
		Completed: p.Status.IsTerminal(),
	})
}

type stopResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StopTask requests cooperative termination of a running plan.
func (h *Handlers) StopTask(w http.ResponseWriter, r *http.Request) {
	planID := urlParam(r, "planId")

	if !h.Executor.Stop(planID) {
		writeJSON(w, http.StatusNotFound, stopResponse{
			Status:  "not_found",
			Message: "no running plan with id " + planID,
		})
		return
	}
	writeJSON(w, http.StatusOK, stopResponse{
		Status:  "success",
		Message: "stop requested, the plan halts at the next step boundary",
	})
}

type taskStatusResponse struct {
	PlanID           string `json:"planId"`
	Status           string `json:"status"`
	Running          bool   `json:"running"`
	CurrentStepIndex int    `json:"currentStepIndex"`
}

// TaskStatus returns a lightweight status view of a plan.
func (h *Handlers) TaskStatus(w http.ResponseWriter, r *http.Request) {
	planID := urlParam(r, "planId")

	p, err := h.Executor.GetDetails(planID)
	if err != nil {
		writeDomainError(w, err, "plan not found: "+planID)
		return
	}
	writeJSON(w, http.StatusOK, taskStatusResponse{
		PlanID:           p.PlanID,
		Status:           string(p.Status),
		Running:          h.Executor.IsRunning(planID),
		CurrentStepIndex: p.CurrentStepIndex,
	})
}

// StreamPlan serves the SSE progress stream for a plan.
func (h *Handlers) StreamPlan(w http.ResponseWriter, r *http.Request) {
	planID := urlParam(r, "planId")
	h.Stream.Stream(w, r, planID)
}

// ListTools returns the catalog of callable tools, including the intrinsic
// terminate tool.
func (h *Handlers) ListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Registry.Describe())
}

type publishTemplateResponse struct {
	ToolName string `json:"toolName"`
	Version  int    `json:"version"`
}

// PublishTemplate stores a new version of a plan template.
func (h *Handlers) PublishTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, ok := readJSON[templates.PlanTemplate](w, r)
	if !ok {
		return
	}

	version, err := h.Templates.Put(r.Context(), &tpl)
	if err != nil {
		writeDomainError(w, err, "template not found")
		return
	}
	writeJSON(w, http.StatusCreated, publishTemplateResponse{
		ToolName: tpl.ToolName,
		Version:  version,
	})
}

// ListTemplates returns the latest version of every template.
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	all, err := h.Templates.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "templates unavailable")
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// GetTemplate returns a template by tool name, the latest version by
// default or the one named by the version query parameter.
func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	toolName := urlParam(r, "toolName")

	if v := r.URL.Query().Get("version"); v != "" {
		version, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "version must be an integer")
			return
		}
		tpl, err := h.Templates.GetVersion(r.Context(), toolName, version)
		if err != nil {
			writeDomainError(w, err, "template not found: "+toolName)
			return
		}
		writeJSON(w, http.StatusOK, tpl)
		return
	}

	tpl, err := h.Templates.Get(r.Context(), toolName)
	if err != nil {
		writeDomainError(w, err, "template not found: "+toolName)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// Health reports liveness and the state of the event broker connection.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	nats := "disabled"
	switch {
	case h.Queue == nil:
	case h.Queue.IsConnected():
		nats = "connected"
	default:
		nats = "disconnected"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "nats": nats})
}
