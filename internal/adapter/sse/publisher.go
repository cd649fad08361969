// Package sse streams plan execution progress to HTTP clients using
// server-sent events. The stream is poll-based: snapshots are fetched on an
// interval and an event is emitted only when something changed.
package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/planforge/planforge/internal/config"
	"github.com/planforge/planforge/internal/domain/plan"
)

// PlanSource supplies plan snapshots; satisfied by the executor.
type PlanSource interface {
	GetDetails(planID string) (*plan.Plan, error)
}

// Publisher turns plan snapshots into an SSE stream per client.
type Publisher struct {
	source PlanSource
	cfg    config.Stream
	log    *slog.Logger
}

// NewPublisher builds a Publisher polling source at cfg.PollInterval.
func NewPublisher(source PlanSource, cfg config.Stream, log *slog.Logger) *Publisher {
	return &Publisher{source: source, cfg: cfg, log: log.With("service", "sse")}
}

// Every payload carries its type so clients can classify events from the
// data frame alone, without relying on the SSE event name.

type connectedPayload struct {
	Type      string    `json:"type"`
	PlanID    string    `json:"planId"`
	Timestamp time.Time `json:"timestamp"`
}

type progressPayload struct {
	Type             string               `json:"type"`
	PlanID           string               `json:"planId"`
	Status           string               `json:"status"`
	CurrentStepIndex int                  `json:"currentStepIndex"`
	StepCount        int                  `json:"stepCount"`
	NewSteps         []plan.ExecutionStep `json:"newSteps"`
}

type donePayload struct {
	Type        string `json:"type"`
	PlanID      string `json:"planId"`
	Status      string `json:"status"`
	FinalResult string `json:"finalResult,omitempty"`
}

type errorPayload struct {
	Type    string `json:"type"`
	PlanID  string `json:"planId"`
	Message string `json:"message"`
}

// stepCursor is the per-step progress a subscriber has already been sent.
type stepCursor struct {
	status  plan.StepStatus
	records int
}

// cursor is one subscriber's last-delivered view of a plan. Each subscriber
// owns its cursor, so concurrent streams of the same plan are independent.
type cursor struct {
	primed    bool
	status    plan.Status
	stepIndex int
	steps     []stepCursor
}

// Stream serves one SSE session for planID. A connected event is sent
// immediately, progress events whenever the snapshot changes, and exactly
// one done or error event before the stream closes. Sessions are bounded by
// cfg.MaxLifetime regardless of plan state.
func (p *Publisher) Stream(w http.ResponseWriter, r *http.Request, planID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, flusher, "connected", connectedPayload{
		Type: "connected", PlanID: planID, Timestamp: time.Now(),
	})

	snapshot, err := p.source.GetDetails(planID)
	if err != nil {
		writeEvent(w, flusher, "error", errorPayload{
			Type: "error", PlanID: planID, Message: "plan not found",
		})
		return
	}

	var cur cursor
	if done := p.emit(w, flusher, planID, snapshot, &cur); done {
		return
	}

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	lifetime := time.NewTimer(p.cfg.MaxLifetime)
	defer lifetime.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-lifetime.C:
			p.log.Info("stream session expired", "plan_id", planID)
			writeEvent(w, flusher, "error", errorPayload{
				Type: "error", PlanID: planID, Message: "session lifetime exceeded",
			})
			return
		case <-ticker.C:
			snapshot, err := p.source.GetDetails(planID)
			if err != nil {
				writeEvent(w, flusher, "error", errorPayload{
					Type: "error", PlanID: planID, Message: "plan no longer available",
				})
				return
			}
			if done := p.emit(w, flusher, planID, snapshot, &cur); done {
				return
			}
		}
	}
}

// emit sends whatever the snapshot warrants and reports whether the stream
// is finished. Progress events are incremental: each step appears only when
// it changed since the subscriber's last event, trimmed to the think-act
// records the subscriber has not seen yet.
func (p *Publisher) emit(w http.ResponseWriter, flusher http.Flusher, planID string, snapshot *plan.Plan, cur *cursor) bool {
	if snapshot.Status.IsTerminal() {
		if snapshot.Status == plan.StatusFailed {
			writeEvent(w, flusher, "error", errorPayload{
				Type: "error", PlanID: planID, Message: snapshot.FinalResult,
			})
		} else {
			writeEvent(w, flusher, "done", donePayload{
				Type:        "done",
				PlanID:      planID,
				Status:      string(snapshot.Status),
				FinalResult: snapshot.FinalResult,
			})
		}
		return true
	}

	changed := !cur.primed ||
		snapshot.Status != cur.status ||
		snapshot.CurrentStepIndex != cur.stepIndex

	var newSteps []plan.ExecutionStep
	for i := range snapshot.Steps {
		s := snapshot.Steps[i]
		var prev stepCursor
		if i < len(cur.steps) {
			prev = cur.steps[i]
		}
		if s.Status == prev.status && len(s.ThinkActRecords) == prev.records {
			continue
		}
		changed = true
		delta := s
		delta.ThinkActRecords = s.ThinkActRecords[prev.records:]
		newSteps = append(newSteps, delta)
	}

	if !changed {
		return false
	}

	cur.primed = true
	cur.status = snapshot.Status
	cur.stepIndex = snapshot.CurrentStepIndex
	cur.steps = cur.steps[:0]
	for i := range snapshot.Steps {
		cur.steps = append(cur.steps, stepCursor{
			status:  snapshot.Steps[i].Status,
			records: len(snapshot.Steps[i].ThinkActRecords),
		})
	}

	writeEvent(w, flusher, "progress", progressPayload{
		Type:             "progress",
		PlanID:           planID,
		Status:           string(snapshot.Status),
		CurrentStepIndex: snapshot.CurrentStepIndex,
		StepCount:        len(snapshot.Steps),
		NewSteps:         newSteps,
	})
	return false
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal sse payload", "event", event, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
