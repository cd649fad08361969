package plan

import (
	"testing"
	"time"
)

func TestStatusIsTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusStopped}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusRunning} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	now := time.Now()
	p := &Plan{
		PlanID:     "plan-1",
		RootPlanID: "plan-1",
		Status:     StatusRunning,
		Parameters: map[string]string{"query": "weather"},
		Steps: []ExecutionStep{
			{
				StepIndex: 0,
				StartTime: now,
				Status:    StepRunning,
				ThinkActRecords: []ThinkActRecord{
					{ThinkContent: "first", ToolCalls: []ToolCallRecord{{ToolKey: "web_search", Succeeded: true}}},
				},
			},
		},
	}

	snap := p.Snapshot()

	// Mutations on the live plan must not show through the snapshot.
	p.Parameters["query"] = "changed"
	p.Steps[0].ThinkActRecords[0].ToolCalls[0].Succeeded = false
	p.Steps = append(p.Steps, ExecutionStep{StepIndex: 1})
	end := now.Add(time.Second)
	p.Steps[0].EndTime = &end

	if snap.Parameters["query"] != "weather" {
		t.Error("snapshot parameters shared with live plan")
	}
	if !snap.Steps[0].ThinkActRecords[0].ToolCalls[0].Succeeded {
		t.Error("snapshot tool calls shared with live plan")
	}
	if len(snap.Steps) != 1 {
		t.Errorf("snapshot steps len = %d, want 1", len(snap.Steps))
	}
	if snap.Steps[0].EndTime != nil {
		t.Error("snapshot end time shared with live plan")
	}
}

func TestSnapshotPreservesCompletedAt(t *testing.T) {
	done := time.Now()
	p := &Plan{PlanID: "p", Status: StatusCompleted, CompletedAt: &done}

	snap := p.Snapshot()
	if snap.CompletedAt == nil || !snap.CompletedAt.Equal(done) {
		t.Fatal("snapshot lost CompletedAt")
	}
	if snap.CompletedAt == p.CompletedAt {
		t.Error("snapshot CompletedAt aliases live pointer")
	}
}
