package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/planforge/planforge/internal/config"
	"github.com/planforge/planforge/internal/domain/tool"
	"github.com/planforge/planforge/internal/resilience"
)

type callRecordingSession struct {
	fakeSession
	tools    []ToolInfo
	callName string
	callArgs map[string]any
	result   string
	callErr  error
}

func (c *callRecordingSession) ListTools(ctx context.Context) ([]ToolInfo, error) {
	return c.tools, nil
}

func (c *callRecordingSession) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	c.callName = name
	c.callArgs = args
	return c.result, c.callErr
}

func newTestToolService(sess session) *ToolService {
	def := testDef()
	def.ServiceGroup = "files"
	return newToolService(def, sess, resilience.NewBreaker(3, time.Minute), config.MCP{
		RequestTimeout:  time.Second,
		ShutdownTimeout: 50 * time.Millisecond,
	})
}

func TestRegisterToolsUsesServiceGroup(t *testing.T) {
	sess := &callRecordingSession{tools: []ToolInfo{
		{Name: "read", Description: "read a file"},
		{Name: "write", Description: "write a file"},
	}}
	svc := newTestToolService(sess)
	reg := tool.NewRegistry()

	if err := svc.RegisterTools(context.Background(), reg); err != nil {
		t.Fatal(err)
	}

	got, err := reg.Get("files_read")
	if err != nil {
		t.Fatalf("registered tool not found: %v", err)
	}
	if got.Description() != "read a file" {
		t.Errorf("description = %q", got.Description())
	}
}

func TestRemoteToolInvokePassesArguments(t *testing.T) {
	sess := &callRecordingSession{result: "file contents"}
	svc := newTestToolService(sess)
	reg := tool.NewRegistry()
	sess.tools = []ToolInfo{{Name: "read"}}
	_ = svc.RegisterTools(context.Background(), reg)

	rt, _ := reg.Get("files_read")
	out, err := rt.Invoke(context.Background(), tool.Call{
		PlanID:    "plan-1",
		Arguments: `{"path":"/tmp/x"}`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "file contents" {
		t.Errorf("result = %q", out)
	}
	if sess.callName != "read" || sess.callArgs["path"] != "/tmp/x" {
		t.Errorf("call = %s %v", sess.callName, sess.callArgs)
	}
}

func TestRemoteToolInvokeMalformedArguments(t *testing.T) {
	sess := &callRecordingSession{}
	svc := newTestToolService(sess)
	reg := tool.NewRegistry()
	sess.tools = []ToolInfo{{Name: "read"}}
	_ = svc.RegisterTools(context.Background(), reg)

	rt, _ := reg.Get("files_read")
	_, err := rt.Invoke(context.Background(), tool.Call{Arguments: `{broken`})

	var cerr *ClassifiedError
	if !errors.As(err, &cerr) || cerr.Kind != KindMalformed {
		t.Fatalf("error = %v, want malformed classification", err)
	}
	if sess.callName != "" {
		t.Error("malformed arguments must not reach the server")
	}
}

func TestCallToolOpensBreakerAfterFailures(t *testing.T) {
	sess := &callRecordingSession{callErr: errors.New("connection reset")}
	svc := newTestToolService(sess)

	for i := 0; i < 3; i++ {
		_, _ = svc.CallTool(context.Background(), "read", nil)
	}

	_, err := svc.CallTool(context.Background(), "read", nil)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("error = %v, want open breaker", err)
	}
}
