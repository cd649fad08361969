package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/planforge/planforge/internal/domain"
)

func echoTool(group, name string) Tool {
	return Func{
		ToolName: name,
		Group:    group,
		Fn: func(_ context.Context, call Call) (string, error) {
			return call.Arguments, nil
		},
	}
}

func TestKey(t *testing.T) {
	if got := Key("browser", "click"); got != "browser_click" {
		t.Errorf("Key = %q, want browser_click", got)
	}
	if got := Key("", "terminate"); got != "terminate" {
		t.Errorf("Key without group = %q, want terminate", got)
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("fs", "read_file")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := r.Get("fs_read_file")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != "read_file" {
		t.Errorf("name = %q", got.Name())
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(echoTool("fs", "read_file"))

	err := r.Register(echoTool("fs", "read_file"))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGetUnknownIsNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDescribeIncludesTerminate(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(echoTool("fs", "read_file"))

	found := false
	for _, d := range r.Describe() {
		if d.Key == TerminateName {
			found = true
		}
	}
	if !found {
		t.Error("Describe should always include the terminate tool")
	}
}
