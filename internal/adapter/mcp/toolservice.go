package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/planforge/planforge/internal/config"
	mcpdomain "github.com/planforge/planforge/internal/domain/mcp"
	"github.com/planforge/planforge/internal/domain/tool"
	"github.com/planforge/planforge/internal/resilience"
)

// ToolService is a live connection to an MCP server, exposing its tools to
// the plan execution loop. Calls are bounded by the per-request timeout and
// guarded by a per-server circuit breaker.
type ToolService struct {
	def     *mcpdomain.ServerDef
	sess    session
	breaker *resilience.Breaker
	cfg     config.MCP
}

func newToolService(def *mcpdomain.ServerDef, sess session, breaker *resilience.Breaker, cfg config.MCP) *ToolService {
	return &ToolService{def: def, sess: sess, breaker: breaker, cfg: cfg}
}

// ServerName returns the connected server's configured name.
func (s *ToolService) ServerName() string {
	return s.def.Name
}

// RegisterTools discovers the server's tools and registers each one in reg
// under the server's service group.
func (s *ToolService) RegisterTools(ctx context.Context, reg *tool.Registry) error {
	infos, err := s.sess.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("list tools on %s: %w", s.def.Name, err)
	}

	for _, info := range infos {
		t := &remoteTool{svc: s, name: info.Name, description: info.Description}
		if err := reg.Register(t); err != nil {
			return err
		}
	}

	slog.Info("registered mcp tools", "server", s.def.Name, "count", len(infos))
	return nil
}

// CallTool invokes a named tool on the server under the per-request timeout.
func (s *ToolService) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	var out string
	err := s.breaker.Execute(func() error {
		var callErr error
		out, callErr = s.sess.CallTool(ctx, name, args)
		return callErr
	})
	if err != nil {
		return "", classify(err)
	}
	return out, nil
}

// Close tears the connection down, graceful first, forced second.
func (s *ToolService) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.sess.CloseGracefully(ctx); err != nil {
		slog.Debug("graceful shutdown failed, forcing close", "server", s.def.Name, "error", err)
	}
	s.sess.ForceClose()
}

// remoteTool adapts one MCP server tool to the engine's Tool interface.
type remoteTool struct {
	svc         *ToolService
	name        string
	description string
}

func (t *remoteTool) Name() string         { return t.name }
func (t *remoteTool) ServiceGroup() string { return t.svc.def.ServiceGroup }
func (t *remoteTool) Description() string  { return t.description }

func (t *remoteTool) Invoke(ctx context.Context, call tool.Call) (string, error) {
	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", &ClassifiedError{Kind: KindMalformed, Err: fmt.Errorf("tool arguments: %w", err)}
		}
	}
	return t.svc.CallTool(ctx, t.name, args)
}
