package mcp

import (
	"context"
	"fmt"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcpprotocol "github.com/mark3labs/mcp-go/mcp"

	mcpdomain "github.com/planforge/planforge/internal/domain/mcp"
)

// session abstracts one connection attempt's client+transport pair so the
// retry driver can be exercised against fakes. A session is owned exclusively
// by the attempt that built it and is never reused: a failed transport may
// hold a closed internal channel.
type session interface {
	// Initialize performs the protocol handshake.
	Initialize(ctx context.Context) error
	// ListTools enumerates the tools the server exposes.
	ListTools(ctx context.Context) ([]ToolInfo, error)
	// CallTool invokes a named tool and returns its text output.
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
	// CloseGracefully shuts the client down, giving subprocess-backed
	// transports a grace window to exit cleanly.
	CloseGracefully(ctx context.Context) error
	// ForceClose unconditionally tears the transport down. Idempotent;
	// double-close must not panic or error.
	ForceClose()
}

// ToolInfo describes a tool discovered on an MCP server.
type ToolInfo struct {
	Name        string
	Description string
}

// sessionFactory builds a fresh session for one connection attempt.
type sessionFactory func(def *mcpdomain.ServerDef) (session, error)

// newMCPSession is the production sessionFactory, building an mcp-go client
// on the transport the ServerDef names.
func newMCPSession(def *mcpdomain.ServerDef) (session, error) {
	var (
		c   *mcpclient.Client
		err error
	)

	switch def.Transport {
	case mcpdomain.TransportStdio:
		c, err = mcpclient.NewStdioMCPClient(def.Command, envMapToSlice(def.Env), def.Args...)

	case mcpdomain.TransportSSE:
		var opts []transport.ClientOption
		if len(def.Headers) > 0 {
			opts = append(opts, transport.WithHeaders(def.Headers))
		}
		c, err = mcpclient.NewSSEMCPClient(def.URL, opts...)

	case mcpdomain.TransportStreamableHTTP:
		var opts []transport.StreamableHTTPCOption
		if len(def.Headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(def.Headers))
		}
		c, err = mcpclient.NewStreamableHttpClient(def.URL, opts...)

	default:
		return nil, fmt.Errorf("unsupported transport: %s", def.Transport)
	}
	if err != nil {
		return nil, err
	}

	return &mcpSession{client: c, serverName: def.Name}, nil
}

// mcpSession implements session over an mcp-go client.
type mcpSession struct {
	client     *mcpclient.Client
	serverName string
	closeOnce  sync.Once
}

func (s *mcpSession) Initialize(ctx context.Context) error {
	req := mcpprotocol.InitializeRequest{}
	req.Params.ProtocolVersion = mcpprotocol.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcpprotocol.Implementation{
		Name:    "planforge",
		Version: "1.0.0",
	}

	_, err := s.client.Initialize(ctx, req)
	return err
}

func (s *mcpSession) ListTools(ctx context.Context) ([]ToolInfo, error) {
	res, err := s.client.ListTools(ctx, mcpprotocol.ListToolsRequest{})
	if err != nil {
		return nil, err
	}

	infos := make([]ToolInfo, 0, len(res.Tools))
	for i := range res.Tools {
		infos = append(infos, ToolInfo{
			Name:        res.Tools[i].Name,
			Description: res.Tools[i].Description,
		})
	}
	return infos, nil
}

func (s *mcpSession) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcpprotocol.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return "", err
	}

	var out string
	for _, content := range res.Content {
		if text, ok := content.(mcpprotocol.TextContent); ok {
			out += text.Text
		}
	}
	if res.IsError {
		return out, fmt.Errorf("tool %s on server %s returned an error: %s", name, s.serverName, out)
	}
	return out, nil
}

func (s *mcpSession) CloseGracefully(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- s.close()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *mcpSession) ForceClose() {
	_ = s.close()
}

// close is idempotent; mcp-go's Close tears down the underlying transport,
// including the child process for stdio servers.
func (s *mcpSession) close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.client.Close()
	})
	return err
}

// envMapToSlice converts a map to the KEY=VALUE slice format expected by exec.Cmd.
func envMapToSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
