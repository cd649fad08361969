// Package mcp defines domain types for Model Context Protocol (MCP) tool
// servers: server definitions, transports, and validation, independent of
// the client library used to connect.
package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/planforge/planforge/internal/domain"
)

// TransportType identifies the communication transport for an MCP server.
type TransportType string

const (
	TransportStdio          TransportType = "stdio"
	TransportSSE            TransportType = "sse"
	TransportStreamableHTTP TransportType = "streamable-http"
)

// validTransports is the set of recognized transport types.
var validTransports = map[TransportType]bool{
	TransportStdio:          true,
	TransportSSE:            true,
	TransportStreamableHTTP: true,
}

// ServerDef describes an external MCP tool server.
// ServiceGroup names the tool namespace its tools are registered under.
type ServerDef struct {
	Name         string            `json:"name"`
	ServiceGroup string            `json:"serviceGroup,omitempty"`
	Description  string            `json:"description,omitempty"`
	Transport    TransportType     `json:"transport"`
	Command      string            `json:"command,omitempty"`
	Args         []string          `json:"args,omitempty"`
	URL          string            `json:"url,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Enabled      bool              `json:"enabled"`
}

// Validate checks that the ServerDef has all required fields and consistent
// transport-specific configuration. Returns a domain.ErrValidation-wrapped
// error on failure.
func (s *ServerDef) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	if s.Transport == "" {
		return fmt.Errorf("%w: transport is required", domain.ErrValidation)
	}

	if !validTransports[s.Transport] {
		return fmt.Errorf("%w: invalid transport %q", domain.ErrValidation, s.Transport)
	}

	switch s.Transport {
	case TransportStdio:
		if s.Command == "" {
			return fmt.Errorf("%w: command is required for stdio transport", domain.ErrValidation)
		}
	case TransportSSE, TransportStreamableHTTP:
		if s.URL == "" {
			return fmt.Errorf("%w: url is required for %s transport", domain.ErrValidation, s.Transport)
		}
	}

	return nil
}

// ParseServerDef decodes a JSON connection descriptor into a ServerDef.
// A malformed descriptor is a configuration error, wrapping the parse cause.
func ParseServerDef(connectionConfig []byte) (*ServerDef, error) {
	var def ServerDef
	if err := json.Unmarshal(connectionConfig, &def); err != nil {
		return nil, fmt.Errorf("%w: parse connection config: %v", domain.ErrValidation, err)
	}
	return &def, nil
}

// ParseServerDefs decodes a JSON array of connection descriptors, validating
// each one.
func ParseServerDefs(data []byte) ([]*ServerDef, error) {
	var defs []*ServerDef
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("%w: parse server definitions: %v", domain.ErrValidation, err)
	}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("server %q: %w", def.Name, err)
		}
	}
	return defs, nil
}
