package mcp

import (
	"errors"
	"strings"
	"testing"

	"github.com/planforge/planforge/internal/domain"
)

func TestServerDef_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     ServerDef
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid stdio server",
			def: ServerDef{
				Name:      "fs-server",
				Transport: TransportStdio,
				Command:   "/usr/bin/mcp-server",
				Args:      []string{"--root", "/tmp"},
			},
			wantErr: false,
		},
		{
			name: "valid sse server",
			def: ServerDef{
				Name:      "remote-server",
				Transport: TransportSSE,
				URL:       "http://localhost:8080/sse",
			},
			wantErr: false,
		},
		{
			name: "valid streamable http server",
			def: ServerDef{
				Name:      "http-server",
				Transport: TransportStreamableHTTP,
				URL:       "http://localhost:8080/mcp",
			},
			wantErr: false,
		},
		{
			name: "missing name",
			def: ServerDef{
				Transport: TransportStdio,
				Command:   "/usr/bin/mcp-server",
			},
			wantErr: true,
			errMsg:  "name is required",
		},
		{
			name: "invalid transport",
			def: ServerDef{
				Name:      "bad-server",
				Transport: "grpc",
			},
			wantErr: true,
			errMsg:  "invalid transport",
		},
		{
			name: "stdio without command",
			def: ServerDef{
				Name:      "fs-server",
				Transport: TransportStdio,
			},
			wantErr: true,
			errMsg:  "command is required",
		},
		{
			name: "sse without url",
			def: ServerDef{
				Name:      "remote-server",
				Transport: TransportSSE,
			},
			wantErr: true,
			errMsg:  "url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("error should wrap ErrValidation, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseServerDef(t *testing.T) {
	def, err := ParseServerDef([]byte(`{"name":"fs","transport":"stdio","command":"mcp-fs","enabled":true}`))
	if err != nil {
		t.Fatalf("ParseServerDef: %v", err)
	}
	if def.Name != "fs" || def.Transport != TransportStdio || !def.Enabled {
		t.Errorf("unexpected def: %+v", def)
	}
}

func TestParseServerDefMalformed(t *testing.T) {
	_, err := ParseServerDef([]byte(`{"name":`))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed config, got %v", err)
	}
}

func TestParseServerDefs(t *testing.T) {
	defs, err := ParseServerDefs([]byte(`[
		{"name":"fs","transport":"stdio","command":"mcp-fs","enabled":true},
		{"name":"web","serviceGroup":"search","transport":"sse","url":"http://localhost:9000/sse","enabled":false}
	]`))
	if err != nil {
		t.Fatalf("ParseServerDefs: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("got %d defs, want 2", len(defs))
	}
	if defs[1].ServiceGroup != "search" || defs[1].Enabled {
		t.Errorf("unexpected def: %+v", defs[1])
	}
}

func TestParseServerDefsRejectsInvalidEntry(t *testing.T) {
	_, err := ParseServerDefs([]byte(`[{"name":"fs","transport":"stdio","enabled":true}]`))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for stdio without command, got %v", err)
	}
}
