// Package config provides hierarchical configuration loading for PlanForge.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the PlanForge engine.
// A loaded Config is an immutable snapshot: components receive it (or a
// section of it) at construction and never consult a shared mutable bean.
// Reloading means calling Load again and rebuilding the components.
type Config struct {
	Server      Server      `yaml:"server"`
	NATS        NATS        `yaml:"nats"`
	LLM         LLM         `yaml:"llm"`
	Logging     Logging     `yaml:"logging"`
	Breaker     Breaker     `yaml:"breaker"`
	Engine      Engine      `yaml:"engine"`
	MCP         MCP         `yaml:"mcp"`
	ContentSave ContentSave `yaml:"content_save"`
	Stream      Stream      `yaml:"stream"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// NATS holds NATS JetStream configuration. An empty URL disables event
// publishing entirely; the engine runs fine without a broker.
type NATS struct {
	URL string `yaml:"url"`
}

// LLM holds configuration for the reasoning model backend. The API key is
// environment-only and never read from the YAML file.
type LLM struct {
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
	APIKey    string `yaml:"-"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for external tool services.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Engine holds plan execution engine configuration.
type Engine struct {
	Workers         int           `yaml:"workers"`           // bounded worker pool size
	MaxSteps        int           `yaml:"max_steps"`         // think-act cycle budget per plan
	RetentionWindow time.Duration `yaml:"retention_window"`  // terminal plan retention
	RetentionSizeMB int64         `yaml:"retention_size_mb"` // retention cache budget
	TemplatesFile   string        `yaml:"templates_file"`    // optional plan template seed file
}

// MCP holds connection configuration for external MCP tool servers.
// ServersFile names a JSON file with the server definitions to connect at
// startup; a missing file means no external tool servers.
type MCP struct {
	ServersFile     string        `yaml:"servers_file"`
	MaxRetries      int           `yaml:"max_retries"`
	BaseBackoff     time.Duration `yaml:"base_backoff"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	InitTimeout     time.Duration `yaml:"init_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ContentSave holds smart content saving configuration.
type ContentSave struct {
	Enabled bool   `yaml:"enabled"`
	BaseDir string `yaml:"base_dir"`
}

// Stream holds SSE progress streaming configuration.
type Stream struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxLifetime  time.Duration `yaml:"max_lifetime"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		NATS: NATS{
			URL: "",
		},
		LLM: LLM{
			Model:     "gpt-4o-mini",
			MaxTokens: 4096,
		},
		Logging: Logging{
			Level:   "info",
			Service: "planforge",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Engine: Engine{
			Workers:         8,
			MaxSteps:        20,
			RetentionWindow: 30 * time.Minute,
			RetentionSizeMB: 64,
			TemplatesFile:   "plan-templates.json",
		},
		MCP: MCP{
			ServersFile:     "mcp-servers.json",
			MaxRetries:      3,
			BaseBackoff:     time.Second,
			RequestTimeout:  30 * time.Second,
			InitTimeout:     60 * time.Second,
			ShutdownTimeout: 3 * time.Second,
		},
		ContentSave: ContentSave{
			Enabled: true,
			BaseDir: "extensions/inner_storage",
		},
		Stream: Stream{
			PollInterval: time.Second,
			MaxLifetime:  5 * time.Minute,
		},
	}
}
