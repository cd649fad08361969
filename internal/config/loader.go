package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "planforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PLANFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "PLANFORGE_CORS_ORIGIN")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.LLM.Model, "PLANFORGE_LLM_MODEL")
	setString(&cfg.LLM.BaseURL, "PLANFORGE_LLM_BASE_URL")
	setInt(&cfg.LLM.MaxTokens, "PLANFORGE_LLM_MAX_TOKENS")
	setString(&cfg.LLM.APIKey, "PLANFORGE_LLM_API_KEY")
	setString(&cfg.Logging.Level, "PLANFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PLANFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PLANFORGE_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "PLANFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PLANFORGE_BREAKER_TIMEOUT")
	setInt(&cfg.Engine.Workers, "PLANFORGE_ENGINE_WORKERS")
	setInt(&cfg.Engine.MaxSteps, "PLANFORGE_ENGINE_MAX_STEPS")
	setDuration(&cfg.Engine.RetentionWindow, "PLANFORGE_ENGINE_RETENTION")
	setInt64(&cfg.Engine.RetentionSizeMB, "PLANFORGE_ENGINE_RETENTION_SIZE_MB")
	setString(&cfg.Engine.TemplatesFile, "PLANFORGE_ENGINE_TEMPLATES_FILE")
	setString(&cfg.MCP.ServersFile, "PLANFORGE_MCP_SERVERS_FILE")
	setInt(&cfg.MCP.MaxRetries, "PLANFORGE_MCP_MAX_RETRIES")
	setDuration(&cfg.MCP.BaseBackoff, "PLANFORGE_MCP_BASE_BACKOFF")
	setDuration(&cfg.MCP.RequestTimeout, "PLANFORGE_MCP_REQUEST_TIMEOUT")
	setDuration(&cfg.MCP.InitTimeout, "PLANFORGE_MCP_INIT_TIMEOUT")
	setDuration(&cfg.MCP.ShutdownTimeout, "PLANFORGE_MCP_SHUTDOWN_TIMEOUT")
	setBool(&cfg.ContentSave.Enabled, "PLANFORGE_CONTENT_SAVE_ENABLED")
	setString(&cfg.ContentSave.BaseDir, "PLANFORGE_CONTENT_SAVE_DIR")
	setDuration(&cfg.Stream.PollInterval, "PLANFORGE_STREAM_POLL_INTERVAL")
	setDuration(&cfg.Stream.MaxLifetime, "PLANFORGE_STREAM_MAX_LIFETIME")
}

// validate rejects configurations the engine cannot run with.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be >= 1, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.MaxSteps < 1 {
		return fmt.Errorf("engine.max_steps must be >= 1, got %d", cfg.Engine.MaxSteps)
	}
	if cfg.MCP.MaxRetries < 1 {
		return fmt.Errorf("mcp.max_retries must be >= 1, got %d", cfg.MCP.MaxRetries)
	}
	if cfg.Stream.PollInterval <= 0 {
		return errors.New("stream.poll_interval must be positive")
	}
	if cfg.Stream.MaxLifetime <= 0 {
		return errors.New("stream.max_lifetime must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
