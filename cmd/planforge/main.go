package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tmc/langchaingo/llms/openai"

	pfhttp "github.com/planforge/planforge/internal/adapter/http"
	"github.com/planforge/planforge/internal/adapter/langchain"
	pfmcp "github.com/planforge/planforge/internal/adapter/mcp"
	pfnats "github.com/planforge/planforge/internal/adapter/nats"
	pfotel "github.com/planforge/planforge/internal/adapter/otel"
	"github.com/planforge/planforge/internal/adapter/ristretto"
	"github.com/planforge/planforge/internal/adapter/sse"
	"github.com/planforge/planforge/internal/adapter/templatestore"
	"github.com/planforge/planforge/internal/adapter/ws"
	"github.com/planforge/planforge/internal/config"
	mcpdomain "github.com/planforge/planforge/internal/domain/mcp"
	"github.com/planforge/planforge/internal/domain/tool"
	"github.com/planforge/planforge/internal/logger"
	"github.com/planforge/planforge/internal/port/messagequeue"
	"github.com/planforge/planforge/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"workers", cfg.Engine.Workers,
		"max_steps", cfg.Engine.MaxSteps,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// NATS is optional; without a broker the engine runs but publishes no
	// lifecycle events.
	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		q, err := pfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Drain() }()
		queue = q
	} else {
		slog.Info("nats disabled, lifecycle events will not be published")
	}

	retention, err := ristretto.NewRetention(cfg.Engine.RetentionSizeMB<<20, cfg.Engine.RetentionWindow)
	if err != nil {
		return fmt.Errorf("retention cache: %w", err)
	}
	defer retention.Close()

	metrics, err := pfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Tools ---

	registry := tool.NewRegistry()
	dialer := pfmcp.NewDialer(cfg.MCP, cfg.Breaker)

	toolServices, err := connectMCPServers(ctx, dialer, registry, cfg.MCP.ServersFile)
	if err != nil {
		return fmt.Errorf("mcp servers: %w", err)
	}
	defer func() {
		for _, svc := range toolServices {
			svc.Close()
		}
	}()

	// --- Services ---

	store := templatestore.NewMemory()
	if n, err := templatestore.SeedFromFile(ctx, store, cfg.Engine.TemplatesFile); err != nil {
		return fmt.Errorf("template seed: %w", err)
	} else if n > 0 {
		slog.Info("plan templates seeded", "file", cfg.Engine.TemplatesFile, "count", n)
	}

	model, err := buildModel(cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	hub := ws.NewHub()

	executor := service.NewExecutor(cfg.Engine, service.Deps{
		Registry:  registry,
		Templates: store,
		Reasoner:  langchain.New(model),
		Saver:     service.NewContentSaver(cfg.ContentSave, log),
		Groups:    service.NewGroupIndex(),
		Retention: retention,
		Queue:     queue,
		Hub:       hub,
		Metrics:   metrics,
		Logger:    log,
	})

	stream := sse.NewPublisher(executor, cfg.Stream, log)

	// --- HTTP ---

	r := chi.NewRouter()
	r.Use(pfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(pfhttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/ws", hub.HandleWS)
	pfhttp.MountRoutes(r, pfhttp.NewHandlers(executor, store, registry, stream, queue))

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Write timeout must outlive the longest SSE session.
		WriteTimeout: cfg.Stream.MaxLifetime + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// connectMCPServers reads the server definition file and connects each
// enabled server, registering its tools. Individual connection failures are
// logged and skipped so one bad server does not block startup.
func connectMCPServers(ctx context.Context, dialer *pfmcp.Dialer, registry *tool.Registry, path string) ([]*pfmcp.ToolService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no mcp server definitions", "file", path)
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	defs, err := mcpdomain.ParseServerDefs(data)
	if err != nil {
		return nil, err
	}

	var services []*pfmcp.ToolService
	for _, def := range defs {
		svc, err := dialer.Connect(ctx, def)
		if err != nil {
			slog.Error("mcp server unavailable", "server", def.Name, "error", err)
			continue
		}
		if svc == nil {
			continue // disabled or exhausted, already logged
		}
		if err := svc.RegisterTools(ctx, registry); err != nil {
			slog.Error("tool registration failed", "server", def.Name, "error", err)
			svc.Close()
			continue
		}
		services = append(services, svc)
	}

	slog.Info("mcp servers connected", "count", len(services), "tools", len(registry.Keys()))
	return services, nil
}

func buildModel(cfg config.LLM) (*openai.LLM, error) {
	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}
