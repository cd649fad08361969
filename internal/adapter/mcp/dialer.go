// Package mcp connects PlanForge to external MCP tool servers with
// per-attempt fresh transports, linear-backoff retry, and classified
// failure diagnosis.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/planforge/planforge/internal/config"
	mcpdomain "github.com/planforge/planforge/internal/domain/mcp"
	"github.com/planforge/planforge/internal/resilience"
)

// Dialer builds ready-to-use tool service handles for external MCP servers.
type Dialer struct {
	cfg     config.MCP
	breaker config.Breaker
	factory sessionFactory
	sleep   func(time.Duration) // injectable for tests
}

// NewDialer creates a Dialer from connection and breaker configuration.
func NewDialer(cfg config.MCP, breaker config.Breaker) *Dialer {
	return &Dialer{
		cfg:     cfg,
		breaker: breaker,
		factory: newMCPSession,
		sleep:   time.Sleep,
	}
}

// Connect validates def and establishes a connection with retry.
//
// A disabled server yields (nil, nil): absence of a connection, not an error.
// Exhausting all attempts also yields (nil, nil) with the last diagnosis
// logged — callers treat a missing tool service as a degraded catalog, not a
// fatal condition. Configuration problems and name-resolution failures are
// returned as classified errors; DNS failures skip remaining retries since
// repeating an unresolvable lookup cannot succeed.
func (d *Dialer) Connect(ctx context.Context, def *mcpdomain.ServerDef) (*ToolService, error) {
	if err := def.Validate(); err != nil {
		return nil, &ClassifiedError{Kind: KindConfig, Err: err}
	}

	if !def.Enabled {
		slog.Info("skipping disabled mcp server", "server", def.Name)
		return nil, nil
	}

	var lastErr *ClassifiedError

	for attempt := 1; attempt <= d.cfg.MaxRetries; attempt++ {
		// Fresh session per attempt: a previously-failed transport may hold
		// a closed internal channel and must never be reused.
		sess, err := d.factory(def)
		if err != nil {
			lastErr = classify(err)
			slog.Error("mcp transport build failed",
				"server", def.Name,
				"attempt", attempt,
				"max_retries", d.cfg.MaxRetries,
				"kind", lastErr.Kind,
				"error", err,
			)
			if !d.backoffOrBail(attempt, lastErr, def.Name) {
				break
			}
			continue
		}

		initCtx, cancel := context.WithTimeout(ctx, d.cfg.InitTimeout)
		start := time.Now()
		err = sess.Initialize(initCtx)
		cancel()

		if err == nil {
			slog.Info("mcp server connected",
				"server", def.Name,
				"attempt", attempt,
				"init_duration", time.Since(start),
			)
			br := resilience.NewBreaker(d.breaker.MaxFailures, d.breaker.Timeout)
			return newToolService(def, sess, br, d.cfg), nil
		}

		lastErr = classify(err)
		slog.Error("mcp initialization failed",
			"server", def.Name,
			"attempt", attempt,
			"max_retries", d.cfg.MaxRetries,
			"kind", lastErr.Kind,
			"init_duration", time.Since(start),
			"error", err,
		)

		d.cleanup(sess, def.Name)

		if !d.backoffOrBail(attempt, lastErr, def.Name) {
			if lastErr.Kind == KindDNS {
				return nil, lastErr
			}
			break
		}
	}

	slog.Error("mcp connection attempts exhausted",
		"server", def.Name,
		"max_retries", d.cfg.MaxRetries,
		"last_kind", lastErr.Kind,
		"last_error", lastErr.Err,
	)
	return nil, nil
}

// backoffOrBail decides whether to keep retrying after a failed attempt.
// It returns false for non-retryable failures and for the final attempt;
// otherwise it sleeps the linear backoff (attempt * base) and returns true.
func (d *Dialer) backoffOrBail(attempt int, cerr *ClassifiedError, serverName string) bool {
	if !cerr.Kind.Retryable() {
		slog.Error("name resolution failed, skipping retries", "server", serverName, "error", cerr.Err)
		return false
	}
	if attempt >= d.cfg.MaxRetries {
		return false
	}
	d.sleep(time.Duration(attempt) * d.cfg.BaseBackoff)
	return true
}

// cleanup tears down a failed attempt's session: graceful shutdown bounded
// by the configured window, then an unconditional forced close. Subprocess
// transports need the grace window for the child to exit cleanly.
func (d *Dialer) cleanup(sess session, serverName string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
	defer cancel()

	if err := sess.CloseGracefully(ctx); err != nil {
		slog.Debug("graceful shutdown failed, forcing close", "server", serverName, "error", err)
	}
	sess.ForceClose()
}
