// Package otel holds PlanForge's OpenTelemetry instruments. Only the global
// API is used; wiring an exporter is a deployment concern.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "planforge"

// Metrics holds all PlanForge metric instruments.
type Metrics struct {
	PlansStarted   metric.Int64Counter
	PlansCompleted metric.Int64Counter
	PlansFailed    metric.Int64Counter
	PlansStopped   metric.Int64Counter
	ToolCalls      metric.Int64Counter
	PlanDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.PlansStarted, err = meter.Int64Counter("planforge.plans.started",
		metric.WithDescription("Number of plan executions started"))
	if err != nil {
		return nil, err
	}

	m.PlansCompleted, err = meter.Int64Counter("planforge.plans.completed",
		metric.WithDescription("Number of plan executions completed"))
	if err != nil {
		return nil, err
	}

	m.PlansFailed, err = meter.Int64Counter("planforge.plans.failed",
		metric.WithDescription("Number of plan executions failed"))
	if err != nil {
		return nil, err
	}

	m.PlansStopped, err = meter.Int64Counter("planforge.plans.stopped",
		metric.WithDescription("Number of plan executions stopped by request"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("planforge.toolcalls",
		metric.WithDescription("Number of tool calls issued by plan steps"))
	if err != nil {
		return nil, err
	}

	m.PlanDuration, err = meter.Float64Histogram("planforge.plan.duration_seconds",
		metric.WithDescription("Plan execution duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
