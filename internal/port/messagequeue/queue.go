// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Queue is the port interface for publishing plan lifecycle events. The
// engine is publish-only; consumers live outside this process.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Drain flushes pending messages before closing the connection.
	Drain() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for plan lifecycle events.
const (
	SubjectPlanStarted   = "plans.started"
	SubjectPlanStep      = "plans.step"      // a step changed status or gained records
	SubjectPlanCompleted = "plans.completed" // terminal: completed, failed, or stopped
)
