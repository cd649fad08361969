// Package broadcast defines the port for pushing plan progress to
// connected clients in real time.
package broadcast

import "context"

// Broadcaster fans a typed event out to every connected client. Used by the
// executor to mirror plan lifecycle events onto the WebSocket hub.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
