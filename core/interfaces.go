package core

import (
	"context"
	"time"
)

// Handler answers inbound calls for one method name.
// The returned value is serialized into the reply; a returned error becomes
// a transport-level error reply on the caller's side.
type Handler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// Communicator is the transport-agnostic request/response and notification
// interface. Every binding (in-process, HTTP, gRPC, pub/sub, ...) implements
// these five operations with identical semantics so callers never branch on
// transport type.
type Communicator interface {
	// Start brings up any background receive path. Idempotent.
	// A missing required dependency surfaces as a DependencyError.
	Start(ctx context.Context) error

	// Stop cancels receive paths and discards outstanding requests without
	// leaking background work. Idempotent, safe even if never started.
	Stop(ctx context.Context) error

	// RegisterHandler binds a handler to a method name. Takes effect for the
	// next inbound call without a restart, even while running. At most one
	// handler per method; re-registration overwrites with a warning.
	RegisterHandler(method string, handler Handler) error

	// SendRequest issues a call to target and suspends until a correlated
	// reply arrives, a transport error occurs, or timeout elapses, whichever
	// happens first. A timeout fully discards the pending request; a late
	// reply for its id is a silent no-op.
	SendRequest(ctx context.Context, target, method string, params map[string]interface{}, timeout time.Duration) (interface{}, error)

	// SendNotification issues a fire-and-forget call. Same addressing and
	// error semantics as SendRequest for unknown targets; never waits for a
	// reply and never creates a pending request.
	SendNotification(ctx context.Context, target, method string, params map[string]interface{}) error

	// Endpoints returns a copy of the service-name to endpoint map this
	// instance addresses targets against.
	Endpoints() map[string]string
}

// Logger interface - minimal logging interface
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})
}

// NoOpLogger provides a no-op logger implementation
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Error(msg string, fields map[string]interface{}) {}
func (n *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}
