package lifecycle

import "context"

// Component is anything the Manager starts before a run and stops after it:
// the tracing provider, the quiz host, the browser session.
type Component interface {
	// Start brings the component up. ctx bounds startup only.
	Start(ctx context.Context) error

	// Stop releases the component's resources within the ctx deadline.
	Stop(ctx context.Context) error

	// Name is used in logs and errors. Must be non-empty.
	Name() string
}
