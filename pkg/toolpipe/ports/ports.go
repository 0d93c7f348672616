// Package ports defines the contracts the toolpipe engines need from each
// other and from infrastructure. The run loop drives a Handler; the relay
// drives a Spawner and the Process it returns.
package ports

import (
	"context"
	"io"
	"time"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
)

// Handler answers one inbound envelope.
type Handler interface {
	// Handle receives the decoded envelope and the trimmed line it came
	// from. It returns the encoded reply line, or nil when nothing must be
	// written (notifications).
	Handle(ctx context.Context, env *messages.Envelope, line []byte) ([]byte, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env *messages.Envelope, line []byte) ([]byte, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, env *messages.Envelope, line []byte) ([]byte, error) {
	return f(ctx, env, line)
}

// Process is a running tool host child.
type Process interface {
	// ID identifies the child in logs.
	ID() string

	// Stdin is the child's input stream.
	Stdin() io.WriteCloser

	// Stdout is the child's output stream.
	Stdout() io.Reader

	// Terminate asks the child to exit, waits up to grace, then kills it.
	// It returns once the child has been reaped.
	Terminate(grace time.Duration) error
}

// Spawner starts tool host children.
type Spawner interface {
	Spawn(ctx context.Context) (Process, error)
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(ctx context.Context) (Process, error)

// Spawn calls f.
func (f SpawnerFunc) Spawn(ctx context.Context) (Process, error) {
	return f(ctx)
}
