// Package relay implements the bridge role: it owns a single tool host child,
// forwards each inbound line to it verbatim and relays the child's reply
// verbatim. The child is started lazily and restarted after it fails.
package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/conneroisu/toolpipe/internal/transport"
	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/ports"
)

// Error messages synthesized by the relay. All use the internal error code.
const (
	MsgStartFailed = "Failed to start MCP server"
	MsgNoResponse  = "No response from server"
	MsgTimeout     = "Timed out waiting for server response"
	MsgClosed      = "Relay is shutting down"
)

// State is the lifecycle state of the relay's child.
type State int

const (
	// StateNotStarted means no child is running. The next envelope starts one.
	StateNotStarted State = iota
	// StateRunning means a child is running and in sync.
	StateRunning
	// StateTerminated means the relay was closed.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Relay implements ports.Handler by forwarding to a child tool host.
type Relay struct {
	spawner ports.Spawner
	timeout time.Duration
	grace   time.Duration
	maxLine int
	log     zerolog.Logger

	mu    sync.Mutex
	state State
	child *child
}

// child is the live handle on a running tool host.
type child struct {
	proc   ports.Process
	reader *transport.LineReader
	writer *transport.LineWriter
}

// Verify interface compliance at compile time.
var _ ports.Handler = (*Relay)(nil)

// New creates a relay. opts.Spawner is required.
func New(opts options.RelayOptions) (*Relay, error) {
	if opts.Spawner == nil {
		return nil, pipeerrs.NewValidationError(
			pipeerrs.ErrCodeInvalidConfig,
			"relay requires a spawner",
			nil,
			"spawner",
			nil,
		)
	}

	return &Relay{
		spawner: opts.Spawner,
		timeout: opts.Timeout(),
		grace:   opts.Grace(),
		maxLine: opts.LineLimit(),
		log:     opts.Log().With().Str("component", "relay").Logger(),
	}, nil
}

// State returns the current lifecycle state.
func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// Handle forwards line to the child and returns its reply. Notifications
// are forwarded without waiting and produce no reply. Failures to start,
// write to or hear back from the child are answered with internal errors
// carrying the inbound id.
func (r *Relay) Handle(ctx context.Context, env *messages.Envelope, line []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	notification := env.IsNotification()

	if r.state == StateTerminated {
		return r.reply(env, notification, MsgClosed)
	}

	c, err := r.ensureChild(ctx)
	if err != nil {
		withDetail(r.log.Error(), err).Msg("failed to start child")

		return r.reply(env, notification, MsgStartFailed)
	}

	if err := c.writer.WriteLine(line); err != nil {
		r.log.Error().Err(err).Str("child_id", c.proc.ID()).Msg("write to child failed")
		r.teardown("write failed")

		return r.reply(env, notification, MsgNoResponse)
	}

	if notification {
		r.log.Debug().Str("method", env.Method).Msg("forwarded notification")

		return nil, nil
	}

	reply, err := r.awaitReply(ctx, c)
	switch {
	case err == nil:
		return reply, nil
	case ctx.Err() != nil:
		r.teardown("cancelled")

		return nil, ctx.Err()
	case pipeerrs.HasCode(err, pipeerrs.ErrCodeReplyTimeout):
		r.log.Warn().Dur("timeout", r.timeout).Msg("child reply timed out")
		r.teardown("timeout")

		return r.reply(env, false, MsgTimeout)
	default:
		withDetail(r.log.Warn(), err).Msg("no reply from child")
		r.teardown("no reply")

		return r.reply(env, false, MsgNoResponse)
	}
}

// Close terminates the child, if any, and stops the relay. It is safe to
// call more than once.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateTerminated {
		return nil
	}

	var err error
	if r.child != nil {
		err = r.stopChild("shutdown")
	}
	r.state = StateTerminated

	return err
}

func (r *Relay) ensureChild(ctx context.Context) (*child, error) {
	if r.child != nil {
		return r.child, nil
	}

	proc, err := r.spawner.Spawn(ctx)
	if err != nil {
		return nil, err
	}

	r.child = &child{
		proc:   proc,
		reader: transport.NewLineReader(proc.Stdout(), r.maxLine),
		writer: transport.NewLineWriter(proc.Stdin()),
	}
	r.state = StateRunning
	r.log.Info().Str("child_id", proc.ID()).Msg("child running")

	return r.child, nil
}

// awaitReply returns the next non-blank line from the child, trimmed.
func (r *Relay) awaitReply(ctx context.Context, c *child) ([]byte, error) {
	waitCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	for {
		line, err := c.reader.Next(waitCtx)
		if err != nil {
			if waitCtx.Err() != nil && ctx.Err() == nil {
				return nil, pipeerrs.NewTransportError(
					pipeerrs.ErrCodeReplyTimeout,
					"wait for child reply",
					err,
				)
			}

			if errors.Is(err, io.EOF) {
				return nil, pipeerrs.NewProcessError(
					pipeerrs.ErrCodeProcessExited,
					"child closed its output",
					err,
					"",
				).WithChildID(c.proc.ID())
			}

			return nil, pipeerrs.NewTransportError(
				pipeerrs.ErrCodeStreamClosed,
				"read child reply",
				err,
			)
		}

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}

		return trimmed, nil
	}
}

// teardown stops the current child and returns the relay to NotStarted so
// the next envelope starts a fresh one.
func (r *Relay) teardown(reason string) {
	if r.child == nil {
		return
	}
	if err := r.stopChild(reason); err != nil {
		r.log.Warn().Err(err).Msg("child teardown failed")
	}
	r.state = StateNotStarted
}

func (r *Relay) stopChild(reason string) error {
	c := r.child
	r.child = nil

	r.log.Info().
		Str("child_id", c.proc.ID()).
		Str("reason", reason).
		Msg("stopping child")

	err := c.proc.Terminate(r.grace)
	c.reader.Close()

	return err
}

// withDetail attaches err to ev, with its code and metadata when it is one
// of ours.
func withDetail(ev *zerolog.Event, err error) *zerolog.Event {
	if pipeErr, ok := pipeerrs.AsPipeError(err); ok {
		ev = ev.Object("error_detail", pipeErr)
	}

	return ev.Err(err)
}

// reply encodes a synthesized internal error for env. Notifications get
// no reply.
func (r *Relay) reply(env *messages.Envelope, notification bool, message string) ([]byte, error) {
	if notification {
		return nil, nil
	}

	return messages.Encode(messages.NewError(env.ReplyID(), pipeerrs.CodeInternalError, message))
}
