// Package jsonrpc implements the tool host side of the protocol: the
// capability handshake, the tool catalog and tool invocation.
package jsonrpc

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/ports"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
)

// Host answers handshake, catalog and invocation requests against a fixed
// registry. Requests are served whether or not the handshake completed.
type Host struct {
	registry *registry.Registry
	info     messages.Implementation
	log      zerolog.Logger

	mu          sync.Mutex
	initialized bool
}

// Verify interface compliance at compile time.
var _ ports.Handler = (*Host)(nil)

// NewHost creates a host engine over reg.
func NewHost(reg *registry.Registry, opts options.HostOptions) *Host {
	return &Host{
		registry: reg,
		info: messages.Implementation{
			Name:    opts.ServerName(),
			Version: opts.ServerVersion(),
		},
		log: opts.Log().With().Str("component", "host").Logger(),
	}
}

// Initialized reports whether the handshake-complete notification has
// been received.
func (h *Host) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.initialized
}

// Handle implements ports.Handler.
func (h *Host) Handle(ctx context.Context, env *messages.Envelope, _ []byte) ([]byte, error) {
	reply, err := h.Dispatch(ctx, env)
	if err != nil || reply == nil {
		return nil, err
	}

	return messages.Encode(reply)
}

// Dispatch answers one envelope. It returns nil for notifications.
func (h *Host) Dispatch(ctx context.Context, env *messages.Envelope) (*messages.Envelope, error) {
	switch env.Kind() {
	case messages.KindNotification:
		h.notify(env)

		return nil, nil
	case messages.KindRequest:
		return h.request(ctx, env)
	default:
		h.log.Debug().
			Str("kind", env.Kind().String()).
			Msg("rejecting non-request envelope")

		return methodNotFound(env.ReplyID(), env.Method, pipeerrs.ErrCodeUnexpectedMessage), nil
	}
}

func (h *Host) notify(env *messages.Envelope) {
	switch messages.ParseMethod(env.Method) {
	case messages.MethodInitialized:
		h.markInitialized()
	default:
		h.log.Debug().Str("method", env.Method).Msg("ignoring notification")
	}
}

func (h *Host) request(ctx context.Context, env *messages.Envelope) (*messages.Envelope, error) {
	switch messages.ParseMethod(env.Method) {
	case messages.MethodInitialize:
		return h.handleInitialize(env)
	case messages.MethodInitialized:
		h.markInitialized()

		return messages.NewResult(env.ID, struct{}{})
	case messages.MethodToolsList:
		return h.handleToolsList(env)
	case messages.MethodToolsCall:
		return h.handleToolsCall(ctx, env)
	case messages.MethodUnknown:
		return methodNotFound(env.ID, env.Method, pipeerrs.ErrCodeMethodNotFound), nil
	}

	return methodNotFound(env.ID, env.Method, pipeerrs.ErrCodeMethodNotFound), nil
}

func (h *Host) markInitialized() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		h.log.Info().Msg("handshake complete")
	}
	h.initialized = true
}
