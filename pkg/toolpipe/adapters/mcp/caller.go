// Package mcp drives a tool host from the calling side over a go-sdk
// transport: the handshake, tool listing and tool calls.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("caller is closed")

// Caller issues requests to a tool host, one at a time.
type Caller struct {
	conn   mcp.Connection
	log    zerolog.Logger
	server messages.InitializeResult

	mu     sync.Mutex
	closed bool
}

// Dial connects through t and completes the handshake: initialize, then
// the notifications/initialized notification.
func Dial(ctx context.Context, t mcp.Transport, opts options.CallerOptions) (*Caller, error) {
	conn, err := t.Connect(ctx)
	if err != nil {
		return nil, pipeerrs.NewTransportError(
			pipeerrs.ErrCodeTransportInit,
			"connect to tool host",
			err,
		)
	}

	c := &Caller{conn: conn, log: opts.Log()}

	params := messages.InitializeParams{
		ProtocolVersion: messages.ProtocolVersion,
		ClientInfo: &messages.Implementation{
			Name:    opts.Name(),
			Version: opts.Version(),
		},
		Capabilities: map[string]any{},
	}
	if err := c.call(ctx, messages.NameInitialize, params, &c.server); err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("initialize: %w", err)
	}
	if err := c.notify(ctx, messages.NameNotificationInitialized); err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("initialized: %w", err)
	}

	c.log.Debug().
		Str("server", c.server.ServerInfo.Name).
		Str("version", c.server.ServerInfo.Version).
		Str("protocol", c.server.ProtocolVersion).
		Msg("handshake complete")

	return c, nil
}

// Server returns the handshake result reported by the host.
func (c *Caller) Server() messages.InitializeResult {
	return c.server
}

type listToolsResult struct {
	Tools []registry.Descriptor `json:"tools"`
}

// ListTools fetches the host's tool catalog.
func (c *Caller) ListTools(ctx context.Context) ([]registry.Descriptor, error) {
	var result listToolsResult
	if err := c.call(ctx, messages.NameToolsList, struct{}{}, &result); err != nil {
		return nil, err
	}

	return result.Tools, nil
}

// CallTool invokes a tool. Tool-level failures come back as a result with
// IsError set; protocol failures are *pipeerrs.RPCError values.
func (c *Caller) CallTool(ctx context.Context, name string, args map[string]any) (messages.ToolResult, error) {
	var result messages.ToolResult
	params := messages.CallToolParams{Name: name, Arguments: args}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}
	if err := c.call(ctx, messages.NameToolsCall, params, &result); err != nil {
		return messages.ToolResult{}, err
	}

	return result, nil
}

// Close closes the underlying connection. It is safe to call more than once.
func (c *Caller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	return c.conn.Close()
}

func (c *Caller) call(ctx context.Context, method string, params, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}
	id, err := jsonrpc.MakeID(uuid.NewString())
	if err != nil {
		return fmt.Errorf("make request id: %w", err)
	}

	if err := c.conn.Write(ctx, &jsonrpc.Request{ID: id, Method: method, Params: raw}); err != nil {
		return pipeerrs.NewTransportError(pipeerrs.ErrCodeWriteFailed, "send "+method, err)
	}

	resp, err := c.await(ctx, id)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return rpcError(resp)
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return pipeerrs.NewProtocolError(
			pipeerrs.ErrCodeInvalidMessage,
			"decode "+method+" result",
			err,
		).WithMethod(method)
	}

	return nil
}

func (c *Caller) notify(ctx context.Context, method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.Write(ctx, &jsonrpc.Request{Method: method}); err != nil {
		return pipeerrs.NewTransportError(pipeerrs.ErrCodeWriteFailed, "send "+method, err)
	}

	return nil
}

// await reads until the response carrying id arrives. Anything else the
// host sends in between is logged and dropped.
func (c *Caller) await(ctx context.Context, id jsonrpc.ID) (*jsonrpc.Response, error) {
	for {
		msg, err := c.conn.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, pipeerrs.NewTransportError(
					pipeerrs.ErrCodeStreamClosed,
					"tool host closed the connection",
					err,
				)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			return nil, pipeerrs.NewTransportError(pipeerrs.ErrCodeReadFailed, "read reply", err)
		}

		switch m := msg.(type) {
		case *jsonrpc.Response:
			if m.ID == id {
				return m, nil
			}
			c.log.Warn().Interface("id", m.ID.Raw()).Msg("dropping reply for unknown request")
		case *jsonrpc.Request:
			c.log.Debug().Str("method", m.Method).Msg("ignoring message from host")
		}
	}
}

// rpcError recovers the numeric code of an error response by running it
// back through the envelope codec.
func rpcError(resp *jsonrpc.Response) error {
	data, err := jsonrpc.EncodeMessage(resp)
	if err != nil {
		return pipeerrs.NewRPCError(pipeerrs.CodeInternalError, resp.Error.Error(), nil)
	}

	env, err := messages.Decode(data)
	if err != nil || env.Error == nil {
		return pipeerrs.NewRPCError(pipeerrs.CodeInternalError, resp.Error.Error(), nil)
	}

	return pipeerrs.NewRPCError(env.Error.Code, env.Error.Message, env.Error.Data)
}
