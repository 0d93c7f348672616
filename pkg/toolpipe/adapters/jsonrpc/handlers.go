package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
)

// ToolsListResult is the result of tools/list.
type ToolsListResult struct {
	Tools []registry.Descriptor `json:"tools"`
}

func (h *Host) handleInitialize(env *messages.Envelope) (*messages.Envelope, error) {
	var params messages.InitializeParams
	if len(env.Params) > 0 {
		if err := json.Unmarshal(env.Params, &params); err != nil {
			h.log.Warn().Err(err).Msg("ignoring malformed initialize params")
		}
	}

	event := h.log.Info().Str("protocol_version", params.ProtocolVersion)
	if params.ClientInfo != nil {
		event = event.
			Str("client_name", params.ClientInfo.Name).
			Str("client_version", params.ClientInfo.Version)
	}
	event.Msg("initialize")

	return messages.NewResult(env.ID, messages.InitializeResult{
		ProtocolVersion: messages.ProtocolVersion,
		ServerInfo:      h.info,
		Capabilities: messages.ServerCapabilities{
			Tools: messages.ToolsCapability{ListChanged: false},
		},
	})
}

func (h *Host) handleToolsList(env *messages.Envelope) (*messages.Envelope, error) {
	return messages.NewResult(env.ID, ToolsListResult{Tools: h.registry.List()})
}

func (h *Host) handleToolsCall(ctx context.Context, env *messages.Envelope) (*messages.Envelope, error) {
	name, args, err := extractCallParams(env.Params)
	if err != nil {
		h.log.Debug().Err(err).Msg("invalid tools/call params")

		return messages.NewError(env.ID, pipeerrs.CodeInvalidParams, "Invalid params"), nil
	}

	result, err := h.registry.Invoke(ctx, name, args)
	if err != nil {
		event := h.log.Error()
		if pipeerrs.IsToolError(err) {
			event = h.log.Debug()
		}
		event.Err(err).Str("tool", name).Msg("tool lookup failed")

		return errorReply(env.ID, err), nil
	}

	h.log.Debug().
		Str("tool", name).
		Bool("is_error", result.IsError).
		Msg("tool invoked")

	return messages.NewResult(env.ID, result)
}

// extractCallParams validates {"name": string, "arguments": object}.
// arguments may be absent or null.
func extractCallParams(raw json.RawMessage) (string, registry.Arguments, error) {
	var params struct {
		Name      *string         `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(raw) == 0 {
		return "", nil, missingField("params")
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return "", nil, pipeerrs.NewValidationError(
			pipeerrs.ErrCodeInvalidFormat,
			"params must be an object",
			err,
			"params",
			string(raw),
		)
	}
	if params.Name == nil {
		return "", nil, missingField("name")
	}

	args := registry.Arguments{}
	if len(params.Arguments) > 0 && !bytes.Equal(params.Arguments, []byte("null")) {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return "", nil, pipeerrs.NewValidationError(
				pipeerrs.ErrCodeInvalidType,
				"arguments must be an object",
				err,
				"arguments",
				string(params.Arguments),
			)
		}
	}

	return *params.Name, args, nil
}

func missingField(field string) error {
	return pipeerrs.NewValidationError(
		pipeerrs.ErrCodeMissingField,
		field+" is required",
		nil,
		field,
		nil,
	)
}

// methodNotFound answers an envelope the host cannot dispatch. code tells
// an unknown method apart from an envelope that is not a request at all;
// both go out as -32601.
func methodNotFound(id *messages.ID, method string, code pipeerrs.ErrorCode) *messages.Envelope {
	msg := "Method not found"
	if method != "" {
		msg += ": " + method
	}

	return errorReply(id, pipeerrs.NewProtocolError(code, msg, nil).WithMethod(method))
}

// errorReply converts err into an error response carrying its JSON-RPC code.
func errorReply(id *messages.ID, err error) *messages.Envelope {
	msg := err.Error()
	if pipeErr, ok := pipeerrs.AsPipeError(err); ok {
		msg = pipeErr.Message()
	}

	return messages.NewError(id, pipeerrs.RPCCode(err), msg)
}
