package messages

import "encoding/json"

// ProtocolVersion is the handshake version advertised by tool hosts.
const ProtocolVersion = "2024-11-05"

// Implementation names a peer in the handshake.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is sent by the caller to open the handshake.
type InitializeParams struct {
	ProtocolVersion string          `json:"protocolVersion,omitempty"`
	ClientInfo      *Implementation `json:"clientInfo,omitempty"`
	Capabilities    map[string]any  `json:"capabilities,omitempty"`
}

// UnmarshalJSON also accepts the client_info spelling.
func (p *InitializeParams) UnmarshalJSON(data []byte) error {
	type plain InitializeParams
	var aux struct {
		plain
		SnakeClientInfo *Implementation `json:"client_info"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*p = InitializeParams(aux.plain)
	if p.ClientInfo == nil {
		p.ClientInfo = aux.SnakeClientInfo
	}

	return nil
}

// ToolsCapability describes the host's tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ServerCapabilities is the capability set advertised by a host.
type ServerCapabilities struct {
	Tools ToolsCapability `json:"tools"`
}

// InitializeResult answers the handshake.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

// CallToolParams are the params of a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ContentTypeText is the only content type produced by tools.
const ContentTypeText = "text"

// TextContent is a single text block of a tool result.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the payload of a tools/call response. Tool level failures
// are reported here with IsError set, not as JSON-RPC errors.
type ToolResult struct {
	Content []TextContent `json:"content"`
	IsError bool          `json:"is_error"`
}

// NewTextResult returns a successful single-text result.
func NewTextResult(text string) ToolResult {
	return ToolResult{
		Content: []TextContent{{Type: ContentTypeText, Text: text}},
	}
}

// NewErrorResult returns a failed single-text result.
func NewErrorResult(text string) ToolResult {
	return ToolResult{
		Content: []TextContent{{Type: ContentTypeText, Text: text}},
		IsError: true,
	}
}

// Text joins the text blocks of the result.
func (r ToolResult) Text() string {
	if len(r.Content) == 1 {
		return r.Content[0].Text
	}

	var out string
	for i, c := range r.Content {
		if i > 0 {
			out += "\n"
		}
		out += c.Text
	}

	return out
}

// UnmarshalJSON also accepts the isError spelling used by some hosts.
func (r *ToolResult) UnmarshalJSON(data []byte) error {
	var aux struct {
		Content      []TextContent `json:"content"`
		IsError      *bool         `json:"is_error"`
		IsErrorCamel *bool         `json:"isError"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Content = aux.Content
	switch {
	case aux.IsError != nil:
		r.IsError = *aux.IsError
	case aux.IsErrorCamel != nil:
		r.IsError = *aux.IsErrorCamel
	default:
		r.IsError = false
	}

	return nil
}
