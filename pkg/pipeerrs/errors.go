// Package pipeerrs provides the error taxonomy shared by the toolpipe host,
// relay and caller. Errors carry a category, a stable code and an optional
// cause, and every error can be mapped onto a JSON-RPC 2.0 error code.
package pipeerrs

// ErrorCategory groups errors by the layer that raised them.
type ErrorCategory string

const (
	// CategoryProtocol represents JSON-RPC framing and envelope errors.
	CategoryProtocol ErrorCategory = "protocol"
	// CategoryTransport represents line I/O errors.
	CategoryTransport ErrorCategory = "transport"
	// CategoryProcess represents child process errors.
	CategoryProcess ErrorCategory = "process"
	// CategoryValidation represents malformed parameters and arguments.
	CategoryValidation ErrorCategory = "validation"
	// CategoryTool represents tool lookup and tool execution errors.
	CategoryTool ErrorCategory = "tool"
	// CategoryRPC represents error responses received from a peer.
	CategoryRPC ErrorCategory = "rpc"
)

// ErrorCode represents specific error codes within each category.
type ErrorCode string

// Protocol error codes.
const (
	ErrCodeMessageParseFailed ErrorCode = "message_parse_failed"
	ErrCodeInvalidMessage     ErrorCode = "invalid_message"
	ErrCodeMethodNotFound     ErrorCode = "method_not_found"
	ErrCodeUnexpectedMessage  ErrorCode = "unexpected_message"
)

// Transport error codes.
const (
	ErrCodeReadFailed    ErrorCode = "read_failed"
	ErrCodeWriteFailed   ErrorCode = "write_failed"
	ErrCodeLineTooLong   ErrorCode = "line_too_long"
	ErrCodeStreamClosed  ErrorCode = "stream_closed"
	ErrCodeReplyTimeout  ErrorCode = "reply_timeout"
	ErrCodeTransportInit ErrorCode = "transport_init"
)

// Process error codes.
const (
	ErrCodeProcessSpawnFailed ErrorCode = "process_spawn_failed"
	ErrCodeProcessExited      ErrorCode = "process_exited"
)

// Validation error codes.
const (
	ErrCodeMissingField  ErrorCode = "missing_field"
	ErrCodeInvalidType   ErrorCode = "invalid_type"
	ErrCodeInvalidFormat ErrorCode = "invalid_format"
	ErrCodeInvalidConfig ErrorCode = "invalid_config"
)

// Tool error codes.
const (
	ErrCodeUnknownTool   ErrorCode = "unknown_tool"
	ErrCodeDuplicateTool ErrorCode = "duplicate_tool"
	ErrCodeToolFailed    ErrorCode = "tool_failed"
)

// JSON-RPC 2.0 error codes used on the wire.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Metadata keys attached to errors.
const (
	MetadataKeyMethod  = "method"
	MetadataKeyTool    = "tool"
	MetadataKeyCommand = "command"
	MetadataKeyChildID = "child_id"
)
