package pipeerrs

import "fmt"

// ProtocolError represents envelope and method dispatch errors.
type ProtocolError struct {
	*BaseError
}

// NewProtocolError creates a new protocol error.
func NewProtocolError(code ErrorCode, message string, cause error) *ProtocolError {
	return &ProtocolError{
		BaseError: NewBaseError(CategoryProtocol, code, message, cause),
	}
}

// WithMethod adds the offending method name to the error.
func (e *ProtocolError) WithMethod(method string) *ProtocolError {
	e.set(MetadataKeyMethod, method)

	return e
}

// TransportError represents line I/O errors.
type TransportError struct {
	*BaseError
}

// NewTransportError creates a new transport error.
func NewTransportError(code ErrorCode, message string, cause error) *TransportError {
	return &TransportError{
		BaseError: NewBaseError(CategoryTransport, code, message, cause),
	}
}

// ProcessError represents child process errors.
type ProcessError struct {
	*BaseError
	command string
}

// NewProcessError creates a new process error.
func NewProcessError(code ErrorCode, message string, cause error, command string) *ProcessError {
	err := &ProcessError{
		BaseError: NewBaseError(CategoryProcess, code, message, cause),
		command:   command,
	}
	if command != "" {
		err.set(MetadataKeyCommand, command)
	}

	return err
}

// Command returns the command line of the child process.
func (e *ProcessError) Command() string {
	return e.command
}

// WithChildID records which child the error concerns.
func (e *ProcessError) WithChildID(id string) *ProcessError {
	e.set(MetadataKeyChildID, id)

	return e
}

// ValidationError represents malformed parameters, arguments and config.
type ValidationError struct {
	*BaseError
	field string
	value any
}

// NewValidationError creates a new validation error.
func NewValidationError(
	code ErrorCode,
	message string,
	cause error,
	field string,
	value any,
) *ValidationError {
	err := &ValidationError{
		BaseError: NewBaseError(CategoryValidation, code, message, cause),
		field:     field,
		value:     value,
	}
	err.set("field", field)
	err.set("value", value)

	return err
}

// Field returns the validation field name.
func (e *ValidationError) Field() string {
	return e.field
}

// Value returns the validation value.
func (e *ValidationError) Value() any {
	return e.value
}

// ToolError represents tool lookup and execution errors.
type ToolError struct {
	*BaseError
	tool string
}

// NewToolError creates a new tool error.
func NewToolError(code ErrorCode, message string, cause error, tool string) *ToolError {
	err := &ToolError{
		BaseError: NewBaseError(CategoryTool, code, message, cause),
		tool:      tool,
	}
	err.set(MetadataKeyTool, tool)

	return err
}

// Tool returns the tool name.
func (e *ToolError) Tool() string {
	return e.tool
}

// RPCError is a JSON-RPC error response received from a peer.
type RPCError struct {
	*BaseError
	rpcCode int
	data    []byte
}

// NewRPCError creates an error from a peer's error object.
func NewRPCError(rpcCode int, message string, data []byte) *RPCError {
	return &RPCError{
		BaseError: NewBaseError(CategoryRPC, rpcErrorCode(rpcCode), message, nil),
		rpcCode:   rpcCode,
		data:      data,
	}
}

// Error formats the error with its numeric code.
func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.rpcCode, e.message)
}

// RPCCode returns the numeric JSON-RPC code.
func (e *RPCError) RPCCode() int {
	return e.rpcCode
}

// Data returns the raw error data, if any.
func (e *RPCError) Data() []byte {
	return e.data
}

func rpcErrorCode(code int) ErrorCode {
	switch code {
	case CodeParseError:
		return ErrCodeMessageParseFailed
	case CodeInvalidRequest:
		return ErrCodeInvalidMessage
	case CodeMethodNotFound:
		return ErrCodeMethodNotFound
	case CodeInvalidParams:
		return ErrCodeInvalidFormat
	default:
		return ErrorCode(fmt.Sprintf("rpc_%d", code))
	}
}
