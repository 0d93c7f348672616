package pipeerrs

import "errors"

// AsPipeError extracts a PipeError from the error chain.
func AsPipeError(err error) (PipeError, bool) {
	var pipeErr PipeError
	if errors.As(err, &pipeErr) {
		return pipeErr, true
	}

	return nil, false
}

// IsTransportError checks if the error is a transport error.
func IsTransportError(err error) bool {
	return hasCategory(err, CategoryTransport)
}

// IsProcessError checks if the error is a process error.
func IsProcessError(err error) bool {
	return hasCategory(err, CategoryProcess)
}

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	return hasCategory(err, CategoryValidation)
}

// IsToolError checks if the error is a tool error.
func IsToolError(err error) bool {
	return hasCategory(err, CategoryTool)
}

// HasCode checks if any error in the chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if pipeErr, ok := err.(PipeError); ok && pipeErr.Code() == code {
			return true
		}
		err = errors.Unwrap(err)
	}

	return false
}

func hasCategory(err error, category ErrorCategory) bool {
	if pipeErr, ok := AsPipeError(err); ok {
		return pipeErr.Category() == category
	}

	return false
}

// RPCCode maps an error onto the JSON-RPC error code reported to callers.
// Errors outside the taxonomy are internal errors.
func RPCCode(err error) int {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.RPCCode()
	}

	pipeErr, ok := AsPipeError(err)
	if !ok {
		return CodeInternalError
	}

	switch pipeErr.Code() {
	case ErrCodeMessageParseFailed:
		return CodeParseError
	case ErrCodeInvalidMessage:
		return CodeInvalidRequest
	case ErrCodeMethodNotFound, ErrCodeUnexpectedMessage:
		return CodeMethodNotFound
	case ErrCodeUnknownTool:
		return CodeInvalidParams
	}

	if pipeErr.Category() == CategoryValidation {
		return CodeInvalidParams
	}

	return CodeInternalError
}
