package pipeerrs

import (
	"maps"
	"strings"

	"github.com/rs/zerolog"
)

// PipeError is implemented by every error this package constructs.
type PipeError interface {
	error
	zerolog.LogObjectMarshaler

	// Message is the human readable text without category or cause; it is
	// what the host puts in a JSON-RPC error object.
	Message() string
	Code() ErrorCode
	Category() ErrorCategory
	Unwrap() error
	// Metadata returns a copy of the key/value context attached to the
	// error, or nil when there is none.
	Metadata() map[string]any
}

// BaseError holds the fields every category shares. The typed errors in
// types.go embed it.
type BaseError struct {
	category ErrorCategory
	code     ErrorCode
	message  string
	cause    error
	meta     map[string]any
}

// NewBaseError creates a base error. Metadata is allocated on first use.
func NewBaseError(category ErrorCategory, code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{category: category, code: code, message: message, cause: cause}
}

// Error renders "category: message[: cause]".
func (e *BaseError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.category))
	b.WriteString(": ")
	b.WriteString(e.message)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}

	return b.String()
}

func (e *BaseError) Message() string {
	return e.message
}

func (e *BaseError) Code() ErrorCode {
	return e.code
}

func (e *BaseError) Category() ErrorCategory {
	return e.category
}

func (e *BaseError) Unwrap() error {
	return e.cause
}

func (e *BaseError) Metadata() map[string]any {
	return maps.Clone(e.meta)
}

// MarshalZerologObject logs the category, the code and any metadata.
func (e *BaseError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("category", string(e.category)).Str("code", string(e.code))
	for k, v := range e.meta {
		ev.Interface(k, v)
	}
}

func (e *BaseError) set(key string, value any) {
	if e.meta == nil {
		e.meta = make(map[string]any, 2)
	}
	e.meta[key] = value
}
