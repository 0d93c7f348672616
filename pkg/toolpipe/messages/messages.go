// Package messages defines the JSON-RPC 2.0 envelope exchanged one per line
// between callers, relays and tool hosts, together with the tool result and
// handshake payloads carried inside it.
package messages

import (
	"bytes"
	"encoding/json"
)

// Version is the only JSON-RPC version tag this package speaks.
const Version = "2.0"

// Kind classifies a decoded envelope.
type Kind int

const (
	// KindInvalid is an object that is neither a request nor a response.
	KindInvalid Kind = iota
	// KindRequest carries a method and an id.
	KindRequest
	// KindNotification carries a method and no id.
	KindNotification
	// KindResult is a success response.
	KindResult
	// KindError is an error response.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindNotification:
		return "notification"
	case KindResult:
		return "result"
	case KindError:
		return "error"
	default:
		return "invalid"
	}
}

// Envelope is a single JSON-RPC 2.0 message.
//
// A nil ID means the id member was absent. Responses that answer an
// unidentifiable request carry NullID().
type Envelope struct {
	JSONRPC string
	ID      *ID
	Method  string
	Params  json.RawMessage
	Result  json.RawMessage
	Error   *ErrorObject

	hasMethod bool
}

// ErrorObject is the error member of an error response.
type ErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Kind reports which of the four envelope shapes e has.
func (e *Envelope) Kind() Kind {
	switch {
	case e.hasMethod || e.Method != "":
		if e.ID != nil {
			return KindRequest
		}

		return KindNotification
	case e.Error != nil:
		return KindError
	case e.Result != nil:
		return KindResult
	default:
		return KindInvalid
	}
}

// IsNotification reports whether e expects no response.
func (e *Envelope) IsNotification() bool {
	return e.Kind() == KindNotification
}

// ReplyID returns the id a response to e must carry: e's own id, or null
// when e had none.
func (e *Envelope) ReplyID() *ID {
	if e == nil || e.ID == nil {
		return NullID()
	}

	return e.ID
}

// NewRequest builds a request envelope. params may be nil.
func NewRequest(id *ID, method string, params any) (*Envelope, error) {
	raw, err := marshalOptional(params)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		JSONRPC:   Version,
		ID:        id,
		Method:    method,
		Params:    raw,
		hasMethod: true,
	}, nil
}

// NewNotification builds a notification envelope. params may be nil.
func NewNotification(method string, params any) (*Envelope, error) {
	raw, err := marshalOptional(params)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		JSONRPC:   Version,
		Method:    method,
		Params:    raw,
		hasMethod: true,
	}, nil
}

// NewResult builds a success response for id.
func NewResult(id *ID, result any) (*Envelope, error) {
	raw, err := marshal(result)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		JSONRPC: Version,
		ID:      orNull(id),
		Result:  raw,
	}, nil
}

// NewError builds an error response for id.
func NewError(id *ID, code int, message string) *Envelope {
	return &Envelope{
		JSONRPC: Version,
		ID:      orNull(id),
		Error:   &ErrorObject{Code: code, Message: message},
	}
}

func orNull(id *ID) *ID {
	if id == nil {
		return NullID()
	}

	return id
}

func marshalOptional(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}

	return marshal(v)
}

// marshal encodes v without HTML escaping so tool text is relayed as written.
func marshal(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
