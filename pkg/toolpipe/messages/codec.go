package messages

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
)

var (
	// ErrNotObject is returned for lines that are valid JSON but not an object.
	ErrNotObject = errors.New("message is not a JSON object")
	// ErrAmbiguous is returned for objects that match more than one envelope shape.
	ErrAmbiguous = errors.New("message mixes request and response members")

	errInvalidID = errors.New("id must be a number, string or null")
)

type wireIn struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  *string         `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

type wireOut struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// Decode parses one line into an envelope. Every failure is a protocol
// error with code message_parse_failed.
func Decode(line []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if json.Valid(trimmed) {
			return nil, parseError(ErrNotObject)
		}

		return nil, parseError(errors.New("invalid JSON"))
	}

	var w wireIn
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, parseError(err)
	}

	env := &Envelope{
		JSONRPC: w.JSONRPC,
		Params:  w.Params,
	}

	if w.ID != nil {
		var id ID
		if err := id.UnmarshalJSON(w.ID); err != nil {
			return nil, parseError(err)
		}
		env.ID = &id
	}

	if w.Method != nil {
		env.Method = *w.Method
		env.hasMethod = true
	}

	if w.Result != nil {
		env.Result = w.Result
	}

	if w.Error != nil && !bytes.Equal(w.Error, nullLiteral) {
		var obj ErrorObject
		if err := json.Unmarshal(w.Error, &obj); err != nil {
			return nil, parseError(err)
		}
		env.Error = &obj
	}

	if env.hasMethod && (env.Result != nil || env.Error != nil) {
		return nil, parseError(ErrAmbiguous)
	}
	if env.Result != nil && env.Error != nil {
		return nil, parseError(ErrAmbiguous)
	}

	return env, nil
}

// Encode serializes an envelope as a single line without the trailing
// newline. Responses always carry an id member.
func Encode(env *Envelope) ([]byte, error) {
	out := wireOut{
		JSONRPC: Version,
		ID:      env.ID,
		Method:  env.Method,
		Params:  env.Params,
		Error:   env.Error,
	}

	switch env.Kind() {
	case KindResult:
		out.Result = env.Result
		out.ID = orNull(env.ID)
	case KindError:
		out.ID = orNull(env.ID)
	case KindNotification:
		out.ID = nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, pipeerrs.NewProtocolError(
			pipeerrs.ErrCodeInvalidMessage,
			"encode message",
			err,
		)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func parseError(cause error) error {
	return pipeerrs.NewProtocolError(
		pipeerrs.ErrCodeMessageParseFailed,
		"Parse error",
		cause,
	)
}
