package messages

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is a request identifier. It keeps the exact JSON encoding the caller
// used so that responses echo it unchanged.
type ID struct {
	raw json.RawMessage
}

var nullLiteral = []byte("null")

// NumberID returns an integer id.
func NumberID(n int64) *ID {
	return &ID{raw: json.RawMessage(strconv.FormatInt(n, 10))}
}

// StringID returns a string id.
func StringID(s string) *ID {
	raw, _ := json.Marshal(s)

	return &ID{raw: raw}
}

// NullID returns the null id used when a request's id is unknown.
func NullID() *ID {
	return &ID{raw: json.RawMessage(nullLiteral)}
}

// IsNull reports whether the id is the JSON null literal.
func (id *ID) IsNull() bool {
	return id == nil || bytes.Equal(id.raw, nullLiteral)
}

// Raw returns the id's JSON encoding.
func (id *ID) Raw() json.RawMessage {
	if id == nil {
		return json.RawMessage(nullLiteral)
	}

	return id.raw
}

// Equal reports whether two ids have the same encoding.
func (id *ID) Equal(other *ID) bool {
	return bytes.Equal(id.Raw(), other.Raw())
}

// String returns the id's JSON encoding as text.
func (id *ID) String() string {
	return string(id.Raw())
}

// MarshalJSON implements json.Marshaler.
func (id *ID) MarshalJSON() ([]byte, error) {
	return id.Raw(), nil
}

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errInvalidID
	}

	switch data[0] {
	case 'n':
		if !bytes.Equal(data, nullLiteral) {
			return errInvalidID
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errInvalidID
		}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errInvalidID
		}
	}

	id.raw = append(json.RawMessage(nil), data...)

	return nil
}
