package registry

import (
	"github.com/spf13/cast"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
)

// Arguments are the decoded arguments of a tools/call request.
type Arguments map[string]any

// Has reports whether key is present.
func (a Arguments) Has(key string) bool {
	_, ok := a[key]

	return ok
}

// String returns the argument as a string, or def when absent.
func (a Arguments) String(key, def string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return "", invalidType(key, v, "string", err)
	}

	return s, nil
}

// RequiredString returns the argument as a string and fails when absent.
func (a Arguments) RequiredString(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", pipeerrs.NewValidationError(
			pipeerrs.ErrCodeMissingField,
			key+" is required",
			nil,
			key,
			nil,
		)
	}

	return a.String(key, "")
}

// Float returns the argument as a float64, or def when absent.
func (a Arguments) Float(key string, def float64) (float64, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, invalidType(key, v, "number", err)
	}

	return f, nil
}

func invalidType(key string, value any, want string, cause error) error {
	return pipeerrs.NewValidationError(
		pipeerrs.ErrCodeInvalidType,
		key+" must be a "+want,
		cause,
		key,
		value,
	)
}
