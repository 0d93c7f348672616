package pipeerrs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

func TestRPCCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "parse failure",
			err:  NewProtocolError(ErrCodeMessageParseFailed, "bad json", nil),
			want: CodeParseError,
		},
		{
			name: "unknown method",
			err:  NewProtocolError(ErrCodeMethodNotFound, "Method not found: x", nil).WithMethod("x"),
			want: CodeMethodNotFound,
		},
		{
			name: "non-request envelope",
			err:  NewProtocolError(ErrCodeUnexpectedMessage, "Method not found", nil),
			want: CodeMethodNotFound,
		},
		{
			name: "unknown tool",
			err:  NewToolError(ErrCodeUnknownTool, "Unknown tool: nope", nil, "nope"),
			want: CodeInvalidParams,
		},
		{
			name: "validation",
			err:  NewValidationError(ErrCodeMissingField, "name is required", nil, "name", nil),
			want: CodeInvalidParams,
		},
		{
			name: "spawn failure",
			err:  NewProcessError(ErrCodeProcessSpawnFailed, "start", errors.New("enoent"), "host"),
			want: CodeInternalError,
		},
		{
			name: "wrapped peer error keeps its code",
			err:  fmt.Errorf("call: %w", NewRPCError(-32001, "custom", nil)),
			want: -32001,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RPCCode(tt.err); got != tt.want {
				t.Errorf("RPCCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCategoryHelpers(t *testing.T) {
	cause := errors.New("pipe closed")
	err := fmt.Errorf("relay: %w", NewTransportError(ErrCodeWriteFailed, "write to child", cause))

	if !IsTransportError(err) {
		t.Error("Expected transport error")
	}
	if IsProcessError(err) {
		t.Error("Did not expect process error")
	}
	if !IsToolError(NewToolError(ErrCodeUnknownTool, "Unknown tool: x", nil, "x")) {
		t.Error("Expected tool error")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected cause to be reachable through Unwrap")
	}
	if !HasCode(err, ErrCodeWriteFailed) {
		t.Error("Expected write_failed code in chain")
	}
	if HasCode(err, ErrCodeReadFailed) {
		t.Error("Did not expect read_failed code in chain")
	}
}

func TestBaseErrorFormatting(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewValidationError(ErrCodeInvalidType, "a must be a number", nil, "a", "x")
		if got, want := err.Error(), "validation: a must be a number"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if err.Metadata()["field"] != "a" {
			t.Errorf("Expected field metadata, got %v", err.Metadata())
		}
	})

	t.Run("with cause", func(t *testing.T) {
		err := NewProcessError(ErrCodeProcessSpawnFailed, "start child", errors.New("not found"), "host").
			WithChildID("abc")
		if got, want := err.Error(), "process: start child: not found"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if err.Metadata()[MetadataKeyChildID] != "abc" {
			t.Errorf("Expected child metadata, got %v", err.Metadata())
		}
		if err.Command() != "host" {
			t.Errorf("Command() = %q", err.Command())
		}
	})

	t.Run("rpc error", func(t *testing.T) {
		err := NewRPCError(CodeMethodNotFound, "Method not found: x", nil)
		if got, want := err.Error(), "rpc error -32601: Method not found: x"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if err.Code() != ErrCodeMethodNotFound {
			t.Errorf("Code() = %q", err.Code())
		}
	})
}

func TestMetadataIsCopied(t *testing.T) {
	err := NewToolError(ErrCodeToolFailed, "boom", nil, "echo")

	meta := err.Metadata()
	meta[MetadataKeyTool] = "other"
	if got := err.Metadata()[MetadataKeyTool]; got != "echo" {
		t.Errorf("Expected metadata to be unchanged, got %v", got)
	}

	if meta := NewTransportError(ErrCodeReadFailed, "read", nil).Metadata(); meta != nil {
		t.Errorf("Expected nil metadata, got %v", meta)
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	err := NewProtocolError(ErrCodeMethodNotFound, "Method not found: x", nil).WithMethod("x")
	logger.Info().Object("error_detail", err).Msg("dispatch")

	var entry struct {
		Detail map[string]any `json:"error_detail"`
	}
	if jerr := json.Unmarshal(buf.Bytes(), &entry); jerr != nil {
		t.Fatalf("Unmarshal(%s) failed: %v", buf.String(), jerr)
	}
	want := map[string]any{"category": "protocol", "code": "method_not_found", "method": "x"}
	for k, v := range want {
		if entry.Detail[k] != v {
			t.Errorf("error_detail[%s] = %v, want %v", k, entry.Detail[k], v)
		}
	}
}
