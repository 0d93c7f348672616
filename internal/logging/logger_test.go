package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", DefaultLevel},
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"disabled", zerolog.Disabled},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if err != nil {
				t.Fatalf("ParseLevel(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	t.Run("rejects unknown names", func(t *testing.T) {
		if _, err := ParseLevel("loud"); err == nil {
			t.Error("Expected error for unknown level")
		}
	})
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New("toolhost", &buf, zerolog.InfoLevel)

	logger.Debug().Msg("hidden")
	logger.Info().Str("tool", "echo").Msg("registered")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug output leaked at info level: %q", out)
	}
	for _, want := range []string{"registered", "app=toolhost", "tool=echo"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output %q", want, out)
		}
	}
}
