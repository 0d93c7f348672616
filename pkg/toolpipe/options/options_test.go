package options

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	var relay RelayOptions
	if relay.Timeout() != DefaultResponseTimeout {
		t.Errorf("Timeout() = %v, want %v", relay.Timeout(), DefaultResponseTimeout)
	}
	if relay.Grace() != DefaultTerminateGrace {
		t.Errorf("Grace() = %v, want %v", relay.Grace(), DefaultTerminateGrace)
	}
	if relay.LineLimit() != DefaultMaxLineBytes {
		t.Errorf("relay LineLimit() = %d", relay.LineLimit())
	}

	var host HostOptions
	if host.ServerName() != DefaultServerName || host.ServerVersion() != DefaultServerVersion {
		t.Errorf("Unexpected host defaults %q %q", host.ServerName(), host.ServerVersion())
	}

	var serve ServeOptions
	if serve.LineLimit() != DefaultMaxLineBytes {
		t.Errorf("LineLimit() = %d", serve.LineLimit())
	}
}

func TestOverrides(t *testing.T) {
	zero := time.Duration(0)
	grace := 50 * time.Millisecond
	relay := RelayOptions{ResponseTimeout: &zero, TerminateGrace: &grace}

	if relay.Timeout() != 0 {
		t.Errorf("Expected zero timeout to be kept, got %v", relay.Timeout())
	}
	if relay.Grace() != grace {
		t.Errorf("Grace() = %v, want %v", relay.Grace(), grace)
	}

	name := "calc-host"
	host := HostOptions{Name: &name}
	if host.ServerName() != name {
		t.Errorf("ServerName() = %q", host.ServerName())
	}

	limit := 128
	serve := ServeOptions{MaxLineBytes: &limit}
	if serve.LineLimit() != limit {
		t.Errorf("LineLimit() = %d", serve.LineLimit())
	}
	relay.MaxLineBytes = &limit
	if relay.LineLimit() != limit {
		t.Errorf("relay LineLimit() = %d", relay.LineLimit())
	}
}
