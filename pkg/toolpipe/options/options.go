// Package options provides the configuration types for tool hosts, relays,
// run loops and callers. Zero values are usable; optional fields are
// pointers and fall back to the package defaults.
package options

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/ports"
)

// Defaults applied when an optional field is nil.
const (
	DefaultServerName      = "toolpipe-host"
	DefaultServerVersion   = "1.0.0"
	DefaultClientName      = "toolctl"
	DefaultResponseTimeout = 30 * time.Second
	DefaultTerminateGrace  = 2 * time.Second
	DefaultMaxLineBytes    = 1024 * 1024 // 1MB
)

// HostOptions configures the tool host protocol engine.
type HostOptions struct {
	// Name is reported as serverInfo.name (optional)
	Name *string

	// Version is reported as serverInfo.version (optional)
	Version *string

	// Logger receives engine diagnostics; nil logs nothing
	Logger *zerolog.Logger
}

// ServerName returns the configured name or the default.
func (o HostOptions) ServerName() string {
	return stringOr(o.Name, DefaultServerName)
}

// ServerVersion returns the configured version or the default.
func (o HostOptions) ServerVersion() string {
	return stringOr(o.Version, DefaultServerVersion)
}

// Log returns the configured logger or a disabled one.
func (o HostOptions) Log() zerolog.Logger {
	return loggerOr(o.Logger)
}

// RelayOptions configures the relay engine.
type RelayOptions struct {
	// === Child Process ===

	// Spawner starts the tool host child on first use
	Spawner ports.Spawner

	// === Timeouts ===

	// ResponseTimeout bounds the wait for a child reply; 0 waits forever
	ResponseTimeout *time.Duration

	// TerminateGrace is how long a child may take to exit before it is killed
	TerminateGrace *time.Duration

	// === Framing ===

	// MaxLineBytes bounds a single reply line from the child (optional)
	MaxLineBytes *int

	// === Diagnostics ===

	// Logger receives relay diagnostics; nil logs nothing
	Logger *zerolog.Logger
}

// Timeout returns the reply timeout, DefaultResponseTimeout when unset.
func (o RelayOptions) Timeout() time.Duration {
	return durationOr(o.ResponseTimeout, DefaultResponseTimeout)
}

// Grace returns the terminate grace, DefaultTerminateGrace when unset.
func (o RelayOptions) Grace() time.Duration {
	return durationOr(o.TerminateGrace, DefaultTerminateGrace)
}

// LineLimit returns the bound on child reply lines or the default.
func (o RelayOptions) LineLimit() int {
	return limitOr(o.MaxLineBytes, DefaultMaxLineBytes)
}

// Log returns the configured logger or a disabled one.
func (o RelayOptions) Log() zerolog.Logger {
	return loggerOr(o.Logger)
}

// ServeOptions configures the run loop.
type ServeOptions struct {
	// MaxLineBytes bounds a single inbound line (optional)
	MaxLineBytes *int

	// Logger receives loop diagnostics; nil logs nothing
	Logger *zerolog.Logger
}

// LineLimit returns the configured line bound or the default.
func (o ServeOptions) LineLimit() int {
	return limitOr(o.MaxLineBytes, DefaultMaxLineBytes)
}

// Log returns the configured logger or a disabled one.
func (o ServeOptions) Log() zerolog.Logger {
	return loggerOr(o.Logger)
}

// CallerOptions configures the caller client.
type CallerOptions struct {
	// ClientName is sent as clientInfo.name (optional)
	ClientName *string

	// ClientVersion is sent as clientInfo.version (optional)
	ClientVersion *string

	// Logger receives client diagnostics; nil logs nothing
	Logger *zerolog.Logger
}

// Name returns the configured client name or the default.
func (o CallerOptions) Name() string {
	return stringOr(o.ClientName, DefaultClientName)
}

// Version returns the configured client version or the default.
func (o CallerOptions) Version() string {
	return stringOr(o.ClientVersion, DefaultServerVersion)
}

// Log returns the configured logger or a disabled one.
func (o CallerOptions) Log() zerolog.Logger {
	return loggerOr(o.Logger)
}

func stringOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}

	return *v
}

func durationOr(v *time.Duration, def time.Duration) time.Duration {
	if v == nil || *v < 0 {
		return def
	}

	return *v
}

func limitOr(v *int, def int) int {
	if v == nil || *v <= 0 {
		return def
	}

	return *v
}

func loggerOr(l *zerolog.Logger) zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}

	return *l
}
