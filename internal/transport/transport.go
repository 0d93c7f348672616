// Package transport frames JSON-RPC envelopes as newline-delimited lines
// over arbitrary byte streams.
package transport

import (
	"context"
	"io"
)

// DefaultMaxLineBytes bounds a single inbound line.
const DefaultMaxLineBytes = 1024 * 1024 // 1MB

// Transport moves whole lines.
type Transport interface {
	// Read returns the next line without its terminator.
	Read(ctx context.Context) ([]byte, error)

	// Write writes data followed by a newline and flushes.
	Write(ctx context.Context, data []byte) error

	// Close releases the transport.
	Close() error
}

// StdioTransport implements Transport over a reader and a writer, usually
// the process's own stdin and stdout.
type StdioTransport struct {
	reader *LineReader
	writer *LineWriter
}

// Verify interface compliance at compile time.
var _ Transport = (*StdioTransport)(nil)

// NewStdioTransport creates a new stdio transport. maxLine <= 0 selects
// DefaultMaxLineBytes.
func NewStdioTransport(in io.Reader, out io.Writer, maxLine int) *StdioTransport {
	return &StdioTransport{
		reader: NewLineReader(in, maxLine),
		writer: NewLineWriter(out),
	}
}

// Read reads the next line. It returns io.EOF at end of input and
// ctx.Err() when ctx is done first.
func (t *StdioTransport) Read(ctx context.Context) ([]byte, error) {
	return t.reader.Next(ctx)
}

// Write writes one line.
func (t *StdioTransport) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.writer.WriteLine(data)
}

// Close stops the background reader. The underlying streams are owned by
// the caller.
func (t *StdioTransport) Close() error {
	t.reader.Close()

	return nil
}
