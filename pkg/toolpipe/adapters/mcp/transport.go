package mcp

import (
	"bytes"
	"context"
	"io"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/conneroisu/toolpipe/internal/transport"
)

// LineTransport connects a Caller to a peer over a reader and writer
// carrying newline-delimited JSON, such as the pipes of an in-process host.
type LineTransport struct {
	r       io.Reader
	w       io.Writer
	maxLine int
}

// Verify interface compliance at compile time.
var _ mcp.Transport = (*LineTransport)(nil)

// NewLineTransport creates a transport reading replies from r and writing
// requests to w. Closing the connection closes w when it is an io.Closer.
func NewLineTransport(r io.Reader, w io.Writer) *LineTransport {
	return &LineTransport{r: r, w: w, maxLine: transport.DefaultMaxLineBytes}
}

// Connect implements mcp.Transport.
func (t *LineTransport) Connect(context.Context) (mcp.Connection, error) {
	return &lineConn{
		reader: transport.NewLineReader(t.r, t.maxLine),
		writer: transport.NewLineWriter(t.w),
		closer: t.w,
	}, nil
}

type lineConn struct {
	reader *transport.LineReader
	writer *transport.LineWriter
	closer io.Writer
}

// Read implements mcp.Connection. Blank lines are skipped.
func (c *lineConn) Read(ctx context.Context) (jsonrpc.Message, error) {
	for {
		line, err := c.reader.Next(ctx)
		if err != nil {
			return nil, err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		return jsonrpc.DecodeMessage(line)
	}
}

// Write implements mcp.Connection.
func (c *lineConn) Write(_ context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return err
	}

	return c.writer.WriteLine(data)
}

// Close implements mcp.Connection.
func (c *lineConn) Close() error {
	c.reader.Close()
	if closer, ok := c.closer.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

// SessionID implements mcp.Connection.
func (*lineConn) SessionID() string {
	return ""
}
