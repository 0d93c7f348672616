package transport

import (
	"bufio"
	"io"
	"sync"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
)

// LineWriter writes one line at a time and flushes after each.
type LineWriter struct {
	mu sync.Mutex
	bw *bufio.Writer
}

// NewLineWriter creates a writer over w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{bw: bufio.NewWriter(w)}
}

// WriteLine writes data and a single newline, then flushes.
func (w *LineWriter) WriteLine(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.bw.Write(data); err != nil {
		return writeFailed(err)
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return writeFailed(err)
	}
	if err := w.bw.Flush(); err != nil {
		return writeFailed(err)
	}

	return nil
}

func writeFailed(err error) error {
	return pipeerrs.NewTransportError(pipeerrs.ErrCodeWriteFailed, "write line", err)
}
