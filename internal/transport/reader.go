package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
)

// ErrLineTooLong is returned for a line longer than the reader's bound. The
// rest of that line is discarded and reading continues with the next one.
var ErrLineTooLong = pipeerrs.NewTransportError(
	pipeerrs.ErrCodeLineTooLong,
	"line exceeds maximum size",
	nil,
)

type lineResult struct {
	line []byte
	err  error
}

// LineReader reads newline-delimited lines on a background goroutine so
// that waits can be abandoned through a context.
type LineReader struct {
	br      *bufio.Reader
	maxLine int
	lines   chan lineResult
	done    chan struct{}
	start   sync.Once
	stop    sync.Once
}

// NewLineReader creates a reader over r. maxLine <= 0 selects
// DefaultMaxLineBytes.
func NewLineReader(r io.Reader, maxLine int) *LineReader {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}

	return &LineReader{
		br:      bufio.NewReader(r),
		maxLine: maxLine,
		lines:   make(chan lineResult),
		done:    make(chan struct{}),
	}
}

// Next returns the next line without its newline. A final line lacking a
// terminator is still returned; after it Next returns io.EOF.
func (r *LineReader) Next(ctx context.Context) ([]byte, error) {
	r.start.Do(func() { go r.pump() })

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return nil, io.EOF
	case res, ok := <-r.lines:
		if !ok {
			return nil, io.EOF
		}

		return res.line, res.err
	}
}

// Close stops the background goroutine once its current read returns.
func (r *LineReader) Close() {
	r.stop.Do(func() { close(r.done) })
}

func (r *LineReader) pump() {
	defer close(r.lines)

	for {
		line, err := r.readLine()
		if err != nil && !errors.Is(err, ErrLineTooLong) {
			if !errors.Is(err, io.EOF) {
				err = pipeerrs.NewTransportError(pipeerrs.ErrCodeReadFailed, "read line", err)
			}
			select {
			case r.lines <- lineResult{err: err}:
			case <-r.done:
			}

			return
		}

		select {
		case r.lines <- lineResult{line: line, err: err}:
		case <-r.done:
			return
		}
	}
}

func (r *LineReader) readLine() ([]byte, error) {
	var line []byte
	tooLong := false

	for {
		chunk, err := r.br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > r.maxLine+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLong {
				return nil, ErrLineTooLong
			}
			if len(line) > 0 {
				return line, nil
			}

			return nil, io.EOF
		case err != nil:
			return nil, err
		}

		if tooLong {
			return nil, ErrLineTooLong
		}

		return line[:len(line)-1], nil
	}
}
