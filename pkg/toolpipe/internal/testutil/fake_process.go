// Package testutil provides in-memory fakes for relay and run loop tests.
package testutil

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/ports"
)

// Behavior decides how a fake child answers one trimmed inbound line.
// A nil reply writes nothing; closeOutput ends the child's stdout.
type Behavior func(line []byte) (reply []byte, closeOutput bool)

// HostBehavior answers lines with an in-process handler, the way a real
// tool host child would.
func HostBehavior(h ports.Handler) Behavior {
	return func(line []byte) ([]byte, bool) {
		env, err := messages.Decode(line)
		if err != nil {
			out, _ := messages.Encode(messages.NewError(nil, pipeerrs.CodeParseError, "Parse error"))

			return out, false
		}
		out, err := h.Handle(context.Background(), env, line)
		if err != nil {
			out, _ = messages.Encode(messages.NewError(env.ReplyID(), pipeerrs.CodeInternalError, err.Error()))
		}

		return out, false
	}
}

// SilentBehavior never answers.
func SilentBehavior() Behavior {
	return func([]byte) ([]byte, bool) { return nil, false }
}

// ClosingBehavior closes stdout on the first line, like a crashed child.
func ClosingBehavior() Behavior {
	return func([]byte) ([]byte, bool) { return nil, true }
}

// FixedBehavior answers every line with reply.
func FixedBehavior(reply string) Behavior {
	return func([]byte) ([]byte, bool) { return []byte(reply), false }
}

// FakeProcess implements ports.Process over in-memory pipes.
type FakeProcess struct {
	id       string
	behavior Behavior

	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter

	mu           sync.Mutex
	received     [][]byte
	terminations int
	done         chan struct{}
}

// Verify interface compliance at compile time.
var _ ports.Process = (*FakeProcess)(nil)

// NewFakeProcess starts a fake child driven by behavior.
func NewFakeProcess(behavior Behavior) *FakeProcess {
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	p := &FakeProcess{
		id:       uuid.NewString(),
		behavior: behavior,
		stdinR:   stdinR,
		stdinW:   stdinW,
		stdoutR:  stdoutR,
		stdoutW:  stdoutW,
		done:     make(chan struct{}),
	}
	go p.serve()

	return p
}

func (p *FakeProcess) serve() {
	defer close(p.done)
	defer p.stdinR.CloseWithError(io.ErrClosedPipe)
	defer p.stdoutW.Close()

	reader := bufio.NewReader(p.stdinR)
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			p.record(trimmed)

			reply, closeOutput := p.behavior(trimmed)
			if closeOutput {
				return
			}
			if reply != nil {
				if _, werr := p.stdoutW.Write(append(reply, '\n')); werr != nil {
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func (p *FakeProcess) record(line []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.received = append(p.received, append([]byte(nil), line...))
}

// ID implements ports.Process.
func (p *FakeProcess) ID() string {
	return p.id
}

// Stdin implements ports.Process.
func (p *FakeProcess) Stdin() io.WriteCloser {
	return p.stdinW
}

// Stdout implements ports.Process.
func (p *FakeProcess) Stdout() io.Reader {
	return p.stdoutR
}

// Terminate closes both pipes and waits for the fake to stop.
func (p *FakeProcess) Terminate(time.Duration) error {
	p.mu.Lock()
	p.terminations++
	p.mu.Unlock()

	_ = p.stdinW.Close()
	_ = p.stdoutR.Close()
	<-p.done

	return nil
}

// Received returns the lines the fake has read so far.
func (p *FakeProcess) Received() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.received))
	for i, line := range p.received {
		out[i] = string(line)
	}

	return out
}

// Terminated reports whether Terminate was called.
func (p *FakeProcess) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.terminations > 0
}
