package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/ports"
)

// Process is a running child started by Spawner.
type Process struct {
	id     string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
	log    zerolog.Logger

	stderrDone chan struct{}
	termOnce   sync.Once
	termErr    error
}

// Verify interface compliance at compile time.
var _ ports.Process = (*Process)(nil)

// ID returns the child's session id.
func (p *Process) ID() string {
	return p.id
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}

// Stdin returns the child's input stream.
func (p *Process) Stdin() io.WriteCloser {
	return p.stdin
}

// Stdout returns the child's output stream.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

func (p *Process) setupPipes() error {
	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe failed: %w", err)
	}
	p.stdin = stdin

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe failed: %w", err)
	}
	p.stdout = stdout

	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe failed: %w", err)
	}
	p.stderr = stderr

	return nil
}

// forwardStderr copies the child's diagnostics into the log until the pipe
// closes.
func (p *Process) forwardStderr() {
	defer close(p.stderrDone)

	scanner := bufio.NewScanner(p.stderr)
	for scanner.Scan() {
		p.log.Info().Str("stream", "stderr").Msg(scanner.Text())
	}
}

// Terminate closes the child's stdin, sends SIGTERM and waits up to grace
// for it to exit before killing it. Subsequent calls return the first
// result.
func (p *Process) Terminate(grace time.Duration) error {
	p.termOnce.Do(func() {
		p.termErr = p.terminate(grace)
		<-p.stderrDone
	})

	return p.termErr
}

func (p *Process) terminate(grace time.Duration) error {
	_ = p.stdin.Close()

	// Wait closes the pipes, so it runs only once stderr has drained or
	// the child has been killed and given up on.
	abandon := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		select {
		case <-p.stderrDone:
		case <-abandon:
		}
		done <- p.cmd.Wait()
	}()

	err := p.cmd.Process.Signal(syscall.SIGTERM)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.log.Debug().Err(err).Msg("terminate signal failed")
	}

	select {
	case err := <-done:
		return p.reaped(err, false)
	case <-time.After(grace):
	}

	p.log.Warn().Dur("grace", grace).Msg("child ignored terminate, killing")
	_ = p.cmd.Process.Kill()

	select {
	case err := <-done:
		return p.reaped(err, true)
	case <-time.After(grace):
		close(abandon)

		return p.reaped(<-done, true)
	}
}

// reaped logs the exit. Exit statuses are expected after a signal and are
// not returned as errors.
func (p *Process) reaped(err error, killed bool) error {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		p.log.Info().Bool("killed", killed).Msg("child exited")

		return nil
	case errors.As(err, &exitErr):
		p.log.Info().
			Bool("killed", killed).
			Str("status", exitErr.String()).
			Msg("child exited")

		return nil
	default:
		return fmt.Errorf("wait for child: %w", err)
	}
}
