// Package cli starts tool host children as operating system processes and
// manages their stdio pipes and lifecycle.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/ports"
)

// Spawner implements ports.Spawner by executing a configured command.
type Spawner struct {
	command options.ChildCommand
	log     zerolog.Logger
}

// Verify interface compliance at compile time.
var _ ports.Spawner = (*Spawner)(nil)

// NewSpawner creates a spawner for command. A nil logger discards child
// stderr.
func NewSpawner(command options.ChildCommand, logger *zerolog.Logger) *Spawner {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}

	return &Spawner{
		command: command,
		log:     log.With().Str("component", "child").Logger(),
	}
}

// CommandLine returns the command and its arguments joined for display.
func (s *Spawner) CommandLine() string {
	return strings.Join(append([]string{s.command.Command}, s.command.Args...), " ")
}

// Spawn starts a new child. The child is not bound to ctx; it lives until
// Terminate is called on the returned process.
func (s *Spawner) Spawn(ctx context.Context) (ports.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	path, err := s.findCommand()
	if err != nil {
		return nil, s.spawnError(id, "command not found", err)
	}

	cmd := exec.Command(path, s.command.Args...)
	cmd.Env = s.buildEnvironment()
	if s.command.Dir != nil {
		cmd.Dir = *s.command.Dir
	}

	proc := &Process{
		id:         id,
		cmd:        cmd,
		stderrDone: make(chan struct{}),
	}
	if err := proc.setupPipes(); err != nil {
		return nil, s.spawnError(id, "pipe setup failed", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, s.spawnError(id, "process start failed", err)
	}

	proc.log = s.log.With().
		Str("child_id", proc.id).
		Int("pid", cmd.Process.Pid).
		Logger()
	proc.log.Info().Str("command", s.CommandLine()).Msg("child started")

	go proc.forwardStderr()

	return proc, nil
}

// findCommand resolves the executable. Paths containing a separator are
// used as given.
func (s *Spawner) findCommand() (string, error) {
	if s.command.Command == "" {
		return "", fmt.Errorf("no command configured")
	}
	if strings.ContainsRune(s.command.Command, os.PathSeparator) {
		return s.command.Command, nil
	}

	path, err := exec.LookPath(s.command.Command)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", s.command.Command, err)
	}

	return path, nil
}

func (s *Spawner) buildEnvironment() []string {
	env := os.Environ()
	keys := make([]string, 0, len(s.command.Env))
	for k := range s.command.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		env = append(env, k+"="+s.command.Env[k])
	}

	return env
}

func (s *Spawner) spawnError(id, message string, cause error) error {
	return pipeerrs.NewProcessError(
		pipeerrs.ErrCodeProcessSpawnFailed,
		message,
		cause,
		s.CommandLine(),
	).WithChildID(id)
}
