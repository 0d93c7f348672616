package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/ports"
)

// ErrSpawnRefused is returned by FakeSpawner while it is set to fail.
var ErrSpawnRefused = errors.New("spawn refused")

// FakeSpawner hands out fake children and records every attempt.
type FakeSpawner struct {
	mu        sync.Mutex
	behaviors []Behavior
	failNext  int
	attempts  int
	spawned   []*FakeProcess
}

// Verify interface compliance at compile time.
var _ ports.Spawner = (*FakeSpawner)(nil)

// NewFakeSpawner returns a spawner whose n-th child uses behaviors[n], or
// the last behavior once they run out.
func NewFakeSpawner(behaviors ...Behavior) *FakeSpawner {
	return &FakeSpawner{behaviors: behaviors}
}

// FailNext makes the next n spawns fail.
func (s *FakeSpawner) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failNext = n
}

// Spawn implements ports.Spawner.
func (s *FakeSpawner) Spawn(context.Context) (ports.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if s.failNext > 0 {
		s.failNext--

		return nil, pipeerrs.NewProcessError(
			pipeerrs.ErrCodeProcessSpawnFailed,
			"start fake child",
			ErrSpawnRefused,
			"fake",
		)
	}

	behavior := SilentBehavior()
	if n := len(s.behaviors); n > 0 {
		behavior = s.behaviors[min(len(s.spawned), n-1)]
	}

	p := NewFakeProcess(behavior)
	s.spawned = append(s.spawned, p)

	return p, nil
}

// Attempts returns how many times Spawn was called.
func (s *FakeSpawner) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.attempts
}

// Spawned returns the children started so far.
func (s *FakeSpawner) Spawned() []*FakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*FakeProcess, len(s.spawned))
	copy(out, s.spawned)

	return out
}
