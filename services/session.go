package services

import (
	"context"
	"errors"
	"os/exec"
	"sync"

	"github.com/mrnavastar/mclaunch/util"
	"golang.org/x/sync/singleflight"
)

var (
	ErrAlreadyRunning = errors.New("a game process is already active")
	ErrNotRunning     = errors.New("no game process is running")
)

type LaunchState string

const (
	Idle      LaunchState = "idle"
	Preparing LaunchState = "preparing"
	Launching LaunchState = "launching"
	Running   LaunchState = "running"
	Failed    LaunchState = "error"
)

// GameProcess is the handle of a spawned game.
type GameProcess struct {
	Pid    int
	cmd    *exec.Cmd
	killed bool
}

// Session owns the state shared by every operation of one launcher run:
// the version manifest, fetched at most once, and the single game slot.
type Session struct {
	manifestMu sync.RWMutex
	manifest   *util.VersionManifest
	group      singleflight.Group

	mu    sync.Mutex
	state LaunchState
	proc  *GameProcess
}

func NewSession() *Session {
	return &Session{state: Idle}
}

// Manifest returns the cached manifest, calling fetch only if none is
// cached yet. Concurrent callers share one fetch; failures are not cached.
func (s *Session) Manifest(ctx context.Context, fetch func(context.Context) (util.VersionManifest, error)) (util.VersionManifest, error) {
	s.manifestMu.RLock()
	cached := s.manifest
	s.manifestMu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	v, err, _ := s.group.Do("manifest", func() (interface{}, error) {
		s.manifestMu.RLock()
		cached := s.manifest
		s.manifestMu.RUnlock()
		if cached != nil {
			return *cached, nil
		}

		manifest, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.manifestMu.Lock()
		s.manifest = &manifest
		s.manifestMu.Unlock()
		return manifest, nil
	})
	if err != nil {
		return util.VersionManifest{}, err
	}
	return v.(util.VersionManifest), nil
}

func (s *Session) State() LaunchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// begin reserves the game slot for a new launch.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Preparing || s.state == Launching || s.state == Running {
		return ErrAlreadyRunning
	}
	s.state = Preparing
	return nil
}

func (s *Session) transition(state LaunchState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) attach(proc *GameProcess) {
	s.mu.Lock()
	s.proc = proc
	s.state = Running
	s.mu.Unlock()
}

// release clears the slot if proc still owns it.
func (s *Session) release(proc *GameProcess, state LaunchState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != proc {
		return
	}
	s.proc = nil
	s.state = state
}

func (s *Session) process() *GameProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc
}

// detach takes the process out of the slot so a new launch is possible
// right away.
func (s *Session) detach() *GameProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc := s.proc
	if proc != nil {
		proc.killed = true
		s.proc = nil
		s.state = Idle
	}
	return proc
}

func (s *Session) wasKilled(proc *GameProcess) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return proc.killed
}
