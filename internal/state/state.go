// Package state holds the process-wide values shared by the controller's workers.
//
// Single writer per field by convention: Running is written by the orchestrator
// only, Exit by the service host or by the orchestrator on a fatal error. The
// injection slot and the worker registry have their own locks and no code path
// holds both.
package state

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrInjectionLive is returned by StoreInjection while another handle is held.
var ErrInjectionLive = errors.New("an injection is already live")

// Unloader is a live injection that must be released explicitly.
type Unloader interface {
	Unload() error
}

// Frame is the latest capture of the target window, published by the capture
// collaborator and read by the notification surface.
type Frame struct {
	Width  uint32
	Height uint32
	RGBA   []byte
}

type State struct {
	running  atomic.Bool
	exit     atomic.Bool
	done     chan struct{}
	doneOnce sync.Once

	injectionMu sync.Mutex
	injection   Unloader

	LastSignal Cell[time.Time]
	Frame      Cell[Frame]
	Workers    Registry
}

func New() *State {
	return &State{done: make(chan struct{})}
}

// Running reports whether the target process is currently present.
func (s *State) Running() bool { return s.running.Load() }

func (s *State) SetRunning(running bool) { s.running.Store(running) }

// Exiting reports whether shutdown has been requested. Worker loops poll it.
func (s *State) Exiting() bool { return s.exit.Load() }

// Exit requests shutdown. It only ever moves the flag from false to true.
func (s *State) Exit() {
	s.exit.Store(true)
	s.doneOnce.Do(func() { close(s.done) })
}

// Done is closed once Exit has been called, for loops that block in select.
func (s *State) Done() <-chan struct{} { return s.done }

// StoreInjection takes ownership of h. At most one injection is held at a time.
func (s *State) StoreInjection(h Unloader) error {
	s.injectionMu.Lock()
	defer s.injectionMu.Unlock()
	if s.injection != nil {
		return ErrInjectionLive
	}
	s.injection = h
	return nil
}

// HasInjection reports whether a handle is currently held.
func (s *State) HasInjection() bool {
	s.injectionMu.Lock()
	defer s.injectionMu.Unlock()
	return s.injection != nil
}

// UnloadInjection releases the held handle, if any. The slot is cleared even when
// Unload fails since the handle must not be used afterwards.
func (s *State) UnloadInjection() error {
	s.injectionMu.Lock()
	h := s.injection
	s.injection = nil
	s.injectionMu.Unlock()

	if h == nil {
		return nil
	}
	return h.Unload()
}

// Cell is a value published as an immutable snapshot. Readers never block and
// may see a stale but consistent value.
type Cell[T any] struct {
	p atomic.Pointer[T]
}

func (c *Cell[T]) Store(v T) { c.p.Store(&v) }

// Load returns the last published value and whether one was ever published.
func (c *Cell[T]) Load() (T, bool) {
	p := c.p.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

func (c *Cell[T]) Clear() { c.p.Store(nil) }
