// Package watcher delivers process creation and deletion events to a predicate
// until the predicate ends the subscription.
package watcher

import (
	"errors"
	"fmt"
	"time"

	"github.com/codeyourweb/go-win-msg-notify/internal/shared"
)

// ErrWatcher marks subscription and decode failures. They are fatal to callers.
var ErrWatcher = errors.New("process watcher failed")

// Process describes the process an event is about.
type Process struct {
	PID            uint32
	Name           string
	ExecutablePath string
}

type Control int

const (
	Continue Control = iota
	End
)

// Predicate is called once per event. End closes the subscription; an error
// closes it and is returned unchanged to the caller of WatchStart/WatchClose.
type Predicate func(Process) (Control, error)

type Kind int

const (
	Creation Kind = iota
	Deletion
)

func (k Kind) String() string {
	if k == Deletion {
		return "deletion"
	}
	return "creation"
}

// source is one open subscription. Next returns nil, nil when no event arrived
// within timeout.
type source interface {
	Next(timeout time.Duration) (*Process, error)
	Close()
}

type Watcher struct {
	// Stopped is polled on every empty poll; true ends the subscription.
	Stopped     func() bool
	PollTimeout time.Duration

	open func(Kind) (source, error)
}

func New(stopped func() bool) *Watcher {
	return &Watcher{
		Stopped:     stopped,
		PollTimeout: shared.WatchPollTimeout,
		open:        openWMI,
	}
}

// WatchStart iterates process creation events.
func (w *Watcher) WatchStart(pred Predicate) error {
	return w.watch(Creation, pred)
}

// WatchClose iterates process deletion events.
func (w *Watcher) WatchClose(pred Predicate) error {
	return w.watch(Deletion, pred)
}

func (w *Watcher) watch(kind Kind, pred Predicate) error {
	src, err := w.open(kind)
	if err != nil {
		return fmt.Errorf("%w: opening %s subscription: %w", ErrWatcher, kind, err)
	}
	defer src.Close()

	for {
		p, err := src.Next(w.PollTimeout)
		if err != nil {
			return fmt.Errorf("%w: reading %s event: %w", ErrWatcher, kind, err)
		}
		if p == nil {
			if w.Stopped != nil && w.Stopped() {
				return nil
			}
			continue
		}

		ctl, err := pred(*p)
		if err != nil {
			return err
		}
		if ctl == End {
			return nil
		}
	}
}
