// Package presenter decides when the notification surface is shown. It reads
// the shared state on every repaint request and logs show/hide transitions.
package presenter

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
	"github.com/codeyourweb/go-win-msg-notify/internal/state"
)

type Presenter struct {
	State *state.State
	// RefreshInterval re-evaluates visibility without a repaint request, so a
	// closed target hides the surface.
	RefreshInterval time.Duration

	show    atomic.Int64
	repaint chan struct{}
	shown   atomic.Bool
}

func New(st *state.State, show time.Duration) *Presenter {
	p := &Presenter{
		State:           st,
		RefreshInterval: time.Second,
		repaint:         make(chan struct{}, 1),
	}
	p.show.Store(int64(show))
	return p
}

// Request asks for a repaint. Requests made while one is pending coalesce.
func (p *Presenter) Request() {
	select {
	case p.repaint <- struct{}{}:
	default:
	}
}

func (p *Presenter) SetShowDuration(d time.Duration) { p.show.Store(int64(d)) }

func (p *Presenter) ShowDuration() time.Duration { return time.Duration(p.show.Load()) }

// Visible reports whether the surface should be on screen at now: the target
// runs and its last signal is younger than the show window.
func (p *Presenter) Visible(now time.Time) bool {
	if !p.State.Running() {
		return false
	}
	last, ok := p.State.LastSignal.Load()
	if !ok {
		return false
	}
	return now.Before(last.Add(p.ShowDuration()))
}

// Shown reports the visibility applied by the last repaint.
func (p *Presenter) Shown() bool { return p.shown.Load() }

// Run repaints on request, when the show window elapses and on every refresh
// tick, until shutdown.
func (p *Presenter) Run() {
	logger.LogMessage(logger.LOGLEVEL_INFO, "Presenter started")
	defer logger.LogMessage(logger.LOGLEVEL_INFO, "Presenter stopped")

	ticker := time.NewTicker(p.RefreshInterval)
	defer ticker.Stop()
	expire := time.NewTimer(time.Hour)
	expire.Stop()
	defer expire.Stop()

	for {
		select {
		case <-p.State.Done():
			return
		case <-p.repaint:
		case <-ticker.C:
		case <-expire.C:
		}

		now := time.Now()
		if remaining := p.paint(now); remaining > 0 {
			expire.Reset(remaining)
		}
	}
}

// paint applies the visibility for now and returns how long it stays visible.
func (p *Presenter) paint(now time.Time) time.Duration {
	visible := p.Visible(now)
	if visible != p.shown.Swap(visible) {
		if visible {
			logger.LogMessage(logger.LOGLEVEL_INFO, "Show notification")
		} else {
			logger.LogMessage(logger.LOGLEVEL_INFO, "Hide notification")
		}
	}
	if !visible {
		return 0
	}

	if frame, ok := p.State.Frame.Load(); ok {
		logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("Paint frame %dx%d", frame.Width, frame.Height))
	}
	last, _ := p.State.LastSignal.Load()
	return last.Add(p.ShowDuration()).Sub(now)
}
