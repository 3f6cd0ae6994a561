// Package agent runs inside the target process. The hook procedure latches a
// flag when the new-message sentinel passes through the target's message queue,
// and a worker forwards the latched flag to the controller as one byte.
package agent

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
	"github.com/codeyourweb/go-win-msg-notify/internal/shared"
)

var signal = []byte{shared.SignalNewMessage}

// Latch accumulates "at least one occurrence" until taken.
type Latch struct {
	flag atomic.Bool
}

func (l *Latch) Set() { l.flag.Store(true) }

// TakeAndClear reports whether the latch was set and clears it.
func (l *Latch) TakeAndClear() bool { return l.flag.Swap(false) }

// Dialer opens the signal pipe, waiting at most timeout for it to be available.
type Dialer func(timeout time.Duration) (io.WriteCloser, error)

type Agent struct {
	Target string
	Dial   Dialer

	PollInterval      time.Duration
	ReconnectInterval time.Duration
	DialTimeout       time.Duration

	latch   Latch
	active  atomic.Bool
	running atomic.Bool
	done    chan struct{}

	mu   sync.Mutex
	conn io.WriteCloser

	dialFailures rate.Sometimes
}

func New(target string, dial Dialer) *Agent {
	return &Agent{
		Target:            target,
		Dial:              dial,
		PollInterval:      shared.AgentPollInterval,
		ReconnectInterval: shared.AgentReconnectInterval,
		DialTimeout:       shared.AgentDialTimeout,
		done:              make(chan struct{}),
		dialFailures:      rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

// OnAttach starts the worker when exeName is the target. In any other process
// the agent stays inert and Observe does nothing.
func (a *Agent) OnAttach(exeName string) bool {
	logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("DLL Attach in %s", exeName))
	if !strings.EqualFold(exeName, a.Target) {
		close(a.done)
		return false
	}

	a.active.Store(true)
	a.running.Store(true)
	go a.run()
	return true
}

// OnDetach stops the worker at its next poll and releases the connection. It
// does not wait for the worker.
func (a *Agent) OnDetach() {
	logger.LogMessage(logger.LOGLEVEL_DEBUG, "DLL Detach")
	a.running.Store(false)
	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.mu.Unlock()
}

// Done is closed when the worker has returned, or at once for an inert agent.
func (a *Agent) Done() <-chan struct{} { return a.done }

// Observe is the hook's only work: latch on the sentinel pair. It must stay
// non-blocking since it runs on the target's message pump.
func (a *Agent) Observe(code int32, message uint32, wParam uintptr) {
	if code < 0 || !a.active.Load() {
		return
	}
	if message == shared.NewMessageID && wParam == shared.NewMessageWParam {
		a.latch.Set()
	}
}

func (a *Agent) run() {
	defer close(a.done)
	logger.LogMessage(logger.LOGLEVEL_DEBUG, "start connect pipe")

	for a.running.Load() {
		if conn := a.current(); conn != nil {
			// a crash between the clear and the write loses that one signal
			if a.latch.TakeAndClear() {
				if _, err := conn.Write(signal); err != nil {
					logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("fail to write pipe: %v: %v", shared.ErrBrokenConnection, err))
					a.latch.Set()
					a.drop(conn)
				}
			}
			time.Sleep(a.PollInterval)
			continue
		}

		conn, err := a.Dial(a.DialTimeout)
		if err != nil {
			a.dialFailures.Do(func() {
				logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("error : %v", err))
			})
			time.Sleep(a.ReconnectInterval)
			continue
		}
		logger.LogMessage(logger.LOGLEVEL_DEBUG, "connect to pipe")
		a.adopt(conn)
	}

	logger.LogMessage(logger.LOGLEVEL_DEBUG, "end connect pipe")
}

func (a *Agent) current() io.WriteCloser {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn
}

// adopt stores a fresh connection unless OnDetach ran while dialing.
func (a *Agent) adopt(conn io.WriteCloser) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running.Load() {
		conn.Close()
		return
	}
	a.conn = conn
}

func (a *Agent) drop(conn io.WriteCloser) {
	a.mu.Lock()
	if a.conn == conn {
		a.conn = nil
	}
	a.mu.Unlock()
	conn.Close()
}
