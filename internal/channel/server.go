// Package channel is the controller end of the signal pipe.
package channel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
	"github.com/codeyourweb/go-win-msg-notify/internal/metrics"
	"github.com/codeyourweb/go-win-msg-notify/internal/shared"
	"github.com/codeyourweb/go-win-msg-notify/internal/state"
)

// Server accepts one hook module connection at a time and turns each signal byte
// into a last-signal timestamp plus a repaint request.
type Server struct {
	State    *state.State
	Listener net.Listener
	Repaint  func()

	PollInterval  time.Duration
	RetryInterval time.Duration

	mu   sync.Mutex
	conn net.Conn
}

func NewServer(st *state.State, l net.Listener, repaint func()) *Server {
	return &Server{
		State:         st,
		Listener:      l,
		Repaint:       repaint,
		PollInterval:  shared.ChannelPollInterval,
		RetryInterval: shared.ChannelRetryInterval,
	}
}

// Run serves until the exit flag is set. A connection is only accepted while
// the target is running.
func (s *Server) Run() {
	logger.LogMessage(logger.LOGLEVEL_INFO, "Signal channel started")
	for !s.State.Exiting() {
		if !s.State.Running() {
			time.Sleep(s.PollInterval)
			continue
		}

		conn, err := s.Listener.Accept()
		if err != nil {
			if s.State.Exiting() {
				break
			}
			logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Signal channel accept failed: %v", err))
			s.backoff()
			continue
		}

		logger.LogMessage(logger.LOGLEVEL_INFO, "Hook module connected to the signal channel")
		metrics.ChannelConnectsTotal.Inc()
		s.serve(conn)
	}
	logger.LogMessage(logger.LOGLEVEL_INFO, "Signal channel stopped")
}

// connected reports whether a hook module connection is currently held.
func (s *Server) connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Close stops accepting and drops the current connection so Run can observe
// the exit flag.
func (s *Server) Close() error {
	err := s.Listener.Close()
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	return err
}

func (s *Server) serve(conn net.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	buf := make([]byte, 1)
	for !s.State.Exiting() {
		// a read deadline stands in for peeking: an empty poll is a timeout
		if err := conn.SetReadDeadline(time.Now().Add(s.PollInterval)); err != nil {
			s.disconnect(err)
			return
		}
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) || isTimeout(err) {
				continue
			}
			s.disconnect(err)
			return
		}
		if n == 1 {
			s.handle(buf[0])
		}
	}
}

func (s *Server) handle(b byte) {
	if b != shared.SignalNewMessage {
		logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("Ignoring reserved signal byte %d", b))
		metrics.IgnoredBytesTotal.Inc()
		return
	}
	logger.LogMessage(logger.LOGLEVEL_DEBUG, "new msg")
	s.State.LastSignal.Store(time.Now())
	metrics.SignalsTotal.Inc()
	if s.Repaint != nil {
		s.Repaint()
	}
}

func (s *Server) disconnect(err error) {
	if s.State.Exiting() {
		return
	}
	logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("%v: %v", shared.ErrBrokenConnection, err))
	metrics.ChannelDisconnectsTotal.Inc()
	s.backoff()
}

// backoff sleeps RetryInterval unless shutdown starts first.
func (s *Server) backoff() {
	select {
	case <-time.After(s.RetryInterval):
	case <-s.State.Done():
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
