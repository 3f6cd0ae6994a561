package channel

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codeyourweb/go-win-msg-notify/internal/state"
)

// chanListener hands out queued connections and records how many accepted
// connections are open at once.
type chanListener struct {
	conns   chan net.Conn
	closed  chan struct{}
	once    sync.Once
	accepts atomic.Int32

	mu      sync.Mutex
	open    int
	maxOpen int
}

func newChanListener() *chanListener {
	return &chanListener{conns: make(chan net.Conn, 4), closed: make(chan struct{})}
}

func (l *chanListener) Accept() (net.Conn, error) {
	l.accepts.Add(1)
	select {
	case c := <-l.conns:
		l.mu.Lock()
		l.open++
		if l.open > l.maxOpen {
			l.maxOpen = l.open
		}
		l.mu.Unlock()
		return &trackedConn{Conn: c, l: l}, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *chanListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *chanListener) Addr() net.Addr { return &net.UnixAddr{Name: "test", Net: "unix"} }

func (l *chanListener) max() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxOpen
}

type trackedConn struct {
	net.Conn
	l    *chanListener
	once sync.Once
}

func (c *trackedConn) Close() error {
	c.once.Do(func() {
		c.l.mu.Lock()
		c.l.open--
		c.l.mu.Unlock()
	})
	return c.Conn.Close()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type fixture struct {
	st       *state.State
	l        *chanListener
	srv      *Server
	repaints atomic.Int32
	done     chan struct{}
}

func startServer(t *testing.T, running bool) *fixture {
	t.Helper()
	f := &fixture{st: state.New(), l: newChanListener(), done: make(chan struct{})}
	f.st.SetRunning(running)
	f.srv = NewServer(f.st, f.l, func() { f.repaints.Add(1) })
	f.srv.PollInterval = 20 * time.Millisecond
	f.srv.RetryInterval = 20 * time.Millisecond
	go func() {
		defer close(f.done)
		f.srv.Run()
	}()
	t.Cleanup(f.stop)
	return f
}

func (f *fixture) stop() {
	f.st.Exit()
	f.srv.Close()
	<-f.done
}

func TestSignalByteUpdatesLastSignal(t *testing.T) {
	f := startServer(t, true)
	server, client := net.Pipe()
	defer client.Close()
	f.l.conns <- server

	before := time.Now()
	if _, err := client.Write([]byte{1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "repaint", func() bool { return f.repaints.Load() == 1 })

	last, ok := f.st.LastSignal.Load()
	if !ok || last.Before(before) {
		t.Fatalf("last signal = %v (set %v), want >= %v", last, ok, before)
	}

	// a single event produces a single update
	time.Sleep(60 * time.Millisecond)
	if again, _ := f.st.LastSignal.Load(); !again.Equal(last) || f.repaints.Load() != 1 {
		t.Fatalf("last signal changed without a new byte")
	}
}

func TestReservedBytesAreIgnored(t *testing.T) {
	f := startServer(t, true)
	server, client := net.Pipe()
	defer client.Close()
	f.l.conns <- server

	for _, b := range []byte{0, 2, 7, 255} {
		if _, err := client.Write([]byte{b}); err != nil {
			t.Fatalf("write %d: %v", b, err)
		}
	}
	// the following signal proves the reserved bytes were consumed
	if _, err := client.Write([]byte{1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "repaint", func() bool { return f.repaints.Load() == 1 })
	time.Sleep(40 * time.Millisecond)
	if n := f.repaints.Load(); n != 1 {
		t.Fatalf("repaints = %d, want 1", n)
	}
}

func TestSingleClientAtATime(t *testing.T) {
	f := startServer(t, true)
	server1, client1 := net.Pipe()
	server2, client2 := net.Pipe()
	defer client2.Close()
	f.l.conns <- server1
	f.l.conns <- server2

	waitFor(t, "first connection", f.srv.connected)
	time.Sleep(60 * time.Millisecond)
	if f.l.max() != 1 {
		t.Fatalf("%d connections open at once, want 1", f.l.max())
	}

	// dropping the first client lets the server move on to the second
	client1.Close()
	if _, err := client2.Write([]byte{1}); err != nil {
		t.Fatalf("write on second client: %v", err)
	}
	waitFor(t, "repaint from second client", func() bool { return f.repaints.Load() == 1 })
	if f.l.max() != 1 {
		t.Fatalf("%d connections open at once, want 1", f.l.max())
	}
}

func TestNoAcceptWhileTargetAbsent(t *testing.T) {
	f := startServer(t, false)
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()
	f.l.conns <- server

	time.Sleep(100 * time.Millisecond)
	if n := f.l.accepts.Load(); n != 0 {
		t.Fatalf("Accept called %d times while the target is absent", n)
	}
	if f.srv.connected() {
		t.Fatalf("server connected while the target is absent")
	}
}

func TestShutdownUnblocksAccept(t *testing.T) {
	f := startServer(t, true)
	waitFor(t, "accept", func() bool { return f.l.accepts.Load() > 0 })

	start := time.Now()
	f.st.Exit()
	f.srv.Close()
	select {
	case <-f.done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after shutdown")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("shutdown took %v", elapsed)
	}
}

func TestShutdownWhileConnected(t *testing.T) {
	f := startServer(t, true)
	server, client := net.Pipe()
	defer client.Close()
	f.l.conns <- server
	waitFor(t, "connection", f.srv.connected)

	f.st.Exit()
	select {
	case <-f.done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not observe the exit flag within a poll interval")
	}
}
