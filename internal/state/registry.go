package state

import (
	"fmt"
	"sync"

	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
)

type Worker struct {
	name string
	done chan struct{}
}

func (w *Worker) Name() string { return w.name }

// Done is closed when the worker function has returned.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Registry tracks running workers so shutdown can wait for all of them.
type Registry struct {
	mu      sync.Mutex
	workers []*Worker
}

// Spawn runs fn on a new goroutine and appends it to the registry.
func (r *Registry) Spawn(name string, fn func()) *Worker {
	w := &Worker{name: name, done: make(chan struct{})}

	r.mu.Lock()
	r.workers = append(r.workers, w)
	r.mu.Unlock()

	go func() {
		defer close(w.done)
		fn()
	}()
	return w
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// JoinAll drains the registry and waits for every worker, newest first.
func (r *Registry) JoinAll() {
	r.mu.Lock()
	workers := r.workers
	r.workers = nil
	r.mu.Unlock()

	for i := len(workers) - 1; i >= 0; i-- {
		logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("Waiting for worker %s...", workers[i].name))
		<-workers[i].done
	}
}
