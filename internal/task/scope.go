// Package task runs owned background activities that are cancelled and
// awaited when their owner goes away.
package task

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Scope is a handle on one background goroutine. The goroutine polls
// ShouldStop (or selects on Done) at its safe points; the owner calls Stop,
// which signals and then blocks until the goroutine has returned.
type Scope struct {
	group errgroup.Group
	stop  atomic.Bool
	quit  chan struct{}
	once  sync.Once
}

// Go starts fn on its own goroutine and returns the handle that owns it.
func Go(fn func(s *Scope)) *Scope {
	s := &Scope{quit: make(chan struct{})}
	s.group.Go(func() error {
		fn(s)
		return nil
	})
	return s
}

// ShouldStop reports whether the owner asked the task to finish.
func (s *Scope) ShouldStop() bool {
	return s.stop.Load()
}

// Done is closed once a stop has been signalled.
func (s *Scope) Done() <-chan struct{} {
	return s.quit
}

// Signal asks the task to stop without waiting for it.
func (s *Scope) Signal() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.stop.Store(true)
		close(s.quit)
	})
}

// Wait blocks until the task has returned.
func (s *Scope) Wait() {
	if s == nil {
		return
	}
	_ = s.group.Wait()
}

// Stop signals the task and joins it. Safe to call more than once and on a
// nil Scope.
func (s *Scope) Stop() {
	if s == nil {
		return
	}
	s.Signal()
	s.Wait()
}
