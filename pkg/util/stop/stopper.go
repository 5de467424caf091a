// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package stop

import (
	"context"
	"sync"

	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/ash/pkg/util/syncutil"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
)

// ErrUnavailable indicates that the Stopper is quiescing and no new tasks
// can be started.
var ErrUnavailable = errors.New("stopper is quiescing")

// Closer is closed when the Stopper stops.
type Closer interface {
	Close()
}

// CloserFn is a function that implements Closer.
type CloserFn func()

// Close implements Closer.
func (f CloserFn) Close() { f() }

// A Stopper provides control over the lifecycle of goroutines started
// through it via its RunAsyncTask method.
//
// When Stop is invoked, the Stopper closes the ShouldQuiesce channel, waits
// for all running tasks to return, and then runs the registered closers in
// reverse order of registration.
type Stopper struct {
	quiescer chan struct{}
	stopped  chan struct{}
	wg       sync.WaitGroup

	mu struct {
		syncutil.Mutex
		quiescing bool
		closers   []Closer
	}
}

// NewStopper returns an instance of Stopper.
func NewStopper() *Stopper {
	return &Stopper{
		quiescer: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// AddCloser adds an object to close after the stopper has been stopped.
func (s *Stopper) AddCloser(c Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.quiescing {
		c.Close()
		return
	}
	s.mu.closers = append(s.mu.closers, c)
}

// RunAsyncTask runs fn in a goroutine. The context passed to fn carries a
// "task" logging tag. ErrUnavailable is returned if the stopper is already
// quiescing, in which case fn is not run.
func (s *Stopper) RunAsyncTask(
	ctx context.Context, taskName string, fn func(context.Context),
) error {
	s.mu.Lock()
	if s.mu.quiescing {
		s.mu.Unlock()
		return ErrUnavailable
	}
	s.wg.Add(1)
	s.mu.Unlock()

	ctx = logtags.AddTag(ctx, "task", taskName)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
	return nil
}

// ShouldQuiesce returns a channel which will be closed when Stop() has been
// invoked and outstanding tasks should begin to quiesce.
func (s *Stopper) ShouldQuiesce() <-chan struct{} {
	return s.quiescer
}

// IsStopped returns a channel which will be closed after Stop() has been
// invoked and all tasks and closers have finished.
func (s *Stopper) IsStopped() <-chan struct{} {
	return s.stopped
}

// Stop signals all live workers to stop, waits for them, and then runs the
// closers. It is idempotent.
func (s *Stopper) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.mu.quiescing {
		s.mu.Unlock()
		<-s.stopped
		return
	}
	s.mu.quiescing = true
	close(s.quiescer)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	closers := s.mu.closers
	s.mu.closers = nil
	s.mu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i].Close()
	}
	log.VEventf(ctx, 1, "stopper stopped")
	close(s.stopped)
}
