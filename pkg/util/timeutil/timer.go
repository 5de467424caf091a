// Copyright 2016 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package timeutil

import (
	"sync"
	"time"
)

// stoppedTimers holds stopped timers for reuse by Timer.
var stoppedTimers sync.Pool

// Timer fires once per call to Reset. It wraps a pooled time.Timer so that
// loops which re-arm a timer on every iteration, like the sampling loop of
// a collector, do not allocate.
//
// The zero value is ready to use and does not fire until the first Reset;
// receiving from C before then blocks forever.
//
// After receiving from C, set Read so that the next Reset or Stop knows the
// channel is already empty:
//
//	var timer timeutil.Timer
//	defer timer.Stop()
//	for {
//		timer.Reset(interval)
//		select {
//		case <-timer.C:
//			timer.Read = true
//			...
//		case <-done:
//			return
//		}
//	}
type Timer struct {
	t    *time.Timer
	C    <-chan time.Time
	Read bool
}

// drain discards an expiration that fired but was not received.
func (t *Timer) drain() {
	if t.Read {
		return
	}
	select {
	case <-t.C:
	default:
	}
}

// Reset arms the timer to fire after d, discarding any earlier expiration.
func (t *Timer) Reset(d time.Duration) {
	if t.t == nil {
		if pooled, ok := stoppedTimers.Get().(*time.Timer); ok {
			pooled.Reset(d)
			t.t = pooled
		} else {
			t.t = time.NewTimer(d)
		}
		t.C = t.t.C
		t.Read = false
		return
	}
	if !t.t.Stop() {
		t.drain()
	}
	t.t.Reset(d)
	t.Read = false
}

// Stop disarms the timer and returns it to the zero value. The result is
// true if a pending expiration was canceled.
func (t *Timer) Stop() bool {
	if t.t == nil {
		return false
	}
	stopped := t.t.Stop()
	if !stopped {
		t.drain()
	}
	stoppedTimers.Put(t.t)
	*t = Timer{}
	return stopped
}
