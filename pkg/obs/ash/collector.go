// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"context"

	"github.com/cockroachdb/ash/pkg/obs/waitevent"
	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/ash/pkg/util/stop"
	"github.com/cockroachdb/ash/pkg/util/timeutil"
)

// NodeSampleSource feeds samples produced by the storage node serving this
// process into the buffer, alongside the samples of the local sessions.
type NodeSampleSource interface {
	// StoreNodeSamples is called at the start of every sampling tick. It
	// should fetch the node's samples for sampleTime, call acquire right
	// before writing them and then call write once per sample. Both
	// callbacks must be called from the calling goroutine; acquire can be
	// called more than once and write acquires the lock itself if needed.
	// Samples written without a sample time get sampleTime.
	//
	// An error is logged and does not prevent the local sessions from being
	// sampled.
	StoreNodeSamples(ctx context.Context, sampleTime int64, acquire func(), write func(Sample)) error
}

// Collector periodically samples the live sessions into the buffer.
type Collector struct {
	ash        *ActiveSessionHistory
	feedErrLog log.EveryN

	// Only accessed by the collector goroutine.
	lastSampleTime int64
	sessions       []*Session
	eligible       []Sample
}

// Start runs the sampling loop until the stopper quiesces, ctx is canceled,
// or the parent process is found to have died.
func (c *Collector) Start(ctx context.Context, stopper *stop.Stopper) error {
	return stopper.RunAsyncTask(ctx, "ash-collector", func(ctx context.Context) {
		c.run(ctx, stopper)
	})
}

func (c *Collector) run(ctx context.Context, stopper *stop.Stopper) {
	sv := c.ash.sv
	log.Infof(ctx, "starting active session history collector with %d buffer entries",
		c.ash.buffer.Capacity())

	settingsCh := sv.NewNotifier(Enabled, SamplingInterval, SampleSize, TrackNestedQueries)
	defer settingsCh.Close()

	var timer timeutil.Timer
	defer timer.Stop()
	for {
		timer.Reset(SamplingInterval.Get(sv))
		select {
		case <-timer.C:
			timer.Read = true
			if !c.parentAlive(ctx) {
				return
			}
			c.tick(ctx)
		case <-settingsCh.Ch():
			if !c.parentAlive(ctx) {
				return
			}
			log.Infof(ctx, "active session history settings changed: enabled=%t interval=%s sample size=%d",
				Enabled.Get(sv), SamplingInterval.Get(sv), SampleSize.Get(sv))
		case <-stopper.ShouldQuiesce():
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Collector) parentAlive(ctx context.Context) bool {
	if alive := c.ash.cfg.ParentAlive; alive == nil || alive() {
		return true
	}
	log.Warningf(ctx, "parent process died; stopping active session history collector")
	if fn := c.ash.cfg.OnParentDeath; fn != nil {
		fn()
	}
	return false
}

// nextSampleTime returns the current time in microseconds. Sample times
// never go backwards, even if the clock does.
func (c *Collector) nextSampleTime() int64 {
	t := timeutil.ToUnixMicros(c.ash.now())
	if t < c.lastSampleTime {
		t = c.lastSampleTime
	}
	c.lastSampleTime = t
	return t
}

// tick takes one round of samples. The buffer lock is taken once for the
// whole tick: first by the node feed when its samples are ready, then for
// the local sessions if the feed did not take it.
func (c *Collector) tick(ctx context.Context) {
	sv := c.ash.sv
	k := SampleSize.Get(sv)
	if !Enabled.Get(sv) || k <= 0 {
		return
	}
	w, err := c.ash.buffer.Writer()
	if err != nil {
		log.Errorf(ctx, "%v", err)
		return
	}
	defer w.Release()

	sampleTime := c.nextSampleTime()
	if src := c.ash.cfg.NodeSource; src != nil {
		var n int64
		write := func(s Sample) {
			if s.SampleTime == 0 {
				s.SampleTime = sampleTime
			}
			w.Acquire()
			w.Write(s)
			n++
		}
		if err := src.StoreNodeSamples(ctx, sampleTime, w.Acquire, write); err != nil {
			c.ash.metrics.NodeFeedErrors.Inc(1)
			if c.feedErrLog.ShouldLog() {
				log.Warningf(ctx, "storing storage node samples: %v", err)
			}
		}
		c.ash.metrics.NodeSamples.Inc(n)
	}

	w.Acquire()
	c.storeLocalSamples(w, sampleTime, k)
	c.ash.metrics.Ticks.Inc(1)
	if fn := c.ash.knobs.OnTick; fn != nil {
		fn(sampleTime)
	}
}

// storeLocalSamples writes one sample for each eligible session, up to k
// samples. When more than k sessions are eligible, the remaining ones are
// not sampled this tick and every written sample is weighted to represent
// them. The buffer lock must be held.
func (c *Collector) storeLocalSamples(w *BufferWriter, sampleTime int64, k int64) {
	c.sessions = c.ash.registry.appendSessions(c.sessions[:0])
	c.eligible = c.eligible[:0]
	for i, s := range c.sessions {
		c.sessions[i] = nil
		var sample Sample
		if !s.snapshot(&sample) {
			// The session went away since the registry was read.
			continue
		}
		if !sample.Metadata.InRequest() ||
			waitevent.IsIgnorable(waitevent.Code(sample.WaitEventCode)) {
			continue
		}
		c.eligible = append(c.eligible, sample)
	}

	n := int64(len(c.eligible))
	weight := float32(float64(max(n, k)) / float64(k))
	var stored int64
	for i := range c.eligible {
		if stored == k {
			break
		}
		s := &c.eligible[i]
		s.EndpointID = c.ash.endpointID
		s.RPCRequestID = 0
		s.SampleWeight = weight
		s.SampleTime = sampleTime
		w.Write(*s)
		stored++
	}

	c.ash.metrics.Samples.Inc(stored)
	c.ash.metrics.SessionsSkipped.Inc(n - stored)
	c.ash.metrics.ActiveSessions.Update(n)
	c.ash.metrics.SampleWeight.Update(float64(weight))
}
