// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package ash implements active session history: a fixed-size, in-memory
// history of what every active session was waiting on, sampled at a
// regular interval.
//
// Sessions publish their identity and current wait event through a Tracker.
// A Collector copies them into a shared ring Buffer on every tick, weighting
// the samples when more sessions are active than the per-tick sample size.
// ScanToRows materializes the buffer for the active session history table.
package ash

import (
	"context"
	"time"

	"github.com/cockroachdb/ash/pkg/obs/waitevent"
	"github.com/cockroachdb/ash/pkg/settings"
	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/ash/pkg/util/stop"
	"github.com/cockroachdb/ash/pkg/util/timeutil"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Config holds the dependencies of an ActiveSessionHistory.
type Config struct {
	Settings *settings.Values
	// EndpointID identifies this node in the samples it produces. A random
	// id is used if unset.
	EndpointID uuid.UUID
	// NodeSource, if set, feeds the storage node's samples on every tick.
	NodeSource NodeSampleSource
	// WaitEvents resolves wait event codes when the buffer is read. It
	// defaults to waitevent.Taxonomy.
	WaitEvents WaitEventResolver
	// ParentAlive, if set, is checked every time the collector wakes up. The
	// collector stops and calls OnParentDeath once it returns false.
	ParentAlive   func() bool
	OnParentDeath func()
	Knobs         *TestingKnobs
}

// TestingKnobs allow tests to control the collector.
type TestingKnobs struct {
	// Now replaces the clock used for sample times.
	Now func() time.Time
	// OnTick is called at the end of every tick that took samples.
	OnTick func(sampleTime int64)
}

// ActiveSessionHistory ties together the sample buffer, the live sessions
// and the collector of one process.
type ActiveSessionHistory struct {
	cfg        Config
	sv         *settings.Values
	knobs      TestingKnobs
	endpointID uuid.UUID
	waitEvents WaitEventResolver

	// buffer is nil if obs.ash.infra.enabled was off at creation.
	buffer    *Buffer
	registry  *SessionRegistry
	collector *Collector
	metrics   Metrics
}

// New creates the active session history of a process. The buffer is
// allocated if obs.ash.infra.enabled is set, with the size configured by
// obs.ash.circular_buffer_size; neither setting is read again afterwards.
func New(ctx context.Context, cfg Config) (*ActiveSessionHistory, error) {
	if cfg.Settings == nil {
		return nil, errors.AssertionFailedf("active session history requires settings")
	}
	a := &ActiveSessionHistory{
		cfg:          cfg,
		sv:           cfg.Settings,
		endpointID:   cfg.EndpointID,
		waitEvents:   cfg.WaitEvents,
		registry:     NewSessionRegistry(),
		metrics:      makeMetrics(),
	}
	if cfg.Knobs != nil {
		a.knobs = *cfg.Knobs
	}
	if a.endpointID == uuid.Nil {
		a.endpointID = uuid.New()
	}
	if a.waitEvents == nil {
		a.waitEvents = waitevent.Taxonomy{}
	}
	a.collector = &Collector{ash: a, feedErrLog: log.Every(time.Minute)}

	if !InfraEnabled.Get(a.sv) {
		log.Infof(ctx, "active session history infrastructure is disabled")
		return a, nil
	}
	sizeKB := BufferSize.Get(a.sv)
	b, err := NewBuffer(sizeKB)
	if err != nil {
		return nil, errors.Wrap(err, "initializing active session history")
	}
	a.buffer = b
	a.metrics.BufferCapacity.Update(int64(b.Capacity()))
	log.Infof(ctx, "allocated active session history buffer of %s holding %d samples",
		humanize.IBytes(uint64(sizeKB)*1024), b.Capacity())
	return a, nil
}

// Start starts the collector. It does nothing if the buffer was not
// allocated.
func (a *ActiveSessionHistory) Start(ctx context.Context, stopper *stop.Stopper) error {
	if a.buffer == nil {
		return nil
	}
	return a.collector.Start(ctx, stopper)
}

// Buffer returns the sample buffer, which is nil if the infrastructure is
// disabled.
func (a *ActiveSessionHistory) Buffer() *Buffer {
	return a.buffer
}

// Registry returns the registry of live sessions.
func (a *ActiveSessionHistory) Registry() *SessionRegistry {
	return a.registry
}

// Metrics returns the metrics of the active session history.
func (a *ActiveSessionHistory) Metrics() *Metrics {
	return &a.metrics
}

// EndpointID returns the id of this node in the samples it produces.
func (a *ActiveSessionHistory) EndpointID() uuid.UUID {
	return a.endpointID
}

func (a *ActiveSessionHistory) now() time.Time {
	if a.knobs.Now != nil {
		return a.knobs.Now()
	}
	return timeutil.Now()
}
