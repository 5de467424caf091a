// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/ash/pkg/settings"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testEndpoint = uuid.MustParse("6f1e2d3c-4b5a-4968-8776-a5b4c3d2e1f0")

// manualClock is a clock for sample times that only moves when told to.
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// newTestASH creates an ActiveSessionHistory with default settings, a
// buffer of the given capacity and a manual clock.
func newTestASH(t testing.TB, capacity int, opts ...func(*Config)) (*ActiveSessionHistory, *manualClock) {
	clock := newManualClock()
	cfg := Config{
		Settings:   settings.MakeValues(),
		EndpointID: testEndpoint,
		Knobs:      &TestingKnobs{Now: clock.Now},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	if a.buffer != nil && capacity > 0 {
		a.buffer = newBufferWithCapacity(capacity)
	}
	return a, clock
}
