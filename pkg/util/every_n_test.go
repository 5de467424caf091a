// Copyright 2017 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEveryN(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := Every(30 * time.Second)
	for _, step := range []struct {
		at   time.Duration
		want bool
	}{
		{at: 0, want: true},
		{at: 10 * time.Second, want: false},
		{at: 30*time.Second - time.Nanosecond, want: false},
		{at: 30 * time.Second, want: true},
		// A clock that goes backwards does not let events through.
		{at: 5 * time.Second, want: false},
		{at: 59 * time.Second, want: false},
		{at: 2 * time.Minute, want: true},
		{at: 2*time.Minute + 30*time.Second, want: true},
	} {
		require.Equal(t, step.want, e.ShouldProcess(base.Add(step.at)), "at +%s", step.at)
	}
}

func TestEveryNZeroValueAllowsAll(t *testing.T) {
	var e EveryN
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.True(t, e.ShouldProcess(now))
	}
}
