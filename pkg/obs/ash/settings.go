// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"time"

	"github.com/cockroachdb/ash/pkg/settings"
	"github.com/cockroachdb/errors"
)

// InfraEnabled controls whether the sample buffer is allocated at startup.
// It is only read when the ActiveSessionHistory is created.
var InfraEnabled = settings.RegisterBoolSetting(
	"obs.ash.infra.enabled",
	"allocate the active session history buffer at startup",
	true,
)

// Enabled controls whether samples are collected and query ids tracked.
var Enabled = settings.RegisterBoolSetting(
	"obs.ash.enabled",
	"collect active session history samples",
	true,
	settings.WithValidateBool(func(sv *settings.Values, enabled bool) error {
		if enabled && !InfraEnabled.Get(sv) {
			return errors.Newf("%s must be enabled", InfraEnabled.Key())
		}
		return nil
	}),
)

// BufferSize is the size of the sample buffer in KiB. It is only read when
// the ActiveSessionHistory is created.
var BufferSize = settings.RegisterIntSetting(
	"obs.ash.circular_buffer_size",
	"size of the active session history buffer in KiB",
	16*1024,
	settings.PositiveInt,
)

// SamplingInterval is the time between two sampling ticks.
var SamplingInterval = settings.RegisterDurationSetting(
	"obs.ash.sampling_interval",
	"time between active session history samples",
	time.Second,
	settings.DurationWithMinimum(time.Millisecond),
)

// SampleSize is the maximum number of sessions sampled per tick. Zero
// disables sampling.
var SampleSize = settings.RegisterIntSetting(
	"obs.ash.sample_size",
	"maximum number of sessions sampled per tick; when more sessions are active, "+
		"each sample is weighted to represent the unsampled ones",
	500,
	settings.NonNegativeInt,
)

// TrackNestedQueries controls whether samples taken during nested
// statements are attributed to the nested statement rather than to the
// top-level one.
var TrackNestedQueries = settings.RegisterBoolSetting(
	"obs.ash.track_nested_queries.enabled",
	"attribute samples to nested statements instead of the top-level statement",
	false,
)
