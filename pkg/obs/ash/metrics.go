// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import "github.com/cockroachdb/ash/pkg/util/metric"

var (
	metaTicks = metric.Metadata{
		Name:        "obs.ash.ticks",
		Help:        "Number of sampling ticks that collected samples",
		Measurement: "Ticks",
		Unit:        metric.Unit_COUNT,
	}
	metaSamples = metric.Metadata{
		Name:        "obs.ash.samples",
		Help:        "Number of samples of local sessions written to the buffer",
		Measurement: "Samples",
		Unit:        metric.Unit_COUNT,
	}
	metaNodeSamples = metric.Metadata{
		Name:        "obs.ash.node_samples",
		Help:        "Number of samples written to the buffer by the storage node feed",
		Measurement: "Samples",
		Unit:        metric.Unit_COUNT,
	}
	metaSessionsSkipped = metric.Metadata{
		Name:        "obs.ash.sessions_skipped",
		Help:        "Number of eligible sessions not sampled because the per-tick sample size was reached",
		Measurement: "Sessions",
		Unit:        metric.Unit_COUNT,
	}
	metaNodeFeedErrors = metric.Metadata{
		Name:        "obs.ash.node_feed.errors",
		Help:        "Number of ticks where the storage node feed failed",
		Measurement: "Errors",
		Unit:        metric.Unit_COUNT,
	}
	metaStackSaturated = metric.Metadata{
		Name:        "obs.ash.query_id_stack.saturated",
		Help:        "Number of query ids not tracked because statements were nested too deeply",
		Measurement: "Query IDs",
		Unit:        metric.Unit_COUNT,
	}
	metaActiveSessions = metric.Metadata{
		Name:        "obs.ash.active_sessions",
		Help:        "Number of sessions eligible for sampling at the last tick",
		Measurement: "Sessions",
		Unit:        metric.Unit_COUNT,
	}
	metaSampleWeight = metric.Metadata{
		Name:        "obs.ash.sample_weight",
		Help:        "Weight of the samples written at the last tick",
		Measurement: "Weight",
		Unit:        metric.Unit_COUNT,
	}
	metaBufferCapacity = metric.Metadata{
		Name:        "obs.ash.buffer.capacity",
		Help:        "Number of samples the buffer holds",
		Measurement: "Samples",
		Unit:        metric.Unit_COUNT,
	}
)

// Metrics are the metrics of the active session history.
type Metrics struct {
	Ticks           *metric.Counter
	Samples         *metric.Counter
	NodeSamples     *metric.Counter
	SessionsSkipped *metric.Counter
	NodeFeedErrors  *metric.Counter
	StackSaturated  *metric.Counter
	ActiveSessions  *metric.Gauge
	SampleWeight    *metric.GaugeFloat64
	BufferCapacity  *metric.Gauge
}

func makeMetrics() Metrics {
	return Metrics{
		Ticks:           metric.NewCounter(metaTicks),
		Samples:         metric.NewCounter(metaSamples),
		NodeSamples:     metric.NewCounter(metaNodeSamples),
		SessionsSkipped: metric.NewCounter(metaSessionsSkipped),
		NodeFeedErrors:  metric.NewCounter(metaNodeFeedErrors),
		StackSaturated:  metric.NewCounter(metaStackSaturated),
		ActiveSessions:  metric.NewGauge(metaActiveSessions),
		SampleWeight:    metric.NewGaugeFloat64(metaSampleWeight),
		BufferCapacity:  metric.NewGauge(metaBufferCapacity),
	}
}
