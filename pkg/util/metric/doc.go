// Copyright 2016 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

/*
Package metric provides process metrics (a.k.a. transient stats). Metrics are
grouped in a Registry, which is exported in the Prometheus text format
through the /_status/vars endpoint.

# Adding a new metric

First, describe the metric with a Metadata:

	var metaSamplesRecorded = metric.Metadata{
		Name:        "ash.samples.recorded",
		Help:        "Number of samples written to the ASH circular buffer",
		Measurement: "Samples",
		Unit:        metric.Unit_COUNT,
	}

Next, create it and keep it in a metrics struct:

	type Metrics struct {
		SamplesRecorded *metric.Counter
	}

	func makeMetrics() Metrics {
		return Metrics{SamplesRecorded: metric.NewCounter(metaSamplesRecorded)}
	}

Finally, add the struct to a Registry:

	registry.AddMetricStruct(metrics)

Every exported field implementing Iterable is registered. Fields of type
struct are walked recursively.
*/
package metric
