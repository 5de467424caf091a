// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

type nestedMetrics struct {
	Inner *Gauge
}

type testMetrics struct {
	Events     *Counter
	Sessions   *Gauge
	Weight     *GaugeFloat64
	Nested     nestedMetrics
	Unset      *Counter
	unexported *Counter
}

func TestRegistryAddMetricStruct(t *testing.T) {
	m := testMetrics{
		Events:     NewCounter(Metadata{Name: "test.events", Help: "events"}),
		Sessions:   NewGauge(Metadata{Name: "test.sessions", Help: "sessions"}),
		Weight:     NewGaugeFloat64(Metadata{Name: "test.weight", Help: "weight"}),
		Nested:     nestedMetrics{Inner: NewGauge(Metadata{Name: "test.inner", Help: "inner"})},
		unexported: NewCounter(Metadata{Name: "test.hidden", Help: "hidden"}),
	}
	r := NewRegistry()
	r.AddMetricStruct(m)

	var names []string
	r.Each(func(name string, _ Iterable) { names = append(names, name) })
	require.Equal(t, []string{"test.events", "test.inner", "test.sessions", "test.weight"}, names)
	require.False(t, r.Contains("test.hidden"))

	require.Panics(t, func() { r.AddMetric(m.Events) })
}

func TestRegistryPrometheusExport(t *testing.T) {
	c := NewCounter(Metadata{Name: "ash.samples.recorded", Help: "recorded samples"})
	g := NewGaugeFloat64(Metadata{Name: "ash.sample.weight", Help: "weight"})
	r := NewRegistry()
	r.AddMetric(c)
	r.AddMetric(g)

	c.Inc(3)
	g.Update(2.5)

	expected := `
# HELP ash_samples_recorded recorded samples
# TYPE ash_samples_recorded counter
ash_samples_recorded 3
`
	require.NoError(t, testutil.CollectAndCompare(r, strings.NewReader(expected), "ash_samples_recorded"))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(r))
	families, err := reg.Gather()
	require.NoError(t, err)
	byName := map[string]*dto.MetricFamily{}
	for _, f := range families {
		byName[f.GetName()] = f
	}
	require.Equal(t, 2.5, byName["ash_sample_weight"].GetMetric()[0].GetGauge().GetValue())
}
