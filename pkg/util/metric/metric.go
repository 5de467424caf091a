// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"math"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Unit describes how the metric's value is measured.
type Unit int

const (
	// Unit_COUNT is a plain count.
	Unit_COUNT Unit = iota
	// Unit_NANOSECONDS is a duration in nanoseconds.
	Unit_NANOSECONDS
	// Unit_BYTES is a size in bytes.
	Unit_BYTES
)

// Metadata holds metadata about a metric.
type Metadata struct {
	Name        string
	Help        string
	Measurement string
	Unit        Unit
}

// GetName returns the metric's name.
func (m Metadata) GetName() string { return m.Name }

// Iterable is implemented by every metric kind that can be registered.
type Iterable interface {
	GetName() string
	// describe returns the prometheus description of the metric.
	describe() *prometheus.Desc
	// collect returns the current value as a prometheus metric.
	collect() prometheus.Metric
}

// exportedName turns "ash.samples.recorded" into "ash_samples_recorded".
func exportedName(name string) string {
	b := []byte(name)
	for i, c := range b {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			b[i] = '_'
		}
	}
	return string(b)
}

func (m Metadata) desc() *prometheus.Desc {
	return prometheus.NewDesc(exportedName(m.Name), m.Help, nil, nil)
}

// A Counter holds a single mutable monotonically increasing value.
type Counter struct {
	Metadata
	count int64
}

var _ Iterable = &Counter{}

// NewCounter creates a counter.
func NewCounter(metadata Metadata) *Counter {
	return &Counter{Metadata: metadata}
}

// Inc atomically increments the counter by the given value.
func (c *Counter) Inc(v int64) {
	atomic.AddInt64(&c.count, v)
}

// Count returns the current value of the counter.
func (c *Counter) Count() int64 {
	return atomic.LoadInt64(&c.count)
}

func (c *Counter) describe() *prometheus.Desc { return c.desc() }

func (c *Counter) collect() prometheus.Metric {
	return prometheus.MustNewConstMetric(c.desc(), prometheus.CounterValue, float64(c.Count()))
}

// A Gauge atomically stores a single integer value.
type Gauge struct {
	Metadata
	value int64
}

var _ Iterable = &Gauge{}

// NewGauge creates a Gauge.
func NewGauge(metadata Metadata) *Gauge {
	return &Gauge{Metadata: metadata}
}

// Update sets the gauge's value.
func (g *Gauge) Update(v int64) {
	atomic.StoreInt64(&g.value, v)
}

// Inc increments the gauge's value.
func (g *Gauge) Inc(i int64) {
	atomic.AddInt64(&g.value, i)
}

// Dec decrements the gauge's value.
func (g *Gauge) Dec(i int64) {
	atomic.AddInt64(&g.value, -i)
}

// Value returns the gauge's current value.
func (g *Gauge) Value() int64 {
	return atomic.LoadInt64(&g.value)
}

func (g *Gauge) describe() *prometheus.Desc { return g.desc() }

func (g *Gauge) collect() prometheus.Metric {
	return prometheus.MustNewConstMetric(g.desc(), prometheus.GaugeValue, float64(g.Value()))
}

// A GaugeFloat64 atomically stores a single float64 value.
type GaugeFloat64 struct {
	Metadata
	bits uint64
}

var _ Iterable = &GaugeFloat64{}

// NewGaugeFloat64 creates a GaugeFloat64.
func NewGaugeFloat64(metadata Metadata) *GaugeFloat64 {
	return &GaugeFloat64{Metadata: metadata}
}

// Update sets the gauge's value.
func (g *GaugeFloat64) Update(v float64) {
	atomic.StoreUint64(&g.bits, math.Float64bits(v))
}

// Value returns the gauge's current value.
func (g *GaugeFloat64) Value() float64 {
	return math.Float64frombits(atomic.LoadUint64(&g.bits))
}

func (g *GaugeFloat64) describe() *prometheus.Desc { return g.desc() }

func (g *GaugeFloat64) collect() prometheus.Metric {
	return prometheus.MustNewConstMetric(g.desc(), prometheus.GaugeValue, g.Value())
}
