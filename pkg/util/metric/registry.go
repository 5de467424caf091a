// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/cockroachdb/ash/pkg/util/syncutil"
	"github.com/prometheus/client_golang/prometheus"
)

// A Registry is a list of metrics. It implements prometheus.Collector so it
// can be handed to a prometheus.Registry for export.
type Registry struct {
	mu struct {
		syncutil.Mutex
		tracked map[string]Iterable
	}
}

var _ prometheus.Collector = &Registry{}

// NewRegistry creates a new Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.mu.tracked = map[string]Iterable{}
	return r
}

// AddMetric adds the passed-in metric to the registry. Adding two metrics
// with the same name panics.
func (r *Registry) AddMetric(metric Iterable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := metric.GetName()
	if _, ok := r.mu.tracked[name]; ok {
		panic(fmt.Sprintf("metric %q already registered", name))
	}
	r.mu.tracked[name] = metric
}

// AddMetricStruct examines all fields of metricStruct and adds all Iterable
// implementations to the registry. Nested structs are walked recursively.
func (r *Registry) AddMetricStruct(metricStruct interface{}) {
	v := reflect.ValueOf(metricStruct)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		vfield, tfield := v.Field(i), t.Field(i)
		if !tfield.IsExported() {
			continue
		}
		if vfield.Kind() == reflect.Ptr && vfield.IsNil() {
			continue
		}
		if m, ok := vfield.Interface().(Iterable); ok {
			r.AddMetric(m)
			continue
		}
		if vfield.Kind() == reflect.Struct {
			r.AddMetricStruct(vfield.Interface())
		}
	}
}

// Contains returns true if the given metric name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.mu.tracked[name]
	return ok
}

// Each calls f for every registered metric, sorted by name.
func (r *Registry) Each(f func(name string, m Iterable)) {
	r.mu.Lock()
	names := make([]string, 0, len(r.mu.tracked))
	for name := range r.mu.tracked {
		names = append(names, name)
	}
	tracked := r.mu.tracked
	r.mu.Unlock()
	sort.Strings(names)
	for _, name := range names {
		f(name, tracked[name])
	}
}

// Describe implements prometheus.Collector.
func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	r.Each(func(_ string, m Iterable) {
		ch <- m.describe()
	})
}

// Collect implements prometheus.Collector.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	r.Each(func(_ string, m Iterable) {
		ch <- m.collect()
	})
}
