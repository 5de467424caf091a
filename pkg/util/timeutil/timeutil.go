// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package timeutil

import "time"

// FullTimeFormat is the time format used to display any timestamp
// with date, time and time zone data.
const FullTimeFormat = "2006-01-02 15:04:05.999999-07:00:00"

// Now returns the current UTC time.
func Now() time.Time {
	return time.Now().UTC()
}

// Since returns the time elapsed since t.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// ToUnixMicros returns t as the number of microseconds elapsed since
// January 1, 1970 UTC.
func ToUnixMicros(t time.Time) int64 {
	return t.UnixMicro()
}

// FromUnixMicros returns the UTC time.Time corresponding to the given Unix
// time, us microseconds since January 1, 1970 UTC.
func FromUnixMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// TimeSource is used to interact with clocks and timers. Generally exposed for
// testing.
type TimeSource interface {
	Now() time.Time
}

// DefaultTimeSource is a TimeSource using the system clock.
type DefaultTimeSource struct{}

var _ TimeSource = DefaultTimeSource{}

// Now returns timeutil.Now().
func (DefaultTimeSource) Now() time.Time {
	return Now()
}
