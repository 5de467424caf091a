// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package settings

import (
	"time"

	"github.com/cockroachdb/errors"
)

// SettingOption is the type of an option that can be passed to Register.
type SettingOption struct {
	validateBoolFn     func(*Values, bool) error
	validateInt64Fn    func(int64) error
	validateDurationFn func(time.Duration) error
}

// WithValidateBool adds a validation function for a boolean setting. The
// function receives the Values so that it can check other settings.
func WithValidateBool(fn func(*Values, bool) error) SettingOption {
	return SettingOption{validateBoolFn: fn}
}

// WithValidateInt adds a validation function for an int64 setting.
func WithValidateInt(fn func(int64) error) SettingOption {
	return SettingOption{validateInt64Fn: fn}
}

// WithValidateDuration adds a validation function for a duration setting.
func WithValidateDuration(fn func(time.Duration) error) SettingOption {
	return SettingOption{validateDurationFn: fn}
}

// NonNegativeInt checks that the value is zero or positive.
var NonNegativeInt = WithValidateInt(func(v int64) error {
	if v < 0 {
		return errors.Errorf("cannot be set to a negative value: %d", v)
	}
	return nil
})

// PositiveInt checks that the value is strictly positive.
var PositiveInt = WithValidateInt(func(v int64) error {
	if v < 1 {
		return errors.Errorf("cannot be set to a non-positive value: %d", v)
	}
	return nil
})

// DurationWithMinimum returns a validation option that checks that the
// duration is at least minValue.
func DurationWithMinimum(minValue time.Duration) SettingOption {
	return WithValidateDuration(func(v time.Duration) error {
		if v < minValue {
			return errors.Errorf("cannot be set to a value smaller than %s", minValue)
		}
		return nil
	})
}
