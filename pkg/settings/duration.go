// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package settings

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// DurationSetting is the interface of a setting variable that will be
// updated automatically when the corresponding cluster-wide setting
// of type "duration" is updated.
type DurationSetting struct {
	common
	defaultValue time.Duration
	validateFn   func(time.Duration) error
}

var _ NonMaskedSetting = &DurationSetting{}

// Get retrieves the duration value in the setting.
func (d *DurationSetting) Get(sv *Values) time.Duration {
	return time.Duration(sv.getInt64(d.slot))
}

func (d *DurationSetting) String(sv *Values) string {
	return EncodeDuration(d.Get(sv))
}

// EncodedDefault returns the encoded value of the default value.
func (d *DurationSetting) EncodedDefault() string {
	return EncodeDuration(d.defaultValue)
}

// Typ returns the short (1 char) string denoting the type of setting.
func (*DurationSetting) Typ() string {
	return "d"
}

// Validate that a value conforms with the validation function.
func (d *DurationSetting) Validate(v time.Duration) error {
	if d.validateFn != nil {
		if err := d.validateFn(v); err != nil {
			return errors.Wrapf(err, "invalid value for %s", d.key)
		}
	}
	return nil
}

// DecodeAndSet implements NonMaskedSetting.
func (d *DurationSetting) DecodeAndSet(ctx context.Context, sv *Values, encoded string) error {
	v, err := time.ParseDuration(encoded)
	if err != nil {
		return errors.Wrapf(err, "invalid value for %s", d.key)
	}
	return d.set(sv, v)
}

// Override changes the setting without validation. For use in tests.
func (d *DurationSetting) Override(ctx context.Context, sv *Values, v time.Duration) {
	sv.setInt64(d.slot, int64(v))
}

func (d *DurationSetting) set(sv *Values, v time.Duration) error {
	if err := d.Validate(v); err != nil {
		return err
	}
	sv.setInt64(d.slot, int64(v))
	return nil
}

func (d *DurationSetting) setToDefault(sv *Values) {
	if err := d.set(sv, d.defaultValue); err != nil {
		panic(err)
	}
}

// EncodeDuration encodes a duration in the format parseRaw expects.
func EncodeDuration(d time.Duration) string {
	return d.String()
}

// RegisterDurationSetting defines a new setting with type duration.
func RegisterDurationSetting(
	key, desc string, defaultValue time.Duration, opts ...SettingOption,
) *DurationSetting {
	setting := &DurationSetting{defaultValue: defaultValue}
	for _, opt := range opts {
		if opt.validateDurationFn != nil {
			setting.validateFn = opt.validateDurationFn
		}
	}
	register(key, desc, setting)
	return setting
}
