// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package settings

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
)

// BoolSetting is the interface of a setting variable that will be
// updated automatically when the corresponding cluster-wide setting
// of type "bool" is updated.
type BoolSetting struct {
	common
	defaultValue bool
	validateFn   func(*Values, bool) error
}

var _ NonMaskedSetting = &BoolSetting{}

// Get retrieves the bool value in the setting.
func (b *BoolSetting) Get(sv *Values) bool {
	return sv.getInt64(b.slot) != 0
}

func (b *BoolSetting) String(sv *Values) string {
	return EncodeBool(b.Get(sv))
}

// EncodedDefault returns the encoded value of the default value.
func (b *BoolSetting) EncodedDefault() string {
	return EncodeBool(b.defaultValue)
}

// Typ returns the short (1 char) string denoting the type of setting.
func (*BoolSetting) Typ() string {
	return "b"
}

// Validate that a value conforms with the validation function.
func (b *BoolSetting) Validate(sv *Values, v bool) error {
	if b.validateFn != nil {
		return b.validateFn(sv, v)
	}
	return nil
}

// DecodeAndSet implements NonMaskedSetting.
func (b *BoolSetting) DecodeAndSet(ctx context.Context, sv *Values, encoded string) error {
	v, err := strconv.ParseBool(encoded)
	if err != nil {
		return errors.Wrapf(err, "invalid value for %s", b.key)
	}
	return b.set(sv, v)
}

// Override changes the setting without validation. For use in tests.
func (b *BoolSetting) Override(ctx context.Context, sv *Values, v bool) {
	sv.setInt64(b.slot, boolToInt64(v))
}

func (b *BoolSetting) set(sv *Values, v bool) error {
	if err := b.Validate(sv, v); err != nil {
		return err
	}
	sv.setInt64(b.slot, boolToInt64(v))
	return nil
}

func (b *BoolSetting) setToDefault(sv *Values) {
	if err := b.set(sv, b.defaultValue); err != nil {
		panic(err)
	}
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// EncodeBool encodes a bool in the format parseRaw expects.
func EncodeBool(b bool) string {
	return strconv.FormatBool(b)
}

// RegisterBoolSetting defines a new setting with type bool.
func RegisterBoolSetting(
	key, desc string, defaultValue bool, opts ...SettingOption,
) *BoolSetting {
	setting := &BoolSetting{defaultValue: defaultValue}
	for _, opt := range opts {
		if opt.validateBoolFn != nil {
			setting.validateFn = opt.validateBoolFn
		}
	}
	register(key, desc, setting)
	return setting
}
