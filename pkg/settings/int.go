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

// IntSetting is the interface of a setting variable that will be
// updated automatically when the corresponding cluster-wide setting
// of type "int" is updated.
type IntSetting struct {
	common
	defaultValue int64
	validateFn   func(int64) error
}

var _ NonMaskedSetting = &IntSetting{}

// Get retrieves the int value in the setting.
func (i *IntSetting) Get(sv *Values) int64 {
	return sv.getInt64(i.slot)
}

func (i *IntSetting) String(sv *Values) string {
	return EncodeInt(i.Get(sv))
}

// EncodedDefault returns the encoded value of the default value.
func (i *IntSetting) EncodedDefault() string {
	return EncodeInt(i.defaultValue)
}

// Typ returns the short (1 char) string denoting the type of setting.
func (*IntSetting) Typ() string {
	return "i"
}

// Default returns the default value.
func (i *IntSetting) Default() int64 {
	return i.defaultValue
}

// Validate that a value conforms with the validation function.
func (i *IntSetting) Validate(v int64) error {
	if i.validateFn != nil {
		if err := i.validateFn(v); err != nil {
			return errors.Wrapf(err, "invalid value for %s", i.key)
		}
	}
	return nil
}

// DecodeAndSet implements NonMaskedSetting.
func (i *IntSetting) DecodeAndSet(ctx context.Context, sv *Values, encoded string) error {
	v, err := strconv.ParseInt(encoded, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid value for %s", i.key)
	}
	return i.set(sv, v)
}

// Override changes the setting without validation. For use in tests.
func (i *IntSetting) Override(ctx context.Context, sv *Values, v int64) {
	sv.setInt64(i.slot, v)
}

func (i *IntSetting) set(sv *Values, v int64) error {
	if err := i.Validate(v); err != nil {
		return err
	}
	sv.setInt64(i.slot, v)
	return nil
}

func (i *IntSetting) setToDefault(sv *Values) {
	if err := i.set(sv, i.defaultValue); err != nil {
		panic(err)
	}
}

// EncodeInt encodes an int in the format parseRaw expects.
func EncodeInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// RegisterIntSetting defines a new setting with type int with a
// validation function.
func RegisterIntSetting(key, desc string, defaultValue int64, opts ...SettingOption) *IntSetting {
	setting := &IntSetting{defaultValue: defaultValue}
	for _, opt := range opts {
		if opt.validateInt64Fn != nil {
			setting.validateFn = opt.validateInt64Fn
		}
	}
	register(key, desc, setting)
	return setting
}
