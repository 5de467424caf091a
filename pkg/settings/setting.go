// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package settings

import "context"

// Setting is the interface exposing the metadata for a cluster setting.
type Setting interface {
	// Key returns the name of the specific cluster setting.
	Key() string
	// Typ returns the short (1 char) string denoting the type of setting.
	Typ() string
	// String returns the string representation of the setting's current value.
	String(sv *Values) string
	// Description contains a helpful text explaining what the specific cluster
	// setting is for.
	Description() string
}

// NonMaskedSetting is the exported interface of non-masked settings. All
// settings defined in this package are non-masked.
type NonMaskedSetting interface {
	Setting

	// EncodedDefault returns the encoded value of the default value.
	EncodedDefault() string
	// DecodeAndSet parses and validates the encoded value and, if valid,
	// stores it in sv.
	DecodeAndSet(ctx context.Context, sv *Values, encoded string) error

	init(key, desc string, slot slotIdx)
	slotIdx() slotIdx
	setToDefault(sv *Values)
}

type slotIdx int32

// common implements basic functionality used by all setting types.
type common struct {
	key         string
	description string
	slot        slotIdx
}

func (c *common) init(key, desc string, slot slotIdx) {
	c.key = key
	c.description = desc
	c.slot = slot
}

func (c *common) slotIdx() slotIdx {
	return c.slot
}

// Key returns the name of the specific cluster setting.
func (c *common) Key() string {
	return c.key
}

// Description returns the setting's description.
func (c *common) Description() string {
	return c.description
}
