// Copyright 2017 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package settings

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// registry contains all defined settings, their types and default values.
//
// Registry should never be mutated after init (except in tests), as it is read
// concurrently by different callers.
var registry = map[string]NonMaskedSetting{}

// slotTable holds registered settings indexed by slot, i.e. in registration
// order.
var slotTable [MaxSettings]NonMaskedSetting

// numSettings is the number of registered settings.
var numSettings int

// frozen becomes non-zero once the registry is "live".
var frozen int32

// MaxSettings is the maximum number of settings that the system supports.
const MaxSettings = 128

// Freeze ensures that no new settings can be defined after the server has
// started.
func Freeze() { atomic.StoreInt32(&frozen, 1) }

func assertNotFrozen(key string) {
	if atomic.LoadInt32(&frozen) > 0 {
		panic(fmt.Sprintf("registration must occur before server start: %s", key))
	}
}

// register adds a setting to the registry.
func register(key, desc string, s NonMaskedSetting) {
	assertNotFrozen(key)
	if _, ok := registry[key]; ok {
		panic(fmt.Sprintf("setting already defined: %s", key))
	}
	if numSettings == MaxSettings {
		panic(fmt.Sprintf("too many settings; increase MaxSettings (%d)", MaxSettings))
	}
	s.init(key, desc, slotIdx(numSettings))
	registry[key] = s
	slotTable[numSettings] = s
	numSettings++
}

// Keys returns a sorted string array with all the known keys.
func Keys() (res []string) {
	res = make([]string, 0, len(registry))
	for k := range registry {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Lookup returns a Setting by name along with its description.
func Lookup(name string) (NonMaskedSetting, bool) {
	v, ok := registry[name]
	return v, ok
}
