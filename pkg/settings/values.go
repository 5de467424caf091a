// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package settings

import (
	"sync/atomic"

	"github.com/cockroachdb/ash/pkg/util/syncutil"
)

// Values is a container that stores values for all registered settings.
// Each setting is assigned a unique slot (up to MaxSettings). All setting
// kinds are stored as int64.
type Values struct {
	container [MaxSettings]atomic.Value

	changeMu struct {
		syncutil.Mutex
		// onChangeCh contains channels which are sent to (non-blocking) when
		// the corresponding setting changes.
		onChangeCh [MaxSettings][]chan<- struct{}
	}
}

// MakeValues returns a Values with every registered setting at its default.
func MakeValues() *Values {
	sv := &Values{}
	sv.Init()
	return sv
}

// Init must be called before using a Values instance; it initializes all
// variables to their defaults.
func (sv *Values) Init() {
	for i := 0; i < numSettings; i++ {
		slotTable[i].setToDefault(sv)
	}
}

func (sv *Values) getInt64(slot slotIdx) int64 {
	v, _ := sv.container[slot].Load().(int64)
	return v
}

func (sv *Values) setInt64(slot slotIdx, newVal int64) {
	if old, ok := sv.container[slot].Load().(int64); ok && old == newVal {
		return
	}
	sv.container[slot].Store(newVal)
	sv.settingChanged(slot)
}

func (sv *Values) settingChanged(slot slotIdx) {
	sv.changeMu.Lock()
	chans := sv.changeMu.onChangeCh[slot]
	sv.changeMu.Unlock()
	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (sv *Values) addOnChangeCh(ch chan<- struct{}, slots ...slotIdx) {
	sv.changeMu.Lock()
	defer sv.changeMu.Unlock()
	for _, slot := range slots {
		sv.changeMu.onChangeCh[slot] = append(sv.changeMu.onChangeCh[slot], ch)
	}
}

func (sv *Values) removeOnChangeCh(ch chan<- struct{}, slots ...slotIdx) {
	sv.changeMu.Lock()
	defer sv.changeMu.Unlock()
	for _, slot := range slots {
		chans := sv.changeMu.onChangeCh[slot]
		for i := range chans {
			if chans[i] == ch {
				chans = append(chans[:i:i], chans[i+1:]...)
				break
			}
		}
		sv.changeMu.onChangeCh[slot] = chans
	}
}
