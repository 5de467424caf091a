// Copyright 2023 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package settings

// NewNotifier is used when a piece of code needs to get a signal when certain
// settings change. It returns a Notifier associated with the given settings;
// whenever any of these settings change, a non-blocking send on
// Notifier.Ch() is performed.
//
// The Notifier must be Closed.
func (sv *Values) NewNotifier(settings ...NonMaskedSetting) *Notifier {
	slots := make([]slotIdx, len(settings))
	for i := range settings {
		slots[i] = settings[i].slotIdx()
	}
	ch := make(chan struct{}, 1)
	sv.addOnChangeCh(ch, slots...)
	return &Notifier{
		sv:    sv,
		slots: slots,
		ch:    ch,
	}
}

// Notifier is used to listen for changes to a set of settings; see NewNotifier.
type Notifier struct {
	sv    *Values
	slots []slotIdx
	ch    chan struct{}
}

// Ch returns a channel that can be listened to for changes to the relevant
// settings.
//
// Note that it is safe to use Ch() while or after calling Close.
func (n *Notifier) Ch() <-chan struct{} {
	return n.ch
}

// Close cleans up the notifier.
func (n *Notifier) Close() {
	if n.sv != nil {
		n.sv.removeOnChangeCh(n.ch, n.slots...)
		n.sv = nil
		n.slots = nil
		// We don't reset n.ch to allow the caller to still have a running goroutine
		// that might try to receive on Ch().
	}
}
