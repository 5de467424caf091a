// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package settings

import (
	"context"

	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Updater applies a batch of encoded setting values to a Values. Settings
// that are not mentioned in the batch are reset to their defaults.
//
// Values are applied in registration order so that a setting whose
// validation depends on another setting observes the new value of any
// setting registered before it.
type Updater struct {
	sv      *Values
	pending map[string]string
}

// NewUpdater makes an Updater.
func NewUpdater(sv *Values) *Updater {
	return &Updater{sv: sv, pending: map[string]string{}}
}

// Set records the encoded value for key. Unknown keys are rejected.
func (u *Updater) Set(key, encoded string) error {
	if _, ok := registry[key]; !ok {
		return errors.Errorf("unknown setting %q", key)
	}
	u.pending[key] = encoded
	return nil
}

// Apply writes all recorded values, resetting every other setting to its
// default. All errors are combined; settings that failed validation keep
// their previous value.
func (u *Updater) Apply(ctx context.Context) error {
	var retErr error
	for i := 0; i < numSettings; i++ {
		s := slotTable[i]
		encoded, ok := u.pending[s.Key()]
		if !ok {
			encoded = s.EncodedDefault()
		}
		before := s.String(u.sv)
		if err := s.DecodeAndSet(ctx, u.sv, encoded); err != nil {
			retErr = errors.CombineErrors(retErr, err)
			continue
		}
		if after := s.String(u.sv); after != before {
			log.Infof(ctx, "setting %s changed from %s to %s", s.Key(), before, after)
		}
	}
	return retErr
}

// ApplyYAML parses a flat YAML mapping of setting keys to values and
// applies it through an Updater.
//
//	obs.ash.enabled: true
//	obs.ash.sampling_interval: 500ms
func ApplyYAML(ctx context.Context, sv *Values, data []byte) error {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "parsing settings")
	}
	u := NewUpdater(sv)
	for k, v := range raw {
		if err := u.Set(k, v); err != nil {
			return err
		}
	}
	return u.Apply(ctx)
}
