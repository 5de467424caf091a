// Copyright 2017 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package settings

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

var boolTA = RegisterBoolSetting("bool.t", "", true)
var boolFA = RegisterBoolSetting("bool.f", "", false)
var dependentB = RegisterBoolSetting("bool.dependent", "", false,
	WithValidateBool(func(sv *Values, v bool) error {
		if v && !boolFA.Get(sv) {
			return errors.New("bool.f must be enabled")
		}
		return nil
	}))
var i1A = RegisterIntSetting("i.1", "", 0)
var i2A = RegisterIntSetting("i.2", "", 5, NonNegativeInt)
var dA = RegisterDurationSetting("d", "", time.Second, DurationWithMinimum(time.Millisecond))

func TestCache(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		sv := MakeValues()
		require.False(t, boolFA.Get(sv))
		require.True(t, boolTA.Get(sv))
		require.False(t, dependentB.Get(sv))
		require.Equal(t, int64(0), i1A.Get(sv))
		require.Equal(t, int64(5), i2A.Get(sv))
		require.Equal(t, time.Second, dA.Get(sv))
	})

	t.Run("lookup", func(t *testing.T) {
		actual, ok := Lookup("i.1")
		require.True(t, ok)
		require.Equal(t, NonMaskedSetting(i1A), actual)
		_, ok = Lookup("dne")
		require.False(t, ok)
		require.Contains(t, Keys(), "bool.dependent")
	})

	t.Run("validation", func(t *testing.T) {
		sv := MakeValues()
		require.Error(t, i2A.DecodeAndSet(ctx, sv, "-1"))
		require.Equal(t, int64(5), i2A.Get(sv))
		require.Error(t, dA.DecodeAndSet(ctx, sv, "10us"))
		require.Error(t, dA.DecodeAndSet(ctx, sv, "not a duration"))
		require.NoError(t, dA.DecodeAndSet(ctx, sv, "250ms"))
		require.Equal(t, 250*time.Millisecond, dA.Get(sv))

		require.Error(t, dependentB.DecodeAndSet(ctx, sv, "true"))
		require.NoError(t, boolFA.DecodeAndSet(ctx, sv, "true"))
		require.NoError(t, dependentB.DecodeAndSet(ctx, sv, "true"))
	})

	t.Run("override", func(t *testing.T) {
		sv := MakeValues()
		i2A.Override(ctx, sv, -3)
		require.Equal(t, int64(-3), i2A.Get(sv))
	})
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()
	sv := MakeValues()
	n := sv.NewNotifier(i1A, dA)
	defer n.Close()

	i2A.Override(ctx, sv, 7)
	select {
	case <-n.Ch():
		t.Fatal("unexpected notification for unrelated setting")
	default:
	}

	i1A.Override(ctx, sv, 1)
	dA.Override(ctx, sv, time.Minute)
	<-n.Ch()
	// The channel has capacity one; multiple changes coalesce.
	select {
	case <-n.Ch():
		t.Fatal("notifications should coalesce")
	default:
	}

	// Setting the current value again is not a change.
	i1A.Override(ctx, sv, 1)
	select {
	case <-n.Ch():
		t.Fatal("no-op update must not notify")
	default:
	}

	n.Close()
	i1A.Override(ctx, sv, 2)
	select {
	case <-n.Ch():
		t.Fatal("closed notifier must not receive")
	default:
	}
}

func TestApplyYAML(t *testing.T) {
	ctx := context.Background()
	sv := MakeValues()

	// bool.dependent validates against bool.f, which is registered earlier and
	// is therefore applied first regardless of the order in the document.
	require.NoError(t, ApplyYAML(ctx, sv, []byte(`
bool.dependent: true
bool.f: true
i.2: 9
d: 2s
`)))
	require.True(t, dependentB.Get(sv))
	require.Equal(t, int64(9), i2A.Get(sv))
	require.Equal(t, 2*time.Second, dA.Get(sv))

	// Keys missing from the document revert to defaults.
	require.NoError(t, ApplyYAML(ctx, sv, []byte(`i.1: 4`)))
	require.False(t, dependentB.Get(sv))
	require.Equal(t, int64(5), i2A.Get(sv))
	require.Equal(t, int64(4), i1A.Get(sv))

	err := ApplyYAML(ctx, sv, []byte(`no.such.setting: 1`))
	require.ErrorContains(t, err, "unknown setting")

	err = ApplyYAML(ctx, sv, []byte(`bool.dependent: true`))
	require.ErrorContains(t, err, "bool.f must be enabled")
	require.False(t, dependentB.Get(sv))
}
