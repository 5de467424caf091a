// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/cockroachdb/ash/pkg/obs/ash"
	"github.com/cockroachdb/ash/pkg/obs/waitevent"
	"github.com/cockroachdb/ash/pkg/settings"
	"github.com/cockroachdb/ash/pkg/sql/execobs"
	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/ash/pkg/util/stop"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestSettingsFileReload(t *testing.T) {
	scope := log.Scope(t)
	defer scope.Close(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeFile(t, path, "obs.ash.sample_size: 7\n")
	sv := settings.MakeValues()
	f := &settingsFile{path: path, sv: sv}
	require.NoError(t, f.load(ctx))
	require.Equal(t, int64(7), ash.SampleSize.Get(sv))

	stopper := stop.NewStopper()
	defer stopper.Stop(ctx)
	sighup := make(chan os.Signal, 1)
	require.NoError(t, f.watch(ctx, stopper, sighup))

	writeFile(t, path, "obs.ash.sample_size: 9\nobs.ash.sampling_interval: 250ms\n")
	require.Eventually(t, func() bool {
		return ash.SampleSize.Get(sv) == 9
	}, 10*time.Second, time.Millisecond)
	require.Equal(t, 250*time.Millisecond, ash.SamplingInterval.Get(sv))

	// Invalid values leave the previous settings in place.
	writeFile(t, path, "obs.ash.sample_size: -1\n")
	sighup <- syscall.SIGHUP
	require.Eventually(t, func() bool {
		return scope.CountMatches("keeping previous settings") > 0
	}, 10*time.Second, time.Millisecond)
	require.Equal(t, int64(9), ash.SampleSize.Get(sv))
}

func TestSettingsFileMissing(t *testing.T) {
	defer log.Scope(t).Close(t)
	f := &settingsFile{path: filepath.Join(t.TempDir(), "missing.yaml"), sv: settings.MakeValues()}
	require.ErrorContains(t, f.load(context.Background()), "reading settings file")
}

func TestTabletServerFeed(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	s := newTabletServer(4)

	var acquired int
	var written []ash.Sample
	feed := func() {
		acquired, written = 0, nil
		require.NoError(t, s.StoreNodeSamples(ctx, 1234,
			func() { acquired++ },
			func(smp ash.Sample) { written = append(written, smp) }))
	}

	feed()
	require.Zero(t, acquired)
	require.Empty(t, written)

	md := ash.Metadata{RootRequestID: uuid.New(), QueryID: 77, SessionID: 3}
	r1, done1 := s.startRPC(md, 5)
	_, done2 := s.startRPC(md, 6)
	r1.setWaitEvent(waitevent.EngineRead.Code)
	require.Equal(t, 2, s.inFlight())

	feed()
	require.Equal(t, 1, acquired)
	require.Len(t, written, 2)
	ids := map[int64]bool{}
	for _, smp := range written {
		ids[smp.RPCRequestID] = true
		require.Equal(t, md, smp.Metadata)
		require.Equal(t, s.endpointID, smp.EndpointID)
		require.Equal(t, int64(1234), smp.SampleTime)
		require.Contains(t, []string{"tablet-0001", "tablet-0002"}, smp.AuxInfoString())
		if smp.AuxInfoString() == "tablet-0001" {
			require.Equal(t, uint32(waitevent.EngineRead.Code), smp.WaitEventCode)
		}
	}
	require.Len(t, ids, 2)

	done1()
	done2()
	require.Zero(t, s.inFlight())
}

// knownQueryIDs are the ids of every statement the simulator runs.
func knownQueryIDs() map[uint64]bool {
	ids := map[uint64]bool{0: true, ash.ComputeQueryID(utilityStatement, 0, 0): true}
	for _, sql := range append(append([]string(nil), workload...), procedureBody...) {
		ids[ash.ComputeQueryID(sql, 0, 0)] = true
	}
	ids[ash.ComputeQueryID("BEGIN; SELECT * FROM accounts WHERE id = $1; COMMIT", 36, 7)] = true
	return ids
}

func TestSimulator(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sv := settings.MakeValues()
	ash.BufferSize.Override(ctx, sv, 64)
	ash.SamplingInterval.Override(ctx, sv, 2*time.Millisecond)
	ash.TrackNestedQueries.Override(ctx, sv, true)
	tablets := newTabletServer(2)
	a, err := ash.New(ctx, ash.Config{Settings: sv, NodeSource: tablets})
	require.NoError(t, err)
	stopper := stop.NewStopper()
	defer stopper.Stop(ctx)
	require.NoError(t, a.Start(ctx, stopper))

	execMetrics := execobs.MakeMetrics()
	sim := &simulator{ash: a, tablets: tablets, execMetrics: &execMetrics, think: time.Millisecond}
	var out bytes.Buffer
	errCh := make(chan error, 1)
	go func() { errCh <- sim.run(ctx, 4, &out, 0 /* reportInterval */) }()
	require.Eventually(t, func() bool {
		return a.Metrics().Samples.Count() > 50 && a.Metrics().NodeSamples.Count() > 0
	}, 30*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	require.Zero(t, a.Registry().Len())
	require.Zero(t, execMetrics.ObserverErrors.Count())
	require.NotZero(t, sim.stats.requests.Load())

	known := knownQueryIDs()
	var local, node int
	require.NoError(t, a.Buffer().Scan(func(smp *ash.Sample) error {
		require.NotEqual(t, uuid.Nil, smp.Metadata.RootRequestID)
		require.NotEqual(t, uint32(waitevent.ClientRead.Code), smp.WaitEventCode)
		require.True(t, known[smp.Metadata.QueryID], "unexpected query id %d", smp.Metadata.QueryID)
		if smp.RPCRequestID == 0 {
			local++
			require.Equal(t, a.EndpointID(), smp.EndpointID)
		} else {
			node++
			require.Equal(t, tablets.endpointID, smp.EndpointID)
		}
		return nil
	}))
	require.NotZero(t, local)
	require.NotZero(t, node)

	require.NoError(t, sim.finalStatus(&out))
	require.Contains(t, out.String(), "samples buffered")
}

func TestRunSim(t *testing.T) {
	defer log.Scope(t).Close(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeFile(t, path, "obs.ash.sampling_interval: 5ms\nobs.ash.circular_buffer_size: 64\n")

	var out bytes.Buffer
	require.NoError(t, runSim(context.Background(), &out, simOpts{
		settingsPath:   path,
		sessions:       3,
		tablets:        2,
		httpAddr:       "127.0.0.1:0",
		duration:       300 * time.Millisecond,
		think:          time.Millisecond,
		reportInterval: 100 * time.Millisecond,
	}))
	require.Contains(t, out.String(), "_elapsed")
	require.Contains(t, out.String(), "samples buffered")
}

func TestRunSimValidation(t *testing.T) {
	defer log.Scope(t).Close(t)
	var out bytes.Buffer
	require.ErrorContains(t, runSim(context.Background(), &out, simOpts{sessions: -1, think: time.Millisecond}),
		"must not be negative")
	require.ErrorContains(t, runSim(context.Background(), &out, simOpts{sessions: 1}),
		"--think must be positive")
}
