// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/ash/pkg/obs/ash"
	"github.com/cockroachdb/ash/pkg/obs/waitevent"
	"github.com/cockroachdb/ash/pkg/util/syncutil"
	"github.com/google/uuid"
)

// tabletServer stands in for the storage node serving the simulated
// sessions. Sessions start RPCs against it; every in-flight RPC is sampled
// on each tick with the identity of the request that issued it.
type tabletServer struct {
	endpointID uuid.UUID
	numTablets int

	mu struct {
		syncutil.Mutex
		nextID int64
		rpcs   map[int64]*tabletRPC
	}
}

type tabletRPC struct {
	md        ash.Metadata
	tablet    int
	waitEvent atomic.Uint32
}

var _ ash.NodeSampleSource = (*tabletServer)(nil)

func newTabletServer(numTablets int) *tabletServer {
	s := &tabletServer{endpointID: uuid.New(), numTablets: numTablets}
	s.mu.rpcs = map[int64]*tabletRPC{}
	return s
}

// startRPC registers an RPC issued on behalf of the request md belongs to.
// The returned function marks it done.
func (s *tabletServer) startRPC(md ash.Metadata, key int) (*tabletRPC, func()) {
	r := &tabletRPC{md: md, tablet: key % s.numTablets}
	r.waitEvent.Store(uint32(waitevent.OnCPUActive.Code))
	s.mu.Lock()
	s.mu.nextID++
	id := s.mu.nextID
	s.mu.rpcs[id] = r
	s.mu.Unlock()
	return r, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.mu.rpcs, id)
	}
}

func (r *tabletRPC) setWaitEvent(code waitevent.Code) {
	r.waitEvent.Store(uint32(code))
}

func (s *tabletServer) inFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mu.rpcs)
}

// StoreNodeSamples implements ash.NodeSampleSource.
func (s *tabletServer) StoreNodeSamples(
	ctx context.Context, sampleTime int64, acquire func(), write func(ash.Sample),
) error {
	s.mu.Lock()
	samples := make([]ash.Sample, 0, len(s.mu.rpcs))
	for id, r := range s.mu.rpcs {
		smp := ash.Sample{
			Metadata:      r.md,
			WaitEventCode: r.waitEvent.Load(),
			EndpointID:    s.endpointID,
			RPCRequestID:  id,
			SampleWeight:  1,
			SampleTime:    sampleTime,
		}
		smp.SetAuxInfo(fmt.Sprintf("tablet-%04d", r.tablet))
		samples = append(samples, smp)
	}
	s.mu.Unlock()
	if len(samples) == 0 {
		return nil
	}
	acquire()
	for _, smp := range samples {
		write(smp)
	}
	return nil
}
