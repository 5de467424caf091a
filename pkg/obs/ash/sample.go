// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"bytes"
	"unsafe"

	"github.com/google/uuid"
)

// AddrFamily is the address family of a session's client connection.
type AddrFamily uint8

const (
	// AddrFamilyUnspec is used by sessions without a client, such as
	// internal executors and background jobs.
	AddrFamilyUnspec AddrFamily = iota
	// AddrFamilyUnix is a unix domain socket connection.
	AddrFamilyUnix
	// AddrFamilyInet is an IPv4 connection. Only the first four bytes of
	// ClientAddr are used.
	AddrFamilyInet
	// AddrFamilyInet6 is an IPv6 connection.
	AddrFamilyInet6
)

func (f AddrFamily) String() string {
	switch f {
	case AddrFamilyUnix:
		return "unix"
	case AddrFamilyInet:
		return "inet"
	case AddrFamilyInet6:
		return "inet6"
	default:
		return "unspec"
	}
}

// Metadata is the identity of a session at the time it was sampled.
type Metadata struct {
	// RootRequestID binds together all the work done on behalf of a single
	// top-level client request. It is zero outside of a request.
	RootRequestID uuid.UUID
	QueryID       uint64
	SessionID     uint64
	ClientAddr    [16]byte
	ClientPort    uint16
	AddrFamily    AddrFamily
	DatabaseID    uint32
}

// InRequest returns true if the metadata belongs to a session that is
// currently serving a client request.
func (md Metadata) InRequest() bool {
	return md.RootRequestID != uuid.Nil
}

// AuxInfoSize is the maximum length of Sample.AuxInfo.
const AuxInfoSize = 16

// Sample is a single record of the active session history buffer. It holds
// no pointers so that the buffer is a single flat allocation.
type Sample struct {
	Metadata Metadata
	// WaitEventCode is the encoded wait event; see package waitevent.
	WaitEventCode uint32
	// EndpointID identifies the node that produced the sample.
	EndpointID uuid.UUID
	// RPCRequestID is zero for samples produced by the SQL layer of this
	// process and set for samples relayed from the storage layer.
	RPCRequestID int64
	// AuxInfo is NUL padded. An empty AuxInfo means there is none.
	AuxInfo      [AuxInfoSize]byte
	SampleWeight float32
	// SampleTime is the sampling time in microseconds since the unix epoch.
	// Zero means that the slot was never written.
	SampleTime int64
}

// RecordSize is the in-memory size of a Sample. The buffer capacity is
// derived from it.
const RecordSize = int64(unsafe.Sizeof(Sample{}))

// SetAuxInfo stores s, truncated to AuxInfoSize bytes.
func (s *Sample) SetAuxInfo(info string) {
	s.AuxInfo = [AuxInfoSize]byte{}
	copy(s.AuxInfo[:], info)
}

// AuxInfoString returns the aux info as a string, or "" when absent.
func (s *Sample) AuxInfoString() string {
	b := s.AuxInfo[:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Empty returns true if the sample was never written.
func (s *Sample) Empty() bool {
	return s.SampleTime == 0
}
