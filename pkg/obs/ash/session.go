// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"net/netip"
	"sync/atomic"

	"github.com/cockroachdb/ash/pkg/obs/waitevent"
	"github.com/cockroachdb/ash/pkg/util/syncutil"
	"github.com/google/uuid"
)

// Session is the identity of a live session as seen by the collector. The
// session updates it as it serves requests; the collector copies it while
// sampling.
type Session struct {
	registry *SessionRegistry

	// waitEvent is published by the session without taking mu.
	waitEvent atomic.Uint32

	mu struct {
		syncutil.Mutex
		md     Metadata
		closed bool
	}
}

// SetWaitEvent publishes the wait event the session is currently in.
func (s *Session) SetWaitEvent(code waitevent.Code) {
	s.waitEvent.Store(uint32(code))
}

// WaitEvent returns the wait event the session is currently in.
func (s *Session) WaitEvent() waitevent.Code {
	return waitevent.Code(s.waitEvent.Load())
}

// Metadata returns a copy of the session identity.
func (s *Session) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.md
}

func (s *Session) update(fn func(md *Metadata)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.mu.md)
}

func (s *Session) queryID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.md.QueryID
}

func (s *Session) setQueryID(id uint64) {
	s.update(func(md *Metadata) { md.QueryID = id })
}

func (s *Session) setRootRequestID(id uuid.UUID) {
	s.update(func(md *Metadata) { md.RootRequestID = id })
}

// SetSessionID sets the id of the session.
func (s *Session) SetSessionID(id uint64) {
	s.update(func(md *Metadata) { md.SessionID = id })
}

// SetDatabaseID sets the id of the session's current database.
func (s *Session) SetDatabaseID(id uint32) {
	s.update(func(md *Metadata) { md.DatabaseID = id })
}

// SetClientAddr records the address of the session's client. An invalid
// address marks the session as having no client.
func (s *Session) SetClientAddr(addr netip.AddrPort) {
	s.update(func(md *Metadata) {
		md.ClientAddr = [16]byte{}
		md.ClientPort = addr.Port()
		ip := addr.Addr()
		switch {
		case !ip.IsValid():
			md.AddrFamily = AddrFamilyUnspec
			md.ClientPort = 0
		case ip.Is4() || ip.Is4In6():
			a4 := ip.Unmap().As4()
			copy(md.ClientAddr[:], a4[:])
			md.AddrFamily = AddrFamilyInet
		default:
			md.ClientAddr = ip.As16()
			md.AddrFamily = AddrFamilyInet6
		}
	})
}

// SetUnixClient marks the session as connected over a unix socket.
func (s *Session) SetUnixClient() {
	s.update(func(md *Metadata) {
		md.ClientAddr = [16]byte{}
		md.ClientPort = 0
		md.AddrFamily = AddrFamilyUnix
	})
}

// snapshot copies the session's identity and wait event into sample. It
// returns false if the session was closed.
func (s *Session) snapshot(sample *Sample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.closed {
		return false
	}
	sample.Metadata = s.mu.md
	sample.WaitEventCode = s.waitEvent.Load()
	return true
}

// Close unregisters the session. Samples are no longer taken from it.
func (s *Session) Close() {
	s.mu.Lock()
	alreadyClosed := s.mu.closed
	s.mu.closed = true
	s.mu.Unlock()
	if !alreadyClosed {
		s.registry.remove(s)
	}
}

// SessionRegistry enumerates the live sessions of the process.
type SessionRegistry struct {
	mu struct {
		syncutil.Mutex
		sessions []*Session
	}
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{}
}

// Register creates a new session. The session must be closed.
func (r *SessionRegistry) Register() *Session {
	s := &Session{registry: r}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mu.sessions = append(r.mu.sessions, s)
	return s
}

func (r *SessionRegistry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, other := range r.mu.sessions {
		if other == s {
			last := len(r.mu.sessions) - 1
			copy(r.mu.sessions[i:], r.mu.sessions[i+1:])
			r.mu.sessions[last] = nil
			r.mu.sessions = r.mu.sessions[:last]
			return
		}
	}
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mu.sessions)
}

// appendSessions appends the live sessions, in registration order, to buf.
// Sessions can be closed right after they are returned.
func (r *SessionRegistry) appendSessions(buf []*Session) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(buf, r.mu.sessions...)
}
