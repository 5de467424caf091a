// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cockroachdb/ash/pkg/util/syncutil"
)

// TestLogScope captures log output for the duration of a test. Captured
// output is replayed through t.Log if the test fails.
//
// Use with:
//
//	defer log.Scope(t).Close(t)
type TestLogScope struct {
	restore func()
	mu      struct {
		syncutil.Mutex
		buf bytes.Buffer
	}
}

type scopeWriter struct{ s *TestLogScope }

func (w scopeWriter) Write(p []byte) (int, error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	return w.s.mu.buf.Write(p)
}

// Scope redirects logging into an in-memory buffer owned by the returned
// scope.
func Scope(t testing.TB) *TestLogScope {
	s := &TestLogScope{}
	s.restore = SetOutput(scopeWriter{s: s})
	return s
}

// Contents returns everything logged since the scope was created.
func (s *TestLogScope) Contents() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.buf.String()
}

// CountMatches returns the number of captured entries containing substr.
func (s *TestLogScope) CountMatches(substr string) int {
	n := 0
	for _, line := range strings.Split(s.Contents(), "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

// Close restores the previous log destination.
func (s *TestLogScope) Close(t testing.TB) {
	s.restore()
	if t.Failed() {
		t.Logf("captured log output:\n%s", s.Contents())
	}
}
