// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func TestEntryFormat(t *testing.T) {
	s := Scope(t)
	defer s.Close(t)

	ctx := logtags.AddTag(context.Background(), "n", 1)
	ctx = logtags.AddTag(ctx, "ash", nil)
	ctx = logtags.AddTag(ctx, "client", "10.0.0.1")
	Infof(ctx, "hello %s", "world")
	Warningf(context.Background(), "no tags")

	re := regexp.MustCompile(`^I\d{6} \d\d:\d\d:\d\d\.\d{6} log/log_test\.go:\d+ \[n1,ash,client=10\.0\.0\.1\] \d+ hello world$`)
	lines := strings.Split(s.Contents(), "\n")
	require.Len(t, lines, 3) // trailing newline
	require.Regexp(t, re, lines[0])
	require.Regexp(t, `^W\d{6} .* \d+ no tags$`, lines[1])
}

func TestRedactableOutput(t *testing.T) {
	s := Scope(t)
	defer s.Close(t)

	Infof(context.Background(), "user %s safe %s", "alice", redact.Safe("bob"))
	require.Contains(t, s.Contents(), "user alice safe bob")

	SetRedactable(true)
	defer SetRedactable(false)
	Infof(context.Background(), "user %s safe %s", "alice", redact.Safe("bob"))
	require.Contains(t, s.Contents(), "user ‹alice› safe bob")
}

func TestVEventf(t *testing.T) {
	s := Scope(t)
	defer s.Close(t)

	VEventf(context.Background(), 2, "hidden")
	require.Equal(t, 0, s.CountMatches("hidden"))
	SetVerbosity(2)
	defer SetVerbosity(0)
	VEventf(context.Background(), 2, "shown")
	require.Equal(t, 1, s.CountMatches("shown"))
}

func TestFatalfCallsExitFunc(t *testing.T) {
	s := Scope(t)
	defer s.Close(t)

	var code int
	defer SetExitFunc(func(c int) { code = c })()
	Fatalf(context.Background(), "boom")
	require.Equal(t, 255, code)
	require.Equal(t, 1, s.CountMatches("boom"))
}

func TestEveryNShouldLog(t *testing.T) {
	e := Every(time.Hour)
	now := time.Now()
	require.True(t, e.shouldLog(now))
	require.False(t, e.shouldLog(now.Add(time.Minute)))
	SetVerbosity(2)
	defer SetVerbosity(0)
	require.True(t, e.shouldLog(now.Add(time.Minute)))
}
