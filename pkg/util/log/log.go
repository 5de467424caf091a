// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package log is a context-aware leveled logger. Entries carry the logging
// tags attached to the context (see github.com/cockroachdb/logtags) and are
// formatted with github.com/cockroachdb/redact so that sensitive arguments
// can be marked when redactable output is enabled.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/ash/pkg/util/syncutil"
	"github.com/cockroachdb/redact"
)

// Severity is the severity level of a log entry.
type Severity int32

const (
	// Severity_INFO is used for informational messages.
	Severity_INFO Severity = iota + 1
	// Severity_WARNING is used for situations that may require attention.
	Severity_WARNING
	// Severity_ERROR is used for errors that do not stop the process.
	Severity_ERROR
	// Severity_FATAL is used for errors that terminate the process.
	Severity_FATAL
)

func (s Severity) letter() byte {
	switch s {
	case Severity_INFO:
		return 'I'
	case Severity_WARNING:
		return 'W'
	case Severity_ERROR:
		return 'E'
	case Severity_FATAL:
		return 'F'
	}
	return '?'
}

// loggerT is the process-wide logger.
type loggerT struct {
	verbosity    int32  // accessed atomically
	redactable   int32  // accessed atomically
	entryCounter uint64 // accessed atomically

	mu struct {
		syncutil.Mutex
		out      io.Writer
		exitFunc func(int)
	}
}

var mainLog = func() *loggerT {
	l := &loggerT{}
	l.mu.out = os.Stderr
	l.mu.exitFunc = os.Exit
	return l
}()

// SetOutput redirects log output to w and returns a function that restores
// the previous destination.
func SetOutput(w io.Writer) (restore func()) {
	mainLog.mu.Lock()
	defer mainLog.mu.Unlock()
	prev := mainLog.mu.out
	mainLog.mu.out = w
	return func() {
		mainLog.mu.Lock()
		defer mainLog.mu.Unlock()
		mainLog.mu.out = prev
	}
}

// SetExitFunc overrides the function called after a FATAL entry is logged.
func SetExitFunc(f func(int)) (restore func()) {
	mainLog.mu.Lock()
	defer mainLog.mu.Unlock()
	prev := mainLog.mu.exitFunc
	mainLog.mu.exitFunc = f
	return func() {
		mainLog.mu.Lock()
		defer mainLog.mu.Unlock()
		mainLog.mu.exitFunc = prev
	}
}

// SetVerbosity sets the global verbosity level used by V and VEventf.
func SetVerbosity(level int32) {
	atomic.StoreInt32(&mainLog.verbosity, level)
}

// SetRedactable controls whether redaction markers are kept in the output.
func SetRedactable(enabled bool) {
	var v int32
	if enabled {
		v = 1
	}
	atomic.StoreInt32(&mainLog.redactable, v)
}

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level int32) bool {
	return atomic.LoadInt32(&mainLog.verbosity) >= level
}

// Infof logs to the INFO severity.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, Severity_INFO, format, args...)
}

// Warningf logs to the WARNING severity.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, Severity_WARNING, format, args...)
}

// Errorf logs to the ERROR severity.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, Severity_ERROR, format, args...)
}

// Fatalf logs to the FATAL severity and then terminates the process.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, Severity_FATAL, format, args...)
	mainLog.mu.Lock()
	exit := mainLog.mu.exitFunc
	mainLog.mu.Unlock()
	exit(255)
}

// VEventf logs an INFO entry if the verbosity is at least level.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	if V(level) {
		logDepth(ctx, 1, Severity_INFO, format, args...)
	}
}

// InfofDepth logs to the INFO severity, attributing the entry to the caller
// depth frames above the caller of InfofDepth.
func InfofDepth(ctx context.Context, depth int, format string, args ...interface{}) {
	logDepth(ctx, depth+1, Severity_INFO, format, args...)
}

func logDepth(ctx context.Context, depth int, sev Severity, format string, args ...interface{}) {
	entry := makeEntry(ctx, sev, depth+1, format, args...)
	mainLog.mu.Lock()
	defer mainLog.mu.Unlock()
	_, _ = io.WriteString(mainLog.mu.out, entry)
}

// makeEntry renders a single entry in the crdb-v1 layout:
//
//	I261019 10:11:12.123456 ash/collector.go:88 ⋮ [n1,ash] 12 message
func makeEntry(ctx context.Context, sev Severity, depth int, format string, args ...interface{}) string {
	now := time.Now().UTC()
	file, line := "???", 1
	if _, f, l, ok := runtime.Caller(depth + 1); ok {
		file = filepath.Join(filepath.Base(filepath.Dir(f)), filepath.Base(f))
		line = l
	}
	counter := atomic.AddUint64(&mainLog.entryCounter, 1)

	var msg redact.RedactableString
	if len(args) == 0 {
		msg = redact.Sprint(redact.Safe(format))
	} else {
		msg = redact.Sprintf(format, args...)
	}
	text := string(msg)
	if atomic.LoadInt32(&mainLog.redactable) == 0 {
		text = msg.StripMarkers()
	}

	var buf strings.Builder
	buf.WriteByte(sev.letter())
	buf.WriteString(now.Format("060102 15:04:05.000000"))
	fmt.Fprintf(&buf, " %s:%d ", file, line)
	if atomic.LoadInt32(&mainLog.redactable) != 0 {
		buf.WriteString("⋮ ")
	}
	formatTags(ctx, true /* brackets */, &buf)
	fmt.Fprintf(&buf, "%d ", counter)
	buf.WriteString(strings.TrimRight(text, "\n"))
	buf.WriteByte('\n')
	return buf.String()
}
