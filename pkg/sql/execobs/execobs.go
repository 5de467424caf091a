// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package execobs lets subsystems observe the phases of statement execution
// in a session. Observers are registered once when the session starts and
// are notified in registration order around every phase.
package execobs

import (
	"context"
	"fmt"

	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/ash/pkg/util/metric"
	"github.com/cockroachdb/errors"
)

// Phase is a step of statement execution.
type Phase int

const (
	// PhaseStart prepares the execution of a planned statement.
	PhaseStart Phase = iota
	// PhaseRun produces the statement's rows.
	PhaseRun
	// PhaseFinish runs the statement's deferred work, e.g. AFTER triggers.
	PhaseFinish
	// PhaseEnd releases the statement's execution state.
	PhaseEnd
	// PhaseUtility executes a utility statement, which is not planned and
	// goes through no other phase.
	PhaseUtility
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseRun:
		return "run"
	case PhaseFinish:
		return "finish"
	case PhaseEnd:
		return "end"
	case PhaseUtility:
		return "utility"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Statement describes the statement being executed.
type Statement struct {
	// QueryID is the id assigned by the planner, or 0 if the statement was
	// not planned.
	QueryID uint64
	// SQL is the source text, which can hold more than this statement.
	SQL string
	// Offset and Length locate the statement in SQL. A negative Offset means
	// the location is unknown; a Length of 0 means the rest of SQL.
	Offset, Length int
}

// Observer is notified around each phase of statement execution.
type Observer interface {
	// Enter is called before the phase runs.
	Enter(ctx context.Context, phase Phase, stmt *Statement) error
	// Exit is called after the phase ran, however it ended. execErr is the
	// error the phase returned; it is errPanicked if the phase panicked.
	Exit(ctx context.Context, phase Phase, stmt *Statement, execErr error) error
}

var errPanicked = errors.New("statement execution panicked")

// IsPanic returns whether the error passed to Observer.Exit stands for a
// panic.
func IsPanic(err error) bool {
	return errors.Is(err, errPanicked)
}

var metaObserverErrors = metric.Metadata{
	Name:        "sql.exec.observer.errors",
	Help:        "Number of errors returned by statement execution observers",
	Measurement: "Errors",
	Unit:        metric.Unit_COUNT,
}

// Metrics are shared by the notifiers of all sessions.
type Metrics struct {
	ObserverErrors *metric.Counter
}

// MakeMetrics creates the metrics of the package.
func MakeMetrics() Metrics {
	return Metrics{ObserverErrors: metric.NewCounter(metaObserverErrors)}
}

// Notifier runs statement phases while notifying an ordered list of
// observers. It belongs to a single session and is not safe for concurrent
// use.
type Notifier struct {
	observers []Observer
	metrics   *Metrics
}

// NewNotifier creates a notifier for the given observers. metrics can be
// nil.
func NewNotifier(metrics *Metrics, observers ...Observer) *Notifier {
	return &Notifier{observers: observers, metrics: metrics}
}

// Execute runs fn as the given phase of stmt. Every observer's Enter is
// called before fn and every observer's Exit after it, both in registration
// order. Exit is called even if fn returns early or panics; a panic is
// re-raised once all observers were notified.
//
// Observer errors are logged and do not stop the other observers from being
// notified; fn's error is returned unchanged.
func (n *Notifier) Execute(
	ctx context.Context, phase Phase, stmt *Statement, fn func(context.Context) error,
) (err error) {
	for _, o := range n.observers {
		if oErr := o.Enter(ctx, phase, stmt); oErr != nil {
			n.observerFailed(ctx, phase, oErr)
		}
	}
	panicked := true
	defer func() {
		exitErr := err
		if panicked {
			exitErr = errPanicked
		}
		for _, o := range n.observers {
			if oErr := o.Exit(ctx, phase, stmt, exitErr); oErr != nil {
				n.observerFailed(ctx, phase, oErr)
			}
		}
	}()
	err = fn(ctx)
	panicked = false
	return err
}

func (n *Notifier) observerFailed(ctx context.Context, phase Phase, err error) {
	if n.metrics != nil {
		n.metrics.ObserverErrors.Inc(1)
	}
	log.Warningf(ctx, "statement %s observer failed: %v", phase, err)
}
