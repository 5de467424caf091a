// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"context"

	"github.com/cockroachdb/ash/pkg/sql/execobs"
	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Tracker maintains the identity of one session as it executes requests and
// (possibly nested) statements. It implements execobs.Observer so that it
// can be registered with the session's notifier.
//
// A Tracker is owned by its session and is not safe for concurrent use. Only
// the Session it maintains is read by other goroutines.
type Tracker struct {
	ash     *ActiveSessionHistory
	session *Session
	stack   queryIDStack
	// nestedLevel is the number of Run, Finish and Utility phases currently
	// executing. Statements started at level 0 are top-level statements.
	nestedLevel int
}

var _ execobs.Observer = (*Tracker)(nil)

// NewTracker registers a new session and returns its tracker. The tracker
// must be closed when the session ends.
func (a *ActiveSessionHistory) NewTracker() *Tracker {
	return &Tracker{ash: a, session: a.registry.Register()}
}

// Session returns the session maintained by the tracker.
func (t *Tracker) Session() *Session {
	return t.session
}

// Close unregisters the session.
func (t *Tracker) Close() {
	t.session.Close()
}

func (t *Tracker) enabled() bool {
	return Enabled.Get(t.ash.sv)
}

// trackQueryIDs returns whether statements at the current nesting level
// change the session's query id.
func (t *Tracker) trackQueryIDs() bool {
	return t.nestedLevel == 0 || TrackNestedQueries.Get(t.ash.sv)
}

// setQueryID makes id the session's query id, saving the current one to be
// restored by the matching resetQueryID.
func (t *Tracker) setQueryID(ctx context.Context, id uint64) {
	if !t.trackQueryIDs() {
		return
	}
	if t.stack.push(t.session.queryID()) {
		t.session.setQueryID(id)
		return
	}
	t.ash.metrics.StackSaturated.Inc(1)
	log.Warningf(ctx, "query id stack is full at depth %d; statement attributed to its parent",
		maxNestedQueryLevel)
}

// resetQueryID restores the query id that was current before the matching
// setQueryID.
func (t *Tracker) resetQueryID() error {
	if !t.trackQueryIDs() {
		return nil
	}
	prev, err := t.stack.pop()
	if err != nil {
		return err
	}
	if prev != 0 {
		t.session.setQueryID(prev)
	}
	return nil
}

func queryIDFor(stmt *execobs.Statement) uint64 {
	if stmt.QueryID != 0 {
		return stmt.QueryID
	}
	return ComputeQueryID(stmt.SQL, stmt.Length, stmt.Offset)
}

// Enter implements execobs.Observer.
func (t *Tracker) Enter(ctx context.Context, phase execobs.Phase, stmt *execobs.Statement) error {
	switch phase {
	case execobs.PhaseStart:
		if t.enabled() {
			t.setQueryID(ctx, queryIDFor(stmt))
		}
	case execobs.PhaseRun, execobs.PhaseFinish:
		t.nestedLevel++
	case execobs.PhaseEnd:
	case execobs.PhaseUtility:
		if t.enabled() {
			t.setQueryID(ctx, queryIDFor(stmt))
		}
		t.nestedLevel++
	default:
		return errors.AssertionFailedf("unknown execution phase %s", phase)
	}
	return nil
}

// Exit implements execobs.Observer. The query id set when the statement
// started is restored when it ends, or as soon as any phase fails.
func (t *Tracker) Exit(
	ctx context.Context, phase execobs.Phase, stmt *execobs.Statement, execErr error,
) error {
	switch phase {
	case execobs.PhaseStart:
		if execErr != nil && t.enabled() {
			return t.resetQueryID()
		}
	case execobs.PhaseRun, execobs.PhaseFinish:
		t.nestedLevel--
		if execErr != nil && t.enabled() {
			return t.resetQueryID()
		}
	case execobs.PhaseEnd:
		if t.enabled() {
			return t.resetQueryID()
		}
	case execobs.PhaseUtility:
		t.nestedLevel--
		if t.enabled() {
			return t.resetQueryID()
		}
	default:
		return errors.AssertionFailedf("unknown execution phase %s", phase)
	}
	return nil
}

// StatementWillStart sets the session's query id for a statement that is
// about to run outside of the notifier. queryID is used if non-zero;
// otherwise the id is computed from text[offset:offset+length]. It must be
// paired with StatementDidEnd.
func (t *Tracker) StatementWillStart(
	ctx context.Context, queryID uint64, text string, length, offset int,
) {
	if !t.enabled() {
		return
	}
	if queryID == 0 {
		queryID = ComputeQueryID(text, length, offset)
	}
	t.setQueryID(ctx, queryID)
}

// StatementDidEnd restores the query id that was current before the
// matching StatementWillStart.
func (t *Tracker) StatementDidEnd(ctx context.Context) error {
	if !t.enabled() {
		return nil
	}
	return t.resetQueryID()
}

// BeginRequest marks the start of a client request and assigns it a new
// root request id. The query id stack must be empty; if it is not, the
// violation is reported and the stack is cleared.
func (t *Tracker) BeginRequest(ctx context.Context) {
	if !t.stack.empty() {
		log.Errorf(ctx, "%v", errors.AssertionFailedf(
			"query id stack not empty at the start of a request: depth %d, %d not pushed",
			t.stack.depth, t.stack.notPushed))
		t.stack.reset()
	}
	t.session.setRootRequestID(uuid.New())
}

// EndRequest marks the end of a client request. The query id stack is
// cleared unconditionally: an error raised while restoring a query id can
// leave entries behind.
func (t *Tracker) EndRequest(ctx context.Context) {
	if !t.stack.empty() {
		log.VEventf(ctx, 2, "clearing query id stack of depth %d at the end of a request", t.stack.depth)
	}
	t.stack.reset()
	t.session.setRootRequestID(uuid.Nil)
}
