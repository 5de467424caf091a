// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"context"
	"fmt"
	"net/netip"
	"testing"

	"github.com/cockroachdb/ash/pkg/sql/execobs"
	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func planned(id uint64) *execobs.Statement {
	return &execobs.Statement{QueryID: id, Offset: -1}
}

func utility(sql string) *execobs.Statement {
	return &execobs.Statement{SQL: sql, Offset: -1}
}

// runQuery runs a planned statement through all its phases, calling inner
// (if set) during the run phase.
func runQuery(
	ctx context.Context, n *execobs.Notifier, stmt *execobs.Statement, inner func(context.Context) error,
) error {
	noop := func(context.Context) error { return nil }
	if inner == nil {
		inner = noop
	}
	if err := n.Execute(ctx, execobs.PhaseStart, stmt, noop); err != nil {
		return err
	}
	if err := n.Execute(ctx, execobs.PhaseRun, stmt, inner); err != nil {
		return err
	}
	if err := n.Execute(ctx, execobs.PhaseFinish, stmt, noop); err != nil {
		return err
	}
	return n.Execute(ctx, execobs.PhaseEnd, stmt, noop)
}

func TestTrackerTopLevelStatements(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	a, _ := newTestASH(t, 0)
	tr := a.NewTracker()
	defer tr.Close()
	n := execobs.NewNotifier(nil, tr)

	tr.BeginRequest(ctx)
	md := tr.Session().Metadata()
	require.True(t, md.InRequest())

	var during uint64
	require.NoError(t, runQuery(ctx, n, planned(7), func(context.Context) error {
		during = tr.Session().Metadata().QueryID
		return nil
	}))
	require.Equal(t, uint64(7), during)
	// The previous query id was 0, which is not restored.
	require.Equal(t, uint64(7), tr.Session().Metadata().QueryID)
	require.True(t, tr.stack.empty())

	require.NoError(t, runQuery(ctx, n, planned(8), func(context.Context) error {
		during = tr.Session().Metadata().QueryID
		return nil
	}))
	require.Equal(t, uint64(8), during)
	// The id of the previous statement is restored.
	require.Equal(t, uint64(7), tr.Session().Metadata().QueryID)

	tr.EndRequest(ctx)
	require.False(t, tr.Session().Metadata().InRequest())

	// Each request gets a new root request id.
	tr.BeginRequest(ctx)
	require.NotEqual(t, md.RootRequestID, tr.Session().Metadata().RootRequestID)
	tr.EndRequest(ctx)
}

func TestTrackerNestedStatements(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()

	for _, trackNested := range []bool{false, true} {
		t.Run(fmt.Sprintf("track-nested=%t", trackNested), func(t *testing.T) {
			a, _ := newTestASH(t, 0)
			TrackNestedQueries.Override(ctx, a.sv, trackNested)
			tr := a.NewTracker()
			defer tr.Close()
			n := execobs.NewNotifier(nil, tr)
			tr.BeginRequest(ctx)
			defer tr.EndRequest(ctx)

			var inNested, inUtility, afterNested uint64
			require.NoError(t, runQuery(ctx, n, planned(100), func(ctx context.Context) error {
				// A function called by the top-level query runs another query.
				if err := runQuery(ctx, n, planned(200), func(context.Context) error {
					inNested = tr.Session().Metadata().QueryID
					return nil
				}); err != nil {
					return err
				}
				afterNested = tr.Session().Metadata().QueryID
				return n.Execute(ctx, execobs.PhaseUtility, utility("ANALYZE t"), func(context.Context) error {
					inUtility = tr.Session().Metadata().QueryID
					return nil
				})
			}))
			if trackNested {
				require.Equal(t, uint64(200), inNested)
				require.Equal(t, ComputeQueryID("ANALYZE t", 0, -1), inUtility)
			} else {
				require.Equal(t, uint64(100), inNested)
				require.Equal(t, uint64(100), inUtility)
			}
			require.Equal(t, uint64(100), afterNested)
			require.True(t, tr.stack.empty())
			require.Zero(t, tr.nestedLevel)
		})
	}
}

func TestTrackerUtilityStatement(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	a, _ := newTestASH(t, 0)
	tr := a.NewTracker()
	defer tr.Close()
	n := execobs.NewNotifier(nil, tr)
	tr.BeginRequest(ctx)
	defer tr.EndRequest(ctx)

	require.NoError(t, runQuery(ctx, n, planned(5), nil))
	var during uint64
	stmt := &execobs.Statement{SQL: "SELECT 1; CREATE TABLE t (a INT DEFAULT 3)", Offset: 10}
	require.NoError(t, n.Execute(ctx, execobs.PhaseUtility, stmt, func(context.Context) error {
		during = tr.Session().Metadata().QueryID
		return nil
	}))
	require.Equal(t, ComputeQueryID("CREATE TABLE t (a INT DEFAULT 42)", 0, 0), during)
	require.Equal(t, uint64(5), tr.Session().Metadata().QueryID)
}

// TestTrackerFailures checks that the query id of a failed statement is
// restored however deep the failure happens.
func TestTrackerFailures(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	boom := errors.New("boom")
	noop := func(context.Context) error { return nil }
	fail := func(context.Context) error { return boom }

	testCases := []struct {
		name string
		run  func(n *execobs.Notifier) error
	}{
		{
			name: "start fails",
			run: func(n *execobs.Notifier) error {
				return n.Execute(ctx, execobs.PhaseStart, planned(2), fail)
			},
		},
		{
			name: "run fails",
			run: func(n *execobs.Notifier) error {
				if err := n.Execute(ctx, execobs.PhaseStart, planned(2), noop); err != nil {
					return err
				}
				return n.Execute(ctx, execobs.PhaseRun, planned(2), fail)
			},
		},
		{
			name: "finish fails",
			run: func(n *execobs.Notifier) error {
				if err := n.Execute(ctx, execobs.PhaseStart, planned(2), noop); err != nil {
					return err
				}
				if err := n.Execute(ctx, execobs.PhaseRun, planned(2), noop); err != nil {
					return err
				}
				return n.Execute(ctx, execobs.PhaseFinish, planned(2), fail)
			},
		},
		{
			name: "utility fails",
			run: func(n *execobs.Notifier) error {
				return n.Execute(ctx, execobs.PhaseUtility, utility("VACUUM"), fail)
			},
		},
		{
			name: "nested query fails",
			run: func(n *execobs.Notifier) error {
				return runQuery(ctx, n, planned(2), func(ctx context.Context) error {
					return runQuery(ctx, n, planned(3), fail)
				})
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := newTestASH(t, 0)
			TrackNestedQueries.Override(ctx, a.sv, true)
			tr := a.NewTracker()
			defer tr.Close()
			n := execobs.NewNotifier(nil, tr)
			tr.BeginRequest(ctx)
			defer tr.EndRequest(ctx)

			require.NoError(t, runQuery(ctx, n, planned(1), noop))
			require.Equal(t, boom, tc.run(n))
			require.Equal(t, uint64(1), tr.Session().Metadata().QueryID)
			require.True(t, tr.stack.empty())
			require.Zero(t, tr.nestedLevel)
		})
	}
}

func TestTrackerPanic(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	a, _ := newTestASH(t, 0)
	tr := a.NewTracker()
	defer tr.Close()
	n := execobs.NewNotifier(nil, tr)
	tr.BeginRequest(ctx)
	defer tr.EndRequest(ctx)

	require.NoError(t, runQuery(ctx, n, planned(1), nil))
	require.Panics(t, func() {
		_ = n.Execute(ctx, execobs.PhaseUtility, utility("VACUUM"), func(context.Context) error {
			panic("boom")
		})
	})
	require.Equal(t, uint64(1), tr.Session().Metadata().QueryID)
	require.True(t, tr.stack.empty())
}

func TestTrackerDirectNotifications(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	a, _ := newTestASH(t, 0)
	tr := a.NewTracker()
	defer tr.Close()
	tr.BeginRequest(ctx)
	defer tr.EndRequest(ctx)

	tr.StatementWillStart(ctx, 10, "", 0, -1)
	tr.StatementWillStart(ctx, 0, "ANALYZE t", 0, 0)
	require.Equal(t, ComputeQueryID("ANALYZE t", 0, 0), tr.Session().Metadata().QueryID)
	require.NoError(t, tr.StatementDidEnd(ctx))
	require.Equal(t, uint64(10), tr.Session().Metadata().QueryID)
	require.NoError(t, tr.StatementDidEnd(ctx))

	// An unpaired end is reported.
	err := tr.StatementDidEnd(ctx)
	require.True(t, errors.IsAssertionFailure(err))
}

func TestTrackerDisabled(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	a, _ := newTestASH(t, 0)
	Enabled.Override(ctx, a.sv, false)
	tr := a.NewTracker()
	defer tr.Close()
	n := execobs.NewNotifier(nil, tr)
	tr.BeginRequest(ctx)
	defer tr.EndRequest(ctx)

	require.NoError(t, runQuery(ctx, n, planned(9), nil))
	require.Zero(t, tr.Session().Metadata().QueryID)
	require.True(t, tr.stack.empty())
}

func TestTrackerStackSaturation(t *testing.T) {
	sc := log.Scope(t)
	defer sc.Close(t)
	ctx := context.Background()
	a, _ := newTestASH(t, 0)
	TrackNestedQueries.Override(ctx, a.sv, true)
	tr := a.NewTracker()
	defer tr.Close()
	tr.BeginRequest(ctx)

	const depth = maxNestedQueryLevel + 3
	for i := 1; i <= depth; i++ {
		tr.StatementWillStart(ctx, uint64(i), "", 0, -1)
	}
	// Statements beyond the maximum depth keep the id of their ancestor.
	require.Equal(t, uint64(maxNestedQueryLevel), tr.Session().Metadata().QueryID)
	require.Equal(t, int64(3), a.Metrics().StackSaturated.Count())
	require.Equal(t, 3, sc.CountMatches("query id stack is full"))

	for i := depth; i > maxNestedQueryLevel; i-- {
		require.NoError(t, tr.StatementDidEnd(ctx))
		require.Equal(t, uint64(maxNestedQueryLevel), tr.Session().Metadata().QueryID)
	}
	for i := maxNestedQueryLevel; i >= 1; i-- {
		require.NoError(t, tr.StatementDidEnd(ctx))
		require.Equal(t, uint64(max(i-1, 1)), tr.Session().Metadata().QueryID)
	}
	require.True(t, tr.stack.empty())
	tr.EndRequest(ctx)
}

// Utility statements nested deeper than the stack keep it bounded and
// balanced.
func TestTrackerDeepUtilityNesting(t *testing.T) {
	sc := log.Scope(t)
	defer sc.Close(t)
	ctx := context.Background()
	a, _ := newTestASH(t, 0)
	TrackNestedQueries.Override(ctx, a.sv, true)
	tr := a.NewTracker()
	defer tr.Close()
	n := execobs.NewNotifier(nil, tr)
	tr.BeginRequest(ctx)

	const levels = maxNestedQueryLevel + 6
	var nest func(ctx context.Context, level int) error
	nest = func(ctx context.Context, level int) error {
		require.LessOrEqual(t, tr.stack.depth, maxNestedQueryLevel)
		if level == levels {
			return nil
		}
		stmt := utility(fmt.Sprintf("SET search_path = s%d", level))
		return n.Execute(ctx, execobs.PhaseUtility, stmt, func(ctx context.Context) error {
			return nest(ctx, level+1)
		})
	}
	require.NoError(t, nest(ctx, 0))
	require.True(t, tr.stack.empty())
	require.Equal(t, int64(6), a.Metrics().StackSaturated.Count())
	// Every saturated push is logged.
	require.Equal(t, 6, sc.CountMatches("query id stack is full"))
	tr.EndRequest(ctx)
}

func TestMetadataInRequest(t *testing.T) {
	require.False(t, Metadata{}.InRequest())
	require.True(t, Metadata{RootRequestID: uuid.New()}.InRequest())
	a, _ := newTestASH(t, 0)
	tr := a.NewTracker()
	defer tr.Close()
	tr.BeginRequest(context.Background())
	require.True(t, tr.Session().Metadata().InRequest())
}

func TestTrackerRequestBoundaries(t *testing.T) {
	sc := log.Scope(t)
	defer sc.Close(t)
	ctx := context.Background()
	a, _ := newTestASH(t, 0)
	tr := a.NewTracker()
	defer tr.Close()

	// A statement left open by a failed cleanup is discarded at the end of
	// the request.
	tr.BeginRequest(ctx)
	tr.StatementWillStart(ctx, 1, "", 0, -1)
	tr.StatementWillStart(ctx, 2, "", 0, -1)
	tr.EndRequest(ctx)
	require.True(t, tr.stack.empty())
	require.Equal(t, uuid.Nil, tr.Session().Metadata().RootRequestID)

	// Starting a request with a non-empty stack is reported and recovered.
	tr.StatementWillStart(ctx, 3, "", 0, -1)
	tr.BeginRequest(ctx)
	require.True(t, tr.stack.empty())
	require.Equal(t, 1, sc.CountMatches("query id stack not empty at the start of a request"))
	tr.EndRequest(ctx)
}

func TestSessionSetters(t *testing.T) {
	a, _ := newTestASH(t, 0)
	tr := a.NewTracker()
	s := tr.Session()
	s.SetSessionID(12)
	s.SetDatabaseID(34)
	s.SetClientAddr(netip.MustParseAddrPort("10.1.2.3:5433"))
	md := s.Metadata()
	require.Equal(t, uint64(12), md.SessionID)
	require.Equal(t, uint32(34), md.DatabaseID)
	require.Equal(t, AddrFamilyInet, md.AddrFamily)
	require.Equal(t, [16]byte{10, 1, 2, 3}, md.ClientAddr)
	require.Equal(t, uint16(5433), md.ClientPort)

	s.SetClientAddr(netip.MustParseAddrPort("[::ffff:10.1.2.3]:80"))
	require.Equal(t, AddrFamilyInet, s.Metadata().AddrFamily)

	s.SetClientAddr(netip.MustParseAddrPort("[2001:db8::1]:26257"))
	md = s.Metadata()
	require.Equal(t, AddrFamilyInet6, md.AddrFamily)
	require.Equal(t, netip.MustParseAddr("2001:db8::1").As16(), md.ClientAddr)

	s.SetUnixClient()
	require.Equal(t, AddrFamilyUnix, s.Metadata().AddrFamily)
	s.SetClientAddr(netip.AddrPort{})
	require.Equal(t, AddrFamilyUnspec, s.Metadata().AddrFamily)

	require.Equal(t, 1, a.Registry().Len())
	tr.Close()
	tr.Close()
	require.Equal(t, 0, a.Registry().Len())
}
