// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/netip"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/ash/pkg/obs/ash"
	"github.com/cockroachdb/ash/pkg/obs/waitevent"
	"github.com/cockroachdb/ash/pkg/sql/execobs"
	"github.com/cockroachdb/ash/pkg/util/timeutil"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// workload is the set of statements simulated clients send. The statements
// of a procedure body run nested in the statement that calls it.
var workload = []string{
	"SELECT * FROM accounts WHERE id = 42",
	"UPDATE accounts SET balance = balance - 100 WHERE id = 7",
	"INSERT INTO transfers (src, dst, amount) VALUES (7, 42, 100)",
	"CALL transfer(7, 42, 100)",
	"SELECT count(*) FROM transfers WHERE created_at > now() - INTERVAL '1 hour'",
}

var procedureBody = []string{
	"SELECT balance FROM accounts WHERE id = 7 FOR UPDATE",
	"UPDATE accounts SET balance = balance + 100 WHERE id = 42",
}

// utilityStatement is run now and then in the middle of other statements.
const utilityStatement = "SET application_name = 'ash-sim'"

const maxNesting = 2

var errConflict = errors.New("simulated transaction conflict")

// simulator runs client sessions against the active session history of the
// process. Each session loops over requests of one statement each, waiting
// on the client between them.
type simulator struct {
	ash         *ash.ActiveSessionHistory
	tablets     *tabletServer
	execMetrics *execobs.Metrics
	// think is the mean time spent in each simulated wait.
	think time.Duration

	stats struct {
		requests atomic.Int64
		failed   atomic.Int64
	}
}

// sleep waits for d or until ctx is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	var timer timeutil.Timer
	defer timer.Stop()
	timer.Reset(d)
	select {
	case <-timer.C:
		timer.Read = true
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *simulator) wait(ctx context.Context, rng *rand.Rand) error {
	return sleep(ctx, time.Duration(rng.Int63n(int64(2*s.think)+1)))
}

func noop(context.Context) error { return nil }

// session is the state of one simulated client session.
type session struct {
	id       int
	rng      *rand.Rand
	tracker  *ash.Tracker
	notifier *execobs.Notifier
}

func (s *simulator) newSession(id int) *session {
	tracker := s.ash.NewTracker()
	sess := tracker.Session()
	sess.SetSessionID(uint64(id + 1))
	sess.SetDatabaseID(uint32(100 + id%3))
	switch id % 4 {
	case 0:
		sess.SetUnixClient()
	case 1:
		sess.SetClientAddr(netip.AddrPortFrom(
			netip.AddrFrom16([16]byte{0x20, 0x01, 0x0d, 0xb8, 15: byte(id)}), uint16(40000+id)))
	default:
		sess.SetClientAddr(netip.AddrPortFrom(
			netip.AddrFrom4([4]byte{10, 0, byte(id >> 8), byte(id)}), uint16(50000+id)))
	}
	return &session{
		id:       id,
		rng:      rand.New(rand.NewSource(timeutil.Now().UnixNano() + int64(id))),
		tracker:  tracker,
		notifier: execobs.NewNotifier(s.execMetrics, tracker),
	}
}

// runSession serves requests until ctx is canceled.
func (s *simulator) runSession(ctx context.Context, id int) error {
	sess := s.newSession(id)
	defer sess.tracker.Close()
	for {
		sess.tracker.Session().SetWaitEvent(waitevent.ClientRead.Code)
		if err := s.wait(ctx, sess.rng); err != nil {
			return nil
		}
		sess.tracker.BeginRequest(ctx)
		var err error
		if sess.rng.Intn(10) == 0 {
			err = s.runPrepared(ctx, sess)
		} else {
			err = s.runStatement(ctx, sess, workload[sess.rng.Intn(len(workload))], 0)
		}
		sess.tracker.Session().SetWaitEvent(waitevent.ClientWrite.Code)
		sess.tracker.EndRequest(ctx)
		s.stats.requests.Add(1)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.stats.failed.Add(1)
		}
	}
}

// runStatement runs sql through every execution phase. A failed phase
// aborts the statement: the end phase only runs once the others succeeded.
func (s *simulator) runStatement(ctx context.Context, sess *session, sql string, depth int) error {
	n := sess.notifier
	stmt := &execobs.Statement{SQL: sql}
	if err := n.Execute(ctx, execobs.PhaseStart, stmt, noop); err != nil {
		return err
	}
	if err := n.Execute(ctx, execobs.PhaseRun, stmt, func(ctx context.Context) error {
		return s.execute(ctx, sess, sql, depth)
	}); err != nil {
		return err
	}
	if err := n.Execute(ctx, execobs.PhaseFinish, stmt, noop); err != nil {
		return err
	}
	return n.Execute(ctx, execobs.PhaseEnd, stmt, noop)
}

// runPrepared runs a statement of a multi-statement string the way the
// extended protocol does, bracketing it with the tracker directly.
func (s *simulator) runPrepared(ctx context.Context, sess *session) error {
	const text = "BEGIN; SELECT * FROM accounts WHERE id = $1; COMMIT"
	const offset, length = 7, 36
	sess.tracker.StatementWillStart(ctx, 0 /* queryID */, text, length, offset)
	err := s.execute(ctx, sess, text[offset:offset+length], maxNesting)
	if endErr := sess.tracker.StatementDidEnd(ctx); err == nil {
		err = endErr
	}
	return err
}

// execute simulates the work of a statement, moving the session through
// the wait events the work involves.
func (s *simulator) execute(ctx context.Context, sess *session, sql string, depth int) error {
	rng := sess.rng
	self := sess.tracker.Session()

	self.SetWaitEvent(waitevent.QueryProcessing.Code)
	if err := s.wait(ctx, rng); err != nil {
		return err
	}
	if sql == "CALL transfer(7, 42, 100)" && depth < maxNesting {
		for _, body := range procedureBody {
			if err := s.runStatement(ctx, sess, body, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if rng.Intn(8) == 0 {
		util := &execobs.Statement{SQL: utilityStatement}
		if err := sess.notifier.Execute(ctx, execobs.PhaseUtility, util, noop); err != nil {
			return err
		}
	}

	switch rng.Intn(4) {
	case 0:
		self.SetWaitEvent(waitevent.RelationLock.Code)
	case 1:
		self.SetWaitEvent(waitevent.DataFileRead.Code)
	default:
		if err := s.storageRPC(ctx, sess); err != nil {
			return err
		}
		self.SetWaitEvent(waitevent.QueryProcessing.Code)
	}
	if err := s.wait(ctx, rng); err != nil {
		return err
	}
	if rng.Intn(50) == 0 {
		return errConflict
	}
	return nil
}

// storageRPC issues an RPC to the tablet server and waits for it.
func (s *simulator) storageRPC(ctx context.Context, sess *session) error {
	self := sess.tracker.Session()
	self.SetWaitEvent(waitevent.StorageRead.Code)
	rpc, done := s.tablets.startRPC(self.Metadata(), sess.rng.Int())
	defer done()
	for _, ev := range []waitevent.Event{
		waitevent.OnCPUActive, waitevent.RaftWaitReplication, waitevent.EngineRead,
	} {
		rpc.setWaitEvent(ev.Code)
		if err := s.wait(ctx, sess.rng); err != nil {
			return err
		}
	}
	return nil
}

// run runs numSessions sessions until ctx is canceled, reporting progress
// to out every reportInterval.
func (s *simulator) run(
	ctx context.Context, numSessions int, out io.Writer, reportInterval time.Duration,
) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < numSessions; i++ {
		i := i
		g.Go(func() error { return s.runSession(ctx, i) })
	}
	if reportInterval > 0 {
		g.Go(func() error {
			s.monitor(ctx, out, reportInterval)
			return nil
		})
	}
	return g.Wait()
}

func (s *simulator) monitor(ctx context.Context, out io.Writer, d time.Duration) {
	m := s.ash.Metrics()
	start := timeutil.Now()
	var lastRequests int64
	for ticks := 0; ; ticks++ {
		if err := sleep(ctx, d); err != nil {
			return
		}
		if ticks%20 == 0 {
			fmt.Fprintln(out, "_elapsed___req/sec___failed__active___samples_node_samples___weight")
		}
		requests := s.stats.requests.Load()
		fmt.Fprintf(out, "%8s %9.1f %8d %7d %9s %12s %8.2f\n",
			timeutil.Since(start).Round(time.Second),
			float64(requests-lastRequests)/d.Seconds(),
			s.stats.failed.Load(),
			m.ActiveSessions.Value(),
			humanize.Comma(m.Samples.Count()),
			humanize.Comma(m.NodeSamples.Count()),
			m.SampleWeight.Value())
		lastRequests = requests
	}
}

// finalStatus prints the number of buffered samples per wait event.
func (s *simulator) finalStatus(out io.Writer) error {
	b := s.ash.Buffer()
	if b == nil {
		return ash.ErrNotInitialized
	}
	counts := map[waitevent.Code]int{}
	var total int
	if err := b.Scan(func(smp *ash.Sample) error {
		counts[waitevent.Code(smp.WaitEventCode)]++
		total++
		return nil
	}); err != nil {
		return err
	}
	codes := make([]waitevent.Code, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return counts[codes[i]] > counts[codes[j]] })
	fmt.Fprintf(out, "%s samples buffered (capacity %s)\n",
		humanize.Comma(int64(total)), humanize.Comma(int64(b.Capacity())))
	for _, c := range codes {
		fmt.Fprintf(out, "%8d  %s\n", counts[c], c)
	}
	return nil
}
