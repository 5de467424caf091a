// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/ash/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/ash/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/ash/pkg/util/timeutil"
)

// WaitEventResolver turns wait event codes into their display names.
type WaitEventResolver interface {
	Component(code uint32) string
	Class(code uint32) string
	Name(code uint32) string
	Type(code uint32) string
}

// The active session history table gained columns over time. Callers
// declare how many columns they expect and only get those.
const (
	// ColumnsV1 is the original set of columns.
	ColumnsV1 = 12
	// ColumnsV2 adds wait_event_type.
	ColumnsV2 = 13
	// ColumnsV3 adds database_id.
	ColumnsV3 = 14
)

var columnNames = [ColumnsV3]string{
	"sample_time",
	"root_request_id",
	"rpc_request_id",
	"wait_event_component",
	"wait_event_class",
	"wait_event",
	"top_level_node_id",
	"query_id",
	"session_id",
	"client_node_ip",
	"wait_event_aux",
	"sample_weight",
	"wait_event_type",
	"database_id",
}

// ColumnNames returns the names of the first n columns of the table.
func ColumnNames(n int) ([]string, error) {
	if err := checkNumColumns(n); err != nil {
		return nil, err
	}
	return append([]string(nil), columnNames[:n]...), nil
}

func checkNumColumns(n int) error {
	if n < ColumnsV1 || n > ColumnsV3 {
		return pgerror.Newf(pgcode.FeatureNotSupported,
			"active session history cannot produce %d columns; expected between %d and %d",
			n, ColumnsV1, ColumnsV3)
	}
	return nil
}

// RowContainer receives the rows of the active session history table.
type RowContainer interface {
	// NumColumns is the number of columns the container expects.
	NumColumns() int
	// AddRow adds a row. NULLs are nil. The row is reused for the next call
	// and must not be retained.
	AddRow(ctx context.Context, row []interface{}) error
}

// ScanToRows adds a row to rc for every sample in the buffer, oldest
// first. The columns hold:
//
//	sample_time           time.Time
//	root_request_id       uuid.UUID
//	rpc_request_id        int64, NULL for samples of local sessions
//	wait_event_component  string
//	wait_event_class      string
//	wait_event            string
//	top_level_node_id     uuid.UUID
//	query_id              uint64
//	session_id            uint64
//	client_node_ip        string, NULL for sessions without an IP client
//	wait_event_aux        string, NULL if empty
//	sample_weight         float32
//	wait_event_type       string
//	database_id           uint32
//
// The shared buffer lock is held while rows are added.
func (a *ActiveSessionHistory) ScanToRows(ctx context.Context, rc RowContainer) error {
	if a.buffer == nil {
		return ErrNotInitialized
	}
	if rc == nil {
		return pgerror.New(pgcode.FeatureNotSupported,
			"active session history can only be read into a row container")
	}
	numCols := rc.NumColumns()
	if err := checkNumColumns(numCols); err != nil {
		return err
	}
	row := make([]interface{}, numCols)
	return a.buffer.Scan(func(s *Sample) error {
		a.fillRow(s, row)
		return rc.AddRow(ctx, row)
	})
}

func (a *ActiveSessionHistory) fillRow(s *Sample, row []interface{}) {
	md := &s.Metadata
	row[0] = timeutil.FromUnixMicros(s.SampleTime)
	row[1] = md.RootRequestID
	row[2] = nil
	if s.RPCRequestID != 0 {
		row[2] = s.RPCRequestID
	}
	row[3] = a.waitEvents.Component(s.WaitEventCode)
	row[4] = a.waitEvents.Class(s.WaitEventCode)
	row[5] = a.waitEvents.Name(s.WaitEventCode)
	row[6] = s.EndpointID
	row[7] = md.QueryID
	row[8] = md.SessionID
	row[9] = nil
	if addr, ok := formatClientAddr(md); ok {
		row[9] = addr
	}
	row[10] = nil
	if aux := s.AuxInfoString(); aux != "" {
		row[10] = aux
	}
	row[11] = s.SampleWeight
	if len(row) >= ColumnsV2 {
		row[12] = a.waitEvents.Type(s.WaitEventCode)
	}
	if len(row) >= ColumnsV3 {
		row[13] = md.DatabaseID
	}
}

// formatClientAddr formats the client address as "a.b.c.d:port" for IPv4
// and as "[xxxx:xxxx:xxxx:xxxx:xxxx:xxxx:xxxx:xxxx]:port" for IPv6, without
// zero compression. Other families have no address.
func formatClientAddr(md *Metadata) (string, bool) {
	a := &md.ClientAddr
	switch md.AddrFamily {
	case AddrFamilyInet:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a[0], a[1], a[2], a[3], md.ClientPort), true
	case AddrFamilyInet6:
		var b strings.Builder
		b.WriteByte('[')
		for i := 0; i < len(a); i += 2 {
			if i > 0 {
				b.WriteByte(':')
			}
			fmt.Fprintf(&b, "%02x%02x", a[i], a[i+1])
		}
		fmt.Fprintf(&b, "]:%d", md.ClientPort)
		return b.String(), true
	default:
		return "", false
	}
}
