// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package waitevent defines the wait-event taxonomy recorded by active
// session history. A wait event is published by a session as an opaque
// 32-bit code; names are only resolved when samples are read.
//
// Code layout:
//
//	 31      28 27      24 23      16 15                 0
//	+----------+----------+----------+--------------------+
//	| component|  class   | reserved |      event id      |
//	+----------+----------+----------+--------------------+
//
// Class numbers are scoped to their component.
package waitevent

import "fmt"

// Code is an encoded wait event.
type Code uint32

// Component is the layer of the system that published a wait event.
type Component uint8

const (
	// ComponentSQL is the SQL execution layer.
	ComponentSQL Component = iota
	// ComponentStorage is the storage node serving KV requests.
	ComponentStorage
)

// Class groups related wait events within a component.
type Class uint8

// SQL classes.
const (
	ClassSQLCPU Class = iota
	ClassSQLClient
	ClassSQLRPC
	ClassSQLIO
	ClassSQLLWLock
	ClassSQLLock
	ClassSQLTimeout
	ClassSQLIPC
)

// Storage classes.
const (
	ClassStorageCommon Class = iota
	ClassStorageConsensus
	ClassStorageTabletWait
	ClassStorageEngine
)

// Type is the coarse resource a wait event is spending time on.
type Type string

// Wait event types.
const (
	TypeCPU             Type = "Cpu"
	TypeDiskIO          Type = "DiskIO"
	TypeNetwork         Type = "Network"
	TypeLock            Type = "Lock"
	TypeWaitOnCondition Type = "WaitOnCondition"
	TypeTimeout         Type = "Timeout"
	TypeClient          Type = "Client"
)

// Encode packs a component, class and event id into a Code.
func Encode(component Component, class Class, event uint16) Code {
	return Code(uint32(component&0xf)<<28 | uint32(class&0xf)<<24 | uint32(event))
}

// Component returns the component bits of the code.
func (c Code) Component() Component {
	return Component(c >> 28)
}

// Class returns the class bits of the code.
func (c Code) Class() Class {
	return Class((c >> 24) & 0xf)
}

// EventID returns the event bits of the code.
func (c Code) EventID() uint16 {
	return uint16(c)
}

func (c Code) String() string {
	if e, ok := events[c]; ok {
		return e.Name
	}
	return fmt.Sprintf("wait event %#08x", uint32(c))
}

// Event describes a single wait event.
type Event struct {
	Code Code
	Name string
	Type Type
}

func ev(component Component, class Class, id uint16, name string, typ Type) Event {
	return Event{Code: Encode(component, class, id), Name: name, Type: typ}
}

// Well-known wait events. QueryProcessing encodes to 0, so a session that
// never published a wait event is reported as running on CPU.
var (
	QueryProcessing  = ev(ComponentSQL, ClassSQLCPU, 0, "QueryProcessing", TypeCPU)
	ClientRead       = ev(ComponentSQL, ClassSQLClient, 0, "ClientRead", TypeClient)
	ClientWrite      = ev(ComponentSQL, ClassSQLClient, 1, "ClientWrite", TypeNetwork)
	StorageRead      = ev(ComponentSQL, ClassSQLRPC, 0, "StorageRead", TypeNetwork)
	StorageWrite     = ev(ComponentSQL, ClassSQLRPC, 1, "StorageWrite", TypeNetwork)
	StorageFlush     = ev(ComponentSQL, ClassSQLRPC, 2, "StorageFlush", TypeNetwork)
	CatalogRead      = ev(ComponentSQL, ClassSQLRPC, 3, "CatalogRead", TypeNetwork)
	DataFileRead     = ev(ComponentSQL, ClassSQLIO, 0, "DataFileRead", TypeDiskIO)
	DataFileWrite    = ev(ComponentSQL, ClassSQLIO, 1, "DataFileWrite", TypeDiskIO)
	BufferMapping    = ev(ComponentSQL, ClassSQLLWLock, 0, "BufferMapping", TypeLock)
	RelationLock     = ev(ComponentSQL, ClassSQLLock, 0, "Relation", TypeLock)
	TxnIDLock        = ev(ComponentSQL, ClassSQLLock, 1, "TransactionId", TypeLock)
	PgSleep          = ev(ComponentSQL, ClassSQLTimeout, 0, "PgSleep", TypeTimeout)
	BgWorkerShutdown = ev(ComponentSQL, ClassSQLIPC, 0, "BgWorkerShutdown", TypeWaitOnCondition)

	OnCPUActive          = ev(ComponentStorage, ClassStorageCommon, 0, "OnCpu_Active", TypeCPU)
	OnCPUPassive         = ev(ComponentStorage, ClassStorageCommon, 1, "OnCpu_Passive", TypeCPU)
	RaftWaitReplication  = ev(ComponentStorage, ClassStorageConsensus, 0, "Raft_WaitingForReplication", TypeNetwork)
	RaftApplyingEdits    = ev(ComponentStorage, ClassStorageConsensus, 1, "Raft_ApplyingEdits", TypeCPU)
	WALAppend            = ev(ComponentStorage, ClassStorageConsensus, 2, "WAL_Append", TypeDiskIO)
	WALSync              = ev(ComponentStorage, ClassStorageConsensus, 3, "WAL_Sync", TypeDiskIO)
	LockedBatchEntryLock = ev(ComponentStorage, ClassStorageTabletWait, 0, "LockedBatchEntry_Lock", TypeLock)
	ConflictResolution   = ev(ComponentStorage, ClassStorageTabletWait, 1, "ConflictResolution_WaitOnConflictingTxns", TypeLock)
	EngineRead           = ev(ComponentStorage, ClassStorageEngine, 0, "Engine_Read", TypeDiskIO)
	EngineFlush          = ev(ComponentStorage, ClassStorageEngine, 1, "Engine_Flush", TypeDiskIO)
	EngineCompaction     = ev(ComponentStorage, ClassStorageEngine, 2, "Engine_Compaction", TypeDiskIO)
)

var componentNames = map[Component]string{
	ComponentSQL:     "SQL",
	ComponentStorage: "Storage",
}

var classNames = map[Component]map[Class]string{
	ComponentSQL: {
		ClassSQLCPU:     "Cpu",
		ClassSQLClient:  "Client",
		ClassSQLRPC:     "Rpc",
		ClassSQLIO:      "IO",
		ClassSQLLWLock:  "LWLock",
		ClassSQLLock:    "Lock",
		ClassSQLTimeout: "Timeout",
		ClassSQLIPC:     "IPC",
	},
	ComponentStorage: {
		ClassStorageCommon:     "Common",
		ClassStorageConsensus:  "Consensus",
		ClassStorageTabletWait: "TabletWait",
		ClassStorageEngine:     "StorageEngine",
	},
}

var events = func() map[Code]Event {
	m := map[Code]Event{}
	for _, e := range []Event{
		QueryProcessing, ClientRead, ClientWrite, StorageRead, StorageWrite,
		StorageFlush, CatalogRead, DataFileRead, DataFileWrite, BufferMapping,
		RelationLock, TxnIDLock, PgSleep, BgWorkerShutdown,
		OnCPUActive, OnCPUPassive, RaftWaitReplication, RaftApplyingEdits,
		WALAppend, WALSync, LockedBatchEntryLock, ConflictResolution,
		EngineRead, EngineFlush, EngineCompaction,
	} {
		if _, ok := m[e.Code]; ok {
			panic(fmt.Sprintf("duplicate wait event code %#08x (%s)", uint32(e.Code), e.Name))
		}
		m[e.Code] = e
	}
	return m
}()

// All returns every known wait event.
func All() []Event {
	res := make([]Event, 0, len(events))
	for _, e := range events {
		res = append(res, e)
	}
	return res
}

// Lookup returns the event registered under code.
func Lookup(code Code) (Event, bool) {
	e, ok := events[code]
	return e, ok
}

// IsIgnorable returns true for wait events that are not worth sampling.
// ClientRead is published by every idle session waiting for its next
// statement and would otherwise fill the buffer.
func IsIgnorable(code Code) bool {
	switch code {
	case ClientRead.Code:
		return true
	default:
		return false
	}
}
