// Copyright 2023 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package vtable

// CrdbInternalActiveSessionHistoryV1 describes the schema of the original
// crdb_internal.active_session_history table.
var CrdbInternalActiveSessionHistoryV1 = `
CREATE TABLE crdb_internal.active_session_history (
  sample_time          TIMESTAMPTZ NOT NULL,
  root_request_id      UUID NOT NULL,
  rpc_request_id       INT8,
  wait_event_component STRING NOT NULL,
  wait_event_class     STRING NOT NULL,
  wait_event           STRING NOT NULL,
  top_level_node_id    UUID NOT NULL,
  query_id             INT8 NOT NULL,
  session_id           INT8 NOT NULL,
  client_node_ip       STRING,
  wait_event_aux       STRING,
  sample_weight        FLOAT4 NOT NULL
)`

// CrdbInternalActiveSessionHistoryV2 adds the wait event type.
var CrdbInternalActiveSessionHistoryV2 = `
CREATE TABLE crdb_internal.active_session_history (
  sample_time          TIMESTAMPTZ NOT NULL,
  root_request_id      UUID NOT NULL,
  rpc_request_id       INT8,
  wait_event_component STRING NOT NULL,
  wait_event_class     STRING NOT NULL,
  wait_event           STRING NOT NULL,
  top_level_node_id    UUID NOT NULL,
  query_id             INT8 NOT NULL,
  session_id           INT8 NOT NULL,
  client_node_ip       STRING,
  wait_event_aux       STRING,
  sample_weight        FLOAT4 NOT NULL,
  wait_event_type      STRING NOT NULL
)`

// CrdbInternalActiveSessionHistoryV3 adds the database id.
var CrdbInternalActiveSessionHistoryV3 = `
CREATE TABLE crdb_internal.active_session_history (
  sample_time          TIMESTAMPTZ NOT NULL,
  root_request_id      UUID NOT NULL,
  rpc_request_id       INT8,
  wait_event_component STRING NOT NULL,
  wait_event_class     STRING NOT NULL,
  wait_event           STRING NOT NULL,
  top_level_node_id    UUID NOT NULL,
  query_id             INT8 NOT NULL,
  session_id           INT8 NOT NULL,
  client_node_ip       STRING,
  wait_event_aux       STRING,
  sample_weight        FLOAT4 NOT NULL,
  wait_event_type      STRING NOT NULL,
  database_id          OID NOT NULL
)`

// CrdbInternalActiveSessionHistory returns the schema of the given version
// of crdb_internal.active_session_history, starting at 1.
func CrdbInternalActiveSessionHistory(version int) (string, bool) {
	switch version {
	case 1:
		return CrdbInternalActiveSessionHistoryV1, true
	case 2:
		return CrdbInternalActiveSessionHistoryV2, true
	case 3:
		return CrdbInternalActiveSessionHistoryV3, true
	default:
		return "", false
	}
}
