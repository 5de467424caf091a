// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/ash/pkg/sql/stmtredact"
)

// lexerWhitespace is the set of bytes the SQL lexer treats as whitespace.
// It intentionally differs from unicode.IsSpace: vertical tab is not
// included.
const lexerWhitespace = " \t\n\r\f"

// ComputeQueryID returns the query id of a statement that was not assigned
// one by the planner, chiefly utility statements.
//
// The statement is text[offset:offset+length]; a length of 0 or less means
// the rest of the text, and a negative offset means that the location of
// the statement is unknown, in which case the whole text is used and length
// is ignored. The statement is trimmed of lexer whitespace and its literals
// are replaced with placeholders before hashing, so that executions of the
// same statement with different constants share an id.
func ComputeQueryID(text string, length, offset int) uint64 {
	stmt := text
	if offset >= 0 {
		if offset > len(stmt) {
			offset = len(stmt)
		}
		stmt = stmt[offset:]
		if length > 0 && length < len(stmt) {
			stmt = stmt[:length]
		}
	}
	stmt = strings.Trim(stmt, lexerWhitespace)
	return xxhash.Sum64String(stmtredact.Redact(stmt))
}
