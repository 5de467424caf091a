// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package stmtredact

import (
	"testing"

	"github.com/cockroachdb/datadriven"
)

func TestRedact(t *testing.T) {
	datadriven.RunTest(t, "testdata/redact", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "redact":
			return Redact(d.Input)
		default:
			t.Fatalf("unknown command %s", d.Cmd)
			return ""
		}
	})
}
