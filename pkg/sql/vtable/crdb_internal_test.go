// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package vtable

import (
	"strings"
	"testing"

	"github.com/cockroachdb/ash/pkg/obs/ash"
	"github.com/stretchr/testify/require"
)

// columnsOf extracts the column names of a CREATE TABLE statement with one
// column per line.
func columnsOf(schema string) []string {
	var res []string
	for _, line := range strings.Split(schema, "\n") {
		if !strings.HasPrefix(line, "  ") {
			continue
		}
		res = append(res, strings.Fields(line)[0])
	}
	return res
}

func TestActiveSessionHistorySchemas(t *testing.T) {
	for version, numCols := range map[int]int{1: ash.ColumnsV1, 2: ash.ColumnsV2, 3: ash.ColumnsV3} {
		schema, ok := CrdbInternalActiveSessionHistory(version)
		require.True(t, ok)
		expected, err := ash.ColumnNames(numCols)
		require.NoError(t, err)
		require.Equal(t, expected, columnsOf(schema), "version %d", version)
	}
	_, ok := CrdbInternalActiveSessionHistory(4)
	require.False(t, ok)
}
