// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"github.com/cockroachdb/ash/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/ash/pkg/sql/pgwire/pgerror"
)

// ErrNotInitialized is returned by every operation on a buffer that was not
// allocated because obs.ash.infra.enabled was off at startup.
var ErrNotInitialized = pgerror.New(pgcode.ObjectNotInPrerequisiteState,
	"active session history is not initialized: obs.ash.infra.enabled must be set at startup")
