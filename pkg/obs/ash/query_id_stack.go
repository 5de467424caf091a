// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import "github.com/cockroachdb/errors"

// maxNestedQueryLevel is the depth of the query id stack.
const maxNestedQueryLevel = 64

// queryIDStack remembers the query ids that were active before each nested
// statement started, so that they can be restored when it ends. It belongs
// to a single session and needs no locking.
//
// When the stack is full, pushes are counted instead of stored. Each counted
// push is matched by a pop that returns 0, so push and pop calls stay
// paired however deep the nesting goes.
type queryIDStack struct {
	ids       [maxNestedQueryLevel]uint64
	depth     int
	notPushed int
}

// push saves id and returns true, or counts the push and returns false if the
// stack is full.
func (s *queryIDStack) push(id uint64) bool {
	if s.depth < maxNestedQueryLevel {
		s.ids[s.depth] = id
		s.depth++
		return true
	}
	s.notPushed++
	return false
}

// pop returns the most recently pushed id. It returns 0 if the matching push
// was not stored because the stack was full. Popping an empty stack means
// pushes and pops were not paired by the caller.
func (s *queryIDStack) pop() (uint64, error) {
	if s.notPushed > 0 {
		s.notPushed--
		return 0, nil
	}
	if s.depth == 0 {
		return 0, errors.AssertionFailedf("pop from empty query id stack")
	}
	s.depth--
	return s.ids[s.depth], nil
}

// reset empties the stack.
func (s *queryIDStack) reset() {
	s.depth = 0
	s.notPushed = 0
}

func (s *queryIDStack) empty() bool {
	return s.depth == 0 && s.notPushed == 0
}
