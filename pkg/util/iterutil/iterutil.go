// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package iterutil holds helpers for callback-style iteration.
package iterutil

import "github.com/cockroachdb/errors"

var errStopIteration = errors.New("stop iteration")

// StopIteration returns a sentinel error that indicates stopping the
// iteration. An iteration callback returns it to end the iteration early;
// the iterating function then returns nil.
func StopIteration() error { return errStopIteration }

// Map maps the StopIteration sentinel to nil and leaves other errors alone.
func Map(err error) error {
	if errors.Is(err, errStopIteration) {
		return nil
	}
	return err
}
