// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package pgcode

// Code is a wrapper around a string to ensure that pgcodes don't get
// interchanged with other strings.
type Code struct {
	code string
}

// MakeCode converts a string into a Code.
func MakeCode(s string) Code {
	return Code{code: s}
}

// String returns the underlying pg code string.
func (c Code) String() string {
	return c.code
}

// PG error codes from: http://www.postgresql.org/docs/9.5/static/errcodes-appendix.html.
var (
	// Uncategorized is used for errors that flow out to a client
	// when there's no code known yet.
	Uncategorized = MakeCode("XXUUU")

	// Section: Class 0A - Feature Not Supported
	FeatureNotSupported = MakeCode("0A000")

	// Section: Class 22 - Data Exception
	InvalidParameterValue = MakeCode("22023")

	// Section: Class 55 - Object Not In Prerequisite State
	ObjectNotInPrerequisiteState = MakeCode("55000")

	// Section: Class XX - Internal Error
	Internal = MakeCode("XX000")
)
