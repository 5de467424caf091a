// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package waitevent

// Taxonomy resolves encoded wait events into their display strings.
// Unknown components, classes and events resolve to "Unknown".
type Taxonomy struct{}

const unknown = "Unknown"

// Component returns the name of the component that published the event.
func (Taxonomy) Component(code uint32) string {
	if name, ok := componentNames[Code(code).Component()]; ok {
		return name
	}
	return unknown
}

// Class returns the name of the event's class.
func (Taxonomy) Class(code uint32) string {
	c := Code(code)
	if name, ok := classNames[c.Component()][c.Class()]; ok {
		return name
	}
	return unknown
}

// Name returns the event's name.
func (Taxonomy) Name(code uint32) string {
	if e, ok := events[Code(code)]; ok {
		return e.Name
	}
	return unknown
}

// Type returns the event's type.
func (Taxonomy) Type(code uint32) string {
	if e, ok := events[Code(code)]; ok {
		return string(e.Type)
	}
	return unknown
}
