// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package stmtredact replaces the constants of a SQL statement with
// numbered placeholders so that statements differing only in their
// literal values share a fingerprint.
package stmtredact

import (
	"strconv"
	"strings"
)

// Redact returns sql with every numeric, string, escape-string, bit-string,
// hex-string and dollar-quoted literal replaced by a placeholder. Placeholders
// are numbered $1, $2, ... in order of appearance; placeholders already
// present in the input take part in the same numbering. Comments, quoted
// identifiers and everything else are copied as is.
//
// The input does not need to be valid SQL. An unterminated literal or
// comment extends to the end of the input.
func Redact(sql string) string {
	s := scanner{in: sql}
	s.out.Grow(len(sql))
	for s.pos < len(s.in) {
		s.next()
	}
	return s.out.String()
}

type scanner struct {
	in  string
	pos int
	out strings.Builder
	n   int
}

func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.in) {
		return s.in[s.pos+off]
	}
	return 0
}

func (s *scanner) placeholder() {
	s.n++
	s.out.WriteByte('$')
	s.out.WriteString(strconv.Itoa(s.n))
}

func (s *scanner) copyTo(end int) {
	s.out.WriteString(s.in[s.pos:end])
	s.pos = end
}

func (s *scanner) next() {
	c := s.in[s.pos]
	switch {
	case c == '-' && s.peek(1) == '-':
		end := strings.IndexByte(s.in[s.pos:], '\n')
		if end < 0 {
			s.copyTo(len(s.in))
		} else {
			s.copyTo(s.pos + end)
		}

	case c == '/' && s.peek(1) == '*':
		s.copyTo(s.skipBlockComment())

	case c == '"':
		s.copyTo(s.skipQuoted(s.pos+1, '"', false))

	case c == '\'':
		s.pos = s.skipQuoted(s.pos+1, '\'', false)
		s.placeholder()

	case c == '$':
		s.dollar()

	case isDigit(c) || (c == '.' && isDigit(s.peek(1))):
		s.pos = s.skipNumber()
		s.placeholder()

	case isIdentStart(c):
		s.identOrPrefixedString()

	default:
		s.out.WriteByte(c)
		s.pos++
	}
}

// identOrPrefixedString handles identifiers and keywords, as well as the
// E'', B'', X'', N'' and U&'' string forms whose prefix looks like the start
// of an identifier.
func (s *scanner) identOrPrefixedString() {
	c := s.in[s.pos]
	switch c {
	case 'e', 'E':
		if s.peek(1) == '\'' {
			s.pos = s.skipQuoted(s.pos+2, '\'', true)
			s.placeholder()
			return
		}
	case 'b', 'B', 'x', 'X', 'n', 'N':
		if s.peek(1) == '\'' {
			s.pos = s.skipQuoted(s.pos+2, '\'', false)
			s.placeholder()
			return
		}
	case 'u', 'U':
		if s.peek(1) == '&' && s.peek(2) == '\'' {
			s.pos = s.skipQuoted(s.pos+3, '\'', false)
			s.placeholder()
			return
		}
	}
	end := s.pos + 1
	for end < len(s.in) && isIdentCont(s.in[end]) {
		end++
	}
	s.copyTo(end)
}

// dollar handles $n placeholders and dollar-quoted strings. A lone '$' is
// copied through.
func (s *scanner) dollar() {
	if isDigit(s.peek(1)) {
		end := s.pos + 1
		for end < len(s.in) && isDigit(s.in[end]) {
			end++
		}
		s.pos = end
		s.placeholder()
		return
	}
	// Dollar-quote tags follow identifier rules but cannot contain '$'.
	end := s.pos + 1
	if end < len(s.in) && isIdentStart(s.in[end]) {
		for end < len(s.in) && isIdentCont(s.in[end]) && s.in[end] != '$' {
			end++
		}
	}
	if end >= len(s.in) || s.in[end] != '$' {
		s.out.WriteByte('$')
		s.pos++
		return
	}
	tag := s.in[s.pos : end+1]
	body := end + 1
	if idx := strings.Index(s.in[body:], tag); idx >= 0 {
		s.pos = body + idx + len(tag)
	} else {
		s.pos = len(s.in)
	}
	s.placeholder()
}

// skipQuoted returns the position right after the closing quote of a literal
// whose body starts at start. A doubled quote is an escaped quote; with
// backslashes set, a backslash escapes the following byte.
func (s *scanner) skipQuoted(start int, quote byte, backslashes bool) int {
	for i := start; i < len(s.in); i++ {
		switch s.in[i] {
		case '\\':
			if backslashes {
				i++
			}
		case quote:
			if i+1 < len(s.in) && s.in[i+1] == quote {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(s.in)
}

// skipBlockComment returns the position after the comment starting at s.pos.
// Block comments nest.
func (s *scanner) skipBlockComment() int {
	depth := 0
	i := s.pos
	for i < len(s.in) {
		switch {
		case s.in[i] == '/' && i+1 < len(s.in) && s.in[i+1] == '*':
			depth++
			i += 2
		case s.in[i] == '*' && i+1 < len(s.in) && s.in[i+1] == '/':
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return len(s.in)
}

func (s *scanner) skipNumber() int {
	i := s.pos
	if s.in[i] == '0' && i+2 < len(s.in) && strings.IndexByte("xXoObB", s.in[i+1]) >= 0 &&
		isHexDigit(s.in[i+2]) {
		i += 2
		for i < len(s.in) && (isHexDigit(s.in[i]) || s.in[i] == '_') {
			i++
		}
		return i
	}
	for i < len(s.in) && (isDigit(s.in[i]) || s.in[i] == '_') {
		i++
	}
	if i < len(s.in) && s.in[i] == '.' && !(i+1 < len(s.in) && s.in[i+1] == '.') {
		i++
		for i < len(s.in) && isDigit(s.in[i]) {
			i++
		}
	}
	if i < len(s.in) && (s.in[i] == 'e' || s.in[i] == 'E') {
		j := i + 1
		if j < len(s.in) && (s.in[j] == '+' || s.in[j] == '-') {
			j++
		}
		if j < len(s.in) && isDigit(s.in[j]) {
			for j < len(s.in) && isDigit(s.in[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}
