// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ringbuffer provides the bounded time-series slot (RB) the
// health engine stores every raw and normalized sample in.
package ringbuffer

import "strings"

// Kind is the scalar type a RingBuffer is declared to hold.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Severity is the three-level indicator used both for instantaneous
// sample severity and for the health-score penalty catalogs attach to
// rules.
type Severity int

const (
	Green Severity = iota
	Orange
	Red
)

// Weight returns the health-score malus associated with s.
func (s Severity) Weight() int {
	switch s {
	case Orange:
		return 10
	case Red:
		return 50
	default:
		return 0
	}
}

func (s Severity) String() string {
	switch s {
	case Orange:
		return "orange"
	case Red:
		return "red"
	default:
		return "green"
	}
}

// ParseSeverity parses a case-insensitive severity name. Unrecognized
// names report false so catalog loading can skip the row.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "green":
		return Green, true
	case "orange":
		return Orange, true
	case "red":
		return Red, true
	default:
		return 0, false
	}
}
