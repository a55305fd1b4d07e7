// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package alog adapts the teacher's pkg/log level-gated logger for the
// assurance agent: the same LOGLEVEL-driven io.Writer switches, plus a
// Dedupe helper for the "log once per (rule, node) per tick" rule in
// spec.md §7.
package alog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
)

var (
	DebugPrefix string = "<7>[DEBUG]  "
	InfoPrefix  string = "<6>[INFO]   "
	WarnPrefix  string = "<4>[WARNING]"
	ErrPrefix   string = "<3>[ERROR]  "
)

var (
	debugLog = log.New(DebugWriter, DebugPrefix, 0)
	infoLog  = log.New(InfoWriter, InfoPrefix, 0)
	warnLog  = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	errLog   = log.New(ErrWriter, ErrPrefix, log.Llongfile)
)

// SetLevel gates which levels actually write, mirroring pkg/log's
// SetLogLevel cascade (each level also silences everything quieter).
func SetLevel(lvl string) {
	switch lvl {
	case "err", "fatal":
		WarnWriter = io.Discard
		fallthrough
	case "warn":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
	case "debug":
	default:
		fmt.Fprintf(os.Stderr, "alog: invalid loglevel %q, using debug\n", lvl)
	}
}

func init() {
	if lvl, ok := os.LookupEnv("LOGLEVEL"); ok {
		SetLevel(lvl)
	}
}

func Debug(v ...any) {
	if DebugWriter != io.Discard {
		debugLog.Output(2, fmt.Sprint(v...))
	}
}

func Info(v ...any) {
	if InfoWriter != io.Discard {
		infoLog.Output(2, fmt.Sprint(v...))
	}
}

func Warn(v ...any) {
	if WarnWriter != io.Discard {
		warnLog.Output(2, fmt.Sprint(v...))
	}
}

func Error(v ...any) {
	if ErrWriter != io.Discard {
		errLog.Output(2, fmt.Sprint(v...))
	}
}

func Fatal(v ...any) {
	Error(v...)
	os.Exit(1)
}

func Debugf(format string, v ...any) {
	if DebugWriter != io.Discard {
		debugLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Infof(format string, v ...any) {
	if InfoWriter != io.Discard {
		infoLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Warnf(format string, v ...any) {
	if WarnWriter != io.Discard {
		warnLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Errorf(format string, v ...any) {
	if ErrWriter != io.Discard {
		errLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Fatalf(format string, v ...any) {
	Errorf(format, v...)
	os.Exit(1)
}

// Dedupe rate-limits a recurring warning/error to at most once per
// key per interval — used by the rule evaluator to log a given
// (rule, node) runtime error at most once per input period
// (spec.md §7 "Rule evaluation error").
type Dedupe struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
}

// NewDedupe creates a Dedupe gate with the given minimum interval
// between repeated log lines for the same key.
func NewDedupe(interval time.Duration) *Dedupe {
	return &Dedupe{interval: interval, last: make(map[string]time.Time)}
}

// Allow reports whether a message for key may be logged now, and
// records that it was.
func (d *Dedupe) Allow(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	if last, ok := d.last[key]; ok && now.Sub(last) < d.interval {
		return false
	}
	d.last[key] = now
	return true
}
