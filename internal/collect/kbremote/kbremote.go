// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package kbremote polls a remote KB (VPP) instance's gNMI-shaped
// telemetry surface into the local store's "vpp/cpu" and "vpp/if"
// buckets. The real VPP gNMI wire protocol is out of scope (spec.md
// §1); this package is the retry/backoff shape a concrete subscriber
// would sit behind, with the actual sample fetch left to an injectable
// Dialer so it's exercisable without a live VPP instance.
package kbremote

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/edeline-labs/assurance-agent/internal/alog"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// Sample is one polled reading from a remote KB instance: per-cpu
// jiffy-shaped counters and per-interface byte/drop counters, keyed
// the same way internal/metricupdate's copyCPU/copyNetIf expect.
type Sample struct {
	CPU map[string]map[string]int64 // cpu label -> field -> value
	Net map[string]map[string]int64 // interface name -> field -> value
}

// Dialer fetches one Sample from a remote KB instance. Implementations
// wrap whatever gNMI client library a real deployment uses; this
// package only owns the polling/retry loop around it.
type Dialer interface {
	Fetch(ctx context.Context) (Sample, error)
}

// Poller retries Dialer.Fetch on a fixed interval, backing off via a
// token-bucket limiter when Fetch errors — a persistently unreachable
// KB instance degrades to a slow retry cadence instead of a hot loop,
// while a healthy one polls at its configured rate.
type Poller struct {
	Dialer   Dialer
	Instance string // the KB instance name this poller writes under

	limiter  *rate.Limiter
	dedupe   *alog.Dedupe
	interval time.Duration
	backoff  time.Duration
}

// NewPoller creates a Poller that normally fetches at 1/interval and
// backs off to at most 1 attempt per backoff duration after an error;
// repeated fetch-failure log lines for the same instance are logged at
// most once per backoff window.
func NewPoller(d Dialer, instance string, interval, backoff time.Duration) *Poller {
	return &Poller{
		Dialer:   d,
		Instance: instance,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		dedupe:   alog.NewDedupe(backoff),
		interval: interval,
		backoff:  backoff,
	}
}

// Run polls until ctx is cancelled, writing each successful Sample
// into st. A failed fetch does not advance any ring buffer — the
// metric updater sees a stale-but-present last value, matching
// spec.md §4.1's per-collector failure isolation.
func (p *Poller) Run(ctx context.Context, st *store.Store) {
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return // ctx cancelled
		}
		sample, err := p.Dialer.Fetch(ctx)
		if err != nil {
			if p.dedupe.Allow(p.Instance) {
				alog.Warnf("kbremote: %s: fetch failed: %v", p.Instance, err)
			}
			if p.backoff > 0 {
				p.limiter.SetLimit(rate.Every(p.backoff))
			}
			continue
		}
		p.limiter.SetLimit(rate.Every(p.interval))
		p.write(st, sample)
	}
}

func (p *Poller) write(st *store.Store, s Sample) {
	cpuRoot := st.LockedBucket("vpp/cpu")
	release := cpuRoot.Acquire()
	for cpuLabel, fields := range s.CPU {
		cpu := cpuRoot.Child(cpuLabel)
		for name, v := range fields {
			cpu.RB(name, ringbuffer.KindInt).Append(v)
		}
	}
	release()

	netRoot := st.LockedBucket("vpp/if")
	release = netRoot.Acquire()
	for ifName, fields := range s.Net {
		ifc := netRoot.Child(ifName)
		for name, v := range fields {
			ifc.RB(name, ringbuffer.KindInt).Append(v)
		}
	}
	release()
}
