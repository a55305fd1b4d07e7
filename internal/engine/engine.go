// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package engine ties ring buffer, store, catalog, rules, graph,
// metricupdate and health together into the per-tick Health Engine
// (spec.md §2 "control flow per tick"): collectors refresh the store,
// the Graph Updater reshapes the tree, the Metric Updater copies raw
// samples into metric RBs, and the Symptom Evaluator evaluates and
// propagates — mirroring the original's HealthEngine.update_health.
package engine

import (
	"sync"
	"time"

	"github.com/edeline-labs/assurance-agent/internal/alog"
	"github.com/edeline-labs/assurance-agent/internal/catalog"
	"github.com/edeline-labs/assurance-agent/internal/graph"
	"github.com/edeline-labs/assurance-agent/internal/health"
	"github.com/edeline-labs/assurance-agent/internal/metricupdate"
	"github.com/edeline-labs/assurance-agent/internal/rules"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// Config bundles the engine's fixed, tick-independent parameters.
type Config struct {
	Period     time.Duration // input period P, default ~3s (spec.md §5)
	Aggregator health.Aggregator
}

// Engine owns the live graph, store and compiled rule set, and runs
// one reconciliation/evaluation pass per Tick call. It is driven by
// package scheduler's gocron job; Tick itself never blocks on I/O
// (spec.md §5 "the engine tick itself never performs blocking I/O").
type Engine struct {
	Store *store.Store
	Graph *graph.Graph

	cat      *catalog.Catalog
	compiled []*rules.CompiledRule

	graphUpdater   *graph.Updater
	metricUpdater  *metricupdate.Updater
	propagator     *health.Propagator
	samplesPerMin  int

	mu     sync.RWMutex
	latest health.Result
}

// New builds an Engine from an already-loaded catalog and a
// configured Graph Updater (whose KeySource closures the caller wires
// to concrete collectors — spec.md §4.6 "never consults an external
// configuration for membership").
func New(cfg Config, cat *catalog.Catalog, gu *graph.Updater) (*Engine, error) {
	compiled := make([]*rules.CompiledRule, 0, len(cat.Rules))
	for _, r := range cat.Rules {
		cr, err := rules.Compile(cat, r)
		if err != nil {
			alog.Warnf("engine: skipping rule %q: %v", r.Name, err)
			continue
		}
		compiled = append(compiled, cr)
	}

	samplesPerMin := samplesPerMinute(cfg.Period)
	st := store.New()
	g := graph.New()
	gu.Catalog = cat

	return &Engine{
		Store:         st,
		Graph:         g,
		cat:           cat,
		compiled:      compiled,
		graphUpdater:  gu,
		metricUpdater: metricupdate.NewLinuxUpdater(),
		propagator:    health.NewPropagator(st, cat, compiled, samplesPerMin, cfg.Aggregator),
		samplesPerMin: samplesPerMin,
	}, nil
}

func samplesPerMinute(period time.Duration) int {
	if period <= 0 {
		return 1
	}
	n := int(time.Minute / period)
	if n < 1 {
		n = 1
	}
	return n
}

// Tick performs one full engine pass: graph reconciliation, metric
// normalization, symptom evaluation and score propagation, and stores
// the result for concurrent readers (promexport, gnmiserver, export).
func (e *Engine) Tick() health.Result {
	e.graphUpdater.Update(e.Graph, e.Store)
	e.metricUpdater.Update(e.Store, e.Graph.Root)
	res := e.propagator.Propagate(e.Graph.Root)

	e.mu.Lock()
	e.latest = res
	e.mu.Unlock()

	return res
}

// Snapshot returns the most recently published tick result
// (spec.md §6 "the root node's returned map is published as the
// tick's authoritative health snapshot").
func (e *Engine) Snapshot() health.Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}

// Compiled exposes the compiled rule set, for consumers (e.g.
// gnmiserver) that need to resolve a symptom ID back to its rule.
func (e *Engine) Compiled() []*rules.CompiledRule {
	return e.compiled
}
