// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package promexport exposes the engine's per-tick health snapshot as
// Prometheus metrics. The teacher only ever consumes
// github.com/prometheus/client_golang as a query client
// (internal/metricdata/prometheus.go); this is the first place in the
// repo the library is used for its primary purpose, registering and
// serving gauges/counters via promhttp.
package promexport

import (
	"net/http"
	"time"

	"github.com/edeline-labs/assurance-agent/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter holds one Prometheus registry and the gauges/counters
// derived from the engine's tick output (spec.md §C.1 "severity label
// on the gauge").
type Exporter struct {
	registry *prometheus.Registry

	healthScore      *prometheus.GaugeVec
	positiveSymptoms *prometheus.GaugeVec
	tickDuration     prometheus.Histogram
	ticksTotal       prometheus.Counter
}

// New creates an Exporter with its own registry (not the global
// default one, so tests can spin up multiple Exporters without
// collector-already-registered panics).
func New() *Exporter {
	reg := prometheus.NewRegistry()
	e := &Exporter{
		registry: reg,
		healthScore: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "assurance",
			Name:      "health_score",
			Help:      "Current health score (0-100) of a subservice node.",
		}, []string{"fullname"}),
		positiveSymptoms: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "assurance",
			Name:      "positive_symptoms",
			Help:      "Number of currently positive symptoms for a subservice node, by severity.",
		}, []string{"fullname", "severity"}),
		tickDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "assurance",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one engine tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		ticksTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "assurance",
			Name:      "ticks_total",
			Help:      "Total number of completed engine ticks.",
		}),
	}
	return e
}

// Observe records one tick's result and its wall-clock duration.
// healthScore is reset and repopulated from res.Scores each call, so a
// fullname absent from the new snapshot doesn't linger as a stale
// series; positiveSymptoms is rebuilt the same way, tallied by
// severity across res.Positives.
func (e *Exporter) Observe(res health.Result, dur time.Duration) {
	e.healthScore.Reset()
	for fullname, score := range res.Scores {
		e.healthScore.WithLabelValues(fullname).Set(float64(score))
	}

	e.positiveSymptoms.Reset()
	counts := make(map[[2]string]int)
	for _, sym := range res.Positives {
		for _, arg := range sym.Args {
			key := [2]string{arg, sym.Rule.Severity.String()}
			counts[key]++
		}
	}
	for key, n := range counts {
		e.positiveSymptoms.WithLabelValues(key[0], key[1]).Set(float64(n))
	}

	e.tickDuration.Observe(dur.Seconds())
	e.ticksTotal.Inc()
}

// Handler returns the promhttp handler to mount on the agent's
// metrics listen address.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
