// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package export is the engine's message-bus facing export surface
// (spec.md §6): each tick's positive symptoms are published to NATS as
// line-protocol points, one per symptom, on a per-node subject; the
// full scored tree is additionally mirrored into a flat, lock-guarded
// projection for cheap synchronous reads (a debug HTTP handler, a
// future CLI) that don't want to round-trip through the bus.
package export

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	influx "github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/edeline-labs/assurance-agent/internal/alog"
	"github.com/edeline-labs/assurance-agent/internal/health"
	"github.com/edeline-labs/assurance-agent/pkg/nats"
)

// Publisher publishes one tick's positive symptoms to NATS.
type Publisher struct {
	client  *nats.Client
	subject string // format string with one %s verb for the node's fullname
}

// NewPublisher wraps an already-connected NATS client. subjectPrefix is
// prepended to each per-node subject, e.g. "assurance" yields subjects
// like "assurance./node/bm/cpus/cpu[name=cpu0].symptoms" (the fullname
// keeps its slashes; see sanitizeSubject).
func NewPublisher(client *nats.Client, subjectPrefix string) *Publisher {
	return &Publisher{client: client, subject: subjectPrefix + ".%s.symptoms"}
}

// Publish encodes each positive symptom in res as a line-protocol point
// (measurement "symptom", tagged by rule name and severity, with the
// matched node fullname as its one field and the symptom's timestamp as
// the point time), one point per matched node, and publishes it on the
// subject derived from that node's fullname. Encoding errors for one
// symptom are logged and skipped rather than aborting the whole tick's
// publish pass, matching the catalog loader's skip-on-error discipline.
func (p *Publisher) Publish(res health.Result) {
	if p.client == nil {
		return
	}
	for _, sym := range res.Positives {
		for _, fullname := range sym.Args {
			var buf bytes.Buffer
			enc := influx.NewEncoder(&buf)
			enc.SetPrecision(influx.Nanosecond)
			pt := nats.Point{
				Measurement: "symptom",
				Tags: map[string]string{
					"rule":     sym.Rule.Name,
					"severity": sym.Rule.Severity.String(),
				},
				Fields: map[string]interface{}{
					"node": fullname,
				},
				Time: time.Unix(sym.Timestamp, 0),
			}
			if err := nats.EncodePoint(enc, pt); err != nil {
				alog.Warnf("export: encoding symptom %q for %q: %v", sym.Rule.Name, fullname, err)
				continue
			}
			subject := fmt.Sprintf(p.subject, sanitizeSubject(fullname))
			if err := p.client.Publish(subject, buf.Bytes()); err != nil {
				alog.Warnf("export: publishing to %q: %v", subject, err)
			}
		}
	}
}

// sanitizeSubject replaces NATS subject-delimiting characters ('.',
// '*', '>', ' ') in a fullname with '_' so a node's bracketed instance names
// can't accidentally carve out subscription wildcards.
func sanitizeSubject(fullname string) string {
	out := make([]byte, len(fullname))
	for i := 0; i < len(fullname); i++ {
		switch fullname[i] {
		case '.', '*', '>', ' ':
			out[i] = '_'
		default:
			out[i] = fullname[i]
		}
	}
	return string(out)
}

// Mirror is a flat, concurrency-safe projection of the latest tick's
// scores and positive symptoms, keyed by node fullname — a shared-
// memory read path for consumers that want the current snapshot
// without publishing through a broker or scraping an HTTP endpoint.
type Mirror struct {
	mu       sync.RWMutex
	scores   map[string]int
	symptoms map[string][]string // fullname -> rule names currently positive
}

// NewMirror creates an empty Mirror.
func NewMirror() *Mirror {
	return &Mirror{scores: map[string]int{}, symptoms: map[string][]string{}}
}

// Update replaces the mirror's contents with res, atomically from a
// reader's perspective.
func (m *Mirror) Update(res health.Result) {
	scores := make(map[string]int, len(res.Scores))
	for k, v := range res.Scores {
		scores[k] = v
	}
	symptoms := make(map[string][]string, len(res.Positives))
	for _, sym := range res.Positives {
		for _, fullname := range sym.Args {
			symptoms[fullname] = append(symptoms[fullname], sym.Rule.Name)
		}
	}

	m.mu.Lock()
	m.scores = scores
	m.symptoms = symptoms
	m.mu.Unlock()
}

// Score returns the health score for fullname and whether it was present.
func (m *Mirror) Score(fullname string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scores[fullname]
	return s, ok
}

// Symptoms returns the currently positive rule names for fullname.
func (m *Mirror) Symptoms(fullname string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.symptoms[fullname]...)
}

// Snapshot returns a defensive copy of the whole flat scores map.
func (m *Mirror) Snapshot() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.scores))
	for k, v := range m.scores {
		out[k] = v
	}
	return out
}
