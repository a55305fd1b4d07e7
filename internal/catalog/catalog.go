// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package catalog loads the metric and rule catalogs (spec.md §4.3,
// §6) from the two headered CSV resources `metrics.csv` and
// `rules.csv`. Catalog errors (malformed rows, unknown severities) are
// non-fatal: the row is skipped and logged (spec.md §7).
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/edeline-labs/assurance-agent/internal/alog"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
)

// Metric describes one entry of metrics.csv: (name, owning subservice
// path, scalar kind, unit, list-ness, counter flag).
type Metric struct {
	Name       string
	Subservice string
	Kind       ringbuffer.Kind
	Unit       string
	IsList     bool
	Counter    bool
}

// Rule describes one raw entry of rules.csv, before compilation.
type Rule struct {
	Name       string
	Path       string
	Severity   ringbuffer.Severity
	Expression string
}

// Catalog is the loaded, uncompiled metric/rule universe. Rule
// compilation (spec.md §4.4) happens one layer up, in package rules,
// which is handed this Catalog to resolve identifiers against.
type Catalog struct {
	Metrics map[string]Metric
	// BySubservice groups metric names by their owning subservice path,
	// used to build RB-initialization templates (spec.md §4.3).
	BySubservice map[string][]string
	Rules        []Rule
}

func kindOf(s string) (ringbuffer.Kind, error) {
	switch s {
	case "int":
		return ringbuffer.KindInt, nil
	case "float":
		return ringbuffer.KindFloat, nil
	case "string", "str":
		return ringbuffer.KindString, nil
	default:
		return 0, fmt.Errorf("unknown metric type %q", s)
	}
}

// LoadMetrics parses a metrics.csv with columns
// name, subservice, type, unit, is_list, counter.
func LoadMetrics(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadMetrics(f)
}

func loadMetrics(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading metrics.csv header: %w", err)
	}
	idx := indexOf(header)

	cat := &Catalog{
		Metrics:      make(map[string]Metric),
		BySubservice: make(map[string][]string),
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			alog.Warnf("catalog: malformed metrics.csv row: %v", err)
			continue
		}
		m, ok := parseMetricRow(idx, row)
		if !ok {
			continue
		}
		cat.Metrics[m.Name] = m
		cat.BySubservice[m.Subservice] = append(cat.BySubservice[m.Subservice], m.Name)
	}
	return cat, nil
}

func parseMetricRow(idx map[string]int, row []string) (Metric, bool) {
	get := func(col string) string {
		if i, ok := idx[col]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}
	name := get("name")
	if name == "" {
		alog.Warn("catalog: metrics.csv row missing name, skipping")
		return Metric{}, false
	}
	kind, err := kindOf(get("type"))
	if err != nil {
		alog.Warnf("catalog: metrics.csv row %q: %v, skipping", name, err)
		return Metric{}, false
	}
	isList := get("is_list") == "1" || get("is_list") == "true"
	counter := get("counter") == "1" || get("counter") == "true"
	return Metric{
		Name:       name,
		Subservice: get("subservice"),
		Kind:       kind,
		Unit:       get("unit"),
		IsList:     isList,
		Counter:    counter,
	}, true
}

// LoadRules parses a rules.csv with columns name, path, severity, rule
// into this Catalog. Per spec.md §9 ("load metrics before rules"),
// callers must call LoadMetrics before LoadRules so unknown-identifier
// validation (done by package rules, not here) has a complete metric
// universe to check against.
func (c *Catalog) LoadRules(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.loadRules(f)
}

func (c *Catalog) loadRules(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading rules.csv header: %w", err)
	}
	idx := indexOf(header)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			alog.Warnf("catalog: malformed rules.csv row: %v", err)
			continue
		}
		get := func(col string) string {
			if i, ok := idx[col]; ok && i < len(row) {
				return row[i]
			}
			return ""
		}
		name, path, rule := get("name"), get("path"), get("rule")
		sev, ok := ringbuffer.ParseSeverity(get("severity"))
		if !ok {
			alog.Warnf("catalog: invalid rule severity %q for rule %q, skipping", get("severity"), name)
			continue
		}
		c.Rules = append(c.Rules, Rule{Name: name, Path: path, Severity: sev, Expression: rule})
	}
	return nil
}

func indexOf(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

// RingBufferCapacity is exposed for collectors/tests that need to
// pre-size an RB template the way metricupdate does.
func RingBufferCapacity() int { return ringbuffer.DefaultCapacity }
