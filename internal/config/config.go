// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads the agent's startup configuration, layering
// defaults, an optional JSON config file, and flag overrides the same
// way cmd/cc-backend/main.go layers its own Config: a defaulted struct
// literal, overwritten field-by-field by a decoded JSON file, in turn
// overridable by explicit CLI flags.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/edeline-labs/assurance-agent/internal/health"
)

// Config bundles the agent's fixed startup parameters. Everything the
// engine needs once it's running (catalog, graph updater, tick period)
// is built from these in cmd/assurance-agent/main.go.
type Config struct {
	// Period is the fixed input period P between engine ticks.
	Period time.Duration `json:"period"`

	// ResourcesDir holds metrics.csv and rules.csv.
	ResourcesDir string `json:"resources_dir"`

	// MetricsListen is the Prometheus exporter's listen address.
	MetricsListen string `json:"metrics_listen"`
	// GnmiListen is the gNMI-shaped gRPC server's listen address.
	GnmiListen string `json:"gnmi_listen"`

	// NATS, if non-nil, is the raw JSON handed to pkg/nats.Init for
	// symptom publishing. A nil value disables NATS export entirely.
	NATS json.RawMessage `json:"nats"`
	// NATSSubjectPrefix prefixes every published symptom subject.
	NATSSubjectPrefix string `json:"nats_subject_prefix"`

	// Aggregator selects the dependency-score aggregation method
	// (spec.md §4.8 step 2): "quadratic" (default), "arithmetic",
	// "geometric", "harmonic", "malus".
	Aggregator string `json:"aggregator"`

	// KB lists the remote KB (VPP) instances to poll, if any.
	KB []KBInstance `json:"kb"`

	// LogLevel gates internal/alog's package-level logger.
	LogLevel string `json:"loglevel"`

	// Gops enables github.com/google/gops/agent's runtime
	// introspection listener.
	Gops bool `json:"gops"`
}

// KBInstance names one remote KB (VPP) subservice to poll.
type KBInstance struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	Backoff  time.Duration `json:"backoff"`
}

// Default returns the agent's built-in defaults, the base layer
// overlaid by a config file and then by flags.
func Default() Config {
	return Config{
		Period:            3 * time.Second,
		ResourcesDir:      "./resources",
		MetricsListen:     ":9105",
		GnmiListen:        ":9339",
		NATSSubjectPrefix: "assurance",
		Aggregator:        "quadratic",
		LogLevel:          "info",
	}
}

// Load reads path (if it exists) as a JSON-encoded Config and merges
// its fields into cfg. A missing file is not an error — the agent
// runs on defaults plus flags alone, the same tolerance
// cmd/cc-backend/main.go gives its own -config flag.
func Load(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// ParseAggregator resolves the configured aggregator name to a
// health.Aggregator, defaulting to health.Quadratic for an empty
// string (spec.md §4.8 step 2's default).
func ParseAggregator(name string) (health.Aggregator, error) {
	switch name {
	case "", "quadratic":
		return health.Quadratic, nil
	case "arithmetic":
		return health.Arithmetic, nil
	case "geometric":
		return health.Geometric, nil
	case "harmonic":
		return health.Harmonic, nil
	case "malus":
		return health.Malus, nil
	default:
		return 0, fmt.Errorf("unknown aggregator %q", name)
	}
}
