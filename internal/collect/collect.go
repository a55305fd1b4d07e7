// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package collect supplies the raw-sample side of the pipeline: small,
// dependency-free procfs readers for the local baremetal host, plus
// (in the kbremote subpackage) a retrying remote sampler for the
// gNMI-speaking subservices. Full collector coverage — VirtualBox,
// routes, wireless, every exotic procfs corner the original reads — is
// out of scope (spec.md §1); this package exists to exercise and
// validate the raw-bucket contract internal/metricupdate's dispatch
// tables depend on, not to reproduce every original collector.
package collect

import "github.com/edeline-labs/assurance-agent/internal/store"

// Sampler reads one source of truth (a procfs file, a remote
// subscription) and writes its current value(s) into the store's raw
// input buckets, in the naming convention internal/metricupdate's
// linuxTable expects ("stat/cpu", "net/dev", "diskstats", "sensors",
// "meminfo"). A Sampler owns exactly one raw bucket's worth of writes.
type Sampler interface {
	Sample(st *store.Store) error
}

// Linux bundles the baremetal procfs samplers behind a single Sample
// call, so the scheduler (or a dedicated collector goroutine) can poll
// the whole local host in one step. A failing individual sampler does
// not prevent the others from running — spec.md §4.1's "a collector's
// own failure degrades only the metrics it owns, not the whole tick."
type Linux struct {
	CPU     *CPUSampler
	Net     *NetSampler
	Disk    *DiskSampler
	Mem     *MemSampler
	Sensors *SensorSampler
}

// NewLinux builds a Linux sampler bundle reading the standard procfs
// and sysfs paths.
func NewLinux() *Linux {
	return &Linux{
		CPU:     &CPUSampler{Path: "/proc/stat"},
		Net:     &NetSampler{Path: "/proc/net/dev"},
		Disk:    &DiskSampler{Path: "/proc/diskstats"},
		Mem:     &MemSampler{Path: "/proc/meminfo"},
		Sensors: &SensorSampler{Root: "/sys/class/hwmon"},
	}
}

// Sample runs every sub-sampler, collecting (not aborting on) errors.
func (l *Linux) Sample(st *store.Store) []error {
	var errs []error
	for _, s := range []Sampler{l.CPU, l.Net, l.Disk, l.Mem, l.Sensors} {
		if err := s.Sample(st); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
