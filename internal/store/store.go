// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store implements the Metric Store (spec.md §3/§4.2): a
// recursively nested mapping from string keys to either sub-mappings
// or ring buffers. Background collectors populate dedicated
// lock-protected Buckets; the engine's own tick-local bookkeeping uses
// plain Buckets with no locking overhead, since it is the sole reader
// and writer of those paths within a tick (spec.md §5).
package store

import (
	"sync"

	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
)

// MetricsRoot is the top-level bucket name under which normalized,
// rule-addressable per-node metrics live (written by
// internal/metricupdate, read by internal/rules' StoreResolver and
// internal/graph's Updater when pre-allocating a new node's RBs) —
// distinct from the raw per-collector input buckets named after their
// source (e.g. "net/dev", "stat/cpu").
const MetricsRoot = "metrics"

// Bucket is one level of the nested store: either a map of child
// Buckets (a sub-mapping) or a map of ring buffers (a leaf), never
// both at once in well-formed input. Missing paths yield empty RBs,
// not errors (spec.md §4.2).
type Bucket struct {
	children map[string]*Bucket
	leaves   map[string]*ringbuffer.RB

	// locked buckets are written to by background collector workers;
	// engine reads acquire the lock for the duration of a traversal.
	locked bool
	mu     sync.Mutex
}

// NewBucket creates an empty, unlocked bucket.
func NewBucket() *Bucket {
	return &Bucket{children: make(map[string]*Bucket), leaves: make(map[string]*ringbuffer.RB)}
}

// NewLockedBucket creates an empty bucket intended for background
// writers (spec.md §4.2's "acquire/release or a scoped-lock idiom").
func NewLockedBucket() *Bucket {
	b := NewBucket()
	b.locked = true
	return b
}

// Acquire locks the bucket (a no-op for unlocked, tick-local buckets)
// and returns the matching release function, so callers can write
// `defer bucket.Acquire()()`.
func (b *Bucket) Acquire() func() {
	if !b.locked {
		return func() {}
	}
	b.mu.Lock()
	return b.mu.Unlock
}

// Child returns the named sub-bucket, creating it if absent.
func (b *Bucket) Child(name string) *Bucket {
	if c, ok := b.children[name]; ok {
		return c
	}
	c := NewBucket()
	b.children[name] = c
	return c
}

// LookupChild returns the named sub-bucket without creating it.
func (b *Bucket) LookupChild(name string) (*Bucket, bool) {
	c, ok := b.children[name]
	return c, ok
}

// RemoveChild deletes a named sub-bucket (used on hard removal only;
// soft removal never calls this — spec.md §9).
func (b *Bucket) RemoveChild(name string) {
	delete(b.children, name)
}

// ChildNames returns the current set of sub-bucket keys.
func (b *Bucket) ChildNames() []string {
	names := make([]string, 0, len(b.children))
	for k := range b.children {
		names = append(names, k)
	}
	return names
}

// RB returns the named leaf ring buffer, creating an empty one of the
// given kind if absent — lookups of unknown metrics degrade to empty
// RBs rather than errors (spec.md §4.2).
func (b *Bucket) RB(name string, kind ringbuffer.Kind) *ringbuffer.RB {
	if rb, ok := b.leaves[name]; ok {
		return rb
	}
	rb := ringbuffer.New(name, kind, ringbuffer.DefaultCapacity, "", false, false)
	b.leaves[name] = rb
	return rb
}

// SetRB installs a pre-configured ring buffer (e.g. one built from a
// catalog template with a specific unit/counter flag) under name.
func (b *Bucket) SetRB(name string, rb *ringbuffer.RB) {
	b.leaves[name] = rb
}

// LookupRB returns the named leaf ring buffer without creating it.
func (b *Bucket) LookupRB(name string) (*ringbuffer.RB, bool) {
	rb, ok := b.leaves[name]
	return rb, ok
}

// RBNames returns the current set of leaf keys.
func (b *Bucket) RBNames() []string {
	names := make([]string, 0, len(b.leaves))
	for k := range b.leaves {
		names = append(names, k)
	}
	return names
}

// Store is the root of the metric store: one top-level Bucket keyed by
// input-bucket name (e.g. "net/dev", "stat/cpu", "virtualbox/vms").
type Store struct {
	root *Bucket
}

// New creates an empty Store.
func New() *Store {
	return &Store{root: NewBucket()}
}

// Bucket returns (creating if needed) the named top-level input
// bucket. Collectors write samples into these; the GraphUpdater and
// MetricUpdater read them.
func (s *Store) Bucket(name string) *Bucket {
	return s.root.Child(name)
}

// LockedBucket returns (creating as a locked bucket if needed) the
// named top-level input bucket, for collectors that populate it from
// a background goroutine (e.g. remote VPP gNMI subscriptions).
func (s *Store) LockedBucket(name string) *Bucket {
	if c, ok := s.root.LookupChild(name); ok {
		return c
	}
	c := NewLockedBucket()
	s.root.children[name] = c
	return c
}

// LookupBucket returns the named top-level bucket without creating it.
func (s *Store) LookupBucket(name string) (*Bucket, bool) {
	return s.root.LookupChild(name)
}
