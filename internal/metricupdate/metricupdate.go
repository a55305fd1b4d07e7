// Package metricupdate implements the Metric Updater (spec.md §4.7):
// for each active node, an (hostOS, node.path) dispatch table copies a
// raw input sub-slice into the node's catalog-declared metric RBs,
// applying unit normalization (bytes→kB, jiffies→ms, counters→
// percentages by ratio of deltas). The mapping is exhaustive over the
// declared subservice set for a supported OS; a path with no entry in
// the OS's table is a no-op.
package metricupdate

import (
	"github.com/edeline-labs/assurance-agent/internal/graph"
	"github.com/edeline-labs/assurance-agent/internal/metricpath"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// CopyFunc copies and normalizes one active node's raw samples into
// its metric bucket (dst, already resolved via metricpath.Bucket so
// individual copy routines don't repeat the host-prefix lookup).
type CopyFunc func(st *store.Store, n *graph.Node, dst *store.Bucket)

// Table is a node.Path() -> CopyFunc dispatch for one host OS.
type Table map[string]CopyFunc

// Updater walks the dependency graph top-down, invoking the matching
// copy routine for each active node's path and skipping inactive
// subtrees entirely — their metric RBs stop advancing while retaining
// history (spec.md §4.7).
type Updater struct {
	HostOS string
	Tables map[string]Table
}

// NewLinuxUpdater builds an Updater with the built-in linux dispatch
// table (see linux.go). Other OSes have no table, so Update becomes a
// pure no-op on them — matching "missing entries for other OSes are
// no-ops".
func NewLinuxUpdater() *Updater {
	return &Updater{HostOS: "linux", Tables: map[string]Table{"linux": linuxTable()}}
}

// Update performs one top-down copy pass starting at root.
func (u *Updater) Update(st *store.Store, root *graph.Node) {
	u.visit(st, root, u.Tables[u.HostOS])
}

func (u *Updater) visit(st *store.Store, n *graph.Node, table Table) {
	if !n.Active {
		return
	}
	if table != nil {
		if fn, ok := table[n.Path()]; ok {
			dst := metricpath.Bucket(st, n.Path(), n.HostInstance(), n.Name)
			fn(st, n, dst)
		}
	}
	for _, c := range n.Children {
		u.visit(st, c, table)
	}
}
