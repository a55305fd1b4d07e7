package rules

import (
	"fmt"

	"github.com/edeline-labs/assurance-agent/internal/catalog"
	"github.com/edeline-labs/assurance-agent/internal/metricpath"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// Resolver looks an identifier up against the metric store and
// returns it as an IndexedVariable, per the access() rules of
// spec.md §4.5.
type Resolver interface {
	Access(name string) (*IndexedVar, error)
}

// NodeInfo is the minimal view of a graph node the resolver needs: its
// own instance name, and (for metrics owned by a VM/KB subservice) the
// name of the VM/KB instance that hosts it. Package graph implements
// this without rules importing graph, avoiding an import cycle.
type NodeInfo struct {
	Name         string
	HostInstance string
}

// StoreResolver implements Resolver against the live metric store,
// mirroring the original's access() (spec.md §4.5 "Resolver"): lookups
// are keyed by the *evaluating rule's own path* (not the referenced
// metric's catalog subservice — the same metric name, e.g. idle_time,
// is shared by a bm rule and a vm rule, each resolving it under their
// own path), with VM/KB-owned metrics additionally nested under the
// hosting instance.
type StoreResolver struct {
	Store  *store.Store
	Cat    *catalog.Catalog
	Path   string // the evaluating CompiledRule.Path
	Prefix string // "/node/vm", "/node/kb", or "" for non-hosted subservices
	Node   NodeInfo
}

func (r *StoreResolver) Access(name string) (*IndexedVar, error) {
	m, ok := r.Cat.Metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown identifier %q referenced in rule", name)
	}

	if !m.IsList {
		base := metricpath.Bucket(r.Store, r.Path, r.Node.HostInstance, r.Node.Name)
		if rb, ok := base.LookupRB(name); ok {
			return singleRB(rb), nil
		}
		return singleRB(emptyRB(name, m)), nil
	}

	base := metricpath.Bucket(r.Store, r.Path, r.Node.HostInstance, "")
	pairs := make(map[string]*ringbuffer.RB)
	for _, idx := range base.ChildNames() {
		child, _ := base.LookupChild(idx)
		if rb, ok := child.LookupRB(name); ok {
			key := idx
			if r.Prefix != "" {
				key = r.Node.HostInstance + ":" + idx
			}
			pairs[key] = rb
		}
	}
	return listRB(pairs), nil
}

func emptyRB(name string, m catalog.Metric) *ringbuffer.RB {
	return ringbuffer.New(name, m.Kind, ringbuffer.DefaultCapacity, m.Unit, m.Counter, true)
}
