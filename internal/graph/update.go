package graph

import (
	"github.com/edeline-labs/assurance-agent/internal/catalog"
	"github.com/edeline-labs/assurance-agent/internal/metricpath"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// KeySource reports the current instance keys observed under some raw
// input bucket (e.g. VM names from "virtualbox/vms", interface names
// from "net/dev"). The Updater is driven exclusively by these —
// spec.md §4.6 "never consults an external configuration for
// membership". Collectors (package collect) populate the buckets these
// close over; the Non-goals exclude real kernel/hypervisor parsing, so
// the concrete sources live in package collect, not here.
type KeySource func(st *store.Store) []string

// ChildKeySource reports the current instance keys for a per-parent
// indexed subservice (cpus, interfaces, disks, sensors), given the
// parent node whose subtree they belong to.
type ChildKeySource func(st *store.Store, parent *Node) []string

// Updater reconciles the dependency graph against the live store every
// tick (spec.md §4.6). Each field is optional; a nil source means that
// subservice is not populated on this platform/run (e.g. no KB
// instances configured).
type Updater struct {
	Catalog *catalog.Catalog

	VMKeys     KeySource
	KBKeys     KeySource
	CPUKeys    ChildKeySource
	IfKeys     ChildKeySource
	DiskKeys   ChildKeySource
	SensorKeys ChildKeySource
}

// Update performs one reconciliation pass: add newly observed
// instances, soft-remove vanished ones, and for additions, allocate
// the per-node metric RBs from the catalog template.
func (u *Updater) Update(g *Graph, st *store.Store) {
	bm := ensureChild(g, g.Root, KindBaremetal, "bm", "")
	u.reconcileStatic(g, st, bm)

	if u.VMKeys != nil {
		u.reconcileInstances(g, st, g.Root, KindVM, "vm", u.VMKeys(st), func(vm *Node) {
			u.reconcileStatic(g, st, vm)
		})
	}
	if u.KBKeys != nil {
		u.reconcileInstances(g, st, g.Root, KindKB, "kb", u.KBKeys(st), func(kb *Node) {
			u.reconcileStatic(g, st, kb)
		})
	}
}

// reconcileStatic reconciles the per-parent indexed children (cpus,
// net/if, disks, sensors) of one baremetal/vm/kb parent.
func (u *Updater) reconcileStatic(g *Graph, st *store.Store, parent *Node) {
	if u.CPUKeys != nil {
		cpus := ensureChild(g, parent, KindGeneric, "cpus", "")
		u.reconcileLeaves(g, st, cpus, "cpu", u.CPUKeys(st, parent))
	}
	if u.IfKeys != nil {
		net := ensureChild(g, parent, KindGeneric, "net", "")
		u.reconcileLeaves(g, st, net, "if", u.IfKeys(st, parent))
	}
	if u.DiskKeys != nil {
		disks := ensureChild(g, parent, KindGeneric, "disks", "")
		u.reconcileLeaves(g, st, disks, "disk", u.DiskKeys(st, parent))
	}
	if u.SensorKeys != nil {
		sensors := ensureChild(g, parent, KindGeneric, "sensors", "")
		u.reconcileLeaves(g, st, sensors, "sensor", u.SensorKeys(st, parent))
	}
}

func ensureChild(g *Graph, parent *Node, kind Kind, typ, name string) *Node {
	if c := parent.Child(typ, name); c != nil {
		return c
	}
	return parent.AddChild(g, NewNode(kind, typ, name))
}

// reconcileInstances adds/soft-removes instance-named children of
// parent directly (used for VM/KB instances, which hang off the root).
func (u *Updater) reconcileInstances(g *Graph, st *store.Store, parent *Node, kind Kind, typ string, keys []string, onAdd func(*Node)) {
	want := toSet(keys)
	for _, c := range parent.Children {
		if c.Type != typ {
			continue
		}
		c.Active = want[c.Name]
	}
	for _, key := range keys {
		if c := parent.Child(typ, key); c == nil {
			child := parent.AddChild(g, NewNode(kind, typ, key))
			onAdd(child)
		}
	}
}

// reconcileLeaves adds/soft-removes per-instance leaf children (cpu,
// if, disk, sensor) of an indexed-subservice parent
// (cpus/net/disks/sensors), allocating RBs for new ones.
func (u *Updater) reconcileLeaves(g *Graph, st *store.Store, parent *Node, typ string, keys []string) {
	want := toSet(keys)
	for _, c := range parent.Children {
		c.Active = want[c.Name]
	}
	for _, key := range keys {
		if c := parent.Child(typ, key); c == nil {
			child := parent.AddChild(g, NewNode(KindGeneric, typ, key))
			u.allocateRBs(st, child)
		}
	}
}

func toSet(keys []string) map[string]bool {
	s := make(map[string]bool, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}

// allocateRBs pre-creates node's metric RBs from the catalog template
// for its path (spec.md §4.6 "allocate the per-child metric RB
// dictionary from the catalog template"), so rule evaluation sees
// correctly-typed empty RBs even before the first collector write. The
// bucket layout mirrors rules.StoreResolver.Access: VM/KB-hosted
// subservices nest under the hosting instance first.
func (u *Updater) allocateRBs(st *store.Store, n *Node) {
	if u.Catalog == nil {
		return
	}
	path := n.Path()
	names, ok := u.Catalog.BySubservice[path]
	if !ok {
		return
	}
	base := metricpath.Bucket(st, path, n.HostInstance(), n.Name)
	for _, name := range names {
		m := u.Catalog.Metrics[name]
		base.SetRB(name, ringbuffer.New(name, m.Kind, ringbuffer.DefaultCapacity, m.Unit, m.Counter, true))
	}
}
