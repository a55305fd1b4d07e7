// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package graph implements the Dependency Graph and Graph Updater
// (spec.md §3/§4.6): a tree of subservice nodes carrying per-node
// health state, attached symptoms, and the observed metric sub-slice,
// reconciled against the live metric store every tick.
package graph

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/rules"
)

// Kind tags what a Node represents, per spec.md §3.
type Kind int

const (
	KindNode Kind = iota
	KindBaremetal
	KindVM
	KindKB
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindBaremetal:
		return "bm"
	case KindVM:
		return "vm"
	case KindKB:
		return "kb"
	default:
		return "generic"
	}
}

// Symptom is a compiled rule bound to a specific graph node
// (spec.md §3 "Symptom (instance)").
type Symptom struct {
	Rule      *rules.CompiledRule
	Args      []string
	Timestamp int64 // unix seconds of the last positive evaluation
}

func (s *Symptom) Weight() int { return s.Rule.Severity.Weight() }

// Node is one vertex of the dependency graph.
type Node struct {
	Kind     Kind
	Type     string // short type label, e.g. "cpus", "if", "disk"
	Name     string // optional instance name, e.g. a VM id or interface name

	Parent   *Node
	Children []*Node

	Active    bool
	Impacting bool

	Symptoms        []*Symptom
	HealthScore     int
	PositiveSymptoms []*Symptom

	// Attrs is an opaque per-instance bookkeeping bag (collector
	// housekeeping such as a VirtualBox API property prefix or VPP numa
	// label) that doesn't belong on the core node type — generalizes the
	// original's ad hoc per-collector instance attributes.
	Attrs map[string]string
}

// NewNode creates an active, impacting node with no children yet.
func NewNode(kind Kind, typ, name string) *Node {
	return &Node{
		Kind:        kind,
		Type:        typ,
		Name:        name,
		Active:      true,
		Impacting:   true,
		HealthScore: 100,
		Attrs:       make(map[string]string),
	}
}

// AddChild attaches a child node, bumping the graph's structural
// timestamp.
func (n *Node) AddChild(g *Graph, c *Node) *Node {
	c.Parent = n
	n.Children = append(n.Children, c)
	g.touch()
	return c
}

// Child returns the existing child with the given type/name, or nil.
func (n *Node) Child(typ, name string) *Node {
	for _, c := range n.Children {
		if c.Type == typ && c.Name == name {
			return c
		}
	}
	return nil
}

// Path is the kind-only slash-joined ancestry, e.g. "/node/bm/net/if"
// (spec.md §3).
func (n *Node) Path() string {
	if n.Parent == nil {
		return "/" + n.Type
	}
	return n.Parent.Path() + "/" + n.Type
}

// Fullname is the key-qualified ancestry, e.g.
// "/node[name=host]/vm[name=vm1]/net/if[name=eth0]" (spec.md §3).
func (n *Node) Fullname() string {
	seg := "/" + n.Type
	if n.Name != "" {
		seg = fmt.Sprintf("/%s[name=%s]", n.Type, n.Name)
	}
	if n.Parent == nil {
		return seg
	}
	return n.Parent.Fullname() + seg
}

// HostInstance walks up to the nearest VM or KB ancestor (inclusive of
// n itself) and returns its instance name — the lookup key
// rules.StoreResolver needs for metrics owned by a hosted subservice.
func (n *Node) HostInstance() string {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Kind == KindVM || cur.Kind == KindKB {
			return cur.Name
		}
	}
	return ""
}

// NodeInfo adapts n to rules.NodeInfo for rule evaluation.
func (n *Node) NodeInfo() rules.NodeInfo {
	return rules.NodeInfo{Name: n.Name, HostInstance: n.HostInstance()}
}

// Severity picks the highest-weight severity among the node's current
// positive symptoms, Green if none.
func (n *Node) Severity() ringbuffer.Severity {
	sev := ringbuffer.Green
	for _, s := range n.PositiveSymptoms {
		if s.Rule.Severity.Weight() > sev.Weight() {
			sev = s.Rule.Severity
		}
	}
	return sev
}

// Graph is the rooted node tree plus its structural-edit timestamp
// (spec.md §3 "dependency_graph_changed").
type Graph struct {
	Root      *Node
	changedAt int64
}

// New creates a Graph whose root is the static "/node" vertex
// (spec.md §3 Lifecycle: "the root ... created at startup and never
// destroyed").
func New() *Graph {
	return &Graph{Root: NewNode(KindNode, "node", "")}
}

func (g *Graph) touch() { atomic.AddInt64(&g.changedAt, 1) }

// ChangedAt returns the graph's monotonic structural-edit counter.
func (g *Graph) ChangedAt() int64 { return atomic.LoadInt64(&g.changedAt) }

// GetNode resolves a fullname path like
// "/node/bm/net/if[name=eth0]" by parsing each segment into
// (type, optional name) and descending matching children
// (spec.md §4.6 "Node lookup is path-based").
func (g *Graph) GetNode(fullname string) (*Node, bool) {
	segs := strings.Split(strings.Trim(fullname, "/"), "/")
	if len(segs) == 0 {
		return nil, false
	}
	cur := g.Root
	// first segment names the root itself ("node"); verify and skip it.
	typ0, name0 := parseSegment(segs[0])
	if typ0 != cur.Type || (name0 != "" && name0 != cur.Name) {
		return nil, false
	}
	for _, seg := range segs[1:] {
		typ, name := parseSegment(seg)
		next := cur.Child(typ, name)
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func parseSegment(seg string) (typ, name string) {
	i := strings.Index(seg, "[name=")
	if i < 0 {
		return seg, ""
	}
	typ = seg[:i]
	rest := seg[i+len("[name="):]
	name = strings.TrimSuffix(rest, "]")
	return typ, name
}
