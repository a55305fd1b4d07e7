package graph

import (
	"testing"

	"github.com/edeline-labs/assurance-agent/internal/catalog"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

func TestPathAndFullname(t *testing.T) {
	g := New()
	bm := g.Root.AddChild(g, NewNode(KindBaremetal, "bm", ""))
	cpus := bm.AddChild(g, NewNode(KindGeneric, "cpus", ""))
	cpu0 := cpus.AddChild(g, NewNode(KindGeneric, "cpu", "cpu0"))

	if got, want := cpu0.Path(), "/node/bm/cpus/cpu"; got != want {
		t.Fatalf("Path() = %q, want %q", got, want)
	}
	if got, want := cpu0.Fullname(), "/node/bm/cpus/cpu[name=cpu0]"; got != want {
		t.Fatalf("Fullname() = %q, want %q", got, want)
	}
}

func TestGetNodeRoundTrip(t *testing.T) {
	g := New()
	bm := g.Root.AddChild(g, NewNode(KindBaremetal, "bm", ""))
	net := bm.AddChild(g, NewNode(KindGeneric, "net", ""))
	net.AddChild(g, NewNode(KindGeneric, "if", "eth0"))

	n, ok := g.GetNode("/node/bm/net/if[name=eth0]")
	if !ok {
		t.Fatalf("GetNode failed to resolve existing path")
	}
	if n.Fullname() != "/node/bm/net/if[name=eth0]" {
		t.Fatalf("resolved wrong node: %s", n.Fullname())
	}
	if _, ok := g.GetNode("/node/bm/net/if[name=eth9]"); ok {
		t.Fatalf("expected lookup of unknown instance to fail")
	}
}

func TestUpdaterAddsAndSoftRemoves(t *testing.T) {
	cat := &catalog.Catalog{
		Metrics: map[string]catalog.Metric{
			"idle_time": {Name: "idle_time", Subservice: "/node/bm/cpus/cpu", Kind: ringbuffer.KindFloat},
		},
		BySubservice: map[string][]string{"/node/bm/cpus/cpu": {"idle_time"}},
	}
	st := store.New()
	cpuKeys := []string{"cpu0", "cpu1"}
	u := &Updater{
		Catalog: cat,
		CPUKeys: func(st *store.Store, parent *Node) []string { return cpuKeys },
	}
	g := New()
	u.Update(g, st)

	bm, ok := g.GetNode("/node/bm")
	if !ok {
		t.Fatalf("expected baremetal node to exist")
	}
	cpus := bm.Child("cpus", "")
	if cpus == nil {
		t.Fatalf("expected cpus node")
	}
	if len(cpus.Children) != 2 {
		t.Fatalf("expected 2 cpu children, got %d", len(cpus.Children))
	}

	rb, ok := st.Bucket(store.MetricsRoot).Child("/node/bm/cpus/cpu").Child("cpu0").LookupRB("idle_time")
	if !ok || rb.Kind() != ringbuffer.KindFloat {
		t.Fatalf("expected idle_time RB pre-allocated for cpu0")
	}

	cpuKeys = []string{"cpu0"}
	u.Update(g, st)
	for _, c := range cpus.Children {
		if c.Name == "cpu1" && c.Active {
			t.Fatalf("expected cpu1 to be soft-removed (inactive), still active")
		}
		if c.Name == "cpu0" && !c.Active {
			t.Fatalf("expected cpu0 to remain active")
		}
	}
	if len(cpus.Children) != 2 {
		t.Fatalf("soft removal must not delete the child: got %d children", len(cpus.Children))
	}
}
