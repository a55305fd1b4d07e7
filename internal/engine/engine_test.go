package engine

import (
	"testing"
	"time"

	"github.com/edeline-labs/assurance-agent/internal/catalog"
	"github.com/edeline-labs/assurance-agent/internal/graph"
	"github.com/edeline-labs/assurance-agent/internal/health"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.LoadMetrics("../../configs/metrics.csv")
	if err != nil {
		t.Fatalf("LoadMetrics: %v", err)
	}
	if err := cat.LoadRules("../../configs/rules.csv"); err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	return cat
}

func TestEngineTickReconcilesAndEvaluates(t *testing.T) {
	cat := testCatalog(t)

	gu := &graph.Updater{
		CPUKeys: func(st *store.Store, parent *graph.Node) []string {
			return []string{"cpu0"}
		},
	}

	e, err := New(Config{Period: 3 * time.Second, Aggregator: health.Quadratic}, cat, gu)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := e.Tick()
	if _, ok := res.Scores[e.Graph.Root.Fullname()]; !ok {
		t.Fatalf("expected root score in first tick's snapshot")
	}

	cpu0, ok := e.Graph.GetNode("/node/bm/cpus/cpu[name=cpu0]")
	if !ok {
		t.Fatalf("expected cpu0 node to exist after reconciliation")
	}
	if cpu0.HealthScore != 100 {
		t.Fatalf("expected healthy cpu0 before any raw samples, got %d", cpu0.HealthScore)
	}

	stat := e.Store.Bucket("stat/cpu").Child("cpu0")
	for _, f := range []string{"user", "idle"} {
		stat.SetRB(f, ringbuffer.New(f, ringbuffer.KindInt, 60, "jiffies", true, false))
	}
	stat.RB("user", ringbuffer.KindInt).Append(100)
	stat.RB("idle", ringbuffer.KindInt).Append(100)
	stat.RB("user", ringbuffer.KindInt).Append(110)
	stat.RB("idle", ringbuffer.KindInt).Append(101) // idle delta 1 of total 11 -> idle_time ~9.09

	res = e.Tick()
	if cpu0.HealthScore == 100 {
		t.Fatalf("expected cpu_idle_warning to fire once idle_time lands between 5 and 20, got full score")
	}
	found := false
	for _, p := range res.Positives {
		if p.Rule.Name == "cpu_idle_warning" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected cpu_idle_warning among tick's positives, got %v", res.Positives)
	}

	snap := e.Snapshot()
	if snap.Scores[cpu0.Fullname()] != cpu0.HealthScore {
		t.Fatalf("Snapshot() did not reflect latest tick")
	}
}
