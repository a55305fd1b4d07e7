package health

import (
	"testing"

	"github.com/edeline-labs/assurance-agent/internal/catalog"
	"github.com/edeline-labs/assurance-agent/internal/graph"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/rules"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

func TestQuadraticMeanPropagation(t *testing.T) {
	if got := aggregate(Quadratic, []int{100, 100, 50}); got != 87 {
		t.Fatalf("quadratic mean of {100,100,50} = %d, want 87", got)
	}
}

func TestEmptyDependencyListYields100(t *testing.T) {
	for _, agg := range []Aggregator{Quadratic, Arithmetic, Geometric, Harmonic, Malus} {
		if got := aggregate(agg, nil); got != 100 {
			t.Fatalf("aggregator %d on empty deps = %d, want 100", agg, got)
		}
	}
}

func TestPropagateHealthyLeafIsFullScore(t *testing.T) {
	g := graph.New()
	bm := g.Root.AddChild(g, graph.NewNode(graph.KindBaremetal, "bm", ""))
	cpus := bm.AddChild(g, graph.NewNode(graph.KindGeneric, "cpus", ""))
	cpus.AddChild(g, graph.NewNode(graph.KindGeneric, "cpu", "cpu0"))

	st := store.New()
	p := NewPropagator(st, &catalog.Catalog{Metrics: map[string]catalog.Metric{}}, nil, 1, Quadratic)
	res := p.Propagate(g.Root)

	if res.Scores[g.Root.Fullname()] != 100 {
		t.Fatalf("expected healthy root score 100, got %d", res.Scores[g.Root.Fullname()])
	}
	if len(res.Positives) != 0 {
		t.Fatalf("expected no positive symptoms, got %v", res.Positives)
	}
}

func TestPropagateAppliesSymptomWeight(t *testing.T) {
	cat := &catalog.Catalog{
		Metrics: map[string]catalog.Metric{
			"idle_time": {Name: "idle_time", Subservice: "/node/bm/cpus/cpu", Kind: ringbuffer.KindFloat},
		},
	}
	compiled, err := rules.Compile(cat, catalog.Rule{
		Name:       "cpu_idle",
		Path:       "/node/bm/cpus/cpu",
		Severity:   ringbuffer.Red,
		Expression: "idle_time < 10",
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	g := graph.New()
	bm := g.Root.AddChild(g, graph.NewNode(graph.KindBaremetal, "bm", ""))
	cpus := bm.AddChild(g, graph.NewNode(graph.KindGeneric, "cpus", ""))
	cpu0 := cpus.AddChild(g, graph.NewNode(graph.KindGeneric, "cpu", "cpu0"))

	st := store.New()
	st.Bucket(store.MetricsRoot).Child("/node/bm/cpus/cpu").Child("cpu0").RB("idle_time", ringbuffer.KindFloat).Append(5.0)

	p := NewPropagator(st, cat, []*rules.CompiledRule{compiled}, 1, Quadratic)
	res := p.Propagate(g.Root)

	if cpu0.HealthScore != 100-ringbuffer.Red.Weight() {
		t.Fatalf("cpu0 score = %d, want %d", cpu0.HealthScore, 100-ringbuffer.Red.Weight())
	}
	if len(res.Positives) != 1 || res.Positives[0].Rule.Name != "cpu_idle" {
		t.Fatalf("expected cpu_idle symptom to be positive, got %v", res.Positives)
	}
	if len(cpu0.PositiveSymptoms[0].Args) != 1 || cpu0.PositiveSymptoms[0].Args[0] != cpu0.Fullname() {
		t.Fatalf("unexpected symptom args: %v", cpu0.PositiveSymptoms[0].Args)
	}
}
