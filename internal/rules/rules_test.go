package rules

import (
	"testing"

	"github.com/edeline-labs/assurance-agent/internal/catalog"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Metrics: map[string]catalog.Metric{
			"idle_time": {Name: "idle_time", Subservice: "/node/bm/cpus/cpu", Kind: ringbuffer.KindFloat},
			"rx_drop":   {Name: "rx_drop", Subservice: "/node/bm/net/if", Kind: ringbuffer.KindInt, IsList: true, Counter: true},
		},
	}
}

func TestCompileRejectsUnknownIdentifier(t *testing.T) {
	cat := testCatalog()
	_, err := Compile(cat, catalog.Rule{Name: "bogus", Path: "/node/bm/cpus/cpu", Expression: "not_a_metric < 10"})
	if err == nil {
		t.Fatalf("expected compile error for unknown identifier")
	}
}

func TestCompileRejectsDisallowedCall(t *testing.T) {
	cat := testCatalog()
	_, err := Compile(cat, catalog.Rule{Name: "bogus", Path: "/node/bm/cpus/cpu", Expression: "idle_time(1) < 10"})
	if err == nil {
		t.Fatalf("expected compile error for disallowed call")
	}
}

func TestEvalScalarRuleWithWindow(t *testing.T) {
	cat := testCatalog()
	st := store.New()
	rb := st.Bucket("metrics").Child("/node/bm/cpus/cpu").Child("cpu0").RB("idle_time", ringbuffer.KindFloat)
	for i := 0; i < 5; i++ {
		rb.Append(5.0)
	}

	rule, err := Compile(cat, catalog.Rule{
		Name:       "cpu_idle",
		Path:       "/node/bm/cpus/cpu",
		Severity:   ringbuffer.Red,
		Expression: "idle_time < 10 and 1min(idle_time) < 10",
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	resolver := &StoreResolver{Store: st, Cat: cat, Path: rule.Path, Node: NodeInfo{Name: "cpu0"}}
	v, err := rule.Eval(resolver, 3)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !Passed(v) {
		t.Fatalf("expected rule to pass, got %+v", v)
	}
}

func TestEvalInsufficientSamplesIsNoMatch(t *testing.T) {
	cat := testCatalog()
	st := store.New()
	rb := st.Bucket("metrics").Child("/node/bm/cpus/cpu").Child("cpu0").RB("idle_time", ringbuffer.KindFloat)
	rb.Append(5.0) // only one sample, 1min() needs 3

	rule, err := Compile(cat, catalog.Rule{
		Name:       "cpu_idle",
		Path:       "/node/bm/cpus/cpu",
		Expression: "1min(idle_time) < 10",
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	resolver := &StoreResolver{Store: st, Cat: cat, Path: rule.Path, Node: NodeInfo{Name: "cpu0"}}
	v, err := rule.Eval(resolver, 3)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if Passed(v) {
		t.Fatalf("expected no match on insufficient samples")
	}
}

func TestEvalListRuleMatchesSubsetOfIndexes(t *testing.T) {
	cat := testCatalog()
	st := store.New()
	ifs := st.Bucket("metrics").Child("/node/bm/net/if")
	ifs.Child("eth0").RB("rx_drop", ringbuffer.KindInt).Append(50)
	ifs.Child("eth1").RB("rx_drop", ringbuffer.KindInt).Append(1)

	rule, err := Compile(cat, catalog.Rule{
		Name:       "drops",
		Path:       "/node/bm/net/if",
		Expression: "rx_drop > 10",
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	resolver := &StoreResolver{Store: st, Cat: cat, Path: rule.Path, Node: NodeInfo{Name: "eth0"}}
	v, err := rule.Eval(resolver, 1)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	got := MatchedIndexes(v)
	if len(got) != 1 || got[0] != "eth0" {
		t.Fatalf("expected only eth0 to match, got %v", got)
	}
}

func TestParenthesesAndArithPrecedence(t *testing.T) {
	root, err := parseRule("(idle_time + 2) * 3 < 100")
	if err != nil {
		t.Fatalf("parseRule: %v", err)
	}
	if _, ok := root.(*compareNode); !ok {
		t.Fatalf("expected top-level compareNode, got %T", root)
	}
}

func TestNotOperator(t *testing.T) {
	cat := testCatalog()
	st := store.New()
	st.Bucket("metrics").Child("/node/bm/cpus/cpu").Child("cpu0").RB("idle_time", ringbuffer.KindFloat).Append(50.0)

	rule, err := Compile(cat, catalog.Rule{Name: "x", Path: "/node/bm/cpus/cpu", Expression: "not idle_time < 10"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	resolver := &StoreResolver{Store: st, Cat: cat, Path: rule.Path, Node: NodeInfo{Name: "cpu0"}}
	v, err := rule.Eval(resolver, 1)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !Passed(v) {
		t.Fatalf("expected 'not idle_time < 10' to pass when idle_time=50")
	}
}
