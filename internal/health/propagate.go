package health

import (
	"time"

	"github.com/edeline-labs/assurance-agent/internal/alog"
	"github.com/edeline-labs/assurance-agent/internal/catalog"
	"github.com/edeline-labs/assurance-agent/internal/graph"
	"github.com/edeline-labs/assurance-agent/internal/rules"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// Propagator evaluates symptoms and propagates health scores over a
// Graph each tick (spec.md §4.8).
type Propagator struct {
	Store            *store.Store
	Cat              *catalog.Catalog
	SamplesPerMinute int
	Aggregator       Aggregator

	// errDedupe gates repeated "rule evaluation error" log lines to at
	// most one per (rule, node) per input period (spec.md §7).
	errDedupe *alog.Dedupe

	byPath map[string][]*rules.CompiledRule
}

// NewPropagator groups compiled rules by their attachment path so
// attachSymptoms can look up a node's rule set in O(1).
func NewPropagator(st *store.Store, cat *catalog.Catalog, compiled []*rules.CompiledRule, samplesPerMinute int, agg Aggregator) *Propagator {
	byPath := make(map[string][]*rules.CompiledRule)
	for _, r := range compiled {
		byPath[r.Path] = append(byPath[r.Path], r)
	}
	return &Propagator{
		Store:            st,
		Cat:              cat,
		SamplesPerMinute: samplesPerMinute,
		Aggregator:       agg,
		errDedupe:        alog.NewDedupe(samplesPeriod(samplesPerMinute)),
		byPath:           byPath,
	}
}

func samplesPeriod(samplesPerMinute int) time.Duration {
	if samplesPerMinute <= 0 {
		return time.Minute
	}
	return time.Minute / time.Duration(samplesPerMinute)
}

// Result is the tick-wide output of one Propagate pass (spec.md §4.8
// step 4 / §6 "tick's authoritative health snapshot").
type Result struct {
	Scores    map[string]int // fullname -> healthScore
	Positives []*graph.Symptom
}

// Propagate runs the bottom-up evaluator/propagator starting at root,
// publishing root's returned map as the tick's snapshot (spec.md §4.8).
func (p *Propagator) Propagate(root *graph.Node) Result {
	scores := make(map[string]int)
	positives := p.visit(root, scores)
	return Result{Scores: scores, Positives: positives}
}

func (p *Propagator) visit(n *graph.Node, scores map[string]int) []*graph.Symptom {
	p.attachSymptoms(n)

	var all []*graph.Symptom
	var depScores []int
	for _, c := range n.Children {
		all = append(all, p.visit(c, scores)...)
		if c.Active && c.Impacting {
			depScores = append(depScores, c.HealthScore)
		}
	}

	base := aggregate(p.Aggregator, depScores)

	var positives []*graph.Symptom
	score := base
	for _, sym := range n.Symptoms {
		matched, ok := p.evaluate(n, sym)
		if !ok {
			continue
		}
		if matched {
			sym.Timestamp = time.Now().Unix()
			positives = append(positives, sym)
			score = clamp(score - sym.Weight())
		}
	}

	n.HealthScore = score
	n.PositiveSymptoms = positives
	scores[n.Fullname()] = score

	return append(all, positives...)
}

// attachSymptoms instantiates this node's Symptom set once, from the
// subset of compiled rules whose path matches this node's path
// (spec.md §3 "instantiated once from the subset of catalog rules
// whose path matches this node's path").
func (p *Propagator) attachSymptoms(n *graph.Node) {
	if n.Symptoms != nil {
		return
	}
	rs := p.byPath[n.Path()]
	n.Symptoms = make([]*graph.Symptom, 0, len(rs))
	for _, r := range rs {
		n.Symptoms = append(n.Symptoms, &graph.Symptom{Rule: r})
	}
}

// evaluate runs one symptom's compiled rule against the current store,
// filling in Args (matched fullnames) on a positive result. ok is
// false on an evaluation error (logged at most once per rule/node per
// input period, per spec.md §7), which excludes the symptom from this
// tick without tearing down the engine.
func (p *Propagator) evaluate(n *graph.Node, sym *graph.Symptom) (matched, ok bool) {
	resolver := &rules.StoreResolver{
		Store:  p.Store,
		Cat:    p.Cat,
		Path:   sym.Rule.Path,
		Prefix: sym.Rule.Prefix(),
		Node:   n.NodeInfo(),
	}

	v, err := sym.Rule.Eval(resolver, p.SamplesPerMinute)
	if err != nil {
		if p.errDedupe.Allow(sym.Rule.Name + "@" + n.Fullname()) {
			alog.Warnf("health: rule %q on %s: %v", sym.Rule.Name, n.Fullname(), err)
		}
		return false, false
	}

	if !rules.Passed(v) {
		sym.Args = nil
		return false, true
	}
	sym.Args = matchedArgs(n, v)
	return true, true
}

// matchedArgs builds the symptom's matched fullnames: the node's own
// fullname plus the matched index key for list-indexed results
// (spec.md §4.5 "the evaluator records the matched fullnames").
func matchedArgs(n *graph.Node, v rules.Value) []string {
	indexes := rules.MatchedIndexes(v)
	if len(indexes) == 0 {
		return []string{n.Fullname()}
	}
	args := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		args = append(args, n.Fullname()+"[name="+idx+"]")
	}
	return args
}
