package rules

import (
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
)

// entry is one member of an IndexedVariable: either a direct reference
// to a metric's ring buffer (kept so window modifiers can resample it),
// or a derived scalar produced by an arithmetic sub-expression, which
// has no history of its own (spec.md §4.5 — window modifiers only
// apply to direct metric references; see DESIGN.md).
type entry struct {
	index   string
	rb      *ringbuffer.RB
	derived bool
	num     float64
}

// IndexedVar is the runtime value of the Indexed-Variable Algebra
// (spec.md §4.5): a set of (index, sample-source) pairs that
// comparisons and boolean/arithmetic operators manipulate while
// preserving index-set semantics. A non-list IndexedVar always holds
// exactly one entry and collapses comparisons to a plain boolean.
type IndexedVar struct {
	list    bool
	entries []entry
}

func singleRB(rb *ringbuffer.RB) *IndexedVar {
	return &IndexedVar{list: false, entries: []entry{{rb: rb}}}
}

func listRB(pairs map[string]*ringbuffer.RB) *IndexedVar {
	v := &IndexedVar{list: true}
	for idx, rb := range pairs {
		v.entries = append(v.entries, entry{index: idx, rb: rb})
	}
	return v
}

func (v *IndexedVar) indexes() []string {
	out := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		out = append(out, e.index)
	}
	return out
}

// kind identifies the shape of an expression's intermediate result.
type kind int

const (
	kindBool kind = iota
	kindNumber
	kindString
	kindIndexed
)

// Value is the tagged-union result of evaluating any expr node.
// Count/Dynamic are the window-modifier state attached by 1min/5min/
// dynamicity() calls, consumed the next time an indexed Value is
// compared (spec.md §4.1/§4.4).
type Value struct {
	Kind    kind
	Bool    bool
	Num     float64
	Str     string
	Idx     *IndexedVar
	Count   int
	Dynamic bool
}

func numberValue(n float64) Value { return Value{Kind: kindNumber, Num: n} }
func stringValue(s string) Value  { return Value{Kind: kindString, Str: s} }
func boolValue(b bool) Value      { return Value{Kind: kindBool, Bool: b} }

func indexedValue(idx *IndexedVar) Value {
	return Value{Kind: kindIndexed, Idx: idx, Count: 1, Dynamic: false}
}

// truthy collapses any Value to a plain boolean, used when a boolean
// operator's operand isn't a matched index set (spec.md §4.5: "a
// non-list indexed variable collapses to a boolean").
func (v Value) truthy() bool {
	switch v.Kind {
	case kindBool:
		return v.Bool
	case kindNumber:
		return v.Num != 0
	case kindString:
		return v.Str != ""
	case kindIndexed:
		return v.Idx != nil && len(v.Idx.entries) > 0
	}
	return false
}

func (v Value) asNumber() (float64, bool) {
	switch v.Kind {
	case kindNumber:
		return v.Num, true
	case kindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// sample resolves one entry to the numeric value the current window
// modifiers (count/dynamicity) select, per spec.md §4.1. ok is false
// when the window has insufficient samples and the entry should be
// excluded from the match set rather than compared.
func sampleEntry(e entry, count int, dynamic bool) (float64, bool) {
	if e.derived {
		return e.num, true
	}
	if e.rb == nil {
		return 0, false
	}
	if dynamic {
		return e.rb.Dynamicity(count)
	}
	if count <= 1 {
		return e.rb.Top().FloatValue(), !e.rb.IsEmpty()
	}
	vals, ok := e.rb.Tops(count)
	if !ok || len(vals) == 0 {
		return 0, false
	}
	var sum float64
	for _, val := range vals {
		sum += val.FloatValue()
	}
	return sum / float64(len(vals)), true
}

// compare evaluates `lhs <op> rhs` for every entry of an indexed lhs,
// keeping only entries whose window satisfies the comparison
// (spec.md §4.1 "holds for every sample in the window", §4.5 index-set
// semantics). A non-list indexed lhs collapses directly to a boolean.
func compareIndexed(idx *IndexedVar, op string, rhsNum float64, rhsStr string, rhsIsString bool, count int, dynamic bool) Value {
	if !idx.list {
		e := idx.entries[0]
		ok := evalCompareEntry(e, op, rhsNum, rhsStr, rhsIsString, count, dynamic)
		return boolValue(ok)
	}
	var kept []entry
	for _, e := range idx.entries {
		if evalCompareEntry(e, op, rhsNum, rhsStr, rhsIsString, count, dynamic) {
			kept = append(kept, e)
		}
	}
	return indexedValue(&IndexedVar{list: true, entries: kept})
}

func evalCompareEntry(e entry, op string, rhsNum float64, rhsStr string, rhsIsString bool, count int, dynamic bool) bool {
	if rhsIsString {
		if e.rb == nil || e.rb.IsEmpty() {
			return false
		}
		return compareStr(e.rb.Top().StringValue(), op, rhsStr)
	}
	if !dynamic && count > 1 && !e.derived && e.rb != nil {
		vals, ok := e.rb.Tops(count)
		if !ok || len(vals) == 0 {
			return false
		}
		for _, val := range vals {
			if !compareNum(val.FloatValue(), op, rhsNum) {
				return false
			}
		}
		return true
	}
	v, ok := sampleEntry(e, count, dynamic)
	if !ok {
		return false
	}
	return compareNum(v, op, rhsNum)
}

func compareNum(a float64, op string, b float64) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case "==":
		return a == b
	case "!=":
		return a != b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}

func compareStr(a string, op string, b string) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	}
	return false
}

// boolOp implements `and`/`or`. When both sides are list-indexed it
// preserves index-set semantics (intersection for and, union for or);
// otherwise it falls back to plain boolean logic over the truthy
// collapse of each side (spec.md §4.5).
func boolOp(op string, l, r Value) Value {
	if l.Kind == kindIndexed && r.Kind == kindIndexed && l.Idx.list && r.Idx.list {
		if op == "and" {
			return indexedValue(intersect(l.Idx, r.Idx))
		}
		return indexedValue(union(l.Idx, r.Idx))
	}
	lt, rt := l.truthy(), r.truthy()
	if op == "and" {
		return boolValue(lt && rt)
	}
	return boolValue(lt || rt)
}

func intersect(a, b *IndexedVar) *IndexedVar {
	have := make(map[string]bool, len(b.entries))
	for _, e := range b.entries {
		have[e.index] = true
	}
	out := &IndexedVar{list: true}
	for _, e := range a.entries {
		if have[e.index] {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

func union(a, b *IndexedVar) *IndexedVar {
	out := &IndexedVar{list: true}
	seen := make(map[string]bool)
	for _, e := range a.entries {
		out.entries = append(out.entries, e)
		seen[e.index] = true
	}
	for _, e := range b.entries {
		if !seen[e.index] {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// arith implements +, -, *, /, // between two Values. Indexed operands
// combine pointwise by index (inner join on list-list; broadcast for
// list-scalar); the result entries are derived (no further window
// resampling, per the entry doc comment above). A non-list operand with
// no sample yields a non-list indexed result with no ring buffer behind
// it, which matches no comparison.
func arith(op string, l, r Value) (Value, error) {
	if l.Kind != kindIndexed && r.Kind != kindIndexed {
		ln, _ := l.asNumber()
		rn, _ := r.asNumber()
		return numberValue(applyOp(op, ln, rn)), nil
	}
	if l.Kind == kindIndexed && r.Kind == kindIndexed {
		if l.Idx.list && r.Idx.list {
			rmap := make(map[string]entry, len(r.Idx.entries))
			for _, e := range r.Idx.entries {
				rmap[e.index] = e
			}
			out := &IndexedVar{list: true}
			for _, le := range l.Idx.entries {
				re, ok := rmap[le.index]
				if !ok {
					continue
				}
				lv, lok := sampleEntry(le, 1, false)
				rv, rok := sampleEntry(re, 1, false)
				if !lok || !rok {
					continue
				}
				out.entries = append(out.entries, entry{index: le.index, derived: true, num: applyOp(op, lv, rv)})
			}
			return indexedValue(out), nil
		}
		lv, lok := sampleEntry(l.Idx.entries[0], 1, false)
		rv, rok := sampleEntry(r.Idx.entries[0], 1, false)
		if !lok || !rok {
			return indexedValue(singleRB(nil)), nil
		}
		return numberValue(applyOp(op, lv, rv)), nil
	}
	// exactly one side indexed: broadcast the scalar across every entry
	idxSide, scalarSide := l, r
	scalarIsLeft := false
	if r.Kind == kindIndexed {
		idxSide, scalarSide = r, l
		scalarIsLeft = true
	}
	scalarNum, _ := scalarSide.asNumber()
	if !idxSide.Idx.list {
		v, ok := sampleEntry(idxSide.Idx.entries[0], 1, false)
		if !ok {
			return indexedValue(singleRB(nil)), nil
		}
		if scalarIsLeft {
			return numberValue(applyOp(op, scalarNum, v)), nil
		}
		return numberValue(applyOp(op, v, scalarNum)), nil
	}
	out := &IndexedVar{list: true}
	for _, e := range idxSide.Idx.entries {
		v, ok := sampleEntry(e, 1, false)
		if !ok {
			continue
		}
		var res float64
		if scalarIsLeft {
			res = applyOp(op, scalarNum, v)
		} else {
			res = applyOp(op, v, scalarNum)
		}
		out.entries = append(out.entries, entry{index: e.index, derived: true, num: res})
	}
	return indexedValue(out), nil
}

func applyOp(op string, a, b float64) float64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		if b == 0 {
			return 0
		}
		return a / b
	case "//":
		if b == 0 {
			return 0
		}
		q := a / b
		if q < 0 {
			return -float64(int64(-q))
		}
		return float64(int64(q))
	}
	return 0
}
