package rules

import "fmt"

// astNode is any node of a compiled rule's expression tree. eval
// drives the Indexed-Variable Algebra interpreter (spec.md §4.5)
// directly over the tree — there is no separate bytecode stage.
type astNode interface {
	eval(ctx *evalContext) (Value, error)
}

// evalContext carries the per-tick state an astNode needs to resolve
// identifiers and size 1min/5min windows (spec.md §4.1).
type evalContext struct {
	resolver         Resolver
	samplesPerMinute int
}

type identNode struct{ name string }

func (n *identNode) eval(ctx *evalContext) (Value, error) {
	idx, err := ctx.resolver.Access(n.name)
	if err != nil {
		return Value{}, err
	}
	return indexedValue(idx), nil
}

type numberNode struct{ value float64 }

func (n *numberNode) eval(ctx *evalContext) (Value, error) { return numberValue(n.value), nil }

type stringNode struct{ value string }

func (n *stringNode) eval(ctx *evalContext) (Value, error) { return stringValue(n.value), nil }

// callNode implements the three window-modifier sentinels the lexer
// rewrites 1min/5min/dynamicity into (spec.md §4.4 step 1).
type callNode struct {
	fn  string // "_1min", "_5min", or "_dynamicity"
	arg astNode
}

func (n *callNode) eval(ctx *evalContext) (Value, error) {
	v, err := n.arg.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if v.Kind != kindIndexed {
		return Value{}, fmt.Errorf("%s() applied to a non-metric expression", n.fn)
	}
	switch n.fn {
	case "_1min":
		v.Count = ctx.samplesPerMinute
	case "_5min":
		v.Count = ctx.samplesPerMinute * 5
	case "_dynamicity":
		v.Dynamic = true
	}
	return v, nil
}

type unaryNotNode struct{ x astNode }

func (n *unaryNotNode) eval(ctx *evalContext) (Value, error) {
	v, err := n.x.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return boolValue(!v.truthy()), nil
}

type compareNode struct {
	op   string
	l, r astNode
}

func (n *compareNode) eval(ctx *evalContext) (Value, error) {
	lv, err := n.l.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	rv, err := n.r.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if lv.Kind != kindIndexed {
		// Comparisons are always written metric-first in practice, but
		// tolerate "10 < idle_time" by swapping sides and the operator.
		if rv.Kind == kindIndexed {
			return compareIndexed(rv.Idx, flip(n.op), numOrZero(lv), strOrEmpty(lv), lv.Kind == kindString, rv.Count, rv.Dynamic), nil
		}
		return boolValue(scalarCompare(lv, n.op, rv)), nil
	}
	return compareIndexed(lv.Idx, n.op, numOrZero(rv), strOrEmpty(rv), rv.Kind == kindString, lv.Count, lv.Dynamic), nil
}

func numOrZero(v Value) float64 {
	n, _ := v.asNumber()
	return n
}

func strOrEmpty(v Value) string {
	if v.Kind == kindString {
		return v.Str
	}
	return ""
}

func scalarCompare(l Value, op string, r Value) bool {
	if l.Kind == kindString || r.Kind == kindString {
		return compareStr(l.Str, op, r.Str)
	}
	ln, _ := l.asNumber()
	rn, _ := r.asNumber()
	return compareNum(ln, op, rn)
}

func flip(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op
	}
}

type boolNode struct {
	op   string // "and" or "or"
	l, r astNode
}

func (n *boolNode) eval(ctx *evalContext) (Value, error) {
	lv, err := n.l.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	rv, err := n.r.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return boolOp(n.op, lv, rv), nil
}

type arithNode struct {
	op   string
	l, r astNode
}

func (n *arithNode) eval(ctx *evalContext) (Value, error) {
	lv, err := n.l.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	rv, err := n.r.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return arith(n.op, lv, rv)
}
