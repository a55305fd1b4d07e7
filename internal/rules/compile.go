package rules

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/edeline-labs/assurance-agent/internal/catalog"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
)

// CompiledRule is a catalog.Rule after parsing, safety validation, and
// identifier extraction (spec.md §4.4). Its ID is the hex SHA-1 of
// the rule name, which a downstream consumer (graph, export) can use to
// correlate a positive symptom back to the rule that raised it.
type CompiledRule struct {
	Name        string
	ID          string
	Path        string
	Severity    ringbuffer.Severity
	Source      string
	Identifiers []string

	prefix string
	root   astNode
}

// Compile parses, allow-list-validates, and extracts the identifier
// set of one catalog rule (spec.md §4.4 steps 1-3):
//  1. rewrite 1min/5min/dynamicity to sentinel calls (done by lex),
//  2. parse the rewritten text into an AST,
//  3. walk the AST and reject anything not in the allow-list: boolean/
//     comparison/arithmetic operators, literals, and identifiers that
//     name either a known catalog metric or a window-modifier call.
func Compile(cat *catalog.Catalog, r catalog.Rule) (*CompiledRule, error) {
	root, err := parseRule(r.Expression)
	if err != nil {
		return nil, fmt.Errorf("rule %q: parse error: %w", r.Name, err)
	}

	ids := map[string]bool{}
	if err := walk(root, cat, ids); err != nil {
		return nil, fmt.Errorf("rule %q: %w", r.Name, err)
	}
	identifiers := make([]string, 0, len(ids))
	for id := range ids {
		identifiers = append(identifiers, id)
	}

	sum := sha1.Sum([]byte(r.Name))
	return &CompiledRule{
		Name:        r.Name,
		ID:          hex.EncodeToString(sum[:]),
		Path:        r.Path,
		Severity:    r.Severity,
		Source:      r.Expression,
		Identifiers: identifiers,
		prefix:      hostPrefix(r.Path),
		root:        root,
	}, nil
}

// hostPrefix mirrors the original Symptom.prefix: rules attached to a
// path under /node/vm or /node/kb resolve their identifiers relative
// to the hosting VM/KB instance (spec.md §4.5).
func hostPrefix(path string) string {
	switch {
	case strings.HasPrefix(path, "/node/vm"):
		return "/node/vm"
	case strings.HasPrefix(path, "/node/kb"):
		return "/node/kb"
	default:
		return ""
	}
}

// walk implements the allow-list safety check (spec.md §4.4 step 3 /
// §9 "never embed a general-purpose language"): only identifiers that
// name a catalog metric, or a window-modifier call, are permitted.
func walk(n astNode, cat *catalog.Catalog, ids map[string]bool) error {
	switch t := n.(type) {
	case *identNode:
		if _, ok := cat.Metrics[t.name]; !ok {
			return fmt.Errorf("unknown identifier %q is not a catalog metric", t.name)
		}
		ids[t.name] = true
	case *numberNode, *stringNode:
	case *callNode:
		if !isWindowFn(t.fn) {
			return fmt.Errorf("disallowed call %q", t.fn)
		}
		return walk(t.arg, cat, ids)
	case *unaryNotNode:
		return walk(t.x, cat, ids)
	case *compareNode:
		if err := walk(t.l, cat, ids); err != nil {
			return err
		}
		return walk(t.r, cat, ids)
	case *boolNode:
		if err := walk(t.l, cat, ids); err != nil {
			return err
		}
		return walk(t.r, cat, ids)
	case *arithNode:
		if err := walk(t.l, cat, ids); err != nil {
			return err
		}
		return walk(t.r, cat, ids)
	default:
		return fmt.Errorf("disallowed expression node %T", n)
	}
	return nil
}

// Eval runs the compiled rule against one node's metrics, resolving
// identifiers through resolver and sizing 1min/5min windows from
// samplesPerMinute (spec.md §4.1/§4.5). The returned Value's truthy()
// form is the rule's pass/fail verdict; for a list-indexed result, the
// caller (package health) additionally inspects Idx.indexes() to learn
// which instances matched.
func (c *CompiledRule) Eval(resolver Resolver, samplesPerMinute int) (Value, error) {
	ctx := &evalContext{resolver: resolver, samplesPerMinute: samplesPerMinute}
	return c.root.eval(ctx)
}

// Prefix reports the VM/KB hosting prefix this rule resolves
// identifiers relative to, or "" if it targets a non-hosted
// subservice.
func (c *CompiledRule) Prefix() string { return c.prefix }

// MatchedIndexes exposes the index keys of a list-indexed Value,
// ignoring scalar/boolean results.
func MatchedIndexes(v Value) []string {
	if v.Kind == kindIndexed && v.Idx != nil && v.Idx.list {
		return v.Idx.indexes()
	}
	return nil
}

// Passed reports whether an evaluation result counts as a positive
// symptom: truthy, per spec.md §4.5.
func Passed(v Value) bool { return v.truthy() }
