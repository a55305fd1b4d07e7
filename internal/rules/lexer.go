// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rules implements the Rule Compiler (spec.md §4.4) and the
// Indexed-Variable Algebra evaluator (spec.md §4.5). Deliberately
// hand-rolled rather than built on a general-purpose expression engine
// (see DESIGN.md): the grammar is the small one in spec.md §6, and the
// index-set-preserving `&`/`|` lowering needs operator semantics no
// off-the-shelf compiled-VM expression library exposes.
package rules

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokLT
	tokLE
	tokEQ
	tokNE
	tokGT
	tokGE
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokDSlash
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

var keywords = map[string]tokenKind{
	"and": tokAnd,
	"or":  tokOr,
	"not": tokNot,
}

// lex tokenizes a rule expression. It applies the spec's step-1
// source rewriting first (the textual aliases 1min/5min/dynamicity ->
// sentinel call names _1min/_5min/_dynamicity) so the rest of the
// pipeline only ever sees ordinary identifiers and calls.
func lex(src string) ([]token, error) {
	src = rewriteAliases(src)

	var toks []token
	r := []rune(src)
	i := 0
	for i < len(r) {
		c := r[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case c == '+':
			toks = append(toks, token{kind: tokPlus})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokMinus})
			i++
		case c == '*':
			toks = append(toks, token{kind: tokStar})
			i++
		case c == '/':
			if i+1 < len(r) && r[i+1] == '/' {
				toks = append(toks, token{kind: tokDSlash})
				i += 2
			} else {
				toks = append(toks, token{kind: tokSlash})
				i++
			}
		case c == '<':
			if i+1 < len(r) && r[i+1] == '=' {
				toks = append(toks, token{kind: tokLE})
				i += 2
			} else {
				toks = append(toks, token{kind: tokLT})
				i++
			}
		case c == '>':
			if i+1 < len(r) && r[i+1] == '=' {
				toks = append(toks, token{kind: tokGE})
				i += 2
			} else {
				toks = append(toks, token{kind: tokGT})
				i++
			}
		case c == '=':
			if i+1 < len(r) && r[i+1] == '=' {
				toks = append(toks, token{kind: tokEQ})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected '=' at %d (did you mean '=='?)", i)
			}
		case c == '!':
			if i+1 < len(r) && r[i+1] == '=' {
				toks = append(toks, token{kind: tokNE})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected '!' at %d", i)
			}
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			var sb strings.Builder
			for j < len(r) && r[j] != quote {
				sb.WriteRune(r[j])
				j++
			}
			if j >= len(r) {
				return nil, fmt.Errorf("unterminated string literal at %d", i)
			}
			toks = append(toks, token{kind: tokString, text: sb.String()})
			i = j + 1
		case isDigit(c):
			j := i
			for j < len(r) && (isDigit(r[j]) || r[j] == '.') {
				j++
			}
			var f float64
			fmt.Sscanf(string(r[i:j]), "%g", &f)
			toks = append(toks, token{kind: tokNumber, num: f})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(r) && isIdentPart(r[j]) {
				j++
			}
			word := string(r[i:j])
			if kw, ok := keywords[word]; ok {
				toks = append(toks, token{kind: kw, text: word})
			} else {
				toks = append(toks, token{kind: tokIdent, text: word})
			}
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at %d", c, i)
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

// rewriteAliases performs the spec's step-1 string-level rewrite:
// 1min/5min/dynamicity become the sentinel call names _1min/_5min/
// _dynamicity, so the parser treats them uniformly as calls
// (spec.md §4.4 step 1).
func rewriteAliases(src string) string {
	replacer := strings.NewReplacer(
		"1min", "_1min",
		"5min", "_5min",
		"dynamicity", "_dynamicity",
	)
	return replacer.Replace(src)
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || isDigit(c)
}
