// Package macrox expands macros over token trees, before any parsing.
// A macro is defined with
//
//	(def-macro name (literals...)
//	  (pattern template)
//	  ...)
//
// and an invocation is rewritten by the first rule whose pattern matches
// the argument list. Macro definitions are scoped: a begin form opens a
// lexical scope whose macros shadow outer ones. The rewriter is pure; it
// only ever produces new token trees.
package macrox

import (
	"github.com/pkg/errors"

	"github.com/lyn-lang/lyn/internal/ast"
	"github.com/lyn-lang/lyn/internal/lexer"
)

// pattern is matched against a token tree during expansion. A pattern
// identifier listed in the macro's literals matches only itself; any other
// identifier binds whatever it is matched against.
type pattern interface{ patternNode() }

type patIdent string

type patList []pattern

func (patIdent) patternNode() {}
func (patList) patternNode()  {}

func newPattern(tt lexer.TokenTree) (pattern, error) {
	switch tt := tt.(type) {
	case lexer.Ident:
		return patIdent(tt.S), nil
	case lexer.List:
		ps := make(patList, len(tt.Items))
		for i, item := range tt.Items {
			p, err := newPattern(item)
			if err != nil {
				return nil, err
			}
			ps[i] = p
		}
		return ps, nil
	}
	return nil, errors.Errorf("%s: expected list or ident in macro pattern", tt.GetPos())
}

func (p patIdent) matches(arg lexer.TokenTree, literals map[string]bool) bool {
	if literals[string(p)] {
		id, ok := arg.(lexer.Ident)
		return ok && id.S == string(p)
	}
	return true
}

func patternMatches(p pattern, arg lexer.TokenTree, literals map[string]bool) bool {
	switch p := p.(type) {
	case patIdent:
		return p.matches(arg, literals)
	case patList:
		list, ok := arg.(lexer.List)
		if !ok || len(p) != len(list.Items) {
			return false
		}
		for i, sub := range p {
			if !patternMatches(sub, list.Items[i], literals) {
				return false
			}
		}
		return true
	}
	return false
}

// bind maps each non-literal pattern identifier to the token tree it
// matched. Only called after a successful match.
func bind(p pattern, arg lexer.TokenTree, literals map[string]bool, out map[string]lexer.TokenTree) error {
	switch p := p.(type) {
	case patIdent:
		if !literals[string(p)] {
			out[string(p)] = arg
		}
		return nil
	case patList:
		list, ok := arg.(lexer.List)
		if !ok {
			return errors.Errorf("%s: pattern mismatch, expected list", arg.GetPos())
		}
		for i, sub := range p {
			if err := bind(sub, list.Items[i], literals, out); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.Errorf("invalid macro pattern")
}

// rules is a macro definition: its literal identifiers and its pattern
// matching cases.
type rules struct {
	literals map[string]bool
	cases    []ruleCase
}

type ruleCase struct {
	pattern  pattern
	template lexer.TokenTree
}

func newRules(literals lexer.List, caseTrees []lexer.TokenTree) (*rules, error) {
	r := &rules{literals: make(map[string]bool)}
	for _, lit := range literals.Items {
		id, ok := lit.(lexer.Ident)
		if !ok {
			return nil, errors.Errorf("%s: expected literal identifier", lit.GetPos())
		}
		r.literals[id.S] = true
	}
	for _, caseTree := range caseTrees {
		list, ok := caseTree.(lexer.List)
		if !ok {
			return nil, errors.Errorf("%s: expected list of pattern and template", caseTree.GetPos())
		}
		if len(list.Items) != 2 {
			return nil, errors.Errorf("%s: expected pattern and template", list.Pos)
		}
		p, err := newPattern(list.Items[0])
		if err != nil {
			return nil, err
		}
		r.cases = append(r.cases, ruleCase{pattern: p, template: list.Items[1]})
	}
	return r, nil
}

// applyTo expands one macro invocation: the argument list is matched
// against each rule in order and the first matching rule's template is
// relocated to the invocation site, substituted, and expanded again.
func (r *rules) applyTo(sc *scope, args []lexer.TokenTree, pos ast.SrcPos) (lexer.TokenTree, error) {
	argList := lexer.List{Items: args, Pos: pos}
	for _, c := range r.cases {
		if !patternMatches(c.pattern, argList, r.literals) {
			continue
		}
		bound := make(map[string]lexer.TokenTree)
		if err := bind(c.pattern, argList, r.literals, bound); err != nil {
			return nil, err
		}
		return expand(sc, relocate(c.template, pos), bound)
	}
	return nil, errors.Errorf("%s: no rule matched in macro invocation", pos)
}

// relocate rewrites every position in a template to the invocation site,
// so diagnostics in expanded code point at the invocation.
func relocate(tt lexer.TokenTree, pos ast.SrcPos) lexer.TokenTree {
	switch tt := tt.(type) {
	case lexer.Ident:
		return lexer.Ident{S: tt.S, Pos: pos}
	case lexer.Num:
		return lexer.Num{S: tt.S, Pos: pos}
	case lexer.Str:
		return lexer.Str{S: tt.S, Pos: pos}
	case lexer.List:
		items := make([]lexer.TokenTree, len(tt.Items))
		for i, item := range tt.Items {
			items[i] = relocate(item, pos)
		}
		return lexer.List{Items: items, Pos: pos}
	}
	return tt
}

// scope is a lexical macro scope chained to its parent.
type scope struct {
	parent *scope
	macros map[string]*rules
}

func (sc *scope) lookup(name string) (*rules, bool) {
	for s := sc; s != nil; s = s.parent {
		if r, ok := s.macros[name]; ok {
			return r, true
		}
	}
	return nil, false
}

func substituteSyntaxVars(tt lexer.TokenTree, vars map[string]lexer.TokenTree) lexer.TokenTree {
	switch tt := tt.(type) {
	case lexer.Ident:
		if sub, ok := vars[tt.S]; ok {
			return sub
		}
		return tt
	case lexer.List:
		items := make([]lexer.TokenTree, len(tt.Items))
		for i, item := range tt.Items {
			items[i] = substituteSyntaxVars(item, vars)
		}
		return lexer.List{Items: items, Pos: tt.Pos}
	}
	return tt
}

func expand(sc *scope, tt lexer.TokenTree, vars map[string]lexer.TokenTree) (lexer.TokenTree, error) {
	switch t := tt.(type) {
	case lexer.Ident:
		if sub, ok := vars[t.S]; ok {
			return expand(sc, relocate(sub, t.Pos), nil)
		}
		return t, nil
	case lexer.List:
		if len(t.Items) == 0 {
			return t, nil
		}
		if head, ok := t.Items[0].(lexer.Ident); ok {
			switch {
			case head.S == "quote":
				return t, nil
			case head.S == "begin":
				rest, err := expandInScope(sc, t.Items[1:], vars)
				if err != nil {
					return nil, err
				}
				return lexer.List{Items: append([]lexer.TokenTree{t.Items[0]}, rest...), Pos: t.Pos}, nil
			default:
				if r, isMacro := sc.lookup(head.S); isMacro {
					args := make([]lexer.TokenTree, len(t.Items)-1)
					for i, arg := range t.Items[1:] {
						args[i] = substituteSyntaxVars(arg, vars)
					}
					return r.applyTo(sc, args, t.Pos)
				}
			}
		}
		items := make([]lexer.TokenTree, len(t.Items))
		for i, item := range t.Items {
			expanded, err := expand(sc, item, vars)
			if err != nil {
				return nil, err
			}
			items[i] = expanded
		}
		return lexer.List{Items: items, Pos: t.Pos}, nil
	}
	return tt, nil
}

// expandInScope collects the def-macro forms of one lexical scope, then
// expands the remaining items with those macros visible.
func expandInScope(parent *scope, items []lexer.TokenTree, vars map[string]lexer.TokenTree) ([]lexer.TokenTree, error) {
	sc := &scope{parent: parent, macros: make(map[string]*rules)}
	var exprs []lexer.TokenTree
	for _, item := range items {
		list, isList := item.(lexer.List)
		if !isList || len(list.Items) == 0 {
			exprs = append(exprs, item)
			continue
		}
		head, isIdent := list.Items[0].(lexer.Ident)
		if !isIdent || head.S != "def-macro" {
			exprs = append(exprs, item)
			continue
		}
		if len(list.Items) < 3 {
			return nil, errors.Errorf("%s: arity mismatch in def-macro, expected name, literals and rules", list.Pos)
		}
		name, ok := list.Items[1].(lexer.Ident)
		if !ok {
			return nil, errors.Errorf("%s: expected macro name identifier", list.Items[1].GetPos())
		}
		literals, ok := list.Items[2].(lexer.List)
		if !ok {
			return nil, errors.Errorf("%s: expected list of literals", list.Items[2].GetPos())
		}
		r, err := newRules(literals, list.Items[3:])
		if err != nil {
			return nil, err
		}
		if _, dup := sc.macros[name.S]; dup {
			return nil, errors.Errorf("%s: duplicate definition of macro `%s`", list.Pos, name.S)
		}
		sc.macros[name.S] = r
	}
	out := make([]lexer.TokenTree, 0, len(exprs))
	for _, e := range exprs {
		expanded, err := expand(sc, e, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}

// Expand rewrites all macro invocations in a program's token trees.
func Expand(tts []lexer.TokenTree) ([]lexer.TokenTree, error) {
	return expandInScope(nil, tts, nil)
}
