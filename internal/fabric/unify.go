// Package fabric implements the symbolic inference core: the unifier, the
// condition evaluator, the fixed-point inference engine, and the belief
// system with its contradiction and fork semantics.
package fabric

import (
	"github.com/Harshitk-cp/fabricator/internal/domain"
)

// matchLeaf unifies a LEAF pattern against a ground statement under an
// existing environment. On success it returns an extended copy of env; env
// itself is never mutated. A variable already bound in env must agree with
// the statement term it meets; a greedy wildcard binds the remaining terms
// as a list under the matching "?" name.
func matchLeaf(pat *domain.Condition, fact *domain.Statement, env domain.Binding) (domain.Binding, bool) {
	if pat.Verb != fact.Verb || pat.Negated != fact.Negated {
		return nil, false
	}
	wildcard := len(pat.Terms) > 0 && domain.IsWildcard(pat.Terms[len(pat.Terms)-1])
	if wildcard {
		if len(fact.Terms) < len(pat.Terms)-1 {
			return nil, false
		}
	} else if len(fact.Terms) != len(pat.Terms) {
		return nil, false
	}

	out := env.Clone()
	for i, term := range pat.Terms {
		if domain.IsWildcard(term) {
			rest := append(make([]string, 0, len(fact.Terms)-i), fact.Terms[i:]...)
			key := "?" + term[1:]
			if prev, ok := out[key]; ok {
				if !bindingEqual(prev, rest) {
					return nil, false
				}
			} else {
				out[key] = rest
			}
			return out, true
		}
		if domain.IsVariable(term) {
			val := fact.Terms[i]
			if prev, ok := out[term]; ok {
				if !bindingEqual(prev, val) {
					return nil, false
				}
			} else {
				out[term] = val
			}
			continue
		}
		if term != fact.Terms[i] {
			return nil, false
		}
	}
	return out, true
}

// bindingEqual compares two bound values: plain terms or wildcard term lists.
func bindingEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	}
	return false
}
