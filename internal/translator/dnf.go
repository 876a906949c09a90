package translator

import (
	"fmt"

	"github.com/Harshitk-cp/fabricator/internal/domain"
)

// EliminateDisjunction rewrites a condition into disjunctive normal form and
// returns its disjuncts, each an OR-free condition. A tree with no OR comes
// back as a single disjunct. Distribution happens through AND nodes only;
// an OR beneath a quantifier cannot be lifted out without changing its
// meaning and is rejected.
func EliminateDisjunction(cond *domain.Condition) ([]*domain.Condition, error) {
	switch cond.Op {
	case domain.OpLeaf:
		return []*domain.Condition{cond}, nil

	case domain.OpOr:
		var disjuncts []*domain.Condition
		for _, child := range cond.Children {
			sub, err := EliminateDisjunction(child)
			if err != nil {
				return nil, err
			}
			disjuncts = append(disjuncts, sub...)
		}
		return disjuncts, nil

	case domain.OpAnd:
		// Cross-product of the children's disjunct sets, preserving the
		// authored child order inside every combination.
		combos := [][]*domain.Condition{{}}
		for _, child := range cond.Children {
			sub, err := EliminateDisjunction(child)
			if err != nil {
				return nil, err
			}
			var next [][]*domain.Condition
			for _, combo := range combos {
				for _, d := range sub {
					extended := make([]*domain.Condition, len(combo), len(combo)+1)
					copy(extended, combo)
					next = append(next, append(extended, d))
				}
			}
			combos = next
		}
		disjuncts := make([]*domain.Condition, len(combos))
		for i, combo := range combos {
			disjuncts[i] = flattenAnd(combo)
		}
		return disjuncts, nil

	case domain.OpExists, domain.OpForAll, domain.OpNone, domain.OpCount:
		for _, child := range cond.Children {
			if child.ContainsOr() {
				return nil, fmt.Errorf("%w: OR inside a %s quantifier cannot be distributed", ErrUnsupportedIR, cond.Op)
			}
		}
		return []*domain.Condition{cond}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownConditionType, cond.Op)
}

// flattenAnd rebuilds a conjunction from distributed children, merging
// nested ANDs and avoiding a wrapper around a single condition.
func flattenAnd(children []*domain.Condition) *domain.Condition {
	var flat []*domain.Condition
	for _, c := range children {
		if c.Op == domain.OpAnd {
			flat = append(flat, c.Children...)
		} else {
			flat = append(flat, c)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return domain.And(flat...)
}
