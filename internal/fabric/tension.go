package fabric

import (
	"github.com/Harshitk-cp/fabricator/internal/domain"
)

// DefaultTensionHops bounds context-rule expansion during tension detection.
const DefaultTensionHops = 1

// DetectTensions reports pairs of rules whose consequences would contradict
// if their conditions were simultaneously satisfiable. Detection is
// best-effort: each pair is probed with hypothetical entities substituted for
// the variables of one rule's condition, expanded through the context rules
// for at most hops passes, and the pair is reported when both conditions bind
// against the hypothetical state and some pair of their statement
// consequences yields a statement and its negation.
//
// No forking ever results from a tension report; only concrete statement
// contradictions during simulation fork.
func DetectTensions(rules, contextRules []*domain.Rule, hops int) []domain.Tension {
	if hops < 0 {
		hops = DefaultTensionHops
	}
	var tensions []domain.Tension
	for i, a := range rules {
		for j, b := range rules {
			if i >= j {
				continue
			}
			if t, ok := probeConflict(a, b, contextRules, hops); ok {
				tensions = append(tensions, t)
			} else if t, ok := probeConflict(b, a, contextRules, hops); ok {
				tensions = append(tensions, domain.Tension{RuleA: a, RuleB: b, Witness: t.Witness})
			}
		}
	}
	return tensions
}

// probeConflict checks whether a state seeded from ruleB's condition can
// satisfy both rules with contradictory statement consequences.
func probeConflict(ruleA, ruleB *domain.Rule, contextRules []*domain.Rule, hops int) (domain.Tension, bool) {
	seed := hypotheticalFacts(ruleB.Condition)
	if len(seed) == 0 {
		return domain.Tension{}, false
	}
	facts := expandHypothetical(seed, contextRules, hops)

	envsA, err := Evaluate(ruleA.Condition, facts, nil)
	if err != nil || len(envsA) == 0 {
		return domain.Tension{}, false
	}
	envsB, err := Evaluate(ruleB.Condition, facts, nil)
	if err != nil || len(envsB) == 0 {
		return domain.Tension{}, false
	}

	for _, envA := range envsA {
		for _, envB := range envsB {
			for _, consA := range ruleA.Consequences {
				if consA.Statement == nil {
					continue
				}
				instA := instantiateStatement(consA.Statement, envA)
				for _, consB := range ruleB.Consequences {
					if consB.Statement == nil {
						continue
					}
					instB := instantiateStatement(consB.Statement, envB)
					if instA.Contradicts(instB) {
						return domain.Tension{RuleA: ruleA, RuleB: ruleB, Witness: envA.Clone()}, true
					}
				}
			}
		}
	}
	return domain.Tension{}, false
}

// hypotheticalFacts grounds the positive leaves of a condition by binding
// every variable to a per-name hypothetical entity. Negated leaves and
// wildcard patterns contribute nothing; they cannot seed a concrete state.
func hypotheticalFacts(cond *domain.Condition) []*domain.Statement {
	var facts []*domain.Statement
	for _, leaf := range outwardLeaves(cond) {
		if leaf.Negated {
			continue
		}
		terms := make([]string, 0, len(leaf.Terms))
		usable := true
		for _, t := range leaf.Terms {
			switch {
			case domain.IsWildcard(t):
				usable = false
			case domain.IsVariable(t):
				terms = append(terms, hypotheticalEntity(t))
			default:
				terms = append(terms, t)
			}
		}
		if usable {
			facts = append(facts, &domain.Statement{Verb: leaf.Verb, Terms: terms})
		}
	}
	return facts
}

func hypotheticalEntity(variable string) string {
	return "_hypothetical_" + variable[1:]
}

// outwardLeaves collects the LEAF nodes that bind outward: leaves of the node
// itself and of AND children. Quantified subtrees describe constraints over a
// state, not the state itself.
func outwardLeaves(cond *domain.Condition) []*domain.Condition {
	switch cond.Op {
	case domain.OpLeaf:
		return []*domain.Condition{cond}
	case domain.OpAnd, domain.OpOr:
		var leaves []*domain.Condition
		for _, child := range cond.Children {
			leaves = append(leaves, outwardLeaves(child)...)
		}
		return leaves
	}
	return nil
}

// expandHypothetical derives one hop of statement consequences per pass from
// the context rules over the hypothetical state.
func expandHypothetical(seed []*domain.Statement, contextRules []*domain.Rule, hops int) []*domain.Statement {
	facts := newFactSet()
	for _, s := range seed {
		facts.add(s)
	}
	for pass := 0; pass < hops; pass++ {
		var derived []*domain.Statement
		for _, r := range contextRules {
			envs, err := Evaluate(r.Condition, facts.list(), nil)
			if err != nil {
				continue
			}
			for _, env := range envs {
				for _, cons := range r.Consequences {
					if cons.Statement == nil {
						continue
					}
					inst := instantiateStatement(cons.Statement, env)
					if inst.Ground() && !facts.has(inst) {
						derived = append(derived, inst)
					}
				}
			}
		}
		if len(derived) == 0 {
			break
		}
		for _, s := range derived {
			facts.add(s)
		}
	}
	return facts.list()
}
