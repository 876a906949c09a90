package fabric

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Harshitk-cp/fabricator/internal/domain"
)

// workingState is the mutable snapshot a single simulation runs against.
// Nothing is committed back to the belief system until the run finishes
// without a contradiction or error, so a failed run never leaves the parent
// partially advanced.
type workingState struct {
	rules []*domain.Rule
	facts *factSet
	world domain.WorldState
	memo  map[string]bool
}

// contradictionHit reports a derived or admitted statement clashing with a
// held fact.
type contradictionHit struct {
	existing *domain.Statement
	incoming *domain.Statement
}

func memoKey(ruleID, bindingKey string) string {
	return ruleID + "|" + bindingKey
}

// run drives the fixed-point loop: evaluate every rule against the current
// fact base, fire each (rule, binding) pair not yet in the causal memo, and
// repeat until no unfired pair remains. Within an iteration, firings are
// ordered by (rule id, binding key) and consequences by index, which makes
// effect application deterministic.
func (w *workingState) run(res *SimulationResult) (*contradictionHit, error) {
	type application struct {
		rule *domain.Rule
		env  domain.Binding
		key  string
	}
	for {
		var apps []application
		for _, r := range w.rules {
			envs, err := Evaluate(r.Condition, w.facts.list(), nil)
			if err != nil {
				return nil, err
			}
			for _, env := range envs {
				key := memoKey(r.ID(), env.Key())
				if !w.memo[key] {
					apps = append(apps, application{rule: r, env: env, key: key})
				}
			}
		}
		if len(apps) == 0 {
			return nil, nil
		}
		sort.Slice(apps, func(i, j int) bool {
			if apps[i].rule.ID() != apps[j].rule.ID() {
				return apps[i].rule.ID() < apps[j].rule.ID()
			}
			return apps[i].env.Key() < apps[j].env.Key()
		})
		for _, app := range apps {
			w.memo[app.key] = true
			res.AppliedRules = append(res.AppliedRules, domain.AppliedRule{RuleID: app.rule.ID(), Binding: app.env.Clone()})
			for _, cons := range app.rule.Consequences {
				if cons.Statement != nil {
					inst := instantiateStatement(cons.Statement, app.env)
					if !inst.Ground() {
						panic(fmt.Sprintf("fabric: derived non-ground statement %s from rule %s", inst, app.rule.ID()))
					}
					if w.facts.has(inst) {
						continue
					}
					if old := w.facts.contradicts(inst); old != nil {
						return &contradictionHit{existing: old, incoming: inst}, nil
					}
					w.facts.add(inst)
					res.DerivedFacts = append(res.DerivedFacts, inst.Clone())
					continue
				}
				applied, err := applyEffect(w.world, cons.Effect, app.env)
				if err != nil {
					return nil, err
				}
				res.EffectsApplied = append(res.EffectsApplied, applied)
			}
		}
	}
}

// instantiateStatement substitutes binding values into a statement template.
// A variable bound to a wildcard list substitutes as a single term holding
// the list's JSON array rendering.
func instantiateStatement(tmpl *domain.Statement, env domain.Binding) *domain.Statement {
	terms := make([]string, 0, len(tmpl.Terms))
	for _, t := range tmpl.Terms {
		if !domain.IsVariable(t) {
			terms = append(terms, t)
			continue
		}
		switch val := env[t].(type) {
		case string:
			terms = append(terms, val)
		case []string:
			terms = append(terms, renderTermList(val))
		default:
			terms = append(terms, t)
		}
	}
	return &domain.Statement{Verb: tmpl.Verb, Terms: terms, Negated: tmpl.Negated, Priority: tmpl.Priority}
}

func renderTermList(terms []string) string {
	b, err := json.Marshal(terms)
	if err != nil {
		panic(fmt.Sprintf("fabric: term list not marshalable: %v", err))
	}
	return string(b)
}

// applyEffect mutates one world-state key. The key and a string value may
// reference binding variables; increment/decrement treat an absent key as
// zero and append treats it as an empty list.
func applyEffect(world domain.WorldState, eff *domain.Effect, env domain.Binding) (domain.EffectApplication, error) {
	key := eff.Key
	if domain.IsVariable(key) {
		bound, ok := env[key].(string)
		if !ok {
			return domain.EffectApplication{}, fmt.Errorf("effect key %s is unbound", key)
		}
		key = bound
	}
	value := eff.Value
	if s, ok := value.(string); ok && domain.IsVariable(s) {
		if bound, ok := env[s]; ok {
			value = bound
		}
	}

	prev := world[key]
	var next any
	switch eff.Op {
	case domain.EffectSet:
		next = value
	case domain.EffectIncrement, domain.EffectDecrement:
		base, err := asNumber(prev)
		if err != nil {
			return domain.EffectApplication{}, fmt.Errorf("effect %s %q: %w", eff.Op, key, err)
		}
		delta, err := asNumber(value)
		if err != nil {
			return domain.EffectApplication{}, fmt.Errorf("effect %s %q: %w", eff.Op, key, err)
		}
		if eff.Op == domain.EffectDecrement {
			delta = -delta
		}
		next = base + delta
	case domain.EffectAppend:
		list, err := asList(prev)
		if err != nil {
			return domain.EffectApplication{}, fmt.Errorf("effect append %q: %w", key, err)
		}
		next = append(list, value)
	default:
		return domain.EffectApplication{}, fmt.Errorf("%w: %q", domain.ErrUnknownEffectOperation, eff.Op)
	}
	world[key] = next
	return domain.EffectApplication{Effect: eff.Clone(), Key: key, Previous: prev, Result: next}, nil
}

// asNumber coerces the numeric shapes that reach the world state: Go ints
// from fixtures and float64 from decoded JSON. An absent value counts as 0.
func asNumber(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	}
	return 0, fmt.Errorf("value %v is not numeric", v)
}

func asList(v any) ([]any, error) {
	switch l := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return append([]any(nil), l...), nil
	}
	return nil, fmt.Errorf("value %v is not a list", v)
}
