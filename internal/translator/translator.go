package translator

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/fabricator/internal/domain"
)

var (
	ErrMalformedIR   = errors.New("malformed IR")
	ErrUnsupportedIR = errors.New("unsupported IR feature")
)

// TranslateEnvelope decodes a raw IR payload and lowers it. It returns
// either a set of engine rules (one per disjunct after disjunction
// elimination) or a statement, depending on the envelope's input type.
func TranslateEnvelope(raw []byte) ([]*domain.Rule, *domain.Statement, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedIR, err)
	}
	switch env.InputType {
	case InputRule:
		var ir IRRule
		if err := json.Unmarshal(env.Data, &ir); err != nil {
			return nil, nil, fmt.Errorf("%w: rule data: %v", ErrMalformedIR, err)
		}
		rules, err := TranslateRule(&ir)
		return rules, nil, err
	case InputStatement:
		var ir IRStatement
		if err := json.Unmarshal(env.Data, &ir); err != nil {
			return nil, nil, fmt.Errorf("%w: statement data: %v", ErrMalformedIR, err)
		}
		st, err := TranslateStatement(&ir)
		return nil, st, err
	case InputQuestion:
		return nil, nil, fmt.Errorf("%w: questions are answered by the workbench, not translated", ErrUnsupportedIR)
	}
	return nil, nil, fmt.Errorf("%w: input_type %q", ErrMalformedIR, env.InputType)
}

// TranslateStatement flattens subject and object into the engine's ordered
// term sequence.
func TranslateStatement(ir *IRStatement) (*domain.Statement, error) {
	if ir.Verb == "" {
		return nil, fmt.Errorf("%w: statement requires a verb", ErrMalformedIR)
	}
	if ir.Subject == "" {
		return nil, fmt.Errorf("%w: statement requires a subject", ErrMalformedIR)
	}
	terms := append([]string{ir.Subject}, ir.Object...)
	return &domain.Statement{Verb: ir.Verb, Terms: terms, Negated: ir.Negated}, nil
}

// TranslateRule lowers an IR rule into one engine rule per disjunct of its
// condition's disjunctive normal form. Each emitted rule carries a copy of
// the consequence, so the set is observationally equivalent to the original.
func TranslateRule(ir *IRRule) ([]*domain.Rule, error) {
	if ir.Condition == nil {
		return nil, fmt.Errorf("%w: rule requires a condition", ErrMalformedIR)
	}
	cond, err := translateCondition(ir.Condition)
	if err != nil {
		return nil, err
	}

	cons, err := translateConsequence(ir)
	if err != nil {
		return nil, err
	}

	disjuncts, err := EliminateDisjunction(cond)
	if err != nil {
		return nil, err
	}
	rules := make([]*domain.Rule, 0, len(disjuncts))
	for _, d := range disjuncts {
		r, err := domain.NewRule(d, cons.Clone())
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func translateConsequence(ir *IRRule) (domain.Consequence, error) {
	switch ir.RuleType {
	case "standard":
		var st IRStatement
		if err := json.Unmarshal(ir.Consequence, &st); err != nil {
			return domain.Consequence{}, fmt.Errorf("%w: statement consequence: %v", ErrMalformedIR, err)
		}
		tmpl, err := TranslateStatement(&st)
		if err != nil {
			return domain.Consequence{}, err
		}
		return domain.Consequence{Statement: tmpl}, nil
	case "effect":
		var eff IREffect
		if err := json.Unmarshal(ir.Consequence, &eff); err != nil {
			return domain.Consequence{}, fmt.Errorf("%w: effect consequence: %v", ErrMalformedIR, err)
		}
		e := &domain.Effect{
			Key:   eff.TargetWorldStateKey,
			Op:    domain.EffectOp(eff.EffectOperation),
			Value: eff.EffectValue,
		}
		if err := e.Validate(); err != nil {
			return domain.Consequence{}, err
		}
		return domain.Consequence{Effect: e}, nil
	}
	return domain.Consequence{}, fmt.Errorf("%w: rule_type %q", ErrMalformedIR, ir.RuleType)
}

// translateCondition lowers the tagged IR tree to an engine condition tree.
// COUNT operators are normalized ("==" to "=").
func translateCondition(ir *IRCondition) (*domain.Condition, error) {
	switch ir.Type {
	case "LEAF", "":
		if ir.Verb == "" {
			return nil, fmt.Errorf("%w: leaf condition requires a verb", ErrMalformedIR)
		}
		terms := make([]string, 0, 1+len(ir.Object))
		if ir.Subject != "" {
			terms = append(terms, ir.Subject)
		}
		terms = append(terms, ir.Object...)
		c := &domain.Condition{Op: domain.OpLeaf, Verb: ir.Verb, Terms: terms, Negated: ir.Negated}
		return c, c.Validate()
	case "AND", "OR":
		if len(ir.Children) == 0 {
			return nil, fmt.Errorf("%w: %s requires children", ErrMalformedIR, ir.Type)
		}
		children := make([]*domain.Condition, len(ir.Children))
		for i, child := range ir.Children {
			c, err := translateCondition(child)
			if err != nil {
				return nil, err
			}
			children[i] = c
		}
		op := domain.OpAnd
		if ir.Type == "OR" {
			op = domain.OpOr
		}
		return &domain.Condition{Op: op, Children: children}, nil
	case "EXISTS", "NONE":
		if len(ir.Children) != 1 {
			return nil, fmt.Errorf("%w: %s requires exactly one child", ErrMalformedIR, ir.Type)
		}
		child, err := translateCondition(ir.Children[0])
		if err != nil {
			return nil, err
		}
		op := domain.OpExists
		if ir.Type == "NONE" {
			op = domain.OpNone
		}
		return &domain.Condition{Op: op, Children: []*domain.Condition{child}}, nil
	case "FORALL":
		if len(ir.Children) != 2 {
			return nil, fmt.Errorf("%w: FORALL requires a domain child and a property child", ErrMalformedIR)
		}
		dom, err := translateCondition(ir.Children[0])
		if err != nil {
			return nil, err
		}
		prop, err := translateCondition(ir.Children[1])
		if err != nil {
			return nil, err
		}
		return domain.ForAll(dom, prop), nil
	case "COUNT":
		if len(ir.Children) != 1 {
			return nil, fmt.Errorf("%w: COUNT requires exactly one child", ErrMalformedIR)
		}
		child, err := translateCondition(ir.Children[0])
		if err != nil {
			return nil, err
		}
		op := ir.Operator
		if op == "==" {
			op = "="
		}
		c := domain.Count(child, op, ir.Value)
		return c, c.Validate()
	}
	return nil, fmt.Errorf("%w: condition type %q", domain.ErrUnknownConditionType, ir.Type)
}
