// Package rulefile loads YAML seed packs: a named belief system with rules
// and opening statements, compiled through the IR translator.
package rulefile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/Harshitk-cp/fabricator/internal/translator"
	"gopkg.in/yaml.v3"
)

// Pack is one seed file.
type Pack struct {
	Name       string      `yaml:"name"`
	Strategy   string      `yaml:"strategy"`
	Rules      []Rule      `yaml:"rules"`
	Statements []Statement `yaml:"statements"`
}

// Rule mirrors the IR rule shape in YAML.
type Rule struct {
	RuleType    string         `yaml:"rule_type"`
	Condition   Condition      `yaml:"condition"`
	Consequence map[string]any `yaml:"consequence"`
}

// Condition mirrors the tagged IR condition tree in YAML. Object accepts a
// single term or a list.
type Condition struct {
	Type     string      `yaml:"type"`
	Children []Condition `yaml:"children"`
	Subject  string      `yaml:"subject"`
	Verb     string      `yaml:"verb"`
	Object   any         `yaml:"object"`
	Negated  bool        `yaml:"negated"`
	Operator string      `yaml:"operator"`
	Value    int         `yaml:"value"`
}

// Statement mirrors the IR statement shape in YAML.
type Statement struct {
	Subject  string `yaml:"subject"`
	Verb     string `yaml:"verb"`
	Object   any    `yaml:"object"`
	Negated  bool   `yaml:"negated"`
	Priority int    `yaml:"priority"`
}

// Parse decodes a pack from YAML.
func Parse(r io.Reader) (*Pack, error) {
	var p Pack
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode rule pack: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("rule pack requires a name")
	}
	return &p, nil
}

// Load reads and decodes a pack file.
func Load(path string) (*Pack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// ParsedStrategy returns the pack's forking strategy, defaulting to coexist.
func (p *Pack) ParsedStrategy() (domain.ForkingStrategy, error) {
	if p.Strategy == "" {
		return domain.StrategyCoexist, nil
	}
	return domain.ParseStrategy(p.Strategy)
}

// CompileRules lowers every rule through the translator, so seed packs get
// the same validation and disjunction elimination as live IR input.
func (p *Pack) CompileRules() ([]*domain.Rule, error) {
	var out []*domain.Rule
	for i, r := range p.Rules {
		ir, err := r.toIR()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules, err := translator.TranslateRule(ir)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, rules...)
	}
	return out, nil
}

// CompileStatements lowers the pack's opening statements.
func (p *Pack) CompileStatements() ([]*domain.Statement, error) {
	var out []*domain.Statement
	for i, s := range p.Statements {
		terms, err := objectTerms(s.Object)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		st, err := translator.TranslateStatement(&translator.IRStatement{
			Subject: s.Subject,
			Verb:    s.Verb,
			Object:  terms,
			Negated: s.Negated,
		})
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		st.Priority = s.Priority
		out = append(out, st)
	}
	return out, nil
}

func (r Rule) toIR() (*translator.IRRule, error) {
	cond, err := r.Condition.toIR()
	if err != nil {
		return nil, err
	}
	consequence, err := json.Marshal(r.Consequence)
	if err != nil {
		return nil, fmt.Errorf("encode consequence: %w", err)
	}
	ruleType := r.RuleType
	if ruleType == "" {
		ruleType = "standard"
	}
	return &translator.IRRule{
		RuleType:    ruleType,
		Condition:   cond,
		Consequence: consequence,
	}, nil
}

func (c Condition) toIR() (*translator.IRCondition, error) {
	terms, err := objectTerms(c.Object)
	if err != nil {
		return nil, err
	}
	ir := &translator.IRCondition{
		Type:     c.Type,
		Subject:  c.Subject,
		Verb:     c.Verb,
		Object:   terms,
		Negated:  c.Negated,
		Operator: c.Operator,
		Value:    c.Value,
	}
	for _, child := range c.Children {
		sub, err := child.toIR()
		if err != nil {
			return nil, err
		}
		ir.Children = append(ir.Children, sub)
	}
	return ir, nil
}

func objectTerms(v any) (translator.ObjectTerms, error) {
	switch o := v.(type) {
	case nil:
		return nil, nil
	case string:
		return translator.ObjectTerms{o}, nil
	case []any:
		terms := make(translator.ObjectTerms, len(o))
		for i, item := range o {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("object item %v is not a string", item)
			}
			terms[i] = s
		}
		return terms, nil
	}
	return nil, fmt.Errorf("object must be a string or a list of strings, got %T", v)
}
