package domain

import (
	"encoding/json"
	"fmt"
)

// RuleFromJSON rebuilds a rule from its persisted canonical parts. The
// rebuilt rule re-derives the same content identity it was stored under.
func RuleFromJSON(conditionJSON, consequencesJSON string) (*Rule, error) {
	var cond Condition
	if err := json.Unmarshal([]byte(conditionJSON), &cond); err != nil {
		return nil, fmt.Errorf("decode condition: %w", err)
	}
	var cons []Consequence
	if err := json.Unmarshal([]byte(consequencesJSON), &cons); err != nil {
		return nil, fmt.Errorf("decode consequences: %w", err)
	}
	return NewRule(&cond, cons...)
}

// StatementFromJSON rebuilds a statement from its persisted term list.
func StatementFromJSON(verb, termsJSON string, negated bool, priority int) (*Statement, error) {
	var terms []string
	if err := json.Unmarshal([]byte(termsJSON), &terms); err != nil {
		return nil, fmt.Errorf("decode terms: %w", err)
	}
	return &Statement{Verb: verb, Terms: terms, Negated: negated, Priority: priority}, nil
}

// TermsJSON returns the canonical serialization of a statement's terms.
func (s *Statement) TermsJSON() string { return string(canonicalJSON(s.Terms)) }
