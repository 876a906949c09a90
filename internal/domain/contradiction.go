package domain

// Contradiction records a statement-level conflict surfaced by a simulation:
// the fact already held and the incoming statement that negates it, plus the
// strategy that resolved the clash.
type Contradiction struct {
	Existing *Statement      `json:"existing"`
	Incoming *Statement      `json:"incoming"`
	Strategy ForkingStrategy `json:"strategy"`
}

// Tension is a latent conflict between two rules, detected without running a
// simulation: a witness binding under which both conditions are satisfiable
// and their consequences produce a statement and its negation.
type Tension struct {
	RuleA   *Rule   `json:"rule_a"`
	RuleB   *Rule   `json:"rule_b"`
	Witness Binding `json:"witness_binding"`
}
