package fabric

import (
	"errors"
	"fmt"

	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrDuplicateRule = errors.New("content-equal rule already present")
	ErrRuleHasOr     = errors.New("rule condition contains OR; translate it to disjunctive normal form first")
)

// Fork records one child belief system: how it came to be and under which
// strategy. Contradiction is nil for explicit manual forks.
type Fork struct {
	Child         *BeliefSystem
	Contradiction *domain.Contradiction
	Strategy      domain.ForkingStrategy
}

// SimulationResult is what one Simulate call reports back: facts derived (in
// the order the fixed point added them), rule firings, effects, the
// world-state pair, contradictions hit, and the fork produced (at most one).
// When a fork was produced, the derived facts, effects, and after-state
// describe the child; the parent was not advanced for the triggering input.
type SimulationResult struct {
	DerivedFacts     []*domain.Statement
	AppliedRules     []domain.AppliedRule
	EffectsApplied   []domain.EffectApplication
	WorldStateBefore domain.WorldState
	WorldStateAfter  domain.WorldState
	Contradictions   []domain.Contradiction
	ForkedBeliefs    []*BeliefSystem
}

// WorldStateDiff lists the keys the simulation changed.
func (r *SimulationResult) WorldStateDiff() []domain.WorldStateChange {
	return domain.DiffWorldState(r.WorldStateBefore, r.WorldStateAfter)
}

// Forked reports whether the simulation spawned a child belief system.
func (r *SimulationResult) Forked() bool { return len(r.ForkedBeliefs) > 0 }

// BeliefSystem holds a rule set, a fact base of ground statements, a world
// state, and the causal memo of (rule, binding) pairs already fired. It is
// owned by a single caller; concurrent mutation is disallowed. Parents keep
// their children only for lineage traversal; each child owns its own state.
type BeliefSystem struct {
	id       string
	name     string
	strategy domain.ForkingStrategy
	rules    []*domain.Rule
	ruleIDs  map[string]bool
	facts    *factSet
	world    domain.WorldState
	memo     map[string]bool
	parent   *BeliefSystem
	forks    []Fork
}

// NewBeliefSystem creates an empty root belief system.
func NewBeliefSystem(name string, strategy domain.ForkingStrategy) (*BeliefSystem, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, strategy)
	}
	return &BeliefSystem{
		id:       uuid.NewString(),
		name:     name,
		strategy: strategy,
		ruleIDs:  make(map[string]bool),
		facts:    newFactSet(),
		world:    domain.WorldState{},
		memo:     make(map[string]bool),
	}, nil
}

func (b *BeliefSystem) ID() string                       { return b.id }
func (b *BeliefSystem) Name() string                     { return b.name }
func (b *BeliefSystem) Strategy() domain.ForkingStrategy { return b.strategy }
func (b *BeliefSystem) Parent() *BeliefSystem            { return b.parent }
func (b *BeliefSystem) World() domain.WorldState         { return b.world.Clone() }
func (b *BeliefSystem) Statements() []*domain.Statement  { return b.facts.snapshot() }
func (b *BeliefSystem) Forks() []Fork                    { return append([]Fork(nil), b.forks...) }

func (b *BeliefSystem) Rules() []*domain.Rule {
	return append([]*domain.Rule(nil), b.rules...)
}

// AddRule appends a rule, rejecting content-equal duplicates and conditions
// still carrying disjunction.
func (b *BeliefSystem) AddRule(r *domain.Rule) error {
	if r.Condition.ContainsOr() {
		return ErrRuleHasOr
	}
	if b.ruleIDs[r.ID()] {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, r.ID())
	}
	b.rules = append(b.rules, r)
	b.ruleIDs[r.ID()] = true
	return nil
}

// HasRule reports whether a rule with the given content identity is present.
func (b *BeliefSystem) HasRule(id string) bool { return b.ruleIDs[id] }

// ForkManual spawns a child inheriting rules, fact base, world state, causal
// memo, and strategy. A non-empty strategy overrides the inherited tag.
func (b *BeliefSystem) ForkManual(name string, strategy domain.ForkingStrategy) (*BeliefSystem, error) {
	if strategy == "" {
		strategy = b.strategy
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, strategy)
	}
	child := b.child(name, strategy)
	b.forks = append(b.forks, Fork{Child: child, Strategy: strategy})
	return child, nil
}

// child builds the inheriting copy every fork starts from. The causal memo is
// copied so a coexist fork does not immediately refire every rule over the
// parent's facts.
func (b *BeliefSystem) child(name string, strategy domain.ForkingStrategy) *BeliefSystem {
	ruleIDs := make(map[string]bool, len(b.ruleIDs))
	for id := range b.ruleIDs {
		ruleIDs[id] = true
	}
	memo := make(map[string]bool, len(b.memo))
	for k := range b.memo {
		memo[k] = true
	}
	return &BeliefSystem{
		id:       uuid.NewString(),
		name:     name,
		strategy: strategy,
		rules:    append([]*domain.Rule(nil), b.rules...),
		ruleIDs:  ruleIDs,
		facts:    b.facts.clone(),
		world:    b.world.Clone(),
		memo:     memo,
		parent:   b,
	}
}

// Simulate admits the input statements, runs the fixed-point inference loop,
// and resolves any contradiction per the active forking strategy. The belief
// system is only advanced when the run completes cleanly; validation errors
// and contradictions leave it untouched (a fork carries the advance instead).
func (b *BeliefSystem) Simulate(inputs []*domain.Statement) (*SimulationResult, error) {
	for _, s := range inputs {
		if s == nil || s.Verb == "" {
			return nil, fmt.Errorf("simulate: statement requires a verb")
		}
		if !s.Ground() {
			return nil, fmt.Errorf("%w: %s", domain.ErrNonGroundStatement, s)
		}
	}

	res := &SimulationResult{WorldStateBefore: b.world.Clone()}
	work := b.beginWork()

	for _, s := range inputs {
		if work.facts.has(s) {
			continue
		}
		if old := work.facts.contradicts(s); old != nil {
			return b.resolveContradiction(res, old, s, inputs)
		}
		work.facts.add(s.Clone())
	}

	hit, err := work.run(res)
	if err != nil {
		return nil, err
	}
	if hit != nil {
		return b.resolveContradiction(res, hit.existing, hit.incoming, inputs)
	}

	b.facts = work.facts
	b.world = work.world
	b.memo = work.memo
	res.WorldStateAfter = b.world.Clone()
	return res, nil
}

func (b *BeliefSystem) beginWork() *workingState {
	memo := make(map[string]bool, len(b.memo))
	for k := range b.memo {
		memo[k] = true
	}
	return &workingState{
		rules: b.rules,
		facts: b.facts.clone(),
		world: b.world.Clone(),
		memo:  memo,
	}
}

// resolveContradiction applies the forking strategy to a clash between a held
// statement and an incoming one. Work done before the clash is discarded;
// under a forking strategy the triggering simulation then completes inside
// the child, and the result reports the child's outcome.
func (b *BeliefSystem) resolveContradiction(res *SimulationResult, existing, incoming *domain.Statement, inputs []*domain.Statement) (*SimulationResult, error) {
	contra := domain.Contradiction{
		Existing: existing.Clone(),
		Incoming: incoming.Clone(),
		Strategy: b.strategy,
	}
	res.DerivedFacts, res.AppliedRules, res.EffectsApplied = nil, nil, nil
	res.Contradictions = []domain.Contradiction{contra}

	if !b.strategy.Forks() {
		res.WorldStateAfter = b.world.Clone()
		return res, nil
	}

	child := b.spawnFork(contra)
	childRes, err := child.Simulate(inputs)
	if err != nil {
		return nil, err
	}
	res.DerivedFacts = childRes.DerivedFacts
	res.AppliedRules = childRes.AppliedRules
	res.EffectsApplied = childRes.EffectsApplied
	res.WorldStateAfter = childRes.WorldStateAfter
	res.Contradictions = append(res.Contradictions, childRes.Contradictions...)
	res.ForkedBeliefs = []*BeliefSystem{child}
	return res, nil
}

// spawnFork builds the contradiction child: the parent's state plus the
// incoming statement, with priorities adjusted per strategy. The favored
// statement always ends up with effective priority above the disfavored one.
func (b *BeliefSystem) spawnFork(contra domain.Contradiction) *BeliefSystem {
	child := b.child(b.name+"-fork", b.strategy)
	incoming := contra.Incoming.Clone()
	switch b.strategy {
	case domain.StrategyPrioritizeNew:
		child.facts.setPriority(contra.Existing, min(contra.Existing.Priority, incoming.Priority-1))
	case domain.StrategyPrioritizeOld:
		incoming.Priority = min(incoming.Priority, contra.Existing.Priority-1)
	}
	child.facts.add(incoming)
	b.forks = append(b.forks, Fork{Child: child, Contradiction: &contra, Strategy: b.strategy})
	return child
}

// Tensions probes the current rule set for latent conflicts, using the same
// rules as expansion context.
func (b *BeliefSystem) Tensions(hops int) []domain.Tension {
	return DetectTensions(b.rules, b.rules, hops)
}

// FactCount reports the size of the fact base.
func (b *BeliefSystem) FactCount() int { return b.facts.size() }

// HasFact reports whether a content-equal statement is held.
func (b *BeliefSystem) HasFact(s *domain.Statement) bool { return b.facts.has(s) }
