package translator

import (
	"encoding/json"
	"testing"

	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/Harshitk-cp/fabricator/internal/fabric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEliminateDisjunctionNoOrIsIdentity(t *testing.T) {
	cond := domain.And(domain.Leaf("is", "?x", "king"), domain.Leaf("is", "?x", "wise"))
	disjuncts, err := EliminateDisjunction(cond)
	require.NoError(t, err)
	require.Len(t, disjuncts, 1)
	assert.Equal(t, cond.Canonical(), disjuncts[0].Canonical())
}

func TestEliminateDisjunctionTopLevelOr(t *testing.T) {
	cond := domain.Or(domain.Leaf("is", "?x", "man"), domain.Leaf("is", "?x", "god"))
	disjuncts, err := EliminateDisjunction(cond)
	require.NoError(t, err)
	require.Len(t, disjuncts, 2)
	for _, d := range disjuncts {
		assert.False(t, d.ContainsOr())
	}
}

func TestEliminateDisjunctionDistributesThroughAnd(t *testing.T) {
	// a AND (b OR c) AND (d OR e) => 4 disjuncts, each an OR-free AND.
	cond := domain.And(
		domain.Leaf("is", "?x", "a"),
		domain.Or(domain.Leaf("is", "?x", "b"), domain.Leaf("is", "?x", "c")),
		domain.Or(domain.Leaf("is", "?x", "d"), domain.Leaf("is", "?x", "e")),
	)
	disjuncts, err := EliminateDisjunction(cond)
	require.NoError(t, err)
	require.Len(t, disjuncts, 4)
	for _, d := range disjuncts {
		assert.False(t, d.ContainsOr())
		assert.Equal(t, domain.OpAnd, d.Op)
		assert.Len(t, d.Children, 3)
		// The authored order survives distribution: the "a" leaf stays first.
		assert.Equal(t, []string{"?x", "a"}, d.Children[0].Terms)
	}
}

func TestEliminateDisjunctionRejectsOrUnderQuantifier(t *testing.T) {
	cond := domain.Exists(domain.Or(domain.Leaf("is", "?x", "man"), domain.Leaf("is", "?x", "god")))
	_, err := EliminateDisjunction(cond)
	assert.ErrorIs(t, err, ErrUnsupportedIR)
}

// Simulation outcomes are indistinguishable before and after disjunction
// elimination: the emitted rule set derives exactly what a native OR
// evaluation would.
func TestDisjunctionEliminationObservationalEquivalence(t *testing.T) {
	ir := &IRRule{
		RuleType: "standard",
		Condition: &IRCondition{
			Type: "OR",
			Children: []*IRCondition{
				{Type: "LEAF", Subject: "?x", Verb: "is", Object: ObjectTerms{"man"}},
				{Type: "LEAF", Subject: "?x", Verb: "is", Object: ObjectTerms{"god"}},
			},
		},
		Consequence: json.RawMessage(`{"subject":"?x","verb":"is","object":"notable"}`),
	}
	rules, err := TranslateRule(ir)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	bs, err := fabric.NewBeliefSystem("dnf", domain.StrategyCoexist)
	require.NoError(t, err)
	for _, r := range rules {
		require.NoError(t, bs.AddRule(r))
	}

	res, err := bs.Simulate([]*domain.Statement{
		{Verb: "is", Terms: []string{"socrates", "man"}},
		{Verb: "is", Terms: []string{"athena", "god"}},
	})
	require.NoError(t, err)

	texts := make([]string, len(res.DerivedFacts))
	for i, f := range res.DerivedFacts {
		texts[i] = f.String()
	}
	assert.ElementsMatch(t, []string{"is socrates notable", "is athena notable"}, texts)

	// A subject satisfying both disjuncts is derived exactly once.
	res, err = bs.Simulate([]*domain.Statement{
		{Verb: "is", Terms: []string{"herakles", "man"}},
		{Verb: "is", Terms: []string{"herakles", "god"}},
	})
	require.NoError(t, err)
	texts = texts[:0]
	for _, f := range res.DerivedFacts {
		texts = append(texts, f.String())
	}
	assert.Equal(t, []string{"is herakles notable"}, texts)
}
