package fabric

import (
	"testing"

	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findFact(t *testing.T, bs *BeliefSystem, want *domain.Statement) *domain.Statement {
	t.Helper()
	for _, s := range bs.Statements() {
		if s.ContentEqual(want) {
			return s
		}
	}
	t.Fatalf("fact %s not found", want)
	return nil
}

func TestAddRuleRejectsDuplicate(t *testing.T) {
	bs := newBS(t, domain.StrategyCoexist)
	r := domain.MustRule(domain.Leaf("is", "?x", "man"), stmtCons("is", "?x", "mortal"))
	require.NoError(t, bs.AddRule(r))

	same := domain.MustRule(domain.Leaf("is", "?x", "man"), stmtCons("is", "?x", "mortal"))
	assert.ErrorIs(t, bs.AddRule(same), ErrDuplicateRule)
}

func TestAddRuleRejectsDisjunction(t *testing.T) {
	bs := newBS(t, domain.StrategyCoexist)
	r := domain.MustRule(
		domain.Or(domain.Leaf("is", "?x", "man"), domain.Leaf("is", "?x", "god")),
		stmtCons("is", "?x", "notable"),
	)
	assert.ErrorIs(t, bs.AddRule(r), ErrRuleHasOr)
}

func TestCoexistContradictionForks(t *testing.T) {
	bs := newBS(t, domain.StrategyCoexist)
	_, err := bs.Simulate([]*domain.Statement{st("is", "sky", "blue")})
	require.NoError(t, err)

	res, err := bs.Simulate([]*domain.Statement{negSt("is", "sky", "blue")})
	require.NoError(t, err)

	require.True(t, res.Forked())
	require.Len(t, res.Contradictions, 1)
	assert.Equal(t, "is sky blue", res.Contradictions[0].Existing.String())
	assert.Equal(t, "NOT is sky blue", res.Contradictions[0].Incoming.String())

	// The child holds both the original statement and its negation; both are
	// ground and content-distinct.
	child := res.ForkedBeliefs[0]
	assert.True(t, child.HasFact(st("is", "sky", "blue")))
	assert.True(t, child.HasFact(negSt("is", "sky", "blue")))
	assert.Equal(t, 2, child.FactCount())
	for _, s := range child.Statements() {
		assert.True(t, s.Ground())
	}

	// The parent is unchanged apart from recording the fork.
	assert.Equal(t, 1, bs.FactCount())
	assert.False(t, bs.HasFact(negSt("is", "sky", "blue")))
	require.Len(t, bs.Forks(), 1)
	assert.Equal(t, child.ID(), bs.Forks()[0].Child.ID())
	require.NotNil(t, bs.Forks()[0].Contradiction)
	assert.Equal(t, child.Parent().ID(), bs.ID())
}

func TestPreserveRejectsContradiction(t *testing.T) {
	bs := newBS(t, domain.StrategyPreserve)
	_, err := bs.Simulate([]*domain.Statement{st("is", "sky", "blue")})
	require.NoError(t, err)

	res, err := bs.Simulate([]*domain.Statement{negSt("is", "sky", "blue")})
	require.NoError(t, err)

	assert.False(t, res.Forked())
	require.Len(t, res.Contradictions, 1)
	assert.Equal(t, "NOT is sky blue", res.Contradictions[0].Incoming.String())
	assert.Equal(t, domain.StrategyPreserve, res.Contradictions[0].Strategy)

	assert.Equal(t, 1, bs.FactCount())
	assert.Empty(t, bs.Forks())
}

func TestPreserveNeverGrowsOnRepeatedContradiction(t *testing.T) {
	bs := newBS(t, domain.StrategyPreserve)
	_, err := bs.Simulate([]*domain.Statement{st("is", "sky", "blue")})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := bs.Simulate([]*domain.Statement{negSt("is", "sky", "blue")})
		require.NoError(t, err)
		assert.Equal(t, 1, bs.FactCount())
		assert.Empty(t, bs.Forks())
	}
}

func TestPrioritizeNewDownWeightsOldStatement(t *testing.T) {
	bs := newBS(t, domain.StrategyPrioritizeNew)
	_, err := bs.Simulate([]*domain.Statement{st("is", "sky", "blue")})
	require.NoError(t, err)

	incoming := negSt("is", "sky", "blue")
	incoming.Priority = 3
	res, err := bs.Simulate([]*domain.Statement{incoming})
	require.NoError(t, err)
	require.True(t, res.Forked())

	child := res.ForkedBeliefs[0]
	oldFact := findFact(t, child, st("is", "sky", "blue"))
	newFact := findFact(t, child, negSt("is", "sky", "blue"))
	assert.Equal(t, 3, newFact.Priority)
	assert.Greater(t, newFact.Priority, oldFact.Priority)
}

func TestPrioritizeOldDownWeightsIncomingStatement(t *testing.T) {
	bs := newBS(t, domain.StrategyPrioritizeOld)
	opening := st("is", "sky", "blue")
	opening.Priority = 2
	_, err := bs.Simulate([]*domain.Statement{opening})
	require.NoError(t, err)

	incoming := negSt("is", "sky", "blue")
	incoming.Priority = 2
	res, err := bs.Simulate([]*domain.Statement{incoming})
	require.NoError(t, err)
	require.True(t, res.Forked())

	child := res.ForkedBeliefs[0]
	oldFact := findFact(t, child, st("is", "sky", "blue"))
	newFact := findFact(t, child, negSt("is", "sky", "blue"))
	assert.Equal(t, 2, oldFact.Priority)
	assert.Greater(t, oldFact.Priority, newFact.Priority)
}

func TestForkCopiesCausalMemo(t *testing.T) {
	mortal := domain.MustRule(domain.Leaf("is", "?x", "man"), stmtCons("is", "?x", "mortal"))
	counter := domain.MustRule(domain.Leaf("is", "?x", "mortal"), effCons("mortal_count", domain.EffectIncrement, 1))
	bs := newBS(t, domain.StrategyCoexist, mortal, counter)

	_, err := bs.Simulate([]*domain.Statement{st("is", "socrates", "man")})
	require.NoError(t, err)

	res, err := bs.Simulate([]*domain.Statement{negSt("is", "socrates", "man")})
	require.NoError(t, err)
	require.True(t, res.Forked())

	// The fork inherits the memo: nothing refires over the parent's facts,
	// so no facts are re-derived and no effect is re-applied in the child.
	assert.Empty(t, res.DerivedFacts)
	child := res.ForkedBeliefs[0]
	assert.Equal(t, float64(1), child.World()["mortal_count"])
}

func TestContradictionFromDerivedStatementForks(t *testing.T) {
	flies := domain.MustRule(domain.Leaf("is", "?x", "bird"), stmtCons("can", "?x", "fly"))
	bs := newBS(t, domain.StrategyCoexist, flies)

	_, err := bs.Simulate([]*domain.Statement{negSt("can", "pingu", "fly")})
	require.NoError(t, err)

	res, err := bs.Simulate([]*domain.Statement{st("is", "pingu", "bird")})
	require.NoError(t, err)

	require.True(t, res.Forked())
	child := res.ForkedBeliefs[0]
	assert.True(t, child.HasFact(st("can", "pingu", "fly")))
	assert.True(t, child.HasFact(negSt("can", "pingu", "fly")))
	assert.True(t, child.HasFact(st("is", "pingu", "bird")))

	// The parent never admitted the triggering input.
	assert.False(t, bs.HasFact(st("is", "pingu", "bird")))
}

func TestSimulationCompletesWithinChild(t *testing.T) {
	mortal := domain.MustRule(domain.Leaf("is", "?x", "man"), stmtCons("is", "?x", "mortal"))
	bs := newBS(t, domain.StrategyCoexist, mortal)
	_, err := bs.Simulate([]*domain.Statement{st("is", "sky", "blue")})
	require.NoError(t, err)

	// One input contradicts, the other should still drive inference in the
	// child the simulation completes in.
	res, err := bs.Simulate([]*domain.Statement{
		negSt("is", "sky", "blue"),
		st("is", "socrates", "man"),
	})
	require.NoError(t, err)

	require.True(t, res.Forked())
	assert.Equal(t, []string{"is socrates mortal"}, derivedTexts(res))
	child := res.ForkedBeliefs[0]
	assert.True(t, child.HasFact(st("is", "socrates", "man")))
	assert.True(t, child.HasFact(st("is", "socrates", "mortal")))
	assert.False(t, bs.HasFact(st("is", "socrates", "man")))
}

func TestForkManualInheritsEverything(t *testing.T) {
	mortal := domain.MustRule(domain.Leaf("is", "?x", "man"), stmtCons("is", "?x", "mortal"))
	bs := newBS(t, domain.StrategyCoexist, mortal)
	_, err := bs.Simulate([]*domain.Statement{st("is", "socrates", "man")})
	require.NoError(t, err)

	child, err := bs.ForkManual("what-if", domain.StrategyPreserve)
	require.NoError(t, err)

	assert.Equal(t, domain.StrategyPreserve, child.Strategy())
	assert.Equal(t, bs.FactCount(), child.FactCount())
	assert.Len(t, child.Rules(), 1)
	assert.Equal(t, bs.ID(), child.Parent().ID())
	require.Len(t, bs.Forks(), 1)
	assert.Nil(t, bs.Forks()[0].Contradiction)

	// Divergence stays in the child.
	_, err = child.Simulate([]*domain.Statement{st("is", "plato", "man")})
	require.NoError(t, err)
	assert.True(t, child.HasFact(st("is", "plato", "mortal")))
	assert.False(t, bs.HasFact(st("is", "plato", "man")))
}

func TestForkManualDefaultStrategyInherited(t *testing.T) {
	bs := newBS(t, domain.StrategyPrioritizeOld)
	child, err := bs.ForkManual("branch", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyPrioritizeOld, child.Strategy())
}
