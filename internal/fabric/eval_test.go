package fabric

import (
	"sort"
	"testing"

	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindingKeys(envs []domain.Binding) []string {
	keys := make([]string, len(envs))
	for i, e := range envs {
		keys[i] = e.Key()
	}
	sort.Strings(keys)
	return keys
}

func TestEvaluateLeafYieldsAllBindings(t *testing.T) {
	facts := []*domain.Statement{
		st("is", "socrates", "man"),
		st("is", "plato", "man"),
		st("is", "athena", "god"),
	}
	envs, err := Evaluate(domain.Leaf("is", "?x", "man"), facts, nil)
	require.NoError(t, err)
	require.Len(t, envs, 2)

	want := bindingKeys([]domain.Binding{{"?x": "socrates"}, {"?x": "plato"}})
	if diff := cmp.Diff(want, bindingKeys(envs)); diff != "" {
		t.Errorf("binding set mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateAndJoinsConsistently(t *testing.T) {
	facts := []*domain.Statement{
		st("is", "arthur", "king"),
		st("is", "arthur", "wise"),
		st("is", "mordred", "king"),
	}
	cond := domain.And(domain.Leaf("is", "?x", "king"), domain.Leaf("is", "?x", "wise"))
	envs, err := Evaluate(cond, facts, nil)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "arthur", envs[0]["?x"])
}

func TestEvaluateAndChildOrderIrrelevantToResultSet(t *testing.T) {
	facts := []*domain.Statement{
		st("is", "arthur", "king"),
		st("is", "arthur", "wise"),
	}
	ab := domain.And(domain.Leaf("is", "?x", "king"), domain.Leaf("is", "?x", "wise"))
	ba := domain.And(domain.Leaf("is", "?x", "wise"), domain.Leaf("is", "?x", "king"))

	envsAB, err := Evaluate(ab, facts, nil)
	require.NoError(t, err)
	envsBA, err := Evaluate(ba, facts, nil)
	require.NoError(t, err)

	assert.Equal(t, bindingKeys(envsAB), bindingKeys(envsBA))
}

func TestEvaluateAndReusesFactsAcrossChildren(t *testing.T) {
	// Both children may match the same statement; conjunction does not
	// consume facts.
	facts := []*domain.Statement{st("is", "arthur", "king")}
	cond := domain.And(domain.Leaf("is", "?x", "king"), domain.Leaf("is", "?y", "king"))
	envs, err := Evaluate(cond, facts, nil)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "arthur", envs[0]["?x"])
	assert.Equal(t, "arthur", envs[0]["?y"])
}

func TestEvaluateExistsPassesEnvWithoutLeaking(t *testing.T) {
	facts := []*domain.Statement{st("is", "tweety", "bird")}
	envs, err := Evaluate(domain.Exists(domain.Leaf("is", "?b", "bird")), facts, nil)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.NotContains(t, envs[0], "?b")
}

func TestEvaluateForAll(t *testing.T) {
	facts := []*domain.Statement{
		st("is_subject_of", "lancelot", "arthur"),
		st("is_subject_of", "gawain", "arthur"),
		st("is", "lancelot", "loyal"),
		st("is", "gawain", "loyal"),
	}
	cond := domain.ForAll(domain.Leaf("is_subject_of", "?y", "arthur"), domain.Leaf("is", "?y", "loyal"))
	envs, err := Evaluate(cond, facts, nil)
	require.NoError(t, err)
	assert.Len(t, envs, 1)

	// One disloyal subject breaks universality.
	facts = append(facts, st("is_subject_of", "mordred", "arthur"))
	envs, err = Evaluate(cond, facts, nil)
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestEvaluateForAllVacuouslyTrueOverEmptyDomain(t *testing.T) {
	cond := domain.ForAll(domain.Leaf("is_subject_of", "?y", "arthur"), domain.Leaf("is", "?y", "loyal"))
	envs, err := Evaluate(cond, nil, nil)
	require.NoError(t, err)
	assert.Len(t, envs, 1)
}

func TestEvaluateNoneDuality(t *testing.T) {
	// eval(NONE(c)) is non-empty iff eval(c) is empty.
	conds := []*domain.Condition{
		domain.Leaf("is", "?x", "man"),
		domain.Leaf("is", "?x", "god"),
		domain.And(domain.Leaf("is", "?x", "man"), domain.Leaf("is", "?x", "mortal")),
	}
	facts := []*domain.Statement{
		st("is", "socrates", "man"),
		st("is", "socrates", "mortal"),
	}
	for _, c := range conds {
		inner, err := Evaluate(c, facts, nil)
		require.NoError(t, err)
		outer, err := Evaluate(domain.None(c), facts, nil)
		require.NoError(t, err)
		assert.Equal(t, len(inner) == 0, len(outer) != 0, "NONE duality violated for %s", c)
	}
}

func TestEvaluateExistsEquivalentToCountPositive(t *testing.T) {
	// EXISTS(c) and COUNT(c, ">", 0) expose the same outward binding set.
	conds := []*domain.Condition{
		domain.Leaf("is", "?x", "man"),
		domain.Leaf("is", "?x", "god"),
	}
	facts := []*domain.Statement{
		st("is", "socrates", "man"),
		st("is", "plato", "man"),
	}
	for _, c := range conds {
		exists, err := Evaluate(domain.Exists(c), facts, nil)
		require.NoError(t, err)
		count, err := Evaluate(domain.Count(c, ">", 0), facts, nil)
		require.NoError(t, err)
		assert.Equal(t, bindingKeys(exists), bindingKeys(count))
	}
}

func TestEvaluateCountDistinctBindings(t *testing.T) {
	facts := []*domain.Statement{
		st("is", "socrates", "man"),
		st("is", "plato", "man"),
		st("is", "aristotle", "man"),
	}
	tests := []struct {
		op    string
		value int
		holds bool
	}{
		{"=", 3, true},
		{"=", 2, false},
		{">=", 3, true},
		{">", 3, false},
		{"<", 4, true},
		{"<=", 2, false},
	}
	for _, tt := range tests {
		envs, err := Evaluate(domain.Count(domain.Leaf("is", "?x", "man"), tt.op, tt.value), facts, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.holds, len(envs) == 1, "count %s %d", tt.op, tt.value)
	}
}

func TestEvaluateRejectsOr(t *testing.T) {
	cond := domain.Or(domain.Leaf("is", "?x", "man"), domain.Leaf("is", "?x", "god"))
	_, err := Evaluate(cond, nil, nil)
	assert.ErrorIs(t, err, ErrDisjunction)
}

func TestEvaluateQuantifierUnderConjunction(t *testing.T) {
	facts := []*domain.Statement{
		st("is", "arthur", "king"),
		st("is_subject_of", "lancelot", "arthur"),
		st("is", "lancelot", "loyal"),
	}
	cond := domain.And(
		domain.Leaf("is", "?x", "king"),
		domain.ForAll(domain.Leaf("is_subject_of", "?y", "?x"), domain.Leaf("is", "?y", "loyal")),
	)
	envs, err := Evaluate(cond, facts, nil)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "arthur", envs[0]["?x"])
	assert.NotContains(t, envs[0], "?y")
}
