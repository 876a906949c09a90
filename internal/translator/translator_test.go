package translator

import (
	"encoding/json"
	"testing"

	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateStatementFlattensSubjectAndObject(t *testing.T) {
	st, err := TranslateStatement(&IRStatement{Subject: "socrates", Verb: "is", Object: ObjectTerms{"man"}})
	require.NoError(t, err)
	assert.Equal(t, "is", st.Verb)
	assert.Equal(t, []string{"socrates", "man"}, st.Terms)
	assert.False(t, st.Negated)
}

func TestTranslateStatementArrayObject(t *testing.T) {
	st, err := TranslateStatement(&IRStatement{Subject: "ravi", Verb: "says", Object: ObjectTerms{"hello", "world"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ravi", "hello", "world"}, st.Terms)
}

func TestObjectTermsAcceptsStringOrArray(t *testing.T) {
	var single ObjectTerms
	require.NoError(t, json.Unmarshal([]byte(`"man"`), &single))
	assert.Equal(t, ObjectTerms{"man"}, single)

	var many ObjectTerms
	require.NoError(t, json.Unmarshal([]byte(`["hello","world"]`), &many))
	assert.Equal(t, ObjectTerms{"hello", "world"}, many)

	var bad ObjectTerms
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestTranslateStandardRule(t *testing.T) {
	ir := &IRRule{
		RuleType:    "standard",
		Condition:   &IRCondition{Type: "LEAF", Subject: "?x", Verb: "is", Object: ObjectTerms{"man"}},
		Consequence: json.RawMessage(`{"subject":"?x","verb":"is","object":"mortal"}`),
	}
	rules, err := TranslateRule(ir)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	r := rules[0]
	assert.Equal(t, domain.OpLeaf, r.Condition.Op)
	require.Len(t, r.Consequences, 1)
	require.NotNil(t, r.Consequences[0].Statement)
	assert.Equal(t, []string{"?x", "mortal"}, r.Consequences[0].Statement.Terms)
}

func TestTranslateEffectRule(t *testing.T) {
	ir := &IRRule{
		RuleType:    "effect",
		Condition:   &IRCondition{Type: "LEAF", Subject: "?x", Verb: "is", Object: ObjectTerms{"mortal"}},
		Consequence: json.RawMessage(`{"target_world_state_key":"mortal_count","effect_operation":"increment","effect_value":1}`),
	}
	rules, err := TranslateRule(ir)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	eff := rules[0].Consequences[0].Effect
	require.NotNil(t, eff)
	assert.Equal(t, "mortal_count", eff.Key)
	assert.Equal(t, domain.EffectIncrement, eff.Op)
	assert.Equal(t, float64(1), eff.Value)
}

func TestTranslateRuleRejectsUnknownEffectOperation(t *testing.T) {
	ir := &IRRule{
		RuleType:    "effect",
		Condition:   &IRCondition{Type: "LEAF", Subject: "?x", Verb: "is", Object: ObjectTerms{"mortal"}},
		Consequence: json.RawMessage(`{"target_world_state_key":"x","effect_operation":"divide","effect_value":2}`),
	}
	_, err := TranslateRule(ir)
	assert.ErrorIs(t, err, domain.ErrUnknownEffectOperation)
}

func TestTranslateConditionQuantifiers(t *testing.T) {
	ir := &IRCondition{
		Type: "FORALL",
		Children: []*IRCondition{
			{Type: "LEAF", Subject: "?y", Verb: "is_subject_of", Object: ObjectTerms{"?x"}},
			{Type: "LEAF", Subject: "?y", Verb: "is", Object: ObjectTerms{"loyal"}},
		},
	}
	cond, err := translateCondition(ir)
	require.NoError(t, err)
	assert.Equal(t, domain.OpForAll, cond.Op)
	require.Len(t, cond.Children, 2)
	assert.Equal(t, []string{"?y", "?x"}, cond.Children[0].Terms)
}

func TestTranslateConditionCountNormalizesOperator(t *testing.T) {
	ir := &IRCondition{
		Type:     "COUNT",
		Operator: "==",
		Value:    3,
		Children: []*IRCondition{{Type: "LEAF", Subject: "?x", Verb: "is", Object: ObjectTerms{"juror"}}},
	}
	cond, err := translateCondition(ir)
	require.NoError(t, err)
	assert.Equal(t, "=", cond.CountOp)
	assert.Equal(t, 3, cond.CountValue)
}

func TestTranslateConditionUnknownType(t *testing.T) {
	_, err := translateCondition(&IRCondition{Type: "XOR"})
	assert.ErrorIs(t, err, domain.ErrUnknownConditionType)
}

func TestTranslateEnvelopeStatement(t *testing.T) {
	raw := []byte(`{"input_type":"statement","data":{"subject":"sky","verb":"is","object":"blue","negated":true}}`)
	rules, st, err := TranslateEnvelope(raw)
	require.NoError(t, err)
	assert.Nil(t, rules)
	require.NotNil(t, st)
	assert.True(t, st.Negated)
	assert.Equal(t, []string{"sky", "blue"}, st.Terms)
}

func TestTranslateEnvelopeRule(t *testing.T) {
	raw := []byte(`{
		"input_type": "rule",
		"data": {
			"rule_type": "standard",
			"condition": {"type":"LEAF","subject":"?x","verb":"is","object":"man"},
			"consequence": {"subject":"?x","verb":"is","object":"mortal"}
		}
	}`)
	rules, st, err := TranslateEnvelope(raw)
	require.NoError(t, err)
	assert.Nil(t, st)
	require.Len(t, rules, 1)
}

func TestTranslateEnvelopeRejectsGarbage(t *testing.T) {
	_, _, err := TranslateEnvelope([]byte(`{"input_type":"sonnet"}`))
	assert.ErrorIs(t, err, ErrMalformedIR)

	_, _, err = TranslateEnvelope([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedIR)
}
