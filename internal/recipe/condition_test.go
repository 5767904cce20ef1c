package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalCondition_Comparisons(t *testing.T) {
	env := map[string]interface{}{
		"count": float64(3),
		"name":  "alpha",
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"count > 0", true},
		{"count > 3", false},
		{"count >= 3", true},
		{"count < 10", true},
		{"count <= 2", false},
		{"count == 3", true},
		{"count != 3", false},
		// Coercive equality compares string forms.
		{"count == '3'", true},
		{"name == 'alpha'", true},
		{"name != 'beta'", true},
	}
	for _, tt := range tests {
		got, err := EvalCondition(tt.expr, env)
		require.NoError(t, err, tt.expr)
		assert.Equal(t, tt.want, got, tt.expr)
	}
}

func TestEvalCondition_LogicalShortCircuit(t *testing.T) {
	env := map[string]interface{}{"count": float64(0)}

	// The right side references an unknown identifier; short-circuit
	// must keep it unevaluated.
	got, err := EvalCondition("count == 0 || missing > 1", env)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalCondition("count > 0 && missing > 1", env)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvalCondition_NotAndParens(t *testing.T) {
	env := map[string]interface{}{"flag": false, "count": float64(2)}

	got, err := EvalCondition("!flag", env)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalCondition("!(count > 5) && count > 1", env)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalCondition_MethodsAndProperties(t *testing.T) {
	env := map[string]interface{}{
		"name":    "createWidget",
		"matches": []interface{}{"alpha", "beta"},
		"record":  map[string]interface{}{"kind": "function-declaration"},
	}

	got, err := EvalCondition("name.includes('Widget')", env)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalCondition("matches.includes('beta')", env)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalCondition("matches.length == 2", env)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalCondition("matches.count >= 2", env)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalCondition("matches[1] == 'beta'", env)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalCondition("record.kind == 'function-declaration'", env)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalCondition_Substitution(t *testing.T) {
	env := map[string]interface{}{"count": float64(2), "name": "alpha"}

	got, err := EvalCondition("${count} > 1", env)
	require.NoError(t, err)
	assert.True(t, got)

	// String values inline as quoted JSON and still compare.
	got, err = EvalCondition("${name} == 'alpha'", env)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalCondition_UnknownIdentifier(t *testing.T) {
	_, err := EvalCondition("missing > 1", map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown identifier")
}

func TestEvalCondition_RelationalRequiresNumbers(t *testing.T) {
	env := map[string]interface{}{"name": "alpha"}
	_, err := EvalCondition("name > 1", env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numeric")
}

func TestSubstitute_ArgumentStrings(t *testing.T) {
	env := map[string]interface{}{
		"target": "createWidget",
		"count":  float64(3),
	}

	out, err := Substitute("function:${target}", env)
	require.NoError(t, err)
	assert.Equal(t, "function:createWidget", out)

	out, err = Substitute("limit ${count}", env)
	require.NoError(t, err)
	assert.Equal(t, "limit 3", out)

	_, err = Substitute("${missing}", env)
	require.Error(t, err)
}
