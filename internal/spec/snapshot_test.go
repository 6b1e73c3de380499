package spec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	// Test: a validated specification survives serialization unchanged
	v, err := Validate(blogSpec())
	require.NoError(t, err)

	data, err := MarshalSnapshot(v)
	require.NoError(t, err)

	back, err := UnmarshalSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, v.Specification(), back.Specification())
}

func TestSnapshot_SchemaMirrorsModel(t *testing.T) {
	// Test: snapshot keys match the specification data model
	v, err := Validate(blogSpec())
	require.NoError(t, err)

	data, err := MarshalSnapshot(v)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"protocol", "framework", "language", "confidence", "entities", "endpoints", "auth"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "database", "absent optional sections are omitted")

	entity := raw["entities"].([]any)[0].(map[string]any)
	assert.ElementsMatch(t, []string{"name", "fields", "relations"}, keys(entity))
}

func TestSnapshot_RejectsInvalid(t *testing.T) {
	// Test: snapshots are validated when loaded
	_, err := UnmarshalSnapshot([]byte(`{"protocol":"REST","confidence":0.5,"entities":[]}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(CodeEmptySpecification))

	_, err = UnmarshalSnapshot([]byte(`{"protocol":"REST","unknown":true}`))
	assert.Error(t, err)

	_, err = MarshalSnapshot(nil)
	assert.Error(t, err)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
