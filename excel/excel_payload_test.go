package excel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayloadKeepsKeyOrder(t *testing.T) {
	p, err := ParsePayload(`{"Zeta": 1, "Alpha": "a", "Mid": null, "Nested": {"x": [1, 2]}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid", "Nested"}, p.Keys())

	v, ok := p.Get("Zeta")
	assert.True(t, ok)
	assert.Equal(t, float64(1), v)
	v, ok = p.Get("Mid")
	assert.True(t, ok)
	assert.Nil(t, v)
	_, ok = p.Get("Missing")
	assert.False(t, ok)
}

func TestParsePayloadMapSortsKeys(t *testing.T) {
	p, err := ParsePayload(map[string]interface{}{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, p.Keys())
	if diff := cmp.Diff(map[string]interface{}{"a": 1, "b": 2, "c": 3}, p.Map()); diff != "" {
		t.Errorf("Map() mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePayloadErrors(t *testing.T) {
	for _, in := range []interface{}{`{"Name": `, `not json`, ``, `[1, 2]`, `"text"`, 42} {
		_, err := ParsePayload(in)
		require.Error(t, err, "input %#v", in)
		assert.True(t, IsValidation(err), "input %#v", in)
		assert.Contains(t, err.Error(), "Invalid JSON format: ")
	}
}

func TestParsePayloadList(t *testing.T) {
	list, err := ParsePayloadList(`[{"Name": "Ada", "Age": 36}, {"Age": 40, "Name": "Bob"}, 7]`)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Name", "Age"}, list[0].Keys())
	assert.Equal(t, []string{"Age", "Name"}, list[1].Keys())
	assert.Equal(t, 0, list[2].Len())

	list, err = ParsePayloadList(`{"Name": "Ada"}`)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = ParsePayloadList([]interface{}{map[string]interface{}{"b": 1, "a": 2}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"a", "b"}, list[0].Keys())

	_, err = ParsePayloadList(`[{"Name": }]`)
	assert.True(t, IsValidation(err))
}
