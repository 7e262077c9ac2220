package tunit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params, err := ParseParams("filePath: book.xlsx\nrowNumber: 3\n")
	require.NoError(t, err)
	assert.Equal(t, []map[string]interface{}{{"filePath": "book.xlsx", "rowNumber": 3}}, params)

	params, err = ParseParams("- text: a\n- text: b\n")
	require.NoError(t, err)
	assert.Equal(t, []map[string]interface{}{{"text": "a"}, {"text": "b"}}, params)

	params, err = ParseParams("")
	require.NoError(t, err)
	assert.Nil(t, params)

	_, err = ParseParams("- 1\n")
	assert.EqualError(t, err, "parameter set 0: expected mapping, got int")

	_, err = ParseParams("just text")
	assert.Error(t, err)
}
