package tool

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_JSONShape(t *testing.T) {
	restore := Now
	Now = func() string { return "2026-01-02T03:04:05.000Z" }
	defer func() { Now = restore }()

	r := Success("sub", "Subtraction completed", 2.0, map[string]any{"operation": "subtraction"})
	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "sub", got["toolName"])
	assert.Equal(t, "2026-01-02T03:04:05.000Z", got["timestamp"])
	assert.NotContains(t, got, "error")
	data := got["data"].(map[string]any)
	assert.Equal(t, 2.0, data["result"])
	assert.Contains(t, data, "details")
}

func TestFailure_CarriesError(t *testing.T) {
	r := Failure("execute_raw_query", "Query execution failed", nil, errors.New("relation \"x\" does not exist"))
	assert.False(t, r.Success)
	assert.Nil(t, r.Data.Result)
	assert.Equal(t, `relation "x" does not exist`, r.ErrorText())

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"result":null`)
	assert.NotContains(t, string(raw), `"details"`)
}

func TestErrorText_FallsBackToMessage(t *testing.T) {
	r := Failure("sum", "operand a is not a number", nil, nil)
	assert.Equal(t, "operand a is not a number", r.ErrorText())
}
