// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbridge/internal/tool"
	"toolbridge/internal/tool/builtin"
	"toolbridge/internal/tool/registry"
)

type panicTool struct{}

func (panicTool) Name() string        { return "boom" }
func (panicTool) Description() string { return "always panics" }
func (panicTool) Schema() tool.Schema { return tool.Schema{Type: "object"} }
func (panicTool) Execute(context.Context, map[string]any) (tool.Result, error) {
	panic("kaboom")
}

type guardStub struct{}

func (guardStub) Run(ctx context.Context, sql string, params any) tool.Result {
	return tool.Failure("execute_raw_query", "Query execution failed",
		map[string]any{"query": sql, "parameters": []any{}}, errors.New("syntax error"))
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	reg := registry.New()
	require.NoError(t, builtin.RegisterBuiltin(reg, guardStub{}))
	reg.MustRegister(panicTool{})
	e, err := NewEngine(reg)
	require.NoError(t, err)
	return e
}

func TestEngine_Success(t *testing.T) {
	e := newEngine(t)
	res := e.Execute(context.Background(), tool.Call{Name: "sub", Arguments: map[string]any{"a": 5.0, "b": 3.0}})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2.0, res.Data.Result)
	assert.Equal(t, "sub", res.ToolName)
}

func TestEngine_NumericStringsPassValidation(t *testing.T) {
	e := newEngine(t)
	res := e.Execute(context.Background(), tool.Call{Name: "sum", Arguments: map[string]any{"a": "2", "b": 3.0}})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 5.0, res.Data.Result)
}

func TestEngine_UnknownTool(t *testing.T) {
	e := newEngine(t)
	res := e.Execute(context.Background(), tool.Call{Name: "multiply", Arguments: map[string]any{}})
	assert.False(t, res.Success)
	assert.Equal(t, "multiply", res.ToolName)
	assert.Equal(t, "Unknown tool", res.Message)
	assert.Contains(t, res.Error, "unknown tool")
	assert.Contains(t, res.Error, "multiply")
}

func TestEngine_InvalidArguments(t *testing.T) {
	e := newEngine(t)
	res := e.Execute(context.Background(), tool.Call{Name: "sum", Arguments: map[string]any{"a": 1.0}})
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid tool arguments", res.Message)
	assert.Contains(t, res.Error, "invalid tool arguments")

	res = e.Execute(context.Background(), tool.Call{Name: "simple_reply", Arguments: nil})
	assert.False(t, res.Success)
	assert.Equal(t, "simple_reply", res.ToolName)
}

func TestEngine_ToolErrorConverted(t *testing.T) {
	e := newEngine(t)
	res := e.Execute(context.Background(), tool.Call{Name: "sum", Arguments: map[string]any{"a": "x", "b": 1.0}})
	assert.False(t, res.Success)
	assert.Equal(t, "Tool execution failed", res.Message)
	assert.Equal(t, "sum", res.ToolName)
	assert.Contains(t, res.Error, "operand a")
	assert.NotEmpty(t, res.Timestamp)
}

func TestEngine_PanicRecovered(t *testing.T) {
	e := newEngine(t)
	var res tool.Result
	require.NotPanics(t, func() {
		res = e.Execute(context.Background(), tool.Call{Name: "boom"})
	})
	assert.False(t, res.Success)
	assert.Equal(t, "Tool execution failed", res.Message)
	assert.Contains(t, res.Error, "kaboom")
}

func TestEngine_AliasAndGuardFailurePassThrough(t *testing.T) {
	e := newEngine(t)
	res := e.Execute(context.Background(), tool.Call{
		Name:      builtin.LegacyQueryAlias,
		Arguments: map[string]any{"sql": "SELEC 1", "params": `["a"]`},
	})
	assert.False(t, res.Success)
	assert.Equal(t, "execute_raw_query", res.ToolName)
	assert.Equal(t, "Query execution failed", res.Message)
	assert.Equal(t, "syntax error", res.Error)
}

func TestEngine_QueryParamsShapes(t *testing.T) {
	e := newEngine(t)
	for _, params := range []any{nil, []any{"a", 1.0}, `["a"]`} {
		res := e.Execute(context.Background(), tool.Call{
			Name:      "execute_raw_query",
			Arguments: map[string]any{"sql": "SELECT 1", "params": params},
		})
		assert.Equal(t, "Query execution failed", res.Message, "params %v must pass schema validation", params)
	}
}
