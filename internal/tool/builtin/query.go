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

package builtin

import (
	"context"
	"fmt"

	"toolbridge/internal/sqlguard"
	"toolbridge/internal/tool"
)

// QueryRunner SQL 执行守卫，*sqlguard.Guard 实现
type QueryRunner interface {
	Run(ctx context.Context, sql string, params any) tool.Result
}

// RawQueryTool 实现 execute_raw_query，SQL 与参数交由守卫处理
type RawQueryTool struct {
	guard QueryRunner
}

// NewRawQueryTool 创建 execute_raw_query 工具
func NewRawQueryTool(guard QueryRunner) *RawQueryTool {
	return &RawQueryTool{guard: guard}
}

// Name 实现 tool.Tool
func (t *RawQueryTool) Name() string { return sqlguard.ToolName }

// Description 实现 tool.Tool
func (t *RawQueryTool) Description() string {
	return "Executes a raw SQL query with positional parameters ($1, $2, ...) against the PostgreSQL database"
}

// Schema 实现 tool.Tool；params 可为数组、JSON 数组字符串或 null
func (t *RawQueryTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"sql": {Type: "string", Description: "SQL query to execute"},
			"params": {
				Description: "Query parameters",
				AnyOf: []tool.SchemaProperty{
					{Type: "array"},
					{Type: "string"},
					{Type: "null"},
				},
			},
		},
		Required: []string{"sql"},
	}
}

// Execute 实现 tool.Tool
func (t *RawQueryTool) Execute(ctx context.Context, input map[string]any) (tool.Result, error) {
	sql, ok := input["sql"].(string)
	if !ok {
		return tool.Result{}, fmt.Errorf("sql must be a string, got %T", input["sql"])
	}
	return t.guard.Run(ctx, sql, input["params"]), nil
}
