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

	"toolbridge/internal/tool"
)

// StatsProvider 计数服务，*stats.Service 实现
type StatsProvider interface {
	CountEmails(ctx context.Context) (int64, error)
	CountUniqueEmails(ctx context.Context) (int64, error)
	CountRuleTemplates(ctx context.Context) (int64, error)
	CountJobs(ctx context.Context) (int64, error)
	CountRuleDetails(ctx context.Context) (int64, error)
}

// CountTool 无参数的计数工具（MCP 暴露）
type CountTool struct {
	name        string
	description string
	label       string
	count       func(ctx context.Context) (int64, error)
}

// NewCountTools 为每个计数指标创建一个工具，顺序固定
func NewCountTools(s StatsProvider) []tool.Tool {
	return []tool.Tool{
		&CountTool{name: "countEmails", description: "Count all emails", label: "emails", count: s.CountEmails},
		&CountTool{name: "countUniqueEmails", description: "Count distinct email addresses", label: "unique emails", count: s.CountUniqueEmails},
		&CountTool{name: "countRuleTemplates", description: "Count rule templates", label: "rule templates", count: s.CountRuleTemplates},
		&CountTool{name: "countJobs", description: "Count jobs", label: "jobs", count: s.CountJobs},
		&CountTool{name: "countRuleDetails", description: "Count rule details", label: "rule details", count: s.CountRuleDetails},
	}
}

// Name 实现 tool.Tool
func (t *CountTool) Name() string { return t.name }

// Description 实现 tool.Tool
func (t *CountTool) Description() string { return t.description }

// Schema 实现 tool.Tool
func (t *CountTool) Schema() tool.Schema { return tool.Schema{Type: "object"} }

// Execute 实现 tool.Tool
func (t *CountTool) Execute(ctx context.Context, _ map[string]any) (tool.Result, error) {
	n, err := t.count(ctx)
	if err != nil {
		return tool.Result{}, fmt.Errorf("count %s: %w", t.label, err)
	}
	return tool.Success(t.name, fmt.Sprintf("Total %s: %d", t.label, n), map[string]any{"count": n}, nil), nil
}
