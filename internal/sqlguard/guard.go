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

package sqlguard

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"toolbridge/internal/tool"
	"toolbridge/pkg/log"
	"toolbridge/pkg/metrics"
)

// ToolName 由 Guard 产出的结果统一使用的工具名
const ToolName = "execute_raw_query"

// Querier 数据库边界：执行参数化 SQL 并以列名到值的映射返回结果行
type Querier interface {
	Query(ctx context.Context, sql string, args []any) ([]map[string]any, error)
}

// Prepared 经过规范化、占位符检测、改写与参数截断后的语句
type Prepared struct {
	SQL       string
	Args      []any
	Rewritten bool
	// Dropped 被丢弃的参数个数（无占位符时全部丢弃，或超出引用位置的尾部参数）
	Dropped int
}

// Guard SQL 执行守卫
type Guard struct {
	querier Querier
	logger  *log.Logger
}

// Option Guard 可选配置
type Option func(*Guard)

// WithLogger 设置日志
func WithLogger(l *log.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// New 创建 Guard
func New(q Querier, opts ...Option) *Guard {
	g := &Guard{querier: q, logger: log.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Prepare 依次执行规范化、清洗、占位符检测、? 改写与参数截断；不会失败
func Prepare(sql string, params any) Prepared {
	args := Sanitize(NormalizeParams(params))
	p := Prepared{SQL: sql}

	marks := Scan(sql)
	if marks.None() {
		p.Dropped = len(args)
		p.Args = []any{}
		return p
	}

	limit := marks.MaxIndex
	if marks.Dollar == 0 {
		p.SQL = RewriteQuestionMarks(sql, marks.Question)
		p.Rewritten = true
		limit = len(marks.Question)
	}
	if len(args) > limit {
		p.Dropped = len(args) - limit
		args = args[:limit]
	}
	p.Args = args
	return p
}

// NormalizeParams 把任意形态的参数转换为列表：字符串按 JSON 解析，解析失败或非数组得到空列表
func NormalizeParams(params any) []any {
	switch v := params.(type) {
	case nil:
		return []any{}
	case []any:
		out := make([]any, len(v))
		copy(out, v)
		return out
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return []any{}
		}
		var parsed []any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil || parsed == nil {
			return []any{}
		}
		return parsed
	case json.RawMessage:
		return NormalizeParams(string(v))
	}
	rv := reflect.ValueOf(params)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{}
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte 视为 JSON 文本
		return NormalizeParams(string(rv.Bytes()))
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// Sanitize 去掉 nil 元素并裁剪字符串两端空白
func Sanitize(params []any) []any {
	out := make([]any, 0, len(params))
	for _, p := range params {
		switch v := p.(type) {
		case nil:
			continue
		case string:
			out = append(out, strings.TrimSpace(v))
		default:
			out = append(out, v)
		}
	}
	return out
}

// Run 预处理语句并委托给 Querier；结果总是 ToolCallResult，失败不在此处重试
func (g *Guard) Run(ctx context.Context, sql string, params any) tool.Result {
	if strings.TrimSpace(sql) == "" {
		return tool.Failure(ToolName, "Query execution failed",
			map[string]any{"query": sql, "parameters": []any{}}, errors.New("sql is required"))
	}
	p := Prepare(sql, params)
	if p.Dropped > 0 {
		g.logger.Debug("sqlguard 丢弃多余参数", "dropped", p.Dropped, "rewritten", p.Rewritten)
		metrics.SQLParamsDropped.Add(float64(p.Dropped))
	}

	rows, err := g.querier.Query(ctx, p.SQL, p.Args)
	if err != nil {
		g.logger.Warn("SQL 执行失败", "query", p.SQL, "error", err)
		return tool.Failure(ToolName, "Query execution failed",
			map[string]any{"query": p.SQL, "parameters": p.Args}, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return tool.Success(ToolName, "Query executed successfully", rows, map[string]any{
		"rowCount":   len(rows),
		"query":      p.SQL,
		"parameters": p.Args,
	})
}
