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
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"toolbridge/internal/tool"
)

// ArithmeticTool sum / sub 共用实现
type ArithmeticTool struct {
	name        string
	description string
	operation   string
	message     string
	aDesc       string
	bDesc       string
	apply       func(a, b float64) float64
}

// NewSumTool 创建 sum 工具
func NewSumTool() *ArithmeticTool {
	return &ArithmeticTool{
		name:        "sum",
		description: "Calculates the sum of two numbers",
		operation:   "addition",
		message:     "Addition completed",
		aDesc:       "First number to add",
		bDesc:       "Second number to add",
		apply:       func(a, b float64) float64 { return a + b },
	}
}

// NewSubTool 创建 sub 工具
func NewSubTool() *ArithmeticTool {
	return &ArithmeticTool{
		name:        "sub",
		description: "Calculates the difference of two numbers (a minus b)",
		operation:   "subtraction",
		message:     "Subtraction completed",
		aDesc:       "First number (minuend)",
		bDesc:       "Second number (subtrahend)",
		apply:       func(a, b float64) float64 { return a - b },
	}
}

// Name 实现 tool.Tool
func (t *ArithmeticTool) Name() string { return t.name }

// Description 实现 tool.Tool
func (t *ArithmeticTool) Description() string { return t.description }

// Schema 实现 tool.Tool；数字字符串同样接受，执行时再转换
func (t *ArithmeticTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"a": numericProperty(t.aDesc),
			"b": numericProperty(t.bDesc),
		},
		Required: []string{"a", "b"},
	}
}

func numericProperty(desc string) tool.SchemaProperty {
	return tool.SchemaProperty{
		Description: desc,
		AnyOf:       []tool.SchemaProperty{{Type: "number"}, {Type: "string"}},
	}
}

// Execute 实现 tool.Tool
func (t *ArithmeticTool) Execute(ctx context.Context, input map[string]any) (tool.Result, error) {
	a, err := ToFloat(input["a"])
	if err != nil {
		return tool.Result{}, fmt.Errorf("operand a: %w", err)
	}
	b, err := ToFloat(input["b"])
	if err != nil {
		return tool.Result{}, fmt.Errorf("operand b: %w", err)
	}
	return tool.Success(t.name, t.message, t.apply(a, b), map[string]any{
		"operands":  map[string]any{"a": a, "b": b},
		"operation": t.operation,
	}), nil
}

// Compute 直接计算（HTTP /api/tools 使用），不产生结果信封
func (t *ArithmeticTool) Compute(a, b any) (float64, error) {
	x, err := ToFloat(a)
	if err != nil {
		return 0, fmt.Errorf("operand a: %w", err)
	}
	y, err := ToFloat(b)
	if err != nil {
		return 0, fmt.Errorf("operand b: %w", err)
	}
	return t.apply(x, y), nil
}

// ToFloat 将 JSON 数字、整型、json.Number 或数字字符串转换为 float64
func ToFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n.String())
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("value is required")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not a finite number", f)
	}
	return f, nil
}
