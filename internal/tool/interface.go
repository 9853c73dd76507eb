package tool

import (
	"context"
	"time"
)

// Schema 表示工具的 JSON Schema（供 LLM function-calling 与参数校验使用）
type Schema struct {
	Type        string                    `json:"type,omitempty"`
	Description string                    `json:"description,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
	Required    []string                  `json:"required,omitempty"`
}

// SchemaProperty 表示 Schema 中单个属性的描述
type SchemaProperty struct {
	Type        string           `json:"type,omitempty"`
	Description string           `json:"description,omitempty"`
	Items       *SchemaProperty  `json:"items,omitempty"`
	AnyOf       []SchemaProperty `json:"anyOf,omitempty"`
}

// Descriptor 工具描述（名称唯一，注册后不可变）
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// Call 一次工具调用请求（由 LLM 响应解析而来）
type Call struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Tool Runtime 级工具接口；Execute 返回 error 表示工具自身逻辑失败，由 Dispatch Engine 转换为失败 Result
type Tool interface {
	Name() string
	Description() string
	Schema() Schema
	Execute(ctx context.Context, input map[string]any) (Result, error)
}

// Describe 返回工具的 Descriptor
func Describe(t Tool) Descriptor {
	return Descriptor{Name: t.Name(), Description: t.Description(), Parameters: t.Schema()}
}

// TimestampLayout ISO-8601，毫秒精度，UTC
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Now 返回当前时间戳字符串；测试可替换
var Now = func() string {
	return time.Now().UTC().Format(TimestampLayout)
}
