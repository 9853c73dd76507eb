package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"toolbridge/internal/tool"
	"toolbridge/pkg/metrics"
)

// Client 聊天后端客户端接口；tools 为空时是纯文本对话
type Client interface {
	// Chat 发送消息与工具清单，阻塞直到后端返回（不使用流式）
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*AssistantMessage, error)
	// Model 返回模型名称
	Model() string
	// Provider 返回提供商名称
	Provider() string
}

// Message 聊天消息
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ToolDefinition function-calling 工具声明
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition 工具函数声明
type FunctionDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  tool.Schema `json:"parameters"`
}

// ToolDefinitions 将注册表 manifest 转为请求中的 tools 字段
func ToolDefinitions(descs []tool.Descriptor) []ToolDefinition {
	out := make([]ToolDefinition, 0, len(descs))
	for _, d := range descs {
		out = append(out, ToolDefinition{
			Type:     "function",
			Function: FunctionDefinition{Name: d.Name, Description: d.Description, Parameters: d.Parameters},
		})
	}
	return out
}

// AssistantMessage 后端返回的助手消息：要么带 content，要么带 tool_calls
type AssistantMessage struct {
	Role      string     `json:"role,omitempty"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall 单个工具调用
type ToolCall struct {
	Function FunctionCall `json:"function"`
}

// FunctionCall 工具名与参数
type FunctionCall struct {
	Name      string    `json:"name"`
	Arguments Arguments `json:"arguments"`
}

// Arguments 工具参数；后端可能返回 JSON 对象，也可能返回 JSON 字符串
type Arguments map[string]any

// UnmarshalJSON 同时接受对象与字符串两种形态；字符串无法解析时得到空参数，由参数校验报告
func (a *Arguments) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Arguments{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
			*a = Arguments{}
			return nil
		}
		*a = m
		return nil
	}
	// 数组、数字等非对象一律视为空参数，交由 schema 校验失败后重试
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		*a = Arguments{}
		return nil
	}
	*a = m
	return nil
}

// FirstToolCall 返回第一个工具调用；其余调用被忽略
func (m *AssistantMessage) FirstToolCall() (tool.Call, bool) {
	if m == nil || len(m.ToolCalls) == 0 {
		return tool.Call{}, false
	}
	fc := m.ToolCalls[0].Function
	return tool.Call{Name: fc.Name, Arguments: map[string]any(fc.Arguments)}, true
}

// Options 创建客户端的参数
type Options struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	// Timeout 0 表示不设超时
	Timeout time.Duration
}

// NewClient 按 provider 创建客户端：ollama（默认）或 OpenAI 兼容端点（openai、qwen）
func NewClient(opts Options) (Client, error) {
	switch opts.Provider {
	case "", "ollama":
		return NewOllamaClient(opts), nil
	case "openai", "qwen":
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", opts.Provider)
	}
}

func observe(provider, outcome string, start time.Time) {
	metrics.LLMRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	metrics.LLMRequestTotal.WithLabelValues(provider, outcome).Inc()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
