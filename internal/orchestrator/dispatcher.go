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

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"toolbridge/internal/model/llm"
	"toolbridge/internal/tablecontext"
	"toolbridge/internal/tool"
)

// ManifestProvider 提供工具清单（如 tool/registry.Registry）
type ManifestProvider interface {
	Describe() []tool.Descriptor
}

// Dispatcher 把提示词与工具清单发给聊天后端
type Dispatcher struct {
	client llm.Client
	tools  []llm.ToolDefinition
	system string
}

// DispatcherOption 可选配置
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	contexts tablecontext.Set
	tables   []string
}

// WithTableContexts 指定 system 消息中使用的表上下文与表名；未指定时不写表上下文
func WithTableContexts(contexts tablecontext.Set, tables []string) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.contexts = contexts
		o.tables = tables
	}
}

// NewDispatcher 创建 Dispatcher；注册表只读，manifest 与 system 消息在此一次性生成
func NewDispatcher(client llm.Client, manifest ManifestProvider, opts ...DispatcherOption) (*Dispatcher, error) {
	var o dispatcherOptions
	for _, opt := range opts {
		opt(&o)
	}
	descs := manifest.Describe()
	raw, err := json.Marshal(descs)
	if err != nil {
		return nil, fmt.Errorf("序列化工具清单失败: %w", err)
	}
	return &Dispatcher{
		client: client,
		tools:  llm.ToolDefinitions(descs),
		system: buildSystemPrompt(o.contexts.Render(o.tables), string(raw)),
	}, nil
}

func buildSystemPrompt(tableContext, manifest string) string {
	var b strings.Builder
	if tableContext != "" {
		b.WriteString("Context: PostgreSQL tables available to execute_raw_query.\n")
		b.WriteString(tableContext)
		b.WriteString("\n\n")
	}
	b.WriteString("Available tools:\n")
	b.WriteString(manifest)
	return b.String()
}

// Dispatch 发送一次带工具清单的请求，阻塞至后端返回
func (d *Dispatcher) Dispatch(ctx context.Context, prompt string) (*llm.AssistantMessage, error) {
	return d.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: d.system},
		{Role: "user", Content: prompt},
	}, d.tools)
}

// SendText 不带工具的纯文本对话，返回助手回复内容
func (d *Dispatcher) SendText(ctx context.Context, prompt string) (string, error) {
	msg, err := d.client.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// SystemPrompt 返回生成的 system 消息
func (d *Dispatcher) SystemPrompt() string { return d.system }

// Model 返回后端模型名称
func (d *Dispatcher) Model() string { return d.client.Model() }
