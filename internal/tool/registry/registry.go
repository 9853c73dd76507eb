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

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"toolbridge/internal/tool"
	pkgerrors "toolbridge/pkg/errors"
)

// Registry 工具注册表：启动时注册，之后只读；List/Describe 按注册顺序返回
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]tool.Tool
	aliases map[string]string
	order   []string
}

// New 创建新的 ToolRegistry
func New() *Registry {
	return &Registry{
		tools:   make(map[string]tool.Tool),
		aliases: make(map[string]string),
	}
}

// Register 注册工具，名称重复时返回错误
func (r *Registry) Register(t tool.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	if _, exists := r.aliases[name]; exists {
		return fmt.Errorf("tool %q conflicts with an alias", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// MustRegister Register 的 panic 版本，仅用于启动期装配
func (r *Registry) MustRegister(tools ...tool.Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// RegisterAlias 为已注册的工具增加别名；别名不出现在 manifest 中
func (r *Registry) RegisterAlias(alias, canonical string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[canonical]; !ok {
		return fmt.Errorf("alias %q targets unregistered tool %q", alias, canonical)
	}
	if _, exists := r.tools[alias]; exists {
		return fmt.Errorf("alias %q shadows a registered tool", alias)
	}
	r.aliases[alias] = canonical
	return nil
}

// Get 按名称或别名获取工具
func (r *Registry) Get(name string) (tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	t, ok := r.tools[name]
	return t, ok
}

// List 返回所有已注册工具
func (r *Registry) List() []tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tool.Tool, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name])
	}
	return list
}

// Describe 返回所有工具的描述，用于构建发往 LLM 的 manifest
func (r *Registry) Describe() []tool.Descriptor {
	tools := r.List()
	out := make([]tool.Descriptor, 0, len(tools))
	for _, t := range tools {
		out = append(out, tool.Describe(t))
	}
	return out
}

// Invoke 按名称直接调用工具（不做 Schema 校验），名称不存在时返回 ErrUnknownTool
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (tool.Result, error) {
	t, ok := r.Get(name)
	if !ok {
		return tool.Result{}, pkgerrors.Wrapf(pkgerrors.ErrUnknownTool, "%s", name)
	}
	return t.Execute(ctx, args)
}

// SchemasForLLM 返回所有工具的 Schema 列表（JSON 序列化）
func (r *Registry) SchemasForLLM() ([]byte, error) {
	return json.Marshal(r.Describe())
}
