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
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"toolbridge/internal/tool"
	"toolbridge/internal/tool/registry"
	pkgerrors "toolbridge/pkg/errors"
	"toolbridge/pkg/log"
	"toolbridge/pkg/metrics"
	"toolbridge/pkg/tracing"
)

const unknownToolLabel = "_unknown"

// Engine 工具调度引擎：查找、参数校验、执行，并把一切错误与 panic 转换为失败 Result
type Engine struct {
	registry *registry.Registry
	schemas  map[string]*gojsonschema.Schema
	logger   *log.Logger
}

// Option Engine 可选配置
type Option func(*Engine)

// WithLogger 设置日志
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine 创建 Engine，并为注册表中每个工具预编译参数 Schema
func NewEngine(reg *registry.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry: reg,
		schemas:  make(map[string]*gojsonschema.Schema),
		logger:   log.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, t := range reg.List() {
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Schema()))
		if err != nil {
			return nil, fmt.Errorf("compile schema for tool %q: %w", t.Name(), err)
		}
		e.schemas[t.Name()] = s
	}
	return e, nil
}

// Execute 执行一次工具调用；不会返回 error，也不会让 panic 逃出
func (e *Engine) Execute(ctx context.Context, call tool.Call) (res tool.Result) {
	t, ok := e.registry.Get(call.Name)
	if !ok {
		metrics.ToolTotal.WithLabelValues(unknownToolLabel, "unknown_tool").Inc()
		err := fmt.Errorf("%w: %s", pkgerrors.ErrUnknownTool, call.Name)
		e.logger.Warn("LLM 请求了未注册的工具", "tool", call.Name)
		return tool.Failure(call.Name, "Unknown tool", nil, err)
	}
	name := t.Name()

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := e.validate(name, args); err != nil {
		metrics.ToolTotal.WithLabelValues(name, "invalid_args").Inc()
		e.logger.Warn("工具参数校验失败", "tool", name, "error", err)
		return tool.Failure(name, "Invalid tool arguments", nil, err)
	}

	ctx, span := tracing.StartToolSpan(ctx, name)
	start := time.Now()
	var execErr error
	defer func() {
		if r := recover(); r != nil {
			execErr = fmt.Errorf("tool panicked: %v", r)
			e.logger.Error("工具执行 panic", "tool", name, "panic", r)
			res = tool.Failure(name, "Tool execution failed", nil, execErr)
		}
		outcome := "success"
		if !res.Success {
			outcome = "failure"
		}
		metrics.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		metrics.ToolTotal.WithLabelValues(name, outcome).Inc()
		if execErr == nil && !res.Success {
			execErr = pkgerrors.New(res.ErrorText())
		}
		tracing.EndSpan(span, execErr)
	}()

	res, execErr = t.Execute(ctx, args)
	if execErr != nil {
		e.logger.Warn("工具执行失败", "tool", name, "error", execErr)
		return tool.Failure(name, "Tool execution failed", nil, execErr)
	}
	return res
}

// validate 按预编译 Schema 校验参数；运行期注册（不在预编译表中）的工具跳过校验
func (e *Engine) validate(name string, args map[string]any) error {
	s, ok := e.schemas[name]
	if !ok {
		return nil
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("%w: %v", pkgerrors.ErrInvalidArguments, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}
	return fmt.Errorf("%w: %s", pkgerrors.ErrInvalidArguments, strings.Join(msgs, "; "))
}
