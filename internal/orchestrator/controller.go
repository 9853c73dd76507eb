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
	"fmt"
	"time"

	"github.com/google/uuid"

	"toolbridge/internal/model/llm"
	"toolbridge/internal/tool"
	pkgerrors "toolbridge/pkg/errors"
	"toolbridge/pkg/log"
	"toolbridge/pkg/metrics"
	"toolbridge/pkg/tracing"
)

// DefaultMaxRetries 工具失败后重新提示 LLM 的默认上限
const DefaultMaxRetries = 10

const (
	directToolName  = "llm_response"
	backendToolName = "llm_query"
	noResponse      = "No response from LLM"
)

// Prompter 向 LLM 发送提示词（*Dispatcher 实现）
type Prompter interface {
	Dispatch(ctx context.Context, prompt string) (*llm.AssistantMessage, error)
}

// Executor 执行工具调用（*dispatch.Engine 实现）
type Executor interface {
	Execute(ctx context.Context, call tool.Call) tool.Result
}

// Session 一次编排的状态；只在单个 QueryLLM 调用内存活
type Session struct {
	ID             string
	OriginalPrompt string
	CurrentPrompt  string
	RetryCount     int
}

// Controller 重试控制器：DISPATCHING -> AWAITING_TOOL_RESULT -> DONE 或回到 DISPATCHING
type Controller struct {
	prompter   Prompter
	executor   Executor
	maxRetries int
	retryDelay time.Duration
	model      string
	logger     *log.Logger
}

// ControllerOption 可选配置
type ControllerOption func(*Controller)

// WithMaxRetries 设置重试上限；n < 0 视为 0
func WithMaxRetries(n int) ControllerOption {
	return func(c *Controller) {
		if n < 0 {
			n = 0
		}
		c.maxRetries = n
	}
}

// WithRetryDelay 设置两次重新提示之间的等待
func WithRetryDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.retryDelay = d }
}

// WithModel 设置 span 中记录的模型名称
func WithModel(model string) ControllerOption {
	return func(c *Controller) { c.model = model }
}

// WithLogger 设置日志
func WithLogger(l *log.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// NewController 创建 Controller
func NewController(p Prompter, e Executor, opts ...ControllerOption) *Controller {
	c := &Controller{
		prompter:   p,
		executor:   e,
		maxRetries: DefaultMaxRetries,
		logger:     log.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxRetries 返回重试上限
func (c *Controller) MaxRetries() int { return c.maxRetries }

// RetryPrompt 工具失败后发给 LLM 的新提示词，始终附带最初的提示词
func RetryPrompt(toolName, errText, original string) string {
	return fmt.Sprintf(`An error occurred while executing the tool "%s": %s. Please try again or suggest an alternative.. Original Prompt: %s`,
		toolName, errText, original)
}

// QueryLLM 编排入口：循环调度直到工具成功、LLM 直接回答、重试耗尽或后端失败；总是返回结果信封
func (c *Controller) QueryLLM(ctx context.Context, prompt string) tool.Result {
	s := &Session{ID: uuid.NewString(), OriginalPrompt: prompt, CurrentPrompt: prompt}
	logger := c.logger.With("session_id", s.ID)
	ctx, span := tracing.StartSessionSpan(ctx, s.ID)

	res, outcome := c.run(ctx, s, logger)

	metrics.SessionTotal.WithLabelValues(outcome).Inc()
	metrics.SessionRetries.Observe(float64(s.RetryCount))
	var spanErr error
	if !res.Success {
		spanErr = pkgerrors.New(res.ErrorText())
	}
	tracing.EndSpan(span, spanErr)
	return res
}

func (c *Controller) run(ctx context.Context, s *Session, logger *log.Logger) (tool.Result, string) {
	for {
		// DISPATCHING
		msg, err := c.dispatch(ctx, s)
		if err != nil {
			logger.Error("查询 LLM 失败", "retry_count", s.RetryCount, "error", err)
			return backendFailure(s, err), "backend_error"
		}
		logger.Debug("LLM 响应", "retry_count", s.RetryCount, "content", msg.Content, "tool_calls", len(msg.ToolCalls))

		call, ok := msg.FirstToolCall()
		if !ok {
			content := msg.Content
			if content == "" {
				content = noResponse
			}
			return tool.Success(directToolName, "Direct LLM response", content,
				map[string]any{"prompt": s.CurrentPrompt}), "direct"
		}

		// AWAITING_TOOL_RESULT
		res := c.executor.Execute(ctx, call)
		if res.Success {
			return res, "tool_success"
		}
		errText := res.ErrorText()
		logger.Warn("工具执行失败", "tool", call.Name, "retry_count", s.RetryCount, "error", errText)

		if s.RetryCount >= c.maxRetries {
			logger.Error("重试次数耗尽", "tool", call.Name, "retries", s.RetryCount)
			return exhausted(s, call.Name, errText), "exhausted"
		}
		s.CurrentPrompt = RetryPrompt(call.Name, errText, s.OriginalPrompt)
		s.RetryCount++

		if err := c.wait(ctx); err != nil {
			return backendFailure(s, err), "backend_error"
		}
	}
}

func (c *Controller) dispatch(ctx context.Context, s *Session) (*llm.AssistantMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dctx, span := tracing.StartDispatchSpan(ctx, c.model, s.RetryCount)
	msg, err := c.prompter.Dispatch(dctx, s.CurrentPrompt)
	tracing.EndSpan(span, err)
	if err == nil && msg == nil {
		msg = &llm.AssistantMessage{}
	}
	return msg, err
}

func (c *Controller) wait(ctx context.Context) error {
	if c.retryDelay <= 0 {
		return nil
	}
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backendFailure(s *Session, err error) tool.Result {
	return tool.Failure(backendToolName, "Failed to query LLM",
		map[string]any{"prompt": s.CurrentPrompt}, err)
}

func exhausted(s *Session, toolName, errText string) tool.Result {
	return tool.Failure(toolName, fmt.Sprintf(`Failed after retrying tool "%s"`, toolName),
		map[string]any{"originalPrompt": s.OriginalPrompt}, pkgerrors.New(errText))
}
