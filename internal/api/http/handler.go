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

package http

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"toolbridge/internal/tool"
	"toolbridge/internal/tool/builtin"
	"toolbridge/pkg/log"
	"toolbridge/pkg/metrics"
)

// Orchestrator 带工具调用与重试的 LLM 编排入口
type Orchestrator interface {
	QueryLLM(ctx context.Context, prompt string) tool.Result
}

// Texter 不带工具的直接对话
type Texter interface {
	SendText(ctx context.Context, prompt string) (string, error)
}

// Manifest 工具清单
type Manifest interface {
	Describe() []tool.Descriptor
}

// Calculator sum / sub 的计算部分
type Calculator interface {
	Compute(a, b any) (float64, error)
}

// Handler HTTP 处理器
type Handler struct {
	orchestrator Orchestrator
	texter       Texter
	manifest     Manifest
	sum          Calculator
	sub          Calculator
	stats        builtin.StatsProvider
	logger       *log.Logger
}

// NewHandler 创建 HTTP 处理器；stats 通过 SetStats 注入（未配置数据库时为空）
func NewHandler(orchestrator Orchestrator, texter Texter, manifest Manifest) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		texter:       texter,
		manifest:     manifest,
		sum:          builtin.NewSumTool(),
		sub:          builtin.NewSubTool(),
		logger:       log.Nop(),
	}
}

// SetStats 注入计数服务
func (h *Handler) SetStats(s builtin.StatsProvider) {
	h.stats = s
}

// SetLogger 设置日志
func (h *Handler) SetLogger(l *log.Logger) {
	if l != nil {
		h.logger = l
	}
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type operandsRequest struct {
	A any `json:"a"`
	B any `json:"b"`
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "toolbridge-api",
	})
}

// Query 编排查询，返回工具调用结果
// POST /api/mcp/query
func (h *Handler) Query(ctx context.Context, c *app.RequestContext) {
	prompt, ok := h.bindPrompt(c)
	if !ok {
		return
	}
	c.JSON(consts.StatusOK, h.orchestrator.QueryLLM(ctx, prompt))
}

// SendText 直接把 prompt 发给 LLM，返回文本
// POST /api/mcp
func (h *Handler) SendText(ctx context.Context, c *app.RequestContext) {
	prompt, ok := h.bindPrompt(c)
	if !ok {
		return
	}
	text, err := h.texter.SendText(ctx, prompt)
	if err != nil {
		h.logger.Error("与 LLM 通信失败", "error", err)
		c.JSON(consts.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("Failed to communicate with LLM: %v", err),
		})
		return
	}
	c.String(consts.StatusOK, text)
}

// ListTools 工具清单
// GET /api/mcp/tools
func (h *Handler) ListTools(ctx context.Context, c *app.RequestContext) {
	tools := h.manifest.Describe()
	c.JSON(consts.StatusOK, map[string]any{
		"tools": tools,
		"total": len(tools),
	})
}

// Sum POST /api/tools/sum
func (h *Handler) Sum(ctx context.Context, c *app.RequestContext) {
	h.compute(c, h.sum)
}

// Sub POST /api/tools/sub
func (h *Handler) Sub(ctx context.Context, c *app.RequestContext) {
	h.compute(c, h.sub)
}

func (h *Handler) compute(c *app.RequestContext, calc Calculator) {
	var req operandsRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	result, err := calc.Compute(req.A, req.B)
	if err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, map[string]any{"result": result})
}

// CountEmails GET /api/metrics/emails/count
func (h *Handler) CountEmails(ctx context.Context, c *app.RequestContext) {
	h.count(ctx, c, "emails", func(s builtin.StatsProvider) (int64, error) { return s.CountEmails(ctx) })
}

// CountUniqueEmails GET /api/metrics/emails/unique/count
func (h *Handler) CountUniqueEmails(ctx context.Context, c *app.RequestContext) {
	h.count(ctx, c, "unique emails", func(s builtin.StatsProvider) (int64, error) { return s.CountUniqueEmails(ctx) })
}

// CountRuleTemplates GET /api/metrics/rule-templates/count
func (h *Handler) CountRuleTemplates(ctx context.Context, c *app.RequestContext) {
	h.count(ctx, c, "rule templates", func(s builtin.StatsProvider) (int64, error) { return s.CountRuleTemplates(ctx) })
}

// CountJobs GET /api/metrics/jobs/count
func (h *Handler) CountJobs(ctx context.Context, c *app.RequestContext) {
	h.count(ctx, c, "jobs", func(s builtin.StatsProvider) (int64, error) { return s.CountJobs(ctx) })
}

// CountRuleDetails GET /api/metrics/rule-details/count
func (h *Handler) CountRuleDetails(ctx context.Context, c *app.RequestContext) {
	h.count(ctx, c, "rule details", func(s builtin.StatsProvider) (int64, error) { return s.CountRuleDetails(ctx) })
}

func (h *Handler) count(ctx context.Context, c *app.RequestContext, label string, fn func(builtin.StatsProvider) (int64, error)) {
	if h.stats == nil {
		c.JSON(consts.StatusServiceUnavailable, map[string]string{"error": "database is not configured"})
		return
	}
	n, err := fn(h.stats)
	if err != nil {
		h.logger.Error("计数失败", "label", label, "error", err)
		c.JSON(consts.StatusInternalServerError, map[string]string{
			"error": fmt.Sprintf("count %s: %v", label, err),
		})
		return
	}
	c.JSON(consts.StatusOK, map[string]int64{"count": n})
}

// PrometheusMetrics GET /metrics
func (h *Handler) PrometheusMetrics(ctx context.Context, c *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		c.String(consts.StatusInternalServerError, err.Error())
		return
	}
	c.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}

// bindPrompt 解析 {prompt}；为空时直接写 400
func (h *Handler) bindPrompt(c *app.RequestContext) (string, bool) {
	var req promptRequest
	if err := c.BindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "Prompt is required"})
		return "", false
	}
	return req.Prompt, true
}
