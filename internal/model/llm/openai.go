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

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	pkgerrors "toolbridge/pkg/errors"
)

// OpenAIClient OpenAI 兼容 /chat/completions 客户端（OpenAI、Qwen/DashScope 等）
type OpenAIClient struct {
	provider string
	model    string
	apiKey   string
	baseURL  string
	client   *resty.Client
}

type openAIChatRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message AssistantMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient 创建 OpenAI 兼容客户端；BaseURL 为空时用 OPENAI_BASE_URL 或官方地址
func NewOpenAIClient(opts Options) *OpenAIClient {
	model := opts.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
		if envURL := os.Getenv("OPENAI_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
	}
	provider := opts.Provider
	if provider == "" {
		provider = "openai"
	}
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &OpenAIClient{provider: provider, model: model, apiKey: opts.APIKey, baseURL: baseURL, client: client}
}

// Chat 实现 Client
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*AssistantMessage, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetBody(openAIChatRequest{Model: c.model, Messages: messages, Tools: tools}).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		observe(c.provider, "unreachable", start)
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrBackendUnreachable, err)
	}
	if !resp.IsSuccess() {
		observe(c.provider, "error_status", start)
		return nil, fmt.Errorf("%w: status %d: %s", pkgerrors.ErrBackendError, resp.StatusCode(), truncate(resp.String(), 512))
	}

	var out openAIChatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		observe(c.provider, "decode_error", start)
		return nil, fmt.Errorf("%w: 解析响应失败: %v", pkgerrors.ErrBackendError, err)
	}
	if len(out.Choices) == 0 {
		observe(c.provider, "decode_error", start)
		return nil, fmt.Errorf("%w: 没有返回结果", pkgerrors.ErrBackendError)
	}
	observe(c.provider, "ok", start)
	return &out.Choices[0].Message, nil
}

// Model 返回模型名称
func (c *OpenAIClient) Model() string { return c.model }

// Provider 返回提供商名称
func (c *OpenAIClient) Provider() string { return c.provider }
