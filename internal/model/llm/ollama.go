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
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	pkgerrors "toolbridge/pkg/errors"
)

// OllamaClient Ollama /api/chat 客户端
type OllamaClient struct {
	model   string
	apiKey  string
	baseURL string
	client  *resty.Client
}

type ollamaChatRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream"`
}

type ollamaChatResponse struct {
	Message AssistantMessage `json:"message"`
}

// NewOllamaClient 创建 Ollama 客户端；不做 HTTP 层重试，重试由编排层决定
func NewOllamaClient(opts Options) *OllamaClient {
	model := opts.Model
	if model == "" {
		model = "llama3.1"
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &OllamaClient{model: model, apiKey: opts.APIKey, baseURL: baseURL, client: client}
}

// Chat 实现 Client
func (c *OllamaClient) Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*AssistantMessage, error) {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(ollamaChatRequest{Model: c.model, Messages: messages, Tools: tools, Stream: false})
	if c.apiKey != "" {
		req.SetAuthToken(c.apiKey)
	}

	start := time.Now()
	resp, err := req.Post(c.baseURL + "/api/chat")
	if err != nil {
		observe(c.Provider(), "unreachable", start)
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrBackendUnreachable, err)
	}
	if !resp.IsSuccess() {
		observe(c.Provider(), "error_status", start)
		return nil, fmt.Errorf("%w: status %d: %s", pkgerrors.ErrBackendError, resp.StatusCode(), truncate(resp.String(), 512))
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		observe(c.Provider(), "decode_error", start)
		return nil, fmt.Errorf("%w: 解析响应失败: %v", pkgerrors.ErrBackendError, err)
	}
	observe(c.Provider(), "ok", start)
	return &out.Message, nil
}

// Model 返回模型名称
func (c *OllamaClient) Model() string { return c.model }

// Provider 返回提供商名称
func (c *OllamaClient) Provider() string { return "ollama" }
