package app

import (
	"fmt"
	"time"

	"toolbridge/internal/model/llm"
	"toolbridge/pkg/config"
)

// defaultLLMTimeout 未配置 llm.timeout 时不设超时
const defaultLLMTimeout time.Duration = 0

// NewLLMClientFromConfig 根据 llm 配置创建聊天后端客户端；requests_per_second > 0 时外包一层限流
func NewLLMClientFromConfig(cfg config.LLMConfig) (llm.Client, error) {
	client, err := llm.NewClient(llm.Options{
		Provider: cfg.Provider,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		Timeout:  config.ParseDuration(cfg.Timeout, defaultLLMTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("创建 LLM 客户端失败: %w", err)
	}
	if cfg.RequestsPerSecond > 0 {
		return llm.NewRateLimitedClient(client, cfg.RequestsPerSecond, cfg.Burst), nil
	}
	return client, nil
}
