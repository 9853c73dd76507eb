package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbridge/internal/model/llm"
	"toolbridge/pkg/config"
)

type stubClient struct {
	reply *llm.AssistantMessage
	tools []llm.ToolDefinition
}

func (s *stubClient) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.AssistantMessage, error) {
	s.tools = tools
	return s.reply, nil
}

func (s *stubClient) Model() string    { return "stub" }
func (s *stubClient) Provider() string { return "stub" }

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Log.Level = "error"
	return cfg
}

func TestNewBootstrap_WithoutDatabase(t *testing.T) {
	client := &stubClient{reply: &llm.AssistantMessage{ToolCalls: []llm.ToolCall{{
		Function: llm.FunctionCall{Name: "sum", Arguments: llm.Arguments{"a": 1.0, "b": 2.0}},
	}}}}
	b, err := NewBootstrap(context.Background(), newTestConfig(t), WithLLMClient(client))
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.DB)
	assert.Nil(t, b.Stats)
	assert.Len(t, b.Tools.List(), 3)
	assert.Len(t, b.MCPTools.List(), 3)
	assert.Equal(t, 10, b.Controller.MaxRetries())
	assert.Contains(t, b.Dispatcher.SystemPrompt(), "-- Table: tasks")

	res := b.Controller.QueryLLM(context.Background(), "add 1 and 2")
	assert.True(t, res.Success)
	assert.Equal(t, 3.0, res.Data.Result)
	assert.Len(t, client.tools, 3)
}

func TestNewBootstrap_UnresolvedSecret(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Secrets.Provider = "memory"
	cfg.LLM.APIKey = "secret:llm/api_key"
	_, err := NewBootstrap(context.Background(), cfg, WithLLMClient(&stubClient{}))
	assert.Error(t, err)
}

func TestNewLLMClientFromConfig(t *testing.T) {
	c, err := NewLLMClientFromConfig(config.LLMConfig{Provider: "ollama", Model: "llama3.1"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", c.Model())
	assert.IsType(t, &llm.OllamaClient{}, c)

	c, err = NewLLMClientFromConfig(config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", RequestsPerSecond: 2, Burst: 1})
	require.NoError(t, err)
	assert.IsType(t, &llm.RateLimitedClient{}, c)
	assert.Equal(t, "openai", c.Provider())

	_, err = NewLLMClientFromConfig(config.LLMConfig{Provider: "bedrock"})
	assert.Error(t, err)
}
