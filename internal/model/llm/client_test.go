// Copyright 2026 fanjia1024
// Tests for chat backend clients

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbridge/internal/tool"
	pkgerrors "toolbridge/pkg/errors"
)

func TestArguments_ObjectAndString(t *testing.T) {
	var m AssistantMessage
	require.NoError(t, json.Unmarshal([]byte(`{"content":"","tool_calls":[{"function":{"name":"sub","arguments":{"a":5,"b":3}}}]}`), &m))
	call, ok := m.FirstToolCall()
	require.True(t, ok)
	assert.Equal(t, "sub", call.Name)
	assert.Equal(t, map[string]any{"a": 5.0, "b": 3.0}, call.Arguments)

	require.NoError(t, json.Unmarshal([]byte(`{"tool_calls":[{"function":{"name":"sum","arguments":"{\"a\":1,\"b\":2}"}}]}`), &m))
	call, ok = m.FirstToolCall()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, call.Arguments)
}

func TestArguments_MalformedStringBecomesEmpty(t *testing.T) {
	var a Arguments
	require.NoError(t, json.Unmarshal([]byte(`"{not json"`), &a))
	assert.Equal(t, Arguments{}, a)
	require.NoError(t, json.Unmarshal([]byte(`null`), &a))
	assert.Equal(t, Arguments{}, a)
}

func TestArguments_NonObjectBecomesEmpty(t *testing.T) {
	for _, raw := range []string{`[5,3]`, `42`, `true`, `"[1,2]"`} {
		var a Arguments
		require.NoError(t, json.Unmarshal([]byte(raw), &a), raw)
		assert.Equal(t, Arguments{}, a, raw)
	}
}

func TestOllamaClient_ArrayArgumentsStillDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"tool_calls":[{"function":{"name":"sum","arguments":[5,3]}}]}}`))
	}))
	defer srv.Close()

	msg, err := NewOllamaClient(Options{BaseURL: srv.URL}).Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	call, ok := msg.FirstToolCall()
	require.True(t, ok)
	assert.Equal(t, "sum", call.Name)
	assert.Empty(t, call.Arguments)
}

func TestFirstToolCall_None(t *testing.T) {
	m := &AssistantMessage{Content: "hello"}
	_, ok := m.FirstToolCall()
	assert.False(t, ok)
	var nilMsg *AssistantMessage
	_, ok = nilMsg.FirstToolCall()
	assert.False(t, ok)
}

func TestToolDefinitions(t *testing.T) {
	defs := ToolDefinitions([]tool.Descriptor{{Name: "sum", Description: "add", Parameters: tool.Schema{Type: "object"}}})
	require.Len(t, defs, 1)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "sum", defs[0].Function.Name)
}

func TestOllamaClient_Chat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.1","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"sub","arguments":{"a":5,"b":3}}}]},"done":true}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(Options{BaseURL: srv.URL + "/", Model: "llama3.1"})
	msg, err := c.Chat(context.Background(),
		[]Message{{Role: "system", Content: "ctx"}, {Role: "user", Content: "What is 5 minus 3?"}},
		ToolDefinitions([]tool.Descriptor{{Name: "sub", Parameters: tool.Schema{Type: "object"}}}))
	require.NoError(t, err)

	assert.Equal(t, "llama3.1", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)
	require.Len(t, got.Tools, 1)

	call, ok := msg.FirstToolCall()
	require.True(t, ok)
	assert.Equal(t, "sub", call.Name)
}

func TestOllamaClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaClient(Options{BaseURL: srv.URL}).Chat(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrBackendError))
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewOllamaClient(Options{BaseURL: url, Timeout: time.Second}).Chat(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrBackendUnreachable))
}

func TestOllamaClient_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewOllamaClient(Options{BaseURL: srv.URL}).Chat(context.Background(), nil, nil)
	assert.True(t, errors.Is(err, pkgerrors.ErrBackendError))
}

func TestOpenAIClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[{"id":"c1","type":"function","function":{"name":"sum","arguments":"{\"a\":2,\"b\":2}"}}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{Provider: "openai", BaseURL: srv.URL, APIKey: "sk-test"})
	require.NoError(t, err)
	msg, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "2+2"}}, nil)
	require.NoError(t, err)
	call, ok := msg.FirstToolCall()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 2.0, "b": 2.0}, call.Arguments)
}

func TestNewClient_Provider(t *testing.T) {
	c, err := NewClient(Options{})
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Provider())
	assert.Equal(t, "llama3.1", c.Model())

	_, err = NewClient(Options{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

type countingClient struct{ calls int }

func (c *countingClient) Chat(context.Context, []Message, []ToolDefinition) (*AssistantMessage, error) {
	c.calls++
	return &AssistantMessage{Content: "ok"}, nil
}
func (c *countingClient) Model() string    { return "m" }
func (c *countingClient) Provider() string { return "fake" }

func TestRateLimitedClient(t *testing.T) {
	inner := &countingClient{}
	c := NewRateLimitedClient(inner, 0, 0)
	for i := 0; i < 3; i++ {
		_, err := c.Chat(context.Background(), nil, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, "fake", c.Provider())

	limited := NewRateLimitedClient(inner, 0.001, 1)
	_, err := limited.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Chat(ctx, nil, nil)
	assert.Error(t, err, "second call must wait beyond the deadline")
	assert.Equal(t, 4, inner.calls)
}
