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

package builtin

import (
	"context"
	"fmt"
	"strings"

	"toolbridge/internal/tool"
)

const (
	GreetingReply = "Hello! How can I help you today?"
	FarewellReply = "Goodbye! Have a great day!"
	ThanksReply   = "You're welcome! Let me know if you need anything else."
	echoSuffix    = " (received by simple_reply)"
)

var replyPhrases = map[string]string{
	"hi":        GreetingReply,
	"hello":     GreetingReply,
	"hey":       GreetingReply,
	"bye":       FarewellReply,
	"goodbye":   FarewellReply,
	"thanks":    ThanksReply,
	"thank you": ThanksReply,
}

// SimpleReplyTool 实现 simple_reply：问候、道别、致谢返回固定回复，其余原样回显
type SimpleReplyTool struct{}

// NewSimpleReplyTool 创建 simple_reply 工具
func NewSimpleReplyTool() *SimpleReplyTool { return &SimpleReplyTool{} }

// Name 实现 tool.Tool
func (t *SimpleReplyTool) Name() string { return "simple_reply" }

// Description 实现 tool.Tool
func (t *SimpleReplyTool) Description() string {
	return "Provides simple text replies for basic interactions like greetings, farewells, and casual conversation"
}

// Schema 实现 tool.Tool
func (t *SimpleReplyTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"message": {Type: "string", Description: "The message to respond to"},
		},
		Required: []string{"message"},
	}
}

// Execute 实现 tool.Tool
func (t *SimpleReplyTool) Execute(ctx context.Context, input map[string]any) (tool.Result, error) {
	message, ok := input["message"].(string)
	if !ok {
		return tool.Result{}, fmt.Errorf("message must be a string, got %T", input["message"])
	}
	return tool.Success(t.Name(), "Reply generated", Reply(message),
		map[string]any{"originalMessage": message}), nil
}

// Reply 按忽略大小写与首尾空白后的短语匹配固定回复
func Reply(message string) string {
	if r, ok := replyPhrases[strings.ToLower(strings.TrimSpace(message))]; ok {
		return r
	}
	return message + echoSuffix
}
