package mcp

import (
	"encoding/json"
	"fmt"

	mcpschema "github.com/viant/mcp-protocol/schema"

	"toolbridge/internal/tool"
)

// toMCPTool Descriptor → MCP Tool（inputSchema 与 LLM 看到的 parameters 一致）
func toMCPTool(d tool.Descriptor) (mcpschema.Tool, error) {
	props := make(map[string]map[string]interface{}, len(d.Parameters.Properties))
	for name, p := range d.Parameters.Properties {
		m, err := propertyMap(p)
		if err != nil {
			return mcpschema.Tool{}, fmt.Errorf("工具 %s 属性 %s: %w", d.Name, name, err)
		}
		props[name] = m
	}
	schemaType := d.Parameters.Type
	if schemaType == "" {
		schemaType = "object"
	}
	description := d.Description
	return mcpschema.Tool{
		Name:        d.Name,
		Description: &description,
		InputSchema: mcpschema.ToolInputSchema{
			Type:       schemaType,
			Properties: mcpschema.ToolInputSchemaProperties(props),
			Required:   d.Parameters.Required,
		},
	}, nil
}

func propertyMap(p tool.SchemaProperty) (map[string]interface{}, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// textContent tools/call 的文本内容项
type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// toCallResult 把 Result 以缩进 JSON 文本返回；失败时 isError
func toCallResult(res tool.Result) (*mcpschema.CallToolResult, error) {
	text, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, err
	}
	out := &mcpschema.CallToolResult{
		Content: []mcpschema.CallToolResultContentElem{textContent{Type: "text", Text: string(text)}},
	}
	if !res.Success {
		isErr := true
		out.IsError = &isErr
	}
	return out, nil
}
