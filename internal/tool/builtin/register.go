package builtin

import (
	"toolbridge/internal/sqlguard"
	"toolbridge/internal/tool"
	"toolbridge/internal/tool/registry"
)

// LegacyQueryAlias 早期 manifest 中 execute_raw_query 的名称，LLM 仍可能按此回调
const LegacyQueryAlias = "executeRawQuery"

// RegisterBuiltin 注册标准工具（simple_reply、sum、sub，guard 非空时加 execute_raw_query 及别名）
func RegisterBuiltin(reg *registry.Registry, guard QueryRunner) error {
	if reg == nil {
		return nil
	}
	tools := []tool.Tool{NewSimpleReplyTool(), NewSumTool(), NewSubTool()}
	if guard != nil {
		tools = append(tools, NewRawQueryTool(guard))
	}
	if err := RegisterBuiltinWithTools(reg, tools...); err != nil {
		return err
	}
	if guard == nil {
		return nil
	}
	return reg.RegisterAlias(LegacyQueryAlias, sqlguard.ToolName)
}

// RegisterStats 注册计数工具（仅 MCP 入口使用）
func RegisterStats(reg *registry.Registry, s StatsProvider) error {
	if reg == nil || s == nil {
		return nil
	}
	return RegisterBuiltinWithTools(reg, NewCountTools(s)...)
}

// RegisterBuiltinWithTools 按顺序注册任意工具（用于测试或最小装配）
func RegisterBuiltinWithTools(reg *registry.Registry, tools ...tool.Tool) error {
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
