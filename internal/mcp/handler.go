package mcp

import (
	"context"
	"strings"

	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"

	"toolbridge/internal/tool"
	"toolbridge/pkg/log"
)

// Executor 工具执行边界（dispatch.Engine 实现）
type Executor interface {
	Execute(ctx context.Context, call tool.Call) tool.Result
}

// Manifest 工具清单
type Manifest interface {
	Describe() []tool.Descriptor
}

// Handler 实现 mcp-protocol/server.Handler，只提供 tools/list 与 tools/call
type Handler struct {
	executor Executor
	manifest Manifest
	logger   *log.Logger
}

// NewHandler 创建工具处理器
func NewHandler(executor Executor, manifest Manifest, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Handler{executor: executor, manifest: manifest, logger: logger}
}

func (h *Handler) Initialize(_ context.Context, _ *mcpschema.InitializeRequestParams, _ *mcpschema.InitializeResult) {
}

func (h *Handler) ListTools(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.ListToolsRequest]) (*mcpschema.ListToolsResult, *jsonrpc.Error) {
	descs := h.manifest.Describe()
	tools := make([]mcpschema.Tool, 0, len(descs))
	for _, d := range descs {
		t, err := toMCPTool(d)
		if err != nil {
			return nil, jsonrpc.NewInternalError(err.Error(), nil)
		}
		tools = append(tools, t)
	}
	return &mcpschema.ListToolsResult{Tools: tools}, nil
}

func (h *Handler) CallTool(ctx context.Context, req *jsonrpc.TypedRequest[*mcpschema.CallToolRequest]) (*mcpschema.CallToolResult, *jsonrpc.Error) {
	if req == nil || req.Request == nil {
		return nil, jsonrpc.NewInvalidRequest("missing request", nil)
	}
	return h.Call(ctx, req.Request.Params.Name, req.Request.Params.Arguments)
}

// Call 经 Dispatch Engine 执行工具；工具失败以 isError 结果返回，而非协议错误
func (h *Handler) Call(ctx context.Context, name string, args map[string]interface{}) (*mcpschema.CallToolResult, *jsonrpc.Error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, jsonrpc.NewInvalidParamsError("tools/call requires a tool name", nil)
	}
	res := h.executor.Execute(ctx, tool.Call{Name: name, Arguments: args})
	if !res.Success {
		h.logger.Warn("工具执行失败", "tool", name, "error", res.ErrorText())
	}
	out, err := toCallResult(res)
	if err != nil {
		return nil, jsonrpc.NewInternalError(err.Error(), nil)
	}
	return out, nil
}

func (h *Handler) ListResources(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.ListResourcesRequest]) (*mcpschema.ListResourcesResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("resources/list not implemented", nil)
}

func (h *Handler) ListResourceTemplates(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.ListResourceTemplatesRequest]) (*mcpschema.ListResourceTemplatesResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("resources/templates/list not implemented", nil)
}

func (h *Handler) ReadResource(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.ReadResourceRequest]) (*mcpschema.ReadResourceResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("resources/read not implemented", nil)
}

func (h *Handler) Subscribe(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.SubscribeRequest]) (*mcpschema.SubscribeResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("subscribe not implemented", nil)
}

func (h *Handler) Unsubscribe(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.UnsubscribeRequest]) (*mcpschema.UnsubscribeResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("unsubscribe not implemented", nil)
}

func (h *Handler) ListPrompts(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.ListPromptsRequest]) (*mcpschema.ListPromptsResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("prompts/list not implemented", nil)
}

func (h *Handler) GetPrompt(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.GetPromptRequest]) (*mcpschema.GetPromptResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("prompts/get not implemented", nil)
}

func (h *Handler) Complete(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.CompleteRequest]) (*mcpschema.CompleteResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("complete not implemented", nil)
}

func (h *Handler) OnNotification(_ context.Context, _ *jsonrpc.Notification) {}

// Implements 声明支持的方法
func (h *Handler) Implements(method string) bool {
	switch method {
	case mcpschema.MethodToolsList, mcpschema.MethodToolsCall:
		return true
	default:
		return false
	}
}
