package http

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"toolbridge/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler    *Handler
	middleware *middleware.Middleware
	extra      []app.HandlerFunc
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler, middleware *middleware.Middleware) *Router {
	return &Router{handler: handler, middleware: middleware}
}

// Use 追加全局中间件（如 tracing），须在 Build 之前调用
func (r *Router) Use(handlers ...app.HandlerFunc) {
	r.extra = append(r.extra, handlers...)
}

// Build 创建 hertz 服务并注册全部路由；opts 追加在 WithHostPorts 之后（如 tracer）
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	h := server.Default(append([]config.Option{server.WithHostPorts(addr)}, opts...)...)
	h.Use(r.extra...)
	h.Use(r.middleware.CORS(), r.middleware.Logger())
	r.SetupRoutes(h)
	return h
}

// SetupRoutes 设置路由
func (r *Router) SetupRoutes(h *server.Hertz) {
	h.GET("/metrics", r.handler.PrometheusMetrics)

	api := h.Group("/api")
	api.GET("/health", r.handler.HealthCheck)

	// LLM 编排
	api.POST("/mcp", r.handler.SendText)
	mcp := api.Group("/mcp")
	{
		mcp.POST("/query", r.handler.Query)
		mcp.GET("/tools", r.handler.ListTools)
	}

	tools := api.Group("/tools")
	{
		tools.POST("/sum", r.handler.Sum)
		tools.POST("/sub", r.handler.Sub)
	}

	// 业务计数
	stats := api.Group("/metrics")
	{
		stats.GET("/emails/count", r.handler.CountEmails)
		stats.GET("/emails/unique/count", r.handler.CountUniqueEmails)
		stats.GET("/rule-templates/count", r.handler.CountRuleTemplates)
		stats.GET("/jobs/count", r.handler.CountJobs)
		stats.GET("/rule-details/count", r.handler.CountRuleDetails)
	}
}
