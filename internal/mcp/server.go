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

// Package mcp 通过 stdio 以 MCP 协议暴露工具注册表
package mcp

import (
	"context"

	"github.com/viant/jsonrpc/transport"
	mcpclientproto "github.com/viant/mcp-protocol/client"
	mcplogger "github.com/viant/mcp-protocol/logger"
	mcpserverproto "github.com/viant/mcp-protocol/server"
	mcpserver "github.com/viant/mcp/server"

	"toolbridge/pkg/log"
)

// Server MCP stdio 服务；协议握手、ping 与 JSON-RPC 编解码由 viant/mcp 负责
type Server struct {
	name    string
	version string
	handler *Handler
	logger  *log.Logger
	stdio   func(ctx context.Context) error
}

// Option Server 可选配置
type Option func(*Server)

// WithLogger 设置日志（stdio 模式下必须写 stderr）
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer 创建 MCP 服务
func NewServer(name, version string, executor Executor, manifest Manifest, opts ...Option) (*Server, error) {
	s := &Server{name: name, version: version, logger: log.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = NewHandler(executor, manifest, s.logger)

	srv, err := mcpserver.New(mcpserver.WithNewHandler(func(_ context.Context, _ transport.Notifier, _ mcplogger.Logger, _ mcpclientproto.Operations) (mcpserverproto.Handler, error) {
		return s.handler, nil
	}))
	if err != nil {
		return nil, err
	}
	s.stdio = func(ctx context.Context) error {
		return srv.Stdio(ctx).ListenAndServe()
	}
	return s, nil
}

// Handler 返回工具处理器
func (s *Server) Handler() *Handler {
	return s.handler
}

// Serve 在 stdin/stdout 上提供服务，直到输入结束或 ctx 取消
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("MCP stdio 服务开始监听", "name", s.name, "version", s.version)
	return s.stdio(ctx)
}
