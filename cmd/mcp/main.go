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

// mcp 以 stdio 方式暴露工具；stdout 只写协议消息，日志写 stderr
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toolbridge/internal/app"
	"toolbridge/internal/mcp"
	"toolbridge/pkg/config"
	"toolbridge/pkg/tracing"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap, err := app.NewBootstrap(ctx, cfg, app.WithLogOutput(os.Stderr))
	if err != nil {
		return fmt.Errorf("初始化失败: %w", err)
	}
	defer bootstrap.Close()

	if t := cfg.Monitoring.Tracing; t.Enable && t.ExportEndpoint != "" {
		tp, err := tracing.InitTracer(tracing.OTelConfig{
			ServiceName:    t.ServiceName,
			ExportEndpoint: t.ExportEndpoint,
			Insecure:       t.Insecure,
		})
		if err != nil {
			bootstrap.Logger.Warn("初始化链路追踪失败", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(shutdownCtx)
			}()
		}
	}

	server, err := mcp.NewServer("toolbridge", version, bootstrap.MCPEngine, bootstrap.MCPTools,
		mcp.WithLogger(bootstrap.Logger))
	if err != nil {
		return fmt.Errorf("创建 MCP 服务失败: %w", err)
	}
	names := make([]string, 0)
	for _, d := range bootstrap.MCPTools.Describe() {
		names = append(names, d.Name)
	}
	bootstrap.Logger.Info("MCP 服务已启动", "tools", names)
	if err := server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
