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

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"toolbridge/internal/model/llm"
	"toolbridge/internal/orchestrator"
	"toolbridge/internal/sqlguard"
	"toolbridge/internal/stats"
	"toolbridge/internal/storage/cache"
	"toolbridge/internal/storage/database"
	"toolbridge/internal/tablecontext"
	"toolbridge/internal/tool/builtin"
	"toolbridge/internal/tool/dispatch"
	"toolbridge/internal/tool/registry"
	"toolbridge/pkg/config"
	"toolbridge/pkg/log"
	"toolbridge/pkg/secrets"
)

// Bootstrap 统一初始化：供 api 与 mcp 复用，避免在 cmd 内写装配逻辑
type Bootstrap struct {
	Config  *config.Config
	Logger  *log.Logger
	Secrets secrets.Store
	// DB 未配置数据库时为 nil（execute_raw_query 与计数接口不可用）
	DB    *database.DB
	Cache cache.Store
	LLM   llm.Client

	// Tools / Engine 为 HTTP 编排入口使用的工具集
	Tools  *registry.Registry
	Engine *dispatch.Engine
	// MCPTools / MCPEngine 额外包含计数工具
	MCPTools  *registry.Registry
	MCPEngine *dispatch.Engine

	Dispatcher *orchestrator.Dispatcher
	Controller *orchestrator.Controller
	Stats      *stats.Service
}

// Option Bootstrap 可选配置
type Option func(*bootstrapOptions)

type bootstrapOptions struct {
	logOutput io.Writer
	llmClient llm.Client
}

// WithLogOutput 日志写到 w（MCP stdio 模式传 os.Stderr）
func WithLogOutput(w io.Writer) Option {
	return func(o *bootstrapOptions) { o.logOutput = w }
}

// WithLLMClient 使用给定客户端代替按配置创建
func WithLLMClient(c llm.Client) Option {
	return func(o *bootstrapOptions) { o.llmClient = c }
}

// NewBootstrap 根据配置创建 Bootstrap（Logger/Secrets/DB/Cache/LLM/Tools/Orchestrator）
func NewBootstrap(ctx context.Context, cfg *config.Config, opts ...Option) (*Bootstrap, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	var o bootstrapOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger, err := newLogger(cfg.Log, o.logOutput)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	b := &Bootstrap{Config: cfg, Logger: logger}

	b.Secrets, err = secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Vault: secrets.VaultConfig{
			Address:    cfg.Secrets.Vault.Address,
			Token:      cfg.Secrets.Vault.Token,
			PathPrefix: cfg.Secrets.Vault.PathPrefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 secret store 失败: %w", err)
	}
	if err := resolveSecrets(ctx, b.Secrets, cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Configured() {
		b.DB, err = database.Open(ctx, database.Options{
			ConnString: cfg.Database.ConnString(),
			ReadOnly:   cfg.Database.ReadOnly,
		})
		if err != nil {
			return nil, fmt.Errorf("初始化数据库失败: %w", err)
		}
	} else {
		logger.Warn("未配置数据库，execute_raw_query 与计数接口不可用")
	}

	b.Cache, err = cache.NewCache(ctx, cfg.Cache)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("初始化缓存失败: %w", err)
	}

	b.LLM = o.llmClient
	if b.LLM == nil {
		b.LLM, err = NewLLMClientFromConfig(cfg.LLM)
		if err != nil {
			b.Close()
			return nil, err
		}
	}

	if err := b.buildTools(); err != nil {
		b.Close()
		return nil, err
	}
	if err := b.buildOrchestrator(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*log.Logger, error) {
	logCfg := &log.Config{Level: cfg.Level, Format: cfg.Format, File: cfg.File}
	if w != nil {
		return log.NewLoggerTo(w, logCfg), nil
	}
	return log.NewLogger(logCfg)
}

// resolveSecrets 解析 secret:<key> 形式的敏感配置
func resolveSecrets(ctx context.Context, store secrets.Store, cfg *config.Config) error {
	for name, field := range map[string]*string{
		"database.dsn":      &cfg.Database.DSN,
		"database.password": &cfg.Database.Password,
		"llm.api_key":       &cfg.LLM.APIKey,
		"cache.password":    &cfg.Cache.Password,
	} {
		v, err := secrets.Resolve(ctx, store, *field)
		if err != nil {
			return fmt.Errorf("解析 %s 失败: %w", name, err)
		}
		*field = v
	}
	return nil
}

func (b *Bootstrap) buildTools() error {
	var guard builtin.QueryRunner
	if b.DB != nil {
		guard = sqlguard.New(b.DB, sqlguard.WithLogger(b.Logger))
		b.Stats = stats.NewService(b.DB,
			stats.WithCache(b.Cache, config.ParseDuration(b.Config.Stats.CacheTTL, 30*time.Second)),
			stats.WithTables(stats.TablesFromConfig(b.Config.Stats.Tables)),
			stats.WithLogger(b.Logger),
		)
	}

	b.Tools = registry.New()
	if err := builtin.RegisterBuiltin(b.Tools, guard); err != nil {
		return fmt.Errorf("注册工具失败: %w", err)
	}
	b.MCPTools = registry.New()
	if err := builtin.RegisterBuiltin(b.MCPTools, guard); err != nil {
		return fmt.Errorf("注册工具失败: %w", err)
	}
	if b.Stats != nil {
		if err := builtin.RegisterStats(b.MCPTools, b.Stats); err != nil {
			return fmt.Errorf("注册计数工具失败: %w", err)
		}
	}

	var err error
	if b.Engine, err = dispatch.NewEngine(b.Tools, dispatch.WithLogger(b.Logger)); err != nil {
		return fmt.Errorf("初始化工具引擎失败: %w", err)
	}
	if b.MCPEngine, err = dispatch.NewEngine(b.MCPTools, dispatch.WithLogger(b.Logger)); err != nil {
		return fmt.Errorf("初始化工具引擎失败: %w", err)
	}
	return nil
}

func (b *Bootstrap) buildOrchestrator() error {
	oc := b.Config.Orchestrator
	contexts := tablecontext.Defaults().Merge(oc.TableContexts)
	d, err := orchestrator.NewDispatcher(b.LLM, b.Tools, orchestrator.WithTableContexts(contexts, oc.ContextTables))
	if err != nil {
		return fmt.Errorf("初始化 Prompt Dispatcher 失败: %w", err)
	}
	b.Dispatcher = d
	b.Controller = orchestrator.NewController(d, b.Engine,
		orchestrator.WithMaxRetries(oc.MaxRetries),
		orchestrator.WithRetryDelay(config.ParseDuration(oc.RetryDelay, 0)),
		orchestrator.WithModel(d.Model()),
		orchestrator.WithLogger(b.Logger),
	)
	return nil
}

// Close 释放数据库与缓存连接
func (b *Bootstrap) Close() {
	if b.Cache != nil {
		_ = b.Cache.Close()
	}
	if b.DB != nil {
		b.DB.Close()
	}
}
