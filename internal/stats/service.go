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

// Package stats 业务表计数（邮件、规则模板、任务、规则明细），结果短时缓存
package stats

import (
	"context"
	"errors"
	"time"

	"toolbridge/internal/storage/cache"
	"toolbridge/pkg/log"
)

// Counter 计数边界（*database.DB 实现）
type Counter interface {
	Count(ctx context.Context, table string) (int64, error)
	CountDistinct(ctx context.Context, table, column string) (int64, error)
}

// Tables 实际表名与去重列
type Tables struct {
	Emails        string
	EmailAddress  string
	RuleTemplates string
	Jobs          string
	RuleDetails   string
}

// DefaultTables 默认表名
func DefaultTables() Tables {
	return Tables{
		Emails:        "email",
		EmailAddress:  "address",
		RuleTemplates: "rule_template",
		Jobs:          "job",
		RuleDetails:   "rule_detail",
	}
}

// TablesFromConfig 以默认表名为基础，按 stats.tables 配置覆盖
// 可用键：emails、email_address、rule_templates、jobs、rule_details
func TablesFromConfig(m map[string]string) Tables {
	t := DefaultTables()
	set := func(dst *string, key string) {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
	set(&t.Emails, "emails")
	set(&t.EmailAddress, "email_address")
	set(&t.RuleTemplates, "rule_templates")
	set(&t.Jobs, "jobs")
	set(&t.RuleDetails, "rule_details")
	return t
}

// Service 计数服务
type Service struct {
	counter Counter
	cache   cache.Store
	ttl     time.Duration
	tables  Tables
	logger  *log.Logger
}

// Option Service 可选配置
type Option func(*Service)

// WithCache 设置缓存与有效期；ttl <= 0 时不缓存
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = store
		s.ttl = ttl
	}
}

// WithTables 设置表名
func WithTables(t Tables) Option {
	return func(s *Service) { s.tables = t }
}

// WithLogger 设置日志
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService 创建计数服务
func NewService(counter Counter, opts ...Option) *Service {
	s := &Service{counter: counter, tables: DefaultTables(), logger: log.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CountEmails 邮件总数
func (s *Service) CountEmails(ctx context.Context) (int64, error) {
	return s.cached(ctx, "emails", func(ctx context.Context) (int64, error) {
		return s.counter.Count(ctx, s.tables.Emails)
	})
}

// CountUniqueEmails 去重后的邮件地址数
func (s *Service) CountUniqueEmails(ctx context.Context) (int64, error) {
	return s.cached(ctx, "emails_unique", func(ctx context.Context) (int64, error) {
		return s.counter.CountDistinct(ctx, s.tables.Emails, s.tables.EmailAddress)
	})
}

// CountRuleTemplates 规则模板数
func (s *Service) CountRuleTemplates(ctx context.Context) (int64, error) {
	return s.cached(ctx, "rule_templates", func(ctx context.Context) (int64, error) {
		return s.counter.Count(ctx, s.tables.RuleTemplates)
	})
}

// CountJobs 任务数
func (s *Service) CountJobs(ctx context.Context) (int64, error) {
	return s.cached(ctx, "jobs", func(ctx context.Context) (int64, error) {
		return s.counter.Count(ctx, s.tables.Jobs)
	})
}

// CountRuleDetails 规则明细数
func (s *Service) CountRuleDetails(ctx context.Context) (int64, error) {
	return s.cached(ctx, "rule_details", func(ctx context.Context) (int64, error) {
		return s.counter.Count(ctx, s.tables.RuleDetails)
	})
}

func (s *Service) cached(ctx context.Context, name string, load func(context.Context) (int64, error)) (int64, error) {
	if s.cache == nil || s.ttl <= 0 {
		return load(ctx)
	}
	key := "stats:" + name
	var n int64
	err := s.cache.Get(ctx, key, &n)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("读取计数缓存失败", "key", key, "error", err)
	}
	n, err = load(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, key, n, s.ttl); err != nil {
		s.logger.Warn("写入计数缓存失败", "key", key, "error", err)
	}
	return n, nil
}
