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

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API          APIConfig          `mapstructure:"api"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Stats        StatsConfig        `mapstructure:"stats"`
	Secrets      SecretsConfig      `mapstructure:"secrets"`
	Log          LogConfig          `mapstructure:"log"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port    int        `mapstructure:"port"`
	Host    string     `mapstructure:"host"`
	Timeout string     `mapstructure:"timeout"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LLMConfig 聊天后端配置（Ollama 兼容 /api/chat）
type LLMConfig struct {
	Provider          string  `mapstructure:"provider"`
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	APIKey            string  `mapstructure:"api_key"`
	Timeout           string  `mapstructure:"timeout"`             // 空或 "0" 表示不设超时
	RequestsPerSecond float64 `mapstructure:"requests_per_second"` // <=0 不限流
	Burst             int     `mapstructure:"burst"`
}

// OrchestratorConfig 工具调用编排配置
type OrchestratorConfig struct {
	MaxRetries    int               `mapstructure:"max_retries"`    // 工具失败后最多重新提示次数，默认 10
	RetryDelay    string            `mapstructure:"retry_delay"`    // 重试间隔，空为不等待
	ContextTables []string          `mapstructure:"context_tables"` // 写入 system 消息的表上下文
	TableContexts map[string]string `mapstructure:"table_contexts"` // 覆盖或新增的表上下文文本
}

// DatabaseConfig Postgres 连接配置；DSN 非空时优先使用
type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSL      bool   `mapstructure:"ssl"`
	SSLMode  string `mapstructure:"ssl_mode"`
	PoolSize int    `mapstructure:"pool_size"`
	ReadOnly bool   `mapstructure:"read_only"` // true 时 execute_raw_query 在只读事务中执行
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Type     string `mapstructure:"type"` // memory | redis
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
	Prefix   string `mapstructure:"prefix"`
}

// StatsConfig 计数接口配置
type StatsConfig struct {
	CacheTTL string            `mapstructure:"cache_ttl"`
	Tables   map[string]string `mapstructure:"tables"` // emails | rule_templates | jobs | rule_details -> 实际表名
}

// SecretsConfig Secret Store 配置
type SecretsConfig struct {
	Provider string      `mapstructure:"provider"` // env | memory | vault
	Vault    VaultConfig `mapstructure:"vault"`
}

// VaultConfig Vault 连接配置
type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	PathPrefix string `mapstructure:"path_prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// 原服务沿用的环境变量名
var legacyEnv = map[string]string{
	"api.port":          "SERVER_PORT",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USERNAME",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"database.ssl":      "DB_SSL",
	"llm.base_url":      "LLM_BASE_URL",
	"llm.model":         "LLM_MODEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 3000)
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3.1")
	v.SetDefault("orchestrator.max_retries", 10)
	v.SetDefault("orchestrator.context_tables", []string{"tasks"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3452)
	v.SetDefault("database.pool_size", 30)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.prefix", "toolbridge:")
	v.SetDefault("stats.cache_ttl", "30s")
	v.SetDefault("secrets.provider", "env")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("monitoring.prometheus.enable", true)
	v.SetDefault("monitoring.tracing.service_name", "toolbridge")
}

// LoadConfig 加载配置文件；configPath 为空时仅使用默认值与环境变量
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	return &config, nil
}

// LoadAPIConfig 加载 API 配置；TOOLBRIDGE_CONFIG 可指定路径，文件不存在时退化为默认值
func LoadAPIConfig() (*Config, error) {
	path := os.Getenv("TOOLBRIDGE_CONFIG")
	if path == "" {
		path = "configs/api.yaml"
	}
	if _, err := os.Stat(path); err != nil {
		return LoadConfig("")
	}
	return LoadConfig(path)
}

// replaceEnvVars 展开 ${VAR} 形式的敏感字段
func replaceEnvVars(config *Config) {
	config.LLM.APIKey = expandEnv(config.LLM.APIKey)
	config.Database.DSN = expandEnv(config.Database.DSN)
	config.Database.Password = expandEnv(config.Database.Password)
	config.Cache.Password = expandEnv(config.Cache.Password)
	config.Secrets.Vault.Token = expandEnv(config.Secrets.Vault.Token)
}

func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return s
	}
	envVar := strings.TrimSuffix(strings.TrimPrefix(s, "${"), "}")
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return s
}

// ConnString 返回 pgx 可用的连接串
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
		if d.SSL {
			sslMode = "require"
		}
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	if d.PoolSize > 0 {
		q.Set("pool_max_conns", strconv.Itoa(d.PoolSize))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Configured 报告是否配置了数据库（未配置时 execute_raw_query 与计数接口不可用）
func (d DatabaseConfig) Configured() bool {
	return d.DSN != "" || d.Name != ""
}

// ParseDuration 解析时长字符串，无效或空时返回 defaultVal
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
