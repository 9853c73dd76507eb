package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API/MCP 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		ToolDuration, ToolTotal,
		SessionTotal, SessionRetries,
		LLMRequestDuration, LLMRequestTotal,
		SQLParamsDropped,
	)
}

// ToolDuration 工具调用耗时（秒）
var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "toolbridge_tool_duration_seconds",
		Help:    "工具调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool"},
)

// ToolTotal 工具调用总数（按结果）
var ToolTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "toolbridge_tool_total",
		Help: "工具调用总数",
	},
	[]string{"tool", "outcome"}, // success | failure | unknown_tool | invalid_args
)

// SessionTotal 编排会话总数（按终态）
var SessionTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "toolbridge_session_total",
		Help: "编排会话总数",
	},
	[]string{"outcome"}, // tool_success | direct | exhausted | backend_error
)

// SessionRetries 单次会话的重试次数分布
var SessionRetries = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "toolbridge_session_retries",
		Help:    "单次编排会话的重试次数",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	},
)

// LLMRequestDuration 聊天后端请求耗时（秒）
var LLMRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "toolbridge_llm_request_duration_seconds",
		Help:    "聊天后端请求耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider"},
)

// LLMRequestTotal 聊天后端请求总数（按结果）
var LLMRequestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "toolbridge_llm_request_total",
		Help: "聊天后端请求总数",
	},
	[]string{"provider", "outcome"}, // ok | unreachable | error_status | decode_error
)

// SQLParamsDropped execute_raw_query 因无占位符或多余而丢弃的参数个数
var SQLParamsDropped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "toolbridge_sql_params_dropped_total",
		Help: "SQL 参数被丢弃的个数",
	},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
