// Package metrics 提供 Prometheus 指标集合。所有 Record 方法对 nil 接收者安全。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "investai"

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数与耗时
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 流水线指标
	QueriesTotal            *prometheus.CounterVec
	SummariesTotal          *prometheus.CounterVec
	GatewayUnavailableTotal *prometheus.CounterVec
	EventPublishFailures    prometheus.Counter

	registry *prometheus.Registry
}

// New 创建指标实例并注册到独立的 Registry。
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries processed by the pipeline",
		}, []string{"endpoint"}),
		SummariesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Summaries produced, by path (generative or fallback)",
		}, []string{"path"}),
		GatewayUnavailableTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_unavailable_total",
			Help:      "Upstream calls that failed and were treated as absent",
		}, []string{"gateway"}),
		EventPublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Message-logged events that could not be published",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.QueriesTotal,
		m.SummariesTotal,
		m.GatewayUnavailableTotal,
		m.EventPublishFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler 返回 /metrics 的 HTTP handler。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordQuery 记录一次流水线调用
func (m *Metrics) RecordQuery(endpoint string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(endpoint).Inc()
}

// RecordSummary 记录摘要走的路径
func (m *Metrics) RecordSummary(path string) {
	if m == nil {
		return
	}
	m.SummariesTotal.WithLabelValues(path).Inc()
}

// RecordGatewayUnavailable 记录上游不可用
func (m *Metrics) RecordGatewayUnavailable(gateway string) {
	if m == nil {
		return
	}
	m.GatewayUnavailableTotal.WithLabelValues(gateway).Inc()
}

// RecordEventPublishFailure 记录事件发布失败
func (m *Metrics) RecordEventPublishFailure() {
	if m == nil {
		return
	}
	m.EventPublishFailures.Inc()
}
