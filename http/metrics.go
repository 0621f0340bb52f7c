package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"churnscope/ml"
)

// Metrics Prometheus指标，使用独立的注册表
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	predictions *prometheus.CounterVec
	batchRows   prometheus.Histogram
	model       *prometheus.GaugeVec
}

// NewMetrics 创建指标
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "churnscope_http_requests_total",
				Help: "HTTP requests by handler, method and status code.",
			},
			[]string{"handler", "method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "churnscope_http_request_duration_seconds",
				Help:    "HTTP request latency by handler.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "churnscope_predictions_total",
				Help: "Predicted records by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		batchRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "churnscope_batch_rows",
				Help:    "Rows per batch prediction.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		model: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "churnscope_model_info",
				Help: "The served model artifact; always 1.",
			},
			[]string{"name", "version", "type", "sha256"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.predictions,
		m.batchRows,
		m.model,
	)
	return m
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// instrument 为路由添加请求计数和延迟统计
func (m *Metrics) instrument(name string, h http.HandlerFunc) http.Handler {
	labels := prometheus.Labels{"handler": name}
	return promhttp.InstrumentHandlerDuration(m.duration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.requests.MustCurryWith(labels), h))
}

// ObservePredictions 记录预测结果
func (m *Metrics) ObservePredictions(source string, churn, noChurn int) {
	m.predictions.WithLabelValues(source, "churn").Add(float64(churn))
	m.predictions.WithLabelValues(source, "no_churn").Add(float64(noChurn))
}

// ObserveBatch 记录批量预测行数
func (m *Metrics) ObserveBatch(rows int) {
	m.batchRows.Observe(float64(rows))
}

// SetModel 记录当前模型
func (m *Metrics) SetModel(info ml.ArtifactInfo) {
	m.model.Reset()
	m.model.WithLabelValues(info.Name, info.Version, info.ModelType, info.SHA256).Set(1)
}

// watchExports 导出窗口中的文件数
func (m *Metrics) watchExports(exports *ExportCache) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "churnscope_exports_pending",
			Help: "Batch results still downloadable.",
		},
		func() float64 { return float64(exports.Len()) },
	))
}
