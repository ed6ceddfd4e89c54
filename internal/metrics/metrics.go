// Package metrics 提供排班服务的运行指标
package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	runIterations   prometheus.Histogram
	relaxationLevel prometheus.Histogram
	conflictsTotal  *prometheus.CounterVec
	fillRate        prometheus.Gauge
	runsInFlight    prometheus.Gauge
}

// New 创建指标收集器并注册所有指标
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shifta_http_request_duration_seconds",
		Help:    "HTTP请求耗时分布",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shifta_http_requests_total",
		Help: "HTTP请求总数",
	}, []string{"method", "path", "status"})

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shifta_runs_total",
		Help: "排班运行总数（按最终状态）",
	}, []string{"status"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shifta_run_duration_seconds",
		Help:    "排班求解耗时分布",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
	})

	runIterations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shifta_run_iterations",
		Help:    "单次求解迭代次数分布",
		Buckets: prometheus.ExponentialBuckets(10, 4, 8),
	})

	relaxationLevel := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shifta_run_relaxation_level",
		Help:    "运行最终放宽级别分布",
		Buckets: []float64{0, 1, 2, 3},
	})

	conflictsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shifta_conflicts_total",
		Help: "排班冲突总数（按类型）",
	}, []string{"kind"})

	fillRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shifta_last_run_fill_rate",
		Help: "最近一次运行的岗位满足率",
	})

	runsInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shifta_runs_in_flight",
		Help: "正在执行的排班运行数",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "shifta_goroutines",
		Help: "当前goroutine数量",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	registry.MustRegister(
		requestDuration, requestTotal,
		runsTotal, runDuration, runIterations, relaxationLevel,
		conflictsTotal, fillRate, runsInFlight, goroutines,
	)

	return &Metrics{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		runIterations:   runIterations,
		relaxationLevel: relaxationLevel,
		conflictsTotal:  conflictsTotal,
		fillRate:        fillRate,
		runsInFlight:    runsInFlight,
	}
}

// Handler 返回指标导出的HTTP处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest 记录一次HTTP请求
func (m *Metrics) ObserveRequest(method, path, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, status).Inc()
}

// RunStarted 记录运行开始
func (m *Metrics) RunStarted() {
	m.runsInFlight.Inc()
}

// RunFinished 记录运行结束
func (m *Metrics) RunFinished(status string, duration time.Duration, iterations, level int, fillRate float64) {
	m.runsInFlight.Dec()
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.runIterations.Observe(float64(iterations))
	m.relaxationLevel.Observe(float64(level))
	m.fillRate.Set(fillRate)
}

// ConflictRecorded 记录一条冲突
func (m *Metrics) ConflictRecorded(kind string) {
	m.conflictsTotal.WithLabelValues(kind).Inc()
}
