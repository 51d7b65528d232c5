// Package metrics 提供 Prometheus 指标注册与暴露.
//
// 除 HTTP 通用指标外还定义了照片交付相关的业务指标：
//
//	metrics.RequestCounter.WithLabelValues("GET", "/api/v1/galleries", "200").Inc()
//	metrics.ArchiveBytes.Add(float64(n))
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 注册 pprof 端点
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/photovault/pkg/configs"
)

const namespace = "photovault"

var (
	// RequestCounter HTTP 请求计数.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP 请求耗时分布.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 当前活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of active connections",
		},
	)

	// ArchiveCounter 打包下载次数，按结果区分.
	ArchiveCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Total number of zip archive downloads",
		},
		[]string{"result"},
	)

	// ArchiveBytes 打包流出的总字节数.
	ArchiveBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_bytes_total",
			Help:      "Total bytes streamed in zip archives",
		},
	)

	// ArchiveDuration 单次打包耗时分布.
	ArchiveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_duration_seconds",
			Help:      "Zip archive streaming duration in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	registry = prometheus.NewRegistry()
)

// InitMetrics 注册收集器与业务指标.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	registry.MustRegister(
		RequestCounter, RequestDuration, ActiveConnections,
		ArchiveCounter, ArchiveBytes, ArchiveDuration,
	)

	return nil
}

// ObserveArchive 记录一次打包下载的结果与体量.
func ObserveArchive(result string, bytes int64, elapsed time.Duration) {
	ArchiveCounter.WithLabelValues(result).Inc()
	ArchiveBytes.Add(float64(bytes))
	ArchiveDuration.Observe(elapsed.Seconds())
}

// StartMetricsServer 在业务引擎上挂载 /metrics 与可选的 pprof.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 返回应用的 Prometheus 注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// NewCounter 注册并返回计数器.
func NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help},
		labels,
	)
	registry.MustRegister(counter)

	return counter
}

// NewGauge 注册并返回仪表.
func NewGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help},
		labels,
	)
	registry.MustRegister(gauge)

	return gauge
}

// NewHistogram 注册并返回直方图.
func NewHistogram(name, help string, labels []string) *prometheus.HistogramVec {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help},
		labels,
	)
	registry.MustRegister(histogram)

	return histogram
}
