// Package metrics 提供监控指标功能.
// 基于 Prometheus，收集 HTTP 指标与下载、配额等业务指标.
//
// Example:
//
//	if err := metrics.InitMetrics(config.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.DownloadsTotal.WithLabelValues("allowed").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 注册 pprof 到 DefaultServeMux
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/notesphere/pkg/configs"
)

const namespace = "notesphere"

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of in-flight HTTP requests",
		},
	)

	// DownloadsTotal 下载尝试，按结果分类（allowed、quota_exceeded、file_missing 等）.
	DownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "note_downloads_total",
			Help:      "Note download attempts by outcome",
		},
		[]string{"outcome"},
	)

	// UploadsTotal 上传的笔记数.
	UploadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "note_uploads_total",
			Help:      "Uploaded notes",
		},
	)

	// CatalogGauge 由定时任务刷新的目录规模.
	CatalogGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_size",
			Help:      "Current number of users, premium users, notes and verified notes",
		},
		[]string{"kind"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	registerOnce sync.Once
)

func init() {
	registry.MustRegister(
		RequestCounter, RequestDuration, ActiveConnections,
		DownloadsTotal, UploadsTotal, CatalogGauge,
	)
}

// InitMetrics 初始化运行时收集器.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.RuntimeMetrics {
		registerOnce.Do(func() {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		})
	}

	return nil
}

// Handler 返回应用注册表的抓取处理器.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// StartMetricsServer 在 engine 上挂载 /metrics 以及可选的 pprof.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(Handler()))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
