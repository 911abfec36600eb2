// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/edutrading/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 上游行情请求计数
	UpstreamRequestsTotal prometheus.Counter
	// 上游行情请求失败计数
	UpstreamErrorsTotal prometheus.Counter
	// 缓存命中计数
	CacheHitsTotal prometheus.Counter
	// 缓存未命中计数
	CacheMissesTotal prometheus.Counter

	// 业务指标
	OrdersTotal          prometheus.Counter
	TradesTotal          prometheus.Counter
	PortfolioResetsTotal prometheus.Counter
	PositionsActive      prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		// HTTP 指标
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutrading",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "edutrading",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// 行情指标
		UpstreamRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutrading",
			Subsystem: serviceName,
			Name:      "upstream_requests_total",
			Help:      "Total market data provider requests",
		}),
		UpstreamErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutrading",
			Subsystem: serviceName,
			Name:      "upstream_errors_total",
			Help:      "Total failed market data provider requests",
		}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutrading",
			Subsystem: serviceName,
			Name:      "cache_hits_total",
			Help:      "Total market data cache hits",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutrading",
			Subsystem: serviceName,
			Name:      "cache_misses_total",
			Help:      "Total market data cache misses",
		}),

		// 业务指标
		OrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutrading",
			Subsystem: serviceName,
			Name:      "orders_total",
			Help:      "Total orders placed",
		}),
		TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutrading",
			Subsystem: serviceName,
			Name:      "trades_total",
			Help:      "Total trades executed",
		}),
		PortfolioResetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutrading",
			Subsystem: serviceName,
			Name:      "portfolio_resets_total",
			Help:      "Total portfolio resets",
		}),
		PositionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "edutrading",
			Subsystem: serviceName,
			Name:      "positions_active",
			Help:      "Number of active positions",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	metrics := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.UpstreamRequestsTotal,
		m.UpstreamErrorsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.OrdersTotal,
		m.TradesTotal,
		m.PortfolioResetsTotal,
		m.PositionsActive,
	}

	for _, metric := range metrics {
		if err := prometheus.DefaultRegisterer.Register(metric); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
