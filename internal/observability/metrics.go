package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type toolMetrics struct {
	toolExecutionTotal    *prometheus.CounterVec
	toolExecutionDuration *prometheus.HistogramVec
	toolErrorsTotal       *prometheus.CounterVec

	registryProviders prometheus.Gauge
	registryTools     prometheus.Gauge

	gatewayClients  prometheus.Gauge
	gatewayRequests *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *toolMetrics
)

func getMetrics() *toolMetrics {
	metricsOnce.Do(func() {
		m := &toolMetrics{
			toolExecutionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tool_execution_total",
					Help: "Total tool executions by tool, domain and status.",
				},
				[]string{"tool", "domain", "status"},
			),
			toolExecutionDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tool_execution_duration_seconds",
					Help:    "Tool execution duration in seconds by tool.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
			toolErrorsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tool_errors_total",
					Help: "Total failed tool executions by tool and failure code.",
				},
				[]string{"tool", "code"},
			),
			registryProviders: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "registry_providers",
					Help: "Number of registered tool providers.",
				},
			),
			registryTools: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "registry_tools",
					Help: "Number of tools exposed by registered providers.",
				},
			),
			gatewayClients: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "gateway_clients",
					Help: "Current WebSocket client count.",
				},
			),
			gatewayRequests: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gateway_requests_total",
					Help: "Total gateway requests by route and HTTP status.",
				},
				[]string{"route", "status"},
			),
		}

		prometheus.MustRegister(
			m.toolExecutionTotal,
			m.toolExecutionDuration,
			m.toolErrorsTotal,
			m.registryProviders,
			m.registryTools,
			m.gatewayClients,
			m.gatewayRequests,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// RecordToolExecution counts a dispatch. An empty code means success; an empty
// domain means the tool could not be resolved.
func RecordToolExecution(tool, domain string, duration time.Duration, code string) {
	m := getMetrics()
	status := "success"
	if code != "" {
		status = "error"
		m.toolErrorsTotal.WithLabelValues(tool, code).Inc()
	}
	if domain == "" {
		domain = "none"
	}
	m.toolExecutionTotal.WithLabelValues(tool, domain, status).Inc()
	m.toolExecutionDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func SetRegistrySize(providers, tools int) {
	m := getMetrics()
	m.registryProviders.Set(float64(providers))
	m.registryTools.Set(float64(tools))
}

func SetGatewayClients(count int) {
	m := getMetrics()
	m.gatewayClients.Set(float64(count))
}

func RecordGatewayRequest(route string, status int) {
	m := getMetrics()
	m.gatewayRequests.WithLabelValues(route, http.StatusText(status)).Inc()
}
