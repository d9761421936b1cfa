package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	outboundRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsales_outbound_requests_total",
			Help: "Requests sent to messaging providers.",
		},
		[]string{"provider", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(outboundRequestsTotal)
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	endpoint = RouteLabel(endpoint)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordOutbound records one call to a provider API; a nil err counts as "ok".
func RecordOutbound(provider string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	outboundRequestsTotal.WithLabelValues(provider, status).Inc()
}

// RouteLabel collapses per-tenant webhook paths so the label set stays bounded.
func RouteLabel(path string) string {
	if strings.HasPrefix(path, "/webhooks/whatsapp/") {
		return "/webhooks/whatsapp/{tenant}"
	}
	return path
}

func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
