package mcpserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the gateway.
type Metrics struct {
	CallsTotal      *prometheus.CounterVec
	CallDuration    *prometheus.HistogramVec
	RedactionsTotal *prometheus.CounterVec
	AuditDropsTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CallsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mcpshield",
				Name:      "calls_total",
				Help:      "Total proxied MCP operations",
			},
			[]string{"operation", "status"}, // operation=tool/resource/prompt
		),
		CallDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mcpshield",
				Name:      "call_duration_seconds",
				Help:      "Proxied operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RedactionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mcpshield",
				Name:      "redactions_total",
				Help:      "Responses with at least one redaction, by PII type",
			},
			[]string{"type"},
		),
		AuditDropsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "mcpshield",
				Name:      "audit_drops_total",
				Help:      "Total audit entries dropped under backpressure",
			},
		),
	}
}
