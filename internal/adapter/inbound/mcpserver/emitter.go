package mcpserver

import (
	"context"

	"github.com/mcpshield/mcpshield/internal/domain/audit"
)

type observedEmitter struct {
	next    audit.Emitter
	metrics *Metrics
}

// ObserveEmitter wraps next so redaction activity shows up in Prometheus
// before the entry reaches the store.
func ObserveEmitter(next audit.Emitter, metrics *Metrics) audit.Emitter {
	if metrics == nil {
		return next
	}
	return &observedEmitter{next: next, metrics: metrics}
}

func (e *observedEmitter) Emit(ctx context.Context, entry audit.Entry) {
	for _, t := range entry.RedactedTypes {
		e.metrics.RedactionsTotal.WithLabelValues(t).Inc()
	}
	e.next.Emit(ctx, entry)
}
