package mcpserver

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mcpshield/mcpshield/internal/domain/audit"
)

func TestObserveEmitter_CountsRedactedTypes(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	sink := &memEmitter{}
	emitter := ObserveEmitter(sink, metrics)

	emitter.Emit(context.Background(), audit.Entry{
		UpstreamTool:  "query_users",
		RedactedTypes: []string{"email", "ssn"},
	})
	emitter.Emit(context.Background(), audit.Entry{
		UpstreamTool:  "query_users",
		RedactedTypes: []string{"email"},
	})

	if got := testutil.ToFloat64(metrics.RedactionsTotal.WithLabelValues("email")); got != 2 {
		t.Errorf("email redactions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.RedactionsTotal.WithLabelValues("ssn")); got != 1 {
		t.Errorf("ssn redactions = %v, want 1", got)
	}
	if len(sink.all()) != 2 {
		t.Errorf("entries forwarded = %d, want 2", len(sink.all()))
	}
}

func TestObserveEmitter_NilMetricsPassesThrough(t *testing.T) {
	sink := &memEmitter{}
	if got := ObserveEmitter(sink, nil); got != audit.Emitter(sink) {
		t.Error("expected the undecorated emitter back")
	}
}
