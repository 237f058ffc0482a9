package outbound

import (
	"context"

	"github.com/mcpshield/mcpshield/internal/domain/audit"
)

// AuditStore is the outbound port for durable audit records. Writes are
// called from the audit worker, never from the request path.
type AuditStore interface {
	// Write appends one entry to the store.
	Write(ctx context.Context, entry audit.Entry) error

	// Close flushes and releases the store.
	Close() error
}
