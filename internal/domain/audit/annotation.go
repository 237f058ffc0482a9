package audit

import (
	"context"
	"sync"

	"github.com/mcpshield/mcpshield/internal/domain/redact"
)

type summaryCtxKey struct{}

// SummaryHolder is the write-once slot the audit layer plants in the request
// context before calling inward. The redaction layer fills it on the way
// back out; the audit layer reads it after the inner handler returns.
type SummaryHolder struct {
	mu  sync.Mutex
	sum *redact.Summary
	set bool
}

// Attach stores the summary. Only the first attach wins; later calls report
// false and leave the slot untouched.
func (h *SummaryHolder) Attach(sum *redact.Summary) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.set {
		return false
	}
	h.sum = sum
	h.set = true
	return true
}

// Get returns the attached summary, if any.
func (h *SummaryHolder) Get() (*redact.Summary, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum, h.set
}

// NewSummaryContext derives a context carrying a fresh holder.
func NewSummaryContext(ctx context.Context) (context.Context, *SummaryHolder) {
	h := &SummaryHolder{}
	return context.WithValue(ctx, summaryCtxKey{}, h), h
}

// SummaryFromContext extracts the holder planted by the audit layer. Inner
// layers that find no holder run without annotation.
func SummaryFromContext(ctx context.Context) (*SummaryHolder, bool) {
	h, ok := ctx.Value(summaryCtxKey{}).(*SummaryHolder)
	return h, ok
}
