package audit

import "context"

// Emitter accepts completed audit entries. Implementations must not block
// the request path; delivery is asynchronous and best-effort.
type Emitter interface {
	Emit(ctx context.Context, entry Entry)
}

// NopEmitter discards entries. Used when auditing is disabled.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Entry) {}

var _ Emitter = NopEmitter{}
