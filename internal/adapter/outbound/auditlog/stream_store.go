package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/mcpshield/mcpshield/internal/domain/audit"
	"github.com/mcpshield/mcpshield/internal/port/outbound"
)

// StreamStore writes one JSON line per entry to a shared stream, typically
// stderr. The mutex plus a single Write call keep each line atomic under
// concurrent emitters.
type StreamStore struct {
	mu sync.Mutex
	w  io.Writer
}

var _ outbound.AuditStore = (*StreamStore)(nil)

// NewStreamStore wraps w as an audit sink.
func NewStreamStore(w io.Writer) *StreamStore {
	return &StreamStore{w: w}
}

// Write appends the entry as one newline-terminated JSON line.
func (s *StreamStore) Write(_ context.Context, entry audit.Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// Close is a no-op; the store does not own the stream.
func (s *StreamStore) Close() error {
	return nil
}
