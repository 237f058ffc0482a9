// Package service wires the domain pipeline to the outbound adapters: the
// async audit emitter and the proxy call paths.
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcpshield/mcpshield/internal/domain/audit"
	"github.com/mcpshield/mcpshield/internal/port/outbound"
)

// AuditService delivers entries to the store from a background worker so
// emission never blocks a proxied call. When the buffer is full the entry
// waits up to sendTimeout and is then dropped and counted.
type AuditService struct {
	store   outbound.AuditStore
	entries chan audit.Entry
	wg      sync.WaitGroup
	logger  *slog.Logger

	channelSize int
	sendTimeout time.Duration
	dropHook    func()
	dropCount   atomic.Int64
	lastWarning atomic.Int64
}

var _ audit.Emitter = (*AuditService)(nil)

// AuditOption configures AuditService.
type AuditOption func(*AuditService)

// WithChannelSize sets the buffer between the request path and the worker.
func WithChannelSize(size int) AuditOption {
	return func(s *AuditService) {
		s.entries = make(chan audit.Entry, size)
		s.channelSize = size
	}
}

// WithSendTimeout sets how long Emit may wait on a full buffer before
// dropping. Zero drops immediately.
func WithSendTimeout(timeout time.Duration) AuditOption {
	return func(s *AuditService) {
		s.sendTimeout = timeout
	}
}

// WithDropHook installs a callback invoked once per dropped entry, used to
// surface drops as a metric.
func WithDropHook(hook func()) AuditOption {
	return func(s *AuditService) {
		s.dropHook = hook
	}
}

// NewAuditService builds the emitter. Call Start before emitting and Stop
// to flush on shutdown.
func NewAuditService(store outbound.AuditStore, logger *slog.Logger, opts ...AuditOption) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	const defaultChannelSize = 1000
	s := &AuditService{
		store:       store,
		entries:     make(chan audit.Entry, defaultChannelSize),
		logger:      logger,
		channelSize: defaultChannelSize,
		sendTimeout: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background writer.
func (s *AuditService) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
}

// Emit hands an entry to the worker. Never returns an error: audit delivery
// problems must not fail proxied calls.
func (s *AuditService) Emit(_ context.Context, entry audit.Entry) {
	if depth := len(s.entries); depth*100 >= s.channelSize*80 {
		s.warnDepth(depth)
	}

	select {
	case s.entries <- entry:
		return
	default:
	}

	if s.sendTimeout <= 0 {
		s.drop(entry)
		return
	}
	select {
	case s.entries <- entry:
	case <-time.After(s.sendTimeout):
		s.drop(entry)
	}
}

// Stop closes the buffer and waits for the worker to drain it.
func (s *AuditService) Stop() {
	close(s.entries)
	s.wg.Wait()
}

// Dropped returns the total entries dropped under backpressure.
func (s *AuditService) Dropped() int64 {
	return s.dropCount.Load()
}

// Depth returns the current buffer occupancy.
func (s *AuditService) Depth() int {
	return len(s.entries)
}

func (s *AuditService) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case entry, ok := <-s.entries:
			if !ok {
				return
			}
			s.write(ctx, entry)

		case <-ctx.Done():
			// Drain what is already queued with a bounded deadline,
			// then stop accepting context.
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			for {
				select {
				case entry, ok := <-s.entries:
					if !ok {
						cancel()
						return
					}
					s.write(drainCtx, entry)
				default:
					cancel()
					return
				}
			}
		}
	}
}

// write persists one entry. Errors are logged, never propagated.
func (s *AuditService) write(ctx context.Context, entry audit.Entry) {
	if err := s.store.Write(ctx, entry); err != nil {
		s.logger.Error("failed to write audit entry",
			"tool", entry.UpstreamTool,
			"error", err)
	}
}

func (s *AuditService) drop(entry audit.Entry) {
	drops := s.dropCount.Add(1)
	if s.dropHook != nil {
		s.dropHook()
	}
	s.logger.Warn("audit entry dropped",
		"tool", entry.UpstreamTool,
		"total_drops", drops)
}

// warnDepth logs a capacity warning at most once per second.
func (s *AuditService) warnDepth(depth int) {
	now := time.Now().UnixNano()
	last := s.lastWarning.Load()
	if now-last < int64(time.Second) {
		return
	}
	if s.lastWarning.CompareAndSwap(last, now) {
		s.logger.Warn("audit buffer approaching capacity",
			"depth", depth,
			"capacity", s.channelSize)
	}
}
