package ner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/mcpshield/mcpshield/internal/domain/redact"
)

// probeCacheLimit bounds the pre-filter cache. When full the cache is
// dropped wholesale; probe results are cheap to recompute.
const probeCacheLimit = 4096

// Redactor runs contextual stage-2 redaction: probe the text prefix for PII
// labels, and only when the probe fires, detect entity spans chunk by chunk
// and replace them with typed placeholders.
type Redactor struct {
	client   Client
	language string
	allowed  map[string]struct{}
	logger   *slog.Logger

	mu         sync.Mutex
	probeCache map[uint64]bool
}

// NewRedactor builds a Redactor restricted to the given entity types.
// A nil or empty entityTypes list selects DefaultEntityTypes.
func NewRedactor(client Client, entityTypes []string, logger *slog.Logger) *Redactor {
	if logger == nil {
		logger = slog.Default()
	}
	if len(entityTypes) == 0 {
		entityTypes = DefaultEntityTypes
	}
	allowed := make(map[string]struct{}, len(entityTypes))
	for _, t := range entityTypes {
		allowed[strings.ToUpper(t)] = struct{}{}
	}
	return &Redactor{
		client:     client,
		language:   DefaultLanguage,
		allowed:    allowed,
		logger:     logger,
		probeCache: make(map[uint64]bool),
	}
}

// RedactText applies stage-2 redaction to text. The returned summary records
// one entry per replaced span, tagged with the provider entity type. Provider
// errors propagate unchanged in meaning; no partially redacted text is
// returned on error.
func (r *Redactor) RedactText(ctx context.Context, text string) (string, *redact.Summary, error) {
	sum := redact.NewSummary()
	if text == "" {
		return text, sum, nil
	}

	hasPII, err := r.probe(ctx, ProbePrefix(text))
	if err != nil {
		return "", nil, fmt.Errorf("pii probe: %w", err)
	}
	if !hasPII {
		return text, sum, nil
	}

	chunks := SplitChunks(text)
	out := make([]string, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		entities, err := r.client.DetectPII(ctx, chunk, r.language)
		if err != nil {
			return "", nil, fmt.Errorf("pii detect: %w", err)
		}
		out[i] = r.redactChunk(chunk, entities, sum)
	}
	return strings.Join(out, "\n"), sum, nil
}

// probe runs the contains-PII pre-filter on prefix, memoizing results by
// content hash so repeated identical payloads skip the provider round trip.
func (r *Redactor) probe(ctx context.Context, prefix string) (bool, error) {
	key := xxhash.Sum64String(prefix)

	r.mu.Lock()
	cached, ok := r.probeCache[key]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	labels, err := r.client.ContainsPII(ctx, prefix, r.language)
	if err != nil {
		return false, err
	}
	hasPII := len(labels) > 0

	r.mu.Lock()
	if len(r.probeCache) >= probeCacheLimit {
		r.probeCache = make(map[uint64]bool)
	}
	r.probeCache[key] = hasPII
	r.mu.Unlock()
	return hasPII, nil
}

// redactChunk replaces allowed entity spans in chunk, working from the
// highest offset down so earlier offsets stay valid while the string shrinks
// or grows. A chunk with any span that does not address the chunk is
// returned unchanged; clipping a bad offset could leak half an entity.
func (r *Redactor) redactChunk(chunk string, entities []Entity, sum *redact.Summary) string {
	spans := make([]Entity, 0, len(entities))
	for _, e := range entities {
		typ := strings.ToUpper(e.Type)
		if _, ok := r.allowed[typ]; !ok {
			continue
		}
		if e.BeginOffset < 0 || e.EndOffset <= e.BeginOffset || e.EndOffset > len(chunk) {
			r.logger.Warn("dropping chunk with out-of-range entity span",
				"entity_type", typ,
				"begin", e.BeginOffset,
				"end", e.EndOffset,
				"chunk_bytes", len(chunk))
			return chunk
		}
		e.Type = typ
		spans = append(spans, e)
	}
	if len(spans) == 0 {
		return chunk
	}

	sort.Slice(spans, func(i, j int) bool {
		return spans[i].BeginOffset > spans[j].BeginOffset
	})

	result := chunk
	lastBegin := len(chunk) + 1
	for _, e := range spans {
		if e.EndOffset > lastBegin {
			// Overlaps a span already replaced; skip rather than
			// splice into placeholder text.
			continue
		}
		result = result[:e.BeginOffset] + "[REDACTED:" + e.Type + "]" + result[e.EndOffset:]
		lastBegin = e.BeginOffset
		sum.Record(e.Type, 1)
	}
	return result
}
