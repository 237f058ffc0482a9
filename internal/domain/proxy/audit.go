package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpshield/mcpshield/internal/domain/audit"
	"github.com/mcpshield/mcpshield/internal/domain/pipeline"
)

// Auditor is the outermost tool-call layer. It plants the summary slot,
// times the full inner pipeline, and emits exactly one entry per call,
// always after redaction has finished. Emission never blocks or fails the
// call.
type Auditor struct {
	emitter     audit.Emitter
	profileName string
	logger      *slog.Logger
	now         func() time.Time
}

func NewAuditor(emitter audit.Emitter, profileName string, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		emitter:     emitter,
		profileName: profileName,
		logger:      logger,
		now:         time.Now,
	}
}

// Middleware adapts the layer to the pipeline.
func (a *Auditor) Middleware() pipeline.Middleware[*mcp.CallToolParams, *mcp.CallToolResult] {
	return func(ctx context.Context, req *mcp.CallToolParams, next pipeline.Handler[*mcp.CallToolParams, *mcp.CallToolResult]) (*mcp.CallToolResult, error) {
		start := a.now()
		ctx, holder := audit.NewSummaryContext(ctx)

		resp, err := next(ctx, req)

		entry := audit.Entry{
			Timestamp:         audit.Timestamp(start),
			UpstreamTool:      req.Name,
			ComplianceProfile: a.profileName,
			InputParameters:   audit.TruncateParams(marshalParams(req.Arguments)),
			RedactedTypes:     []string{},
			ExecutionTimeMS:   a.now().Sub(start).Milliseconds(),
		}

		if err != nil {
			entry.Status = audit.StatusError
			entry.Error = err.Error()
			a.emitter.Emit(ctx, entry)
			return nil, err
		}

		if sum, ok := holder.Get(); ok && sum != nil {
			entry.RedactionCount = sum.Count
			if types := sum.Types(); types != nil {
				entry.RedactedTypes = types
			}
		}
		entry.OutputSizeBytes = responseSize(resp)
		entry.Status = audit.StatusSuccess
		if resp != nil && resp.IsError {
			entry.Status = audit.StatusError
		}
		a.emitter.Emit(ctx, entry)
		return resp, nil
	}
}

// marshalParams serializes tool arguments for the audit record. Arguments
// that cannot marshal are recorded as an empty object rather than failing
// the call.
func marshalParams(args any) string {
	if args == nil {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// responseSize measures the redacted response as serialized, so the record
// reflects what actually left the gateway.
func responseSize(resp *mcp.CallToolResult) int {
	if resp == nil {
		return 0
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return 0
	}
	return len(data)
}
