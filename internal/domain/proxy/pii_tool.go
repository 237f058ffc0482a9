// Package proxy contains the middleware layers the gateway composes around
// upstream calls: PII redaction on the response path and audit emission
// outside it.
package proxy

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpshield/mcpshield/internal/domain/audit"
	"github.com/mcpshield/mcpshield/internal/domain/ner"
	"github.com/mcpshield/mcpshield/internal/domain/pipeline"
	"github.com/mcpshield/mcpshield/internal/domain/profile"
	"github.com/mcpshield/mcpshield/internal/domain/redact"
)

// redactionFailureText replaces the whole response body when redaction
// itself panics. Returning the raw upstream content after a redaction fault
// would leak exactly what the gateway exists to remove.
const redactionFailureText = "[REDACTION FAILURE: response withheld]"

// ToolRedaction is the inner response-path layer for tool calls. It masks
// text and structured content per the active profile and attaches the
// resulting summary to the context slot planted by the audit layer.
type ToolRedaction struct {
	profile profile.Profile
	stage2  *ner.Redactor
	logger  *slog.Logger
}

// NewToolRedaction builds the layer. stage2 may be nil when the profile
// disables contextual redaction or no provider is configured.
func NewToolRedaction(p profile.Profile, stage2 *ner.Redactor, logger *slog.Logger) *ToolRedaction {
	if logger == nil {
		logger = slog.Default()
	}
	if !p.Stage2 {
		stage2 = nil
	}
	return &ToolRedaction{profile: p, stage2: stage2, logger: logger}
}

// Middleware adapts the layer to the pipeline.
func (m *ToolRedaction) Middleware() pipeline.Middleware[*mcp.CallToolParams, *mcp.CallToolResult] {
	return func(ctx context.Context, req *mcp.CallToolParams, next pipeline.Handler[*mcp.CallToolParams, *mcp.CallToolResult]) (*mcp.CallToolResult, error) {
		resp, err := next(ctx, req)
		if err != nil {
			return nil, err
		}
		// Responses without a content list predate the content model;
		// there is nothing to scan and nothing to report.
		if resp == nil || (resp.Content == nil && resp.StructuredContent == nil) {
			return resp, nil
		}
		if resp.IsError {
			// Protocol-level tool errors pass through unredacted but
			// still produce an explicit zero summary for the audit
			// layer: the call happened, nothing was masked.
			m.attach(ctx, redact.NewSummary())
			return resp, nil
		}
		return m.redactResult(ctx, req.Name, resp)
	}
}

func (m *ToolRedaction) redactResult(ctx context.Context, tool string, resp *mcp.CallToolResult) (out *mcp.CallToolResult, err error) {
	sum := redact.NewSummary()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("redaction panic, withholding response",
				"tool", tool,
				"panic", r)
			out = &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: redactionFailureText}},
			}
			err = nil
			m.attach(ctx, redact.NewSummary())
		}
	}()

	redacted := *resp
	if resp.Content != nil {
		content := make([]mcp.Content, len(resp.Content))
		for i, block := range resp.Content {
			tc, ok := block.(*mcp.TextContent)
			if !ok {
				content[i] = block
				continue
			}
			masked := tc.Text
			if m.profile.Stage1 {
				var s *redact.Summary
				masked, s = redact.RedactString(masked)
				sum.Merge(s)
			}
			if m.stage2 != nil {
				if cerr := ctx.Err(); cerr != nil {
					return nil, cerr
				}
				nerMasked, nerSum, nerErr := m.stage2.RedactText(ctx, masked)
				if nerErr != nil {
					return nil, nerErr
				}
				masked = nerMasked
				sum.Merge(nerSum)
			}
			cp := *tc
			cp.Text = masked
			content[i] = &cp
		}
		redacted.Content = content
	}

	if resp.StructuredContent != nil && m.profile.Stage1 {
		structured, s := redact.RedactValue(resp.StructuredContent)
		sum.Merge(s)
		redacted.StructuredContent = structured
	}

	m.attach(ctx, sum)
	return &redacted, nil
}

func (m *ToolRedaction) attach(ctx context.Context, sum *redact.Summary) {
	if holder, ok := audit.SummaryFromContext(ctx); ok {
		holder.Attach(sum)
	}
}
