package proxy

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpshield/mcpshield/internal/domain/ner"
	"github.com/mcpshield/mcpshield/internal/domain/pipeline"
	"github.com/mcpshield/mcpshield/internal/domain/profile"
	"github.com/mcpshield/mcpshield/internal/domain/redact"
)

// ResourceRedaction masks text resource contents the same way tool responses
// are masked. Blob contents pass through untouched; binary payloads are not
// scanned.
type ResourceRedaction struct {
	profile profile.Profile
	stage2  *ner.Redactor
	logger  *slog.Logger
}

func NewResourceRedaction(p profile.Profile, stage2 *ner.Redactor, logger *slog.Logger) *ResourceRedaction {
	if logger == nil {
		logger = slog.Default()
	}
	if !p.Stage2 {
		stage2 = nil
	}
	return &ResourceRedaction{profile: p, stage2: stage2, logger: logger}
}

// Middleware adapts the layer to the pipeline.
func (m *ResourceRedaction) Middleware() pipeline.Middleware[*mcp.ReadResourceParams, *mcp.ReadResourceResult] {
	return func(ctx context.Context, req *mcp.ReadResourceParams, next pipeline.Handler[*mcp.ReadResourceParams, *mcp.ReadResourceResult]) (*mcp.ReadResourceResult, error) {
		resp, err := next(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp == nil || len(resp.Contents) == 0 {
			return resp, nil
		}
		return m.redactResult(ctx, req.URI, resp)
	}
}

func (m *ResourceRedaction) redactResult(ctx context.Context, uri string, resp *mcp.ReadResourceResult) (out *mcp.ReadResourceResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("redaction panic, withholding resource",
				"uri", uri,
				"panic", r)
			out = &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
				URI:  uri,
				Text: redactionFailureText,
			}}}
			err = nil
		}
	}()

	redacted := *resp
	contents := make([]*mcp.ResourceContents, len(resp.Contents))
	for i, rc := range resp.Contents {
		if rc == nil || rc.Text == "" {
			contents[i] = rc
			continue
		}
		masked := rc.Text
		if m.profile.Stage1 {
			masked, _ = redact.RedactString(masked)
		}
		if m.stage2 != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, cerr
			}
			nerMasked, _, nerErr := m.stage2.RedactText(ctx, masked)
			if nerErr != nil {
				return nil, nerErr
			}
			masked = nerMasked
		}
		cp := *rc
		cp.Text = masked
		contents[i] = &cp
	}
	redacted.Contents = contents
	return &redacted, nil
}
