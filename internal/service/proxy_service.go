package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpshield/mcpshield/internal/domain/pipeline"
	"github.com/mcpshield/mcpshield/internal/domain/proxy"
	"github.com/mcpshield/mcpshield/internal/domain/redact"
	"github.com/mcpshield/mcpshield/internal/port/outbound"
)

// ProxyService owns the composed request pipelines. Tool calls run through
// audit (outermost) and PII redaction; resource reads run through PII
// redaction only. Both terminate at the upstream backend.
type ProxyService struct {
	backend      outbound.Backend
	callTool     pipeline.Handler[*mcp.CallToolParams, *mcp.CallToolResult]
	readResource pipeline.Handler[*mcp.ReadResourceParams, *mcp.ReadResourceResult]
	logger       *slog.Logger
}

// NewProxyService composes the pipelines around backend.
func NewProxyService(
	backend outbound.Backend,
	auditor *proxy.Auditor,
	toolRedaction *proxy.ToolRedaction,
	resourceRedaction *proxy.ResourceRedaction,
	logger *slog.Logger,
) *ProxyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxyService{
		backend: backend,
		callTool: pipeline.Compose(
			backend.CallTool,
			auditor.Middleware(),
			toolRedaction.Middleware(),
		),
		readResource: pipeline.Compose(
			backend.ReadResource,
			resourceRedaction.Middleware(),
		),
		logger: logger,
	}
}

// CallTool proxies a tool call through the full pipeline.
func (p *ProxyService) CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	if params == nil || params.Name == "" {
		return nil, fmt.Errorf("call tool: missing tool name")
	}
	return p.callTool(ctx, params)
}

// ReadResource proxies a resource read through the redaction pipeline.
func (p *ProxyService) ReadResource(ctx context.Context, params *mcp.ReadResourceParams) (*mcp.ReadResourceResult, error) {
	if params == nil || params.URI == "" {
		return nil, fmt.Errorf("read resource: missing uri")
	}
	return p.readResource(ctx, params)
}

// GetPrompt proxies a prompt fetch. Rendered prompt text runs through the
// pattern engine so templates expanded with user data cannot carry PII past
// the gateway.
func (p *ProxyService) GetPrompt(ctx context.Context, params *mcp.GetPromptParams) (*mcp.GetPromptResult, error) {
	result, err := p.backend.GetPrompt(ctx, params)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Messages) == 0 {
		return result, nil
	}

	redacted := *result
	messages := make([]*mcp.PromptMessage, len(result.Messages))
	for i, msg := range result.Messages {
		messages[i] = msg
		if msg == nil {
			continue
		}
		if tc, ok := msg.Content.(*mcp.TextContent); ok {
			masked, _ := redact.RedactString(tc.Text)
			cp := *tc
			cp.Text = masked
			m := *msg
			m.Content = &cp
			messages[i] = &m
		}
	}
	redacted.Messages = messages
	return &redacted, nil
}

// ListTools exposes the upstream tool catalog for mirroring.
func (p *ProxyService) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	return p.backend.ListTools(ctx)
}

// ListResources exposes the upstream resource catalog for mirroring.
func (p *ProxyService) ListResources(ctx context.Context) ([]*mcp.Resource, error) {
	return p.backend.ListResources(ctx)
}

// ListPrompts exposes the upstream prompt catalog for mirroring.
func (p *ProxyService) ListPrompts(ctx context.Context) ([]*mcp.Prompt, error) {
	return p.backend.ListPrompts(ctx)
}
