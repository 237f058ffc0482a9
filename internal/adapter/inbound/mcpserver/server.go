// Package mcpserver is the inbound adapter: an MCP server that mirrors the
// upstream catalog and routes every operation through the proxy pipelines.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpshield/mcpshield/internal/ctxkey"
	"github.com/mcpshield/mcpshield/internal/service"
)

// Server fronts clients over stdio and forwards through the proxy service.
type Server struct {
	svc     *service.ProxyService
	server  *mcp.Server
	metrics *Metrics
	logger  *slog.Logger
}

// Config identifies the gateway to connecting clients.
type Config struct {
	Name    string
	Version string
}

// New mirrors the upstream catalog onto a fresh MCP server. Tools keep their
// upstream names and schemas, so the gateway is invisible to clients.
func New(ctx context.Context, cfg Config, svc *service.ProxyService, metrics *Metrics, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:     svc,
		metrics: metrics,
		logger:  logger,
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if err := s.mirror(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Run serves the gateway on the given transport until ctx is done. The
// production entrypoint passes a stdio transport; tests pass in-memory ones.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func (s *Server) mirror(ctx context.Context) error {
	tools, err := s.svc.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("mirror tools: %w", err)
	}
	for _, tool := range tools {
		s.server.AddTool(tool, s.toolHandler())
	}

	resources, err := s.svc.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("mirror resources: %w", err)
	}
	for _, resource := range resources {
		s.server.AddResource(resource, s.resourceHandler())
	}

	prompts, err := s.svc.ListPrompts(ctx)
	if err != nil {
		return fmt.Errorf("mirror prompts: %w", err)
	}
	for _, prompt := range prompts {
		s.server.AddPrompt(prompt, s.promptHandler())
	}

	s.logger.Info("Upstream catalog mirrored",
		"tools", len(tools),
		"resources", len(resources),
		"prompts", len(prompts))
	return nil
}

func (s *Server) toolHandler() mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, logger := s.requestContext(ctx, "tool", req.Params.Name)
		start := time.Now()

		result, err := s.svc.CallTool(ctx, &mcp.CallToolParams{
			Name:      req.Params.Name,
			Arguments: req.Params.Arguments,
		})

		s.observe("tool", start, err == nil && (result == nil || !result.IsError))
		if err != nil {
			logger.Error("tool call failed", "error", err)
			return nil, err
		}
		return result, nil
	}
}

func (s *Server) resourceHandler() mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		ctx, logger := s.requestContext(ctx, "resource", req.Params.URI)
		start := time.Now()

		result, err := s.svc.ReadResource(ctx, &mcp.ReadResourceParams{URI: req.Params.URI})

		s.observe("resource", start, err == nil)
		if err != nil {
			logger.Error("resource read failed", "error", err)
			return nil, err
		}
		return result, nil
	}
}

func (s *Server) promptHandler() mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		ctx, logger := s.requestContext(ctx, "prompt", req.Params.Name)
		start := time.Now()

		result, err := s.svc.GetPrompt(ctx, &mcp.GetPromptParams{
			Name:      req.Params.Name,
			Arguments: req.Params.Arguments,
		})

		s.observe("prompt", start, err == nil)
		if err != nil {
			logger.Error("prompt fetch failed", "error", err)
			return nil, err
		}
		return result, nil
	}
}

// requestContext derives a per-call context carrying a request id and an
// enriched logger.
func (s *Server) requestContext(ctx context.Context, operation, target string) (context.Context, *slog.Logger) {
	requestID := uuid.NewString()
	logger := s.logger.With(
		"request_id", requestID,
		"operation", operation,
		"target", target,
	)
	ctx = context.WithValue(ctx, ctxkey.RequestIDKey{}, requestID)
	ctx = context.WithValue(ctx, ctxkey.LoggerKey{}, logger)
	return ctx, logger
}

func (s *Server) observe(operation string, start time.Time, ok bool) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	s.metrics.CallsTotal.WithLabelValues(operation, status).Inc()
	s.metrics.CallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
