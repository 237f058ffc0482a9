// Package outbound defines the outbound port interfaces: the upstream MCP
// server connection and the audit sink.
package outbound

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Backend is the outbound port for the upstream MCP server. Adapters
// implement this over different transports (stdio subprocess, streamable
// HTTP); the proxy pipelines terminate in these calls.
type Backend interface {
	// CallTool invokes a tool on the upstream server.
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)

	// ReadResource reads a resource from the upstream server.
	ReadResource(ctx context.Context, params *mcp.ReadResourceParams) (*mcp.ReadResourceResult, error)

	// GetPrompt fetches a prompt from the upstream server.
	GetPrompt(ctx context.Context, params *mcp.GetPromptParams) (*mcp.GetPromptResult, error)

	// ListTools enumerates the upstream tools for mirroring.
	ListTools(ctx context.Context) ([]*mcp.Tool, error)

	// ListResources enumerates the upstream resources for mirroring.
	ListResources(ctx context.Context) ([]*mcp.Resource, error)

	// ListPrompts enumerates the upstream prompts for mirroring.
	ListPrompts(ctx context.Context) ([]*mcp.Prompt, error)

	// Close terminates the upstream connection and cleans up resources.
	Close() error
}
