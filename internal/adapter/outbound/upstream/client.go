// Package upstream implements the outbound MCP backend over the official
// go-sdk, connecting to the protected server via a stdio subprocess or
// streamable HTTP.
package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpshield/mcpshield/internal/port/outbound"
)

const (
	// connectTimeout bounds the initialize handshake.
	connectTimeout = 30 * time.Second
)

// Config selects the upstream transport. Exactly one of Command or URL must
// be set; the config layer enforces that before the adapter is built.
type Config struct {
	// Command launches the upstream server as a stdio subprocess.
	Command string
	// Args are passed to Command.
	Args []string
	// URL connects to a remote streamable-HTTP upstream.
	URL string

	// ClientName and ClientVersion identify the gateway in the MCP
	// initialize handshake.
	ClientName    string
	ClientVersion string
}

// Client is a connected upstream session.
type Client struct {
	session *mcp.ClientSession
	logger  *slog.Logger
}

var _ outbound.Backend = (*Client)(nil)

// Connect builds the transport from cfg, performs the MCP handshake, and
// returns a ready backend. Stdio subprocess stderr is passed through so
// upstream diagnostics stay visible.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	transport, err := buildTransport(cfg)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{
		Name:    cfg.ClientName,
		Version: cfg.ClientVersion,
	}, nil)

	session, err := client.Connect(connectCtx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to upstream: %w", err)
	}

	logger.Info("Upstream MCP server connected",
		"transport", transportKind(cfg))
	return &Client{session: session, logger: logger}, nil
}

// NewFromSession wraps an already connected session. Used by tests with
// in-memory transports.
func NewFromSession(session *mcp.ClientSession, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{session: session, logger: logger}
}

func buildTransport(cfg Config) (mcp.Transport, error) {
	switch {
	case cfg.Command != "":
		cmd := exec.Command(cfg.Command, cfg.Args...)
		cmd.Env = os.Environ()
		cmd.Stderr = os.Stderr
		return &mcp.CommandTransport{Command: cmd}, nil
	case cfg.URL != "":
		return &mcp.StreamableClientTransport{Endpoint: cfg.URL}, nil
	default:
		return nil, fmt.Errorf("upstream config has neither command nor url")
	}
}

func transportKind(cfg Config) string {
	if cfg.Command != "" {
		return "stdio"
	}
	return "http"
}

// CallTool invokes a tool on the upstream server.
func (c *Client) CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	result, err := c.session.CallTool(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("upstream call tool %q: %w", params.Name, err)
	}
	return result, nil
}

// ReadResource reads a resource from the upstream server.
func (c *Client) ReadResource(ctx context.Context, params *mcp.ReadResourceParams) (*mcp.ReadResourceResult, error) {
	result, err := c.session.ReadResource(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("upstream read resource %q: %w", params.URI, err)
	}
	return result, nil
}

// GetPrompt fetches a prompt from the upstream server.
func (c *Client) GetPrompt(ctx context.Context, params *mcp.GetPromptParams) (*mcp.GetPromptResult, error) {
	result, err := c.session.GetPrompt(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("upstream get prompt %q: %w", params.Name, err)
	}
	return result, nil
}

// ListTools enumerates all upstream tools, following pagination.
func (c *Client) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	var (
		tools  []*mcp.Tool
		cursor string
	)
	for {
		result, err := c.session.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("upstream list tools: %w", err)
		}
		tools = append(tools, result.Tools...)
		if result.NextCursor == "" {
			return tools, nil
		}
		cursor = result.NextCursor
	}
}

// ListResources enumerates all upstream resources, following pagination.
// Upstreams without resource support yield an empty list, not an error.
func (c *Client) ListResources(ctx context.Context) ([]*mcp.Resource, error) {
	var (
		resources []*mcp.Resource
		cursor    string
	)
	for {
		result, err := c.session.ListResources(ctx, &mcp.ListResourcesParams{Cursor: cursor})
		if err != nil {
			if isMethodNotFound(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("upstream list resources: %w", err)
		}
		resources = append(resources, result.Resources...)
		if result.NextCursor == "" {
			return resources, nil
		}
		cursor = result.NextCursor
	}
}

// ListPrompts enumerates all upstream prompts, following pagination.
// Upstreams without prompt support yield an empty list, not an error.
func (c *Client) ListPrompts(ctx context.Context) ([]*mcp.Prompt, error) {
	var (
		prompts []*mcp.Prompt
		cursor  string
	)
	for {
		result, err := c.session.ListPrompts(ctx, &mcp.ListPromptsParams{Cursor: cursor})
		if err != nil {
			if isMethodNotFound(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("upstream list prompts: %w", err)
		}
		prompts = append(prompts, result.Prompts...)
		if result.NextCursor == "" {
			return prompts, nil
		}
		cursor = result.NextCursor
	}
}

// Close terminates the upstream session. For stdio transports this reaps
// the subprocess.
func (c *Client) Close() error {
	return c.session.Close()
}

// isMethodNotFound matches the JSON-RPC "method not found" failure servers
// return for capabilities they do not implement. The SDK surfaces it as a
// wrapped message rather than a typed error, so this matches on text.
func isMethodNotFound(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "method not found")
}
