package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpshield/mcpshield/internal/domain/audit"
	"github.com/mcpshield/mcpshield/internal/domain/profile"
	"github.com/mcpshield/mcpshield/internal/domain/proxy"
)

// fakeBackend scripts upstream behavior per tool/uri.
type fakeBackend struct {
	callResults  map[string]*mcp.CallToolResult
	callErr      error
	readResults  map[string]*mcp.ReadResourceResult
	promptResult *mcp.GetPromptResult
	tools        []*mcp.Tool
}

func (f *fakeBackend) CallTool(_ context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.callResults[params.Name], nil
}

func (f *fakeBackend) ReadResource(_ context.Context, params *mcp.ReadResourceParams) (*mcp.ReadResourceResult, error) {
	return f.readResults[params.URI], nil
}

func (f *fakeBackend) GetPrompt(context.Context, *mcp.GetPromptParams) (*mcp.GetPromptResult, error) {
	return f.promptResult, nil
}

func (f *fakeBackend) ListTools(context.Context) ([]*mcp.Tool, error)         { return f.tools, nil }
func (f *fakeBackend) ListResources(context.Context) ([]*mcp.Resource, error) { return nil, nil }
func (f *fakeBackend) ListPrompts(context.Context) ([]*mcp.Prompt, error)     { return nil, nil }
func (f *fakeBackend) Close() error                                           { return nil }

type recordingEmitter struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingEmitter) Emit(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingEmitter) last(t *testing.T) audit.Entry {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		t.Fatal("no audit entries")
	}
	return r.entries[len(r.entries)-1]
}

func newTestProxy(backend *fakeBackend, emitter audit.Emitter) *ProxyService {
	logger := testLogger()
	p := profile.Lookup(profile.NamePCIDSS, logger)
	return NewProxyService(
		backend,
		proxy.NewAuditor(emitter, p.Name, logger),
		proxy.NewToolRedaction(p, nil, logger),
		proxy.NewResourceRedaction(p, nil, logger),
		logger,
	)
}

func TestProxyService_CallToolRedactsAndAudits(t *testing.T) {
	backend := &fakeBackend{callResults: map[string]*mcp.CallToolResult{
		"query_users": {Content: []mcp.Content{
			&mcp.TextContent{Text: "Contact john@example.com, card 4111 1111 1111 1111"},
		}},
	}}
	emitter := &recordingEmitter{}
	svc := newTestProxy(backend, emitter)

	resp, err := svc.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "query_users",
		Arguments: map[string]any{"limit": 10},
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	got := resp.Content[0].(*mcp.TextContent).Text
	if got != "Contact j***@example.com, card **** **** **** 1111" {
		t.Errorf("text = %q", got)
	}

	entry := emitter.last(t)
	if entry.Status != audit.StatusSuccess {
		t.Errorf("status = %q", entry.Status)
	}
	if entry.RedactionCount != 2 {
		t.Errorf("redaction_count = %d, want 2", entry.RedactionCount)
	}
	if entry.UpstreamTool != "query_users" {
		t.Errorf("upstream_tool = %q", entry.UpstreamTool)
	}
}

func TestProxyService_UpstreamFailureAuditedAndRaised(t *testing.T) {
	upstreamErr := errors.New("upstream unreachable")
	backend := &fakeBackend{callErr: upstreamErr}
	emitter := &recordingEmitter{}
	svc := newTestProxy(backend, emitter)

	_, err := svc.CallTool(context.Background(), &mcp.CallToolParams{Name: "any"})
	if !errors.Is(err, upstreamErr) {
		t.Fatalf("err = %v", err)
	}

	entry := emitter.last(t)
	if entry.Status != audit.StatusError {
		t.Errorf("status = %q", entry.Status)
	}
	if entry.Error != "upstream unreachable" {
		t.Errorf("error = %q", entry.Error)
	}
}

func TestProxyService_MissingToolName(t *testing.T) {
	svc := newTestProxy(&fakeBackend{}, &recordingEmitter{})
	if _, err := svc.CallTool(context.Background(), &mcp.CallToolParams{}); err == nil {
		t.Error("empty tool name must fail")
	}
	if _, err := svc.CallTool(context.Background(), nil); err == nil {
		t.Error("nil params must fail")
	}
}

func TestProxyService_ReadResourceRedacts(t *testing.T) {
	backend := &fakeBackend{readResults: map[string]*mcp.ReadResourceResult{
		"file:///users.csv": {Contents: []*mcp.ResourceContents{{
			URI:  "file:///users.csv",
			Text: "john@example.com,123-45-6789",
		}}},
	}}
	svc := newTestProxy(backend, &recordingEmitter{})

	resp, err := svc.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "file:///users.csv"})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if resp.Contents[0].Text != "j***@example.com,***-**-****" {
		t.Errorf("text = %q", resp.Contents[0].Text)
	}
}

func TestProxyService_GetPromptRedactsText(t *testing.T) {
	backend := &fakeBackend{promptResult: &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: "Review account for john@example.com"}},
		},
	}}
	svc := newTestProxy(backend, &recordingEmitter{})

	resp, err := svc.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: "review"})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	tc := resp.Messages[0].Content.(*mcp.TextContent)
	if tc.Text != "Review account for j***@example.com" {
		t.Errorf("text = %q", tc.Text)
	}
	// Source message untouched.
	if backend.promptResult.Messages[0].Content.(*mcp.TextContent).Text != "Review account for john@example.com" {
		t.Error("backend prompt mutated in place")
	}
}

func TestProxyService_ListToolsPassThrough(t *testing.T) {
	backend := &fakeBackend{tools: []*mcp.Tool{{Name: "alpha"}, {Name: "beta"}}}
	svc := newTestProxy(backend, &recordingEmitter{})

	tools, err := svc.ListTools(context.Background())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if len(tools) != 2 || tools[0].Name != "alpha" {
		t.Errorf("tools = %v", tools)
	}
}
