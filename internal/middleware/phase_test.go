package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/config"
)

func testGate(t *testing.T, current int) *config.PhaseGate {
	t.Helper()
	pc := &config.PhaseConfig{Phases: map[int][]string{
		1: {"list_emails"},
		2: {"trash_emails"},
		3: {"apply_rules"},
	}}
	gate, err := config.NewPhaseGate(pc, current)
	if err != nil {
		t.Fatalf("NewPhaseGate: %v", err)
	}
	return gate
}

func callRequest(tool string) mcp.Request {
	return &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      tool,
			Arguments: json.RawMessage(`{}`),
		},
	}
}

func TestPhaseGateMiddlewareBlocksGatedCall(t *testing.T) {
	mw := PhaseGateMiddleware(testGate(t, 1), slog.Default())

	nextCalled := false
	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		nextCalled = true
		return &mcp.CallToolResult{}, nil
	}

	result, err := mw(next)(context.Background(), "tools/call", callRequest("apply_rules"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nextCalled {
		t.Error("gated call must not reach the handler")
	}

	toolResult := result.(*mcp.CallToolResult)
	if toolResult.IsError {
		t.Error("gate rejection is informational, not a tool error")
	}
	text := toolResult.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "apply_rules") || !strings.Contains(text, "phase 3") {
		t.Errorf("rejection text should name the tool and its phase, got: %s", text)
	}
}

func TestPhaseGateMiddlewarePassesAllowedCall(t *testing.T) {
	mw := PhaseGateMiddleware(testGate(t, 2), slog.Default())

	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "trashed"}},
		}, nil
	}

	result, err := mw(next)(context.Background(), "tools/call", callRequest("trash_emails"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := result.(*mcp.CallToolResult).Content[0].(*mcp.TextContent).Text
	if text != "trashed" {
		t.Errorf("allowed call should pass through, got: %s", text)
	}
}

func TestPhaseGateMiddlewareFiltersToolListing(t *testing.T) {
	mw := PhaseGateMiddleware(testGate(t, 2), slog.Default())

	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.ListToolsResult{Tools: []*mcp.Tool{
			{Name: "list_emails"},
			{Name: "trash_emails"},
			{Name: "apply_rules"},
		}}, nil
	}

	req := &mcp.ServerRequest[*mcp.ListToolsParams]{Params: &mcp.ListToolsParams{}}
	result, err := mw(next)(context.Background(), "tools/list", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listResult := result.(*mcp.ListToolsResult)
	if len(listResult.Tools) != 2 {
		t.Fatalf("listing has %d tools, want 2", len(listResult.Tools))
	}
	for _, tool := range listResult.Tools {
		if tool.Name == "apply_rules" {
			t.Error("gated tool leaked into the listing")
		}
	}
}

func TestPhaseGateMiddlewareReflectsRuntimePhaseChange(t *testing.T) {
	gate := testGate(t, 1)
	mw := PhaseGateMiddleware(gate, slog.Default())

	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "ran"}},
		}, nil
	}
	handler := mw(next)

	result, _ := handler(context.Background(), "tools/call", callRequest("apply_rules"))
	if text := result.(*mcp.CallToolResult).Content[0].(*mcp.TextContent).Text; text == "ran" {
		t.Fatal("apply_rules should be gated at phase 1")
	}

	if err := gate.SetPhase(3); err != nil {
		t.Fatalf("SetPhase: %v", err)
	}
	result, _ = handler(context.Background(), "tools/call", callRequest("apply_rules"))
	if text := result.(*mcp.CallToolResult).Content[0].(*mcp.TextContent).Text; text != "ran" {
		t.Errorf("apply_rules should run at phase 3, got: %s", text)
	}
}
