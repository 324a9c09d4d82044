package middleware

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/config"
	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
)

// PhaseGateMiddleware returns MCP SDK middleware that rejects calls to
// tools above the current rollout phase. The rejection is a tool result
// with is_error=false: the tool exists but is deliberately unavailable,
// and the message tells the caller what is available instead.
func PhaseGateMiddleware(gate *config.PhaseGate, logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method == "tools/list" {
				result, err := next(ctx, method, req)
				if err != nil {
					return result, err
				}
				if listResult, ok := result.(*mcp.ListToolsResult); ok {
					filterGatedTools(listResult, gate)
				}
				return result, nil
			}
			if method != "tools/call" {
				return next(ctx, method, req)
			}
			params, ok := req.GetParams().(*mcp.CallToolParamsRaw)
			if !ok || gate.Allowed(params.Name) {
				return next(ctx, method, req)
			}

			logger.InfoContext(ctx, "tool gated by rollout phase",
				"tool", params.Name,
				"kind", string(gmailapi.KindToolNotAvailable),
				"tool_phase", gate.Phase(params.Name),
				"current_phase", gate.Current(),
			)
			msg := fmt.Sprintf(
				"Tool %q is not available at the current rollout phase (%d of %d); it unlocks at phase %d.",
				params.Name, gate.Current(), gate.MaxPhase(), gate.Phase(params.Name),
			)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: msg}},
			}, nil
		}
	}
}

// filterGatedTools drops tools above the current phase from a catalogue
// listing so clients never see what they cannot call.
func filterGatedTools(result *mcp.ListToolsResult, gate *config.PhaseGate) {
	kept := result.Tools[:0]
	for _, t := range result.Tools {
		if gate.Allowed(t.Name) {
			kept = append(kept, t)
		}
	}
	result.Tools = kept
}
