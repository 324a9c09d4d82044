package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/session"
)

// maxRecordedOutput caps how much of a tool result is persisted per turn.
const maxRecordedOutput = 16 * 1024

// SessionRecorderMiddleware returns MCP SDK middleware that appends each
// tools/call turn to the session store. Recording is fire-and-forget: a
// store failure is logged and never affects the tool result.
func SessionRecorderMiddleware(store session.Store, logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			result, err := next(ctx, method, req)
			if method != "tools/call" || err != nil {
				return result, err
			}
			params, ok := req.GetParams().(*mcp.CallToolParamsRaw)
			if !ok {
				return result, err
			}

			sessionID := "stdio"
			if s := req.GetSession(); s != nil && s.ID() != "" {
				sessionID = s.ID()
			}
			userID := extractUserEmail(req)
			if userID == "" {
				userID = "default"
			}

			rec := session.TurnRecord{
				TurnIndex: store.NextTurnIndex(ctx, userID, sessionID),
				ToolName:  params.Name,
				Input:     string(params.Arguments),
				Timestamp: time.Now().UTC(),
			}
			if toolResult, ok := result.(*mcp.CallToolResult); ok {
				rec.IsError = toolResult.IsError
				rec.Output = resultText(toolResult)
			}

			// Detached context: the turn is recorded even when the tool
			// call's own context has already been cancelled.
			go func() {
				writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := store.Append(writeCtx, userID, sessionID, rec); err != nil {
					logger.Warn("session turn not recorded",
						"tool", rec.ToolName,
						"session_id", sessionID,
						"error", err,
					)
				}
			}()
			return result, err
		}
	}
}

// resultText flattens a tool result's text content, truncated to the
// recording cap.
func resultText(res *mcp.CallToolResult) string {
	var out string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			if out != "" {
				out += "\n"
			}
			out += tc.Text
		}
	}
	if len(out) > maxRecordedOutput {
		out = out[:maxRecordedOutput]
	}
	return out
}

// extractUserEmail reads user_google_email from raw tool arguments.
func extractUserEmail(req mcp.Request) string {
	params, ok := req.GetParams().(*mcp.CallToolParamsRaw)
	if !ok {
		return ""
	}
	var args struct {
		UserEmail string `json:"user_google_email"`
	}
	if err := json.Unmarshal(params.Arguments, &args); err != nil {
		return ""
	}
	return args.UserEmail
}
