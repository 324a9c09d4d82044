package middleware

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NormalizeArgsMiddleware returns MCP SDK middleware that repairs a common
// client encoding mistake: an array argument sent as its JSON text inside
// a string, e.g. "[\"a\",\"b\"]" instead of ["a","b"]. Top-level string
// values that parse as JSON arrays are replaced with the parsed array
// before schema validation sees them.
func NormalizeArgsMiddleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}
			params, ok := req.GetParams().(*mcp.CallToolParamsRaw)
			if !ok || len(params.Arguments) == 0 {
				return next(ctx, method, req)
			}
			if fixed, changed := normalizeArguments(params.Arguments); changed {
				params.Arguments = fixed
			}
			return next(ctx, method, req)
		}
	}
}

// normalizeArguments rewrites string-encoded array values in a JSON
// object. It returns the original bytes untouched when nothing needed
// fixing or the input is not an object.
func normalizeArguments(raw json.RawMessage) (json.RawMessage, bool) {
	var args map[string]json.RawMessage
	if err := json.Unmarshal(raw, &args); err != nil {
		return raw, false
	}

	changed := false
	for key, val := range args {
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			continue
		}
		trimmed := strings.TrimSpace(s)
		if !strings.HasPrefix(trimmed, "[") {
			continue
		}
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
			continue
		}
		args[key] = json.RawMessage(trimmed)
		changed = true
	}
	if !changed {
		return raw, false
	}

	fixed, err := json.Marshal(args)
	if err != nil {
		return raw, false
	}
	return fixed, true
}
