// Package registry wires the tool packages into the MCP server.
package registry

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/tools/drafts"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/emails"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/ruletools"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/settings"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/threads"
)

// toolNameRE enforces SEP-986: tool names must match ^[a-zA-Z0-9_-]{1,64}$
var toolNameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateToolName checks that a tool name complies with SEP-986.
func ValidateToolName(name string) error {
	if !toolNameRE.MatchString(name) {
		return fmt.Errorf("tool name %q does not match SEP-986 pattern ^[a-zA-Z0-9_-]{1,64}$", name)
	}
	return nil
}

// Deps aggregates the per-package dependencies for registration.
type Deps struct {
	Emails   emails.Deps
	Threads  threads.Deps
	Drafts   drafts.Deps
	Rules    ruletools.Deps
	Settings settings.Deps
}

// RegisterAll registers the full tool catalogue with the server. Phase
// gating is applied at dispatch time by middleware, not here: the
// catalogue is fixed and the exposed subset can change at runtime.
func RegisterAll(server *mcp.Server, deps Deps) {
	emails.Register(server, deps.Emails)
	slog.Info("registered tool group", "group", "emails")

	threads.Register(server, deps.Threads)
	slog.Info("registered tool group", "group", "threads")

	drafts.Register(server, deps.Drafts)
	slog.Info("registered tool group", "group", "drafts")

	ruletools.Register(server, deps.Rules)
	slog.Info("registered tool group", "group", "rules")

	settings.Register(server, deps.Settings)
	slog.Info("registered tool group", "group", "settings")
}
