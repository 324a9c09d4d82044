// Package settings registers the mailbox settings tools, a thin layer
// over the Gmail settings API.
package settings

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/ptr"
	"github.com/inboxctl/gmail-automation-mcp/internal/policy"
	"github.com/inboxctl/gmail-automation-mcp/internal/services"
)

// Deps carries the shared collaborators settings tool handlers need.
type Deps struct {
	Factory *services.Factory
	Guard   *policy.Guard
}

// Register registers all settings tools with the MCP server.
func Register(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_vacation_settings",
		Description: "Get the mailbox's vacation auto-reply settings.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Vacation Settings",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetVacationHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_vacation_settings",
		Description: "Update the vacation auto-reply. Requires confirm=true.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Update Vacation Settings",
			IdempotentHint: true,
			OpenWorldHint:  ptr.Bool(true),
		},
	}, createUpdateVacationHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_imap_settings",
		Description: "Get the mailbox's IMAP access settings.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get IMAP Settings",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetIMAPHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_imap_settings",
		Description: "Update IMAP access settings. Requires confirm=true.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Update IMAP Settings",
			IdempotentHint: true,
			OpenWorldHint:  ptr.Bool(true),
		},
	}, createUpdateIMAPHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_pop_settings",
		Description: "Get the mailbox's POP access settings.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get POP Settings",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetPOPHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_pop_settings",
		Description: "Update POP access settings. Requires confirm=true.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Update POP Settings",
			IdempotentHint: true,
			OpenWorldHint:  ptr.Bool(true),
		},
	}, createUpdatePOPHandler(deps))
}
