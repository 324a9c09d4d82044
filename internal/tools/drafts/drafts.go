// Package drafts registers the draft composition tools, a thin layer over
// the Gmail drafts API.
package drafts

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/ptr"
	"github.com/inboxctl/gmail-automation-mcp/internal/policy"
	"github.com/inboxctl/gmail-automation-mcp/internal/services"
)

// Deps carries the shared collaborators draft tool handlers need.
type Deps struct {
	Factory *services.Factory
	Guard   *policy.Guard
}

// Register registers all draft tools with the MCP server.
func Register(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_draft",
		Description: "Create a draft email that can be edited and sent later. Set thread_id to draft a reply within an existing conversation.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Create Draft",
			OpenWorldHint: ptr.Bool(true),
		},
	}, createCreateDraftHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_draft",
		Description: "Replace a draft's content. Drafts have no partial updates; all fields are rewritten.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Update Draft",
			IdempotentHint: true,
			OpenWorldHint:  ptr.Bool(true),
		},
	}, createUpdateDraftHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_draft",
		Description: "Send an existing draft. The draft is consumed and becomes a sent message.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Send Draft",
			OpenWorldHint: ptr.Bool(true),
		},
	}, createSendDraftHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_drafts",
		Description: "List the mailbox's drafts.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Drafts",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createListDraftsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_draft_details",
		Description: "Get a draft's composed message content.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Draft Details",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetDraftDetailsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_draft",
		Description: "Delete a draft. Requires confirm=true unless dry_run.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Delete Draft",
			DestructiveHint: ptr.Bool(true),
			OpenWorldHint:   ptr.Bool(true),
		},
	}, createDeleteDraftHandler(deps))
}
