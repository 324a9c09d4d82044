// Package threads registers the thread-granularity mailbox tools.
package threads

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/ptr"
	"github.com/inboxctl/gmail-automation-mcp/internal/policy"
	"github.com/inboxctl/gmail-automation-mcp/internal/services"
)

// Deps carries the shared collaborators thread tool handlers need.
type Deps struct {
	Factory *services.Factory
	Guard   *policy.Guard
}

// Register registers all thread tools with the MCP server.
func Register(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_threads",
		Description: "List conversation threads matching a Gmail search query.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Threads",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createListThreadsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_thread_details",
		Description: "Get all messages in a thread, including body content in full format.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Thread Details",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetThreadDetailsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "modify_thread_labels",
		Description: "Add and/or remove labels on every message of a thread by label name.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Modify Thread Labels",
			IdempotentHint: true,
			OpenWorldHint:  ptr.Bool(true),
		},
	}, createModifyThreadLabelsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trash_thread",
		Description: "Move an entire thread to the trash. Requires confirm=true unless dry_run.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Trash Thread",
			DestructiveHint: ptr.Bool(true),
			IdempotentHint:  true,
			OpenWorldHint:   ptr.Bool(true),
		},
	}, createTrashThreadHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_thread_permanently",
		Description: "Permanently delete an entire thread, bypassing the trash. Irreversible. Requires confirm=true and confirm_token=\"PERMANENTLY-DELETE\".",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Delete Thread Permanently",
			DestructiveHint: ptr.Bool(true),
			OpenWorldHint:   ptr.Bool(true),
		},
	}, createDeleteThreadHandler(deps))
}
