// Package emails registers the message-granularity mailbox tools.
package emails

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/ptr"
	"github.com/inboxctl/gmail-automation-mcp/internal/policy"
	"github.com/inboxctl/gmail-automation-mcp/internal/services"
)

// Deps carries the shared collaborators email tool handlers need.
type Deps struct {
	Factory *services.Factory
	Guard   *policy.Guard
}

// Register registers all email tools with the MCP server.
func Register(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_emails",
		Description: "List emails matching a Gmail search query. Returns lightweight summaries with IDs for further retrieval; header fields are populated only when include_headers names them.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Emails",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createListEmailsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_email_details",
		Description: "Get a single email in metadata, full, or raw format, including headers, body text, and attachment manifest.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Email Details",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetEmailDetailsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trash_emails",
		Description: "Move emails to the trash in one batched operation. Reversible via the Gmail UI for 30 days. Requires confirm=true unless dry_run.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Trash Emails",
			DestructiveHint: ptr.Bool(true),
			IdempotentHint:  true,
			OpenWorldHint:   ptr.Bool(true),
		},
	}, createTrashEmailsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_emails_permanently",
		Description: "Permanently delete emails, bypassing the trash. Irreversible. Requires confirm=true and confirm_token=\"PERMANENTLY-DELETE\" in the same call.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Delete Emails Permanently",
			DestructiveHint: ptr.Bool(true),
			OpenWorldHint:   ptr.Bool(true),
		},
	}, createDeleteEmailsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "label_emails",
		Description: "Add and/or remove labels on a set of emails by label name. At least one of add_label_names or remove_label_names must be non-empty. Missing labels fail the call unless create_if_missing is set.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Label Emails",
			IdempotentHint: true,
			OpenWorldHint:  ptr.Bool(true),
		},
	}, createLabelEmailsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_emails",
		Description: "Mark emails as read or unread in one batched operation.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Mark Emails",
			IdempotentHint: true,
			OpenWorldHint:  ptr.Bool(true),
		},
	}, createMarkEmailsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_labels",
		Description: "List all labels in the mailbox, system and user-created.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Labels",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createListLabelsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_attachment",
		Description: "Fetch one attachment's content by message ID and attachment ID. Returns base64url-encoded data, optionally with plain text extracted from Office documents.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Attachment",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetAttachmentHandler(deps))
}
