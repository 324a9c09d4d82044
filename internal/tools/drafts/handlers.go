package drafts

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/response"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/validate"
)

// composeInput is the shared body of create_draft and update_draft.
type composeInput struct {
	To       []string `json:"to" jsonschema:"required" jsonschema_description:"Recipient email addresses"`
	Subject  string   `json:"subject" jsonschema:"required" jsonschema_description:"Email subject"`
	Body     string   `json:"body" jsonschema:"required" jsonschema_description:"Email body content (plain text)"`
	CC       []string `json:"cc,omitempty" jsonschema_description:"CC email addresses"`
	BCC      []string `json:"bcc,omitempty" jsonschema_description:"BCC email addresses"`
	ThreadID string   `json:"thread_id,omitempty" jsonschema_description:"Thread ID to draft a reply within"`
}

func (c composeInput) validate() error {
	if len(c.To) == 0 {
		return gmailapi.NewError(gmailapi.KindInvalidInput, "at least one recipient is required")
	}
	for _, addr := range c.To {
		if err := validate.Email(addr); err != nil {
			return gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
	}
	return nil
}

func (c composeInput) compose() gmailapi.Compose {
	return gmailapi.Compose{
		To:       c.To,
		CC:       c.CC,
		BCC:      c.BCC,
		Subject:  c.Subject,
		Body:     c.Body,
		ThreadID: c.ThreadID,
	}
}

// --- create_draft ---

// CreateDraftInput is the input for create_draft.
type CreateDraftInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	composeInput
}

// DraftOutput is the structured output of draft mutations.
type DraftOutput struct {
	Draft gmailapi.DraftInfo `json:"draft"`
}

func createCreateDraftHandler(deps Deps) mcp.ToolHandlerFor[CreateDraftInput, DraftOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateDraftInput) (*mcp.CallToolResult, DraftOutput, error) {
		if err := input.validate(); err != nil {
			return nil, DraftOutput{}, err
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, DraftOutput{}, gmailapi.ToolError(err)
		}

		draft, err := client.CreateDraft(ctx, input.compose())
		if err != nil {
			return nil, DraftOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Draft Created")
		rb.KeyValue("Draft ID", draft.ID)
		rb.KeyValue("To", input.To)
		rb.KeyValue("Subject", input.Subject)
		if draft.ThreadID != "" {
			rb.KeyValue("Thread ID", draft.ThreadID)
		}

		return rb.TextResult(), DraftOutput{Draft: draft}, nil
	}
}

// --- update_draft ---

// UpdateDraftInput is the input for update_draft.
type UpdateDraftInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	DraftID   string `json:"draft_id" jsonschema:"required" jsonschema_description:"The unique ID of the draft to replace"`
	composeInput
}

func createUpdateDraftHandler(deps Deps) mcp.ToolHandlerFor[UpdateDraftInput, DraftOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdateDraftInput) (*mcp.CallToolResult, DraftOutput, error) {
		if err := validate.GmailID(input.DraftID); err != nil {
			return nil, DraftOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		if err := input.validate(); err != nil {
			return nil, DraftOutput{}, err
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, DraftOutput{}, gmailapi.ToolError(err)
		}

		draft, err := client.UpdateDraft(ctx, input.DraftID, input.compose())
		if err != nil {
			return nil, DraftOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Draft Updated")
		rb.KeyValue("Draft ID", draft.ID)
		rb.KeyValue("To", input.To)
		rb.KeyValue("Subject", input.Subject)

		return rb.TextResult(), DraftOutput{Draft: draft}, nil
	}
}

// --- send_draft ---

// SendDraftInput is the input for send_draft.
type SendDraftInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	DraftID   string `json:"draft_id" jsonschema:"required" jsonschema_description:"The unique ID of the draft to send"`
}

// SendDraftOutput is the structured output for send_draft.
type SendDraftOutput struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id,omitempty"`
}

func createSendDraftHandler(deps Deps) mcp.ToolHandlerFor[SendDraftInput, SendDraftOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SendDraftInput) (*mcp.CallToolResult, SendDraftOutput, error) {
		if err := validate.GmailID(input.DraftID); err != nil {
			return nil, SendDraftOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, SendDraftOutput{}, gmailapi.ToolError(err)
		}

		sent, err := client.SendDraft(ctx, input.DraftID)
		if err != nil {
			return nil, SendDraftOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Draft Sent")
		rb.KeyValue("Message ID", sent.ID)
		rb.KeyValue("Thread ID", sent.ThreadID)

		return rb.TextResult(), SendDraftOutput{MessageID: sent.ID, ThreadID: sent.ThreadID}, nil
	}
}

// --- list_drafts ---

// ListDraftsInput is the input for list_drafts.
type ListDraftsInput struct {
	UserEmail  string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	MaxResults int    `json:"max_results,omitempty" jsonschema_description:"Maximum number of drafts to return (default 100)"`
	PageToken  string `json:"page_token,omitempty" jsonschema_description:"Token for retrieving the next page of results"`
}

// ListDraftsOutput is the structured output for list_drafts.
type ListDraftsOutput struct {
	Drafts        []gmailapi.DraftInfo `json:"drafts"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

func createListDraftsHandler(deps Deps) mcp.ToolHandlerFor[ListDraftsInput, ListDraftsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDraftsInput) (*mcp.CallToolResult, ListDraftsOutput, error) {
		if input.MaxResults == 0 {
			input.MaxResults = 100
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, ListDraftsOutput{}, gmailapi.ToolError(err)
		}

		drafts, nextToken, err := client.ListDrafts(ctx, int64(input.MaxResults), input.PageToken)
		if err != nil {
			return nil, ListDraftsOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Drafts")
		rb.KeyValue("Count", len(drafts))
		rb.Blank()
		for _, d := range drafts {
			rb.Item("Draft %s — To: %s | Subject: %s", d.ID, d.Message.To, d.Message.Subject)
		}

		return rb.TextResult(), ListDraftsOutput{Drafts: drafts, NextPageToken: nextToken}, nil
	}
}

// --- get_draft_details ---

// GetDraftDetailsInput is the input for get_draft_details.
type GetDraftDetailsInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	DraftID   string `json:"draft_id" jsonschema:"required" jsonschema_description:"The unique ID of the draft to retrieve"`
}

func createGetDraftDetailsHandler(deps Deps) mcp.ToolHandlerFor[GetDraftDetailsInput, DraftOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetDraftDetailsInput) (*mcp.CallToolResult, DraftOutput, error) {
		if err := validate.GmailID(input.DraftID); err != nil {
			return nil, DraftOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, DraftOutput{}, gmailapi.ToolError(err)
		}

		draft, err := client.GetDraft(ctx, input.DraftID)
		if err != nil {
			return nil, DraftOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Draft %s", draft.ID)
		rb.KeyValue("To", draft.Message.To)
		rb.KeyValue("Subject", draft.Message.Subject)
		if draft.ThreadID != "" {
			rb.KeyValue("Thread ID", draft.ThreadID)
		}
		if draft.Message.Body != "" {
			rb.Blank()
			rb.Section("Body")
			rb.Raw(draft.Message.Body)
		}

		return rb.TextResult(), DraftOutput{Draft: draft}, nil
	}
}

// --- delete_draft ---

// DeleteDraftInput is the input for delete_draft.
type DeleteDraftInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	DraftID   string `json:"draft_id" jsonschema:"required" jsonschema_description:"The unique ID of the draft to delete"`
	DryRun    bool   `json:"dry_run,omitempty" jsonschema_description:"Preview the operation without changing the mailbox"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema_description:"Explicit confirmation for this destructive operation"`
}

// DeleteDraftOutput is the structured output for delete_draft.
type DeleteDraftOutput struct {
	StatusMessage string `json:"status_message"`
	DryRun        bool   `json:"dry_run,omitempty"`
}

func createDeleteDraftHandler(deps Deps) mcp.ToolHandlerFor[DeleteDraftInput, DeleteDraftOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteDraftInput) (*mcp.CallToolResult, DeleteDraftOutput, error) {
		if err := validate.GmailID(input.DraftID); err != nil {
			return nil, DeleteDraftOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		if err := deps.Guard.CheckDestructive(input.DryRun, input.Confirm); err != nil {
			return nil, DeleteDraftOutput{}, err
		}

		if input.DryRun {
			msg := fmt.Sprintf("Dry run: draft %s would be deleted.", input.DraftID)
			return response.New().Line("%s", msg).TextResult(), DeleteDraftOutput{StatusMessage: msg, DryRun: true}, nil
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, DeleteDraftOutput{}, gmailapi.ToolError(err)
		}

		if err := client.DeleteDraft(ctx, input.DraftID); err != nil {
			return nil, DeleteDraftOutput{}, gmailapi.ToolError(err)
		}

		msg := fmt.Sprintf("Draft %s deleted.", input.DraftID)
		return response.New().Line("%s", msg).TextResult(), DeleteDraftOutput{StatusMessage: msg}, nil
	}
}
