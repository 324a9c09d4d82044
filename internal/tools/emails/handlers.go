package emails

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/format"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/response"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/validate"
)

// --- list_emails ---

// ListEmailsInput is the input for list_emails.
type ListEmailsInput struct {
	UserEmail      string   `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	Query          string   `json:"query,omitempty" jsonschema_description:"Gmail search query using standard Gmail search operators"`
	MaxResults     int      `json:"max_results,omitempty" jsonschema_description:"Maximum number of results to return, 1-500 (default 100)"`
	PageToken      string   `json:"page_token,omitempty" jsonschema_description:"Token for retrieving the next page of results"`
	IncludeHeaders []string `json:"include_headers,omitempty" jsonschema_description:"Header names to populate on each summary (e.g. From, Subject). Empty returns bare stubs"`
}

// ListEmailsOutput is the structured output for list_emails.
type ListEmailsOutput struct {
	EmailSummaries []gmailapi.EmailStub `json:"email_summaries"`
	NextPageToken  string               `json:"next_page_token,omitempty"`
	ResultCount    int                  `json:"result_count"`
}

func createListEmailsHandler(deps Deps) mcp.ToolHandlerFor[ListEmailsInput, ListEmailsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListEmailsInput) (*mcp.CallToolResult, ListEmailsOutput, error) {
		if input.MaxResults == 0 {
			input.MaxResults = 100
		}
		if input.MaxResults < 1 || input.MaxResults > 500 {
			return nil, ListEmailsOutput{}, gmailapi.NewError(gmailapi.KindInvalidInput, "max_results must be between 1 and 500, got %d", input.MaxResults)
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, ListEmailsOutput{}, gmailapi.ToolError(err)
		}

		stubs, nextToken, err := client.ListMessages(ctx, gmailapi.ListOptions{
			Query:          input.Query,
			MaxResults:     int64(input.MaxResults),
			PageToken:      input.PageToken,
			IncludeHeaders: input.IncludeHeaders,
		})
		if err != nil {
			return nil, ListEmailsOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Emails")
		if input.Query != "" {
			rb.KeyValue("Query", input.Query)
		}
		rb.KeyValue("Results", len(stubs))
		if nextToken != "" {
			rb.KeyValue("Next page token", nextToken)
		}
		rb.Blank()
		for _, s := range stubs {
			if s.Subject != "" || s.From != "" {
				rb.Item("Subject: %s", s.Subject)
				rb.Line("    From: %s | Date: %s", s.From, s.Date)
				rb.Line("    ID: %s (Thread: %s)", s.ID, s.ThreadID)
			} else {
				rb.Item("ID: %s (Thread: %s)", s.ID, s.ThreadID)
				if s.Snippet != "" {
					rb.Line("    %s", s.Snippet)
				}
			}
		}

		output := ListEmailsOutput{
			EmailSummaries: stubs,
			NextPageToken:  nextToken,
			ResultCount:    len(stubs),
		}
		return rb.TextResult(), output, nil
	}
}

// --- get_email_details ---

// GetEmailDetailsInput is the input for get_email_details.
type GetEmailDetailsInput struct {
	UserEmail      string   `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	MessageID      string   `json:"message_id" jsonschema:"required" jsonschema_description:"The unique ID of the email to retrieve"`
	Format         string   `json:"format,omitempty" jsonschema_description:"Message format: metadata, full, or raw (default metadata)"`
	IncludeHeaders []string `json:"include_headers,omitempty" jsonschema_description:"Header names to fetch in metadata format (default common set)"`
}

// GetEmailDetailsOutput is the structured output for get_email_details.
type GetEmailDetailsOutput struct {
	Email gmailapi.EmailDetails `json:"email"`
}

func createGetEmailDetailsHandler(deps Deps) mcp.ToolHandlerFor[GetEmailDetailsInput, GetEmailDetailsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetEmailDetailsInput) (*mcp.CallToolResult, GetEmailDetailsOutput, error) {
		if err := validate.GmailID(input.MessageID); err != nil {
			return nil, GetEmailDetailsOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		switch input.Format {
		case "":
			input.Format = "metadata"
		case "metadata", "full", "raw":
		default:
			return nil, GetEmailDetailsOutput{}, gmailapi.NewError(gmailapi.KindInvalidInput, "format must be metadata, full, or raw, got %q", input.Format)
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, GetEmailDetailsOutput{}, gmailapi.ToolError(err)
		}

		details, err := client.GetMessage(ctx, input.MessageID, input.Format, input.IncludeHeaders)
		if err != nil {
			return nil, GetEmailDetailsOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Email")
		rb.KeyValue("Subject", details.Subject)
		rb.KeyValue("From", details.From)
		rb.KeyValue("To", details.To)
		if details.CC != "" {
			rb.KeyValue("CC", details.CC)
		}
		rb.KeyValue("Date", details.Date)
		rb.KeyValue("ID", details.ID)
		if details.SizeEstimate > 0 {
			rb.KeyValue("Size", format.ByteSize(details.SizeEstimate))
		}
		if len(details.Attachments) > 0 {
			rb.Blank()
			rb.Section("Attachments")
			for _, a := range details.Attachments {
				rb.Item("%s (%s, %s)", a.Filename, a.MimeType, format.ByteSize(a.Size))
				rb.Line("    Attachment ID: %s", a.AttachmentID)
			}
		}
		if details.Body != "" {
			rb.Blank()
			rb.Section("Body")
			rb.Raw(details.Body)
		}

		return rb.TextResult(), GetEmailDetailsOutput{Email: details}, nil
	}
}

// --- trash_emails ---

// TrashEmailsInput is the input for trash_emails.
type TrashEmailsInput struct {
	UserEmail  string   `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	MessageIDs []string `json:"message_ids" jsonschema:"required" jsonschema_description:"IDs of the emails to trash; large lists are processed in batches"`
	DryRun     bool     `json:"dry_run,omitempty" jsonschema_description:"Preview the operation without changing the mailbox"`
	Confirm    bool     `json:"confirm,omitempty" jsonschema_description:"Explicit confirmation for this destructive operation"`
}

// TrashEmailsOutput is the structured output for trash_emails.
type TrashEmailsOutput struct {
	TrashedCount  int                    `json:"trashed_count"`
	StatusMessage string                 `json:"status_message"`
	Failures      []gmailapi.ItemFailure `json:"failures,omitempty"`
	DryRun        bool                   `json:"dry_run,omitempty"`
}

func createTrashEmailsHandler(deps Deps) mcp.ToolHandlerFor[TrashEmailsInput, TrashEmailsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TrashEmailsInput) (*mcp.CallToolResult, TrashEmailsOutput, error) {
		if err := validate.GmailIDs(input.MessageIDs); err != nil {
			return nil, TrashEmailsOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		if err := deps.Guard.CheckDestructive(input.DryRun, input.Confirm); err != nil {
			return nil, TrashEmailsOutput{}, err
		}

		if input.DryRun {
			msg := fmt.Sprintf("Dry run: %d email(s) would be moved to trash.", len(input.MessageIDs))
			output := TrashEmailsOutput{StatusMessage: msg, DryRun: true}
			return response.New().Line("%s", msg).TextResult(), output, nil
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, TrashEmailsOutput{}, gmailapi.ToolError(err)
		}

		outcomes := client.TrashMessages(ctx, input.MessageIDs)
		trashed, failures := gmailapi.SummarizeOutcomes(outcomes)
		msg := fmt.Sprintf("Moved %d of %d email(s) to trash.", trashed, len(input.MessageIDs))

		rb := response.New()
		rb.Header("Trash Emails")
		rb.KeyValue("Trashed", trashed)
		appendFailures(rb, failures)

		output := TrashEmailsOutput{TrashedCount: trashed, StatusMessage: msg, Failures: failures}
		return rb.TextResult(), output, nil
	}
}

// --- delete_emails_permanently ---

// DeleteEmailsInput is the input for delete_emails_permanently.
type DeleteEmailsInput struct {
	UserEmail    string   `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	MessageIDs   []string `json:"message_ids" jsonschema:"required" jsonschema_description:"IDs of the emails to delete permanently; large lists are processed in batches"`
	DryRun       bool     `json:"dry_run,omitempty" jsonschema_description:"Preview the operation without changing the mailbox"`
	Confirm      bool     `json:"confirm,omitempty" jsonschema_description:"First confirmation for this irreversible operation"`
	ConfirmToken string   `json:"confirm_token,omitempty" jsonschema_description:"Second confirmation: must be the literal string PERMANENTLY-DELETE"`
}

// DeleteEmailsOutput is the structured output for delete_emails_permanently.
type DeleteEmailsOutput struct {
	DeletedCount  int                    `json:"deleted_count"`
	StatusMessage string                 `json:"status_message"`
	Failures      []gmailapi.ItemFailure `json:"failures,omitempty"`
	DryRun        bool                   `json:"dry_run,omitempty"`
}

func createDeleteEmailsHandler(deps Deps) mcp.ToolHandlerFor[DeleteEmailsInput, DeleteEmailsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteEmailsInput) (*mcp.CallToolResult, DeleteEmailsOutput, error) {
		if err := validate.GmailIDs(input.MessageIDs); err != nil {
			return nil, DeleteEmailsOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		if err := deps.Guard.CheckPermanentDelete(input.DryRun, input.Confirm, input.ConfirmToken); err != nil {
			return nil, DeleteEmailsOutput{}, err
		}

		if input.DryRun {
			msg := fmt.Sprintf("Dry run: %d email(s) would be permanently deleted.", len(input.MessageIDs))
			output := DeleteEmailsOutput{StatusMessage: msg, DryRun: true}
			return response.New().Line("%s", msg).TextResult(), output, nil
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, DeleteEmailsOutput{}, gmailapi.ToolError(err)
		}

		outcomes := client.DeleteMessagesPermanently(ctx, input.MessageIDs)
		deleted, failures := gmailapi.SummarizeOutcomes(outcomes)
		msg := fmt.Sprintf("Permanently deleted %d of %d email(s).", deleted, len(input.MessageIDs))

		rb := response.New()
		rb.Header("Delete Emails Permanently")
		rb.KeyValue("Deleted", deleted)
		appendFailures(rb, failures)

		output := DeleteEmailsOutput{DeletedCount: deleted, StatusMessage: msg, Failures: failures}
		return rb.TextResult(), output, nil
	}
}

// --- label_emails ---

// LabelEmailsInput is the input for label_emails.
type LabelEmailsInput struct {
	UserEmail        string   `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	MessageIDs       []string `json:"message_ids" jsonschema:"required" jsonschema_description:"IDs of the emails to modify; large lists are processed in batches"`
	AddLabelNames    []string `json:"add_label_names,omitempty" jsonschema_description:"Label names to add"`
	RemoveLabelNames []string `json:"remove_label_names,omitempty" jsonschema_description:"Label names to remove"`
	CreateIfMissing  bool     `json:"create_if_missing,omitempty" jsonschema_description:"Create labels named in add_label_names that do not exist yet"`
}

// LabelEmailsOutput is the structured output for label_emails.
type LabelEmailsOutput struct {
	ModifiedCount int                    `json:"modified_count"`
	Failures      []gmailapi.ItemFailure `json:"failures,omitempty"`
}

func createLabelEmailsHandler(deps Deps) mcp.ToolHandlerFor[LabelEmailsInput, LabelEmailsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input LabelEmailsInput) (*mcp.CallToolResult, LabelEmailsOutput, error) {
		if err := validate.GmailIDs(input.MessageIDs); err != nil {
			return nil, LabelEmailsOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		if len(input.AddLabelNames) == 0 && len(input.RemoveLabelNames) == 0 {
			return nil, LabelEmailsOutput{}, gmailapi.NewError(gmailapi.KindInvalidInput, "at least one of add_label_names or remove_label_names must be non-empty")
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, LabelEmailsOutput{}, gmailapi.ToolError(err)
		}

		addIDs, err := resolveLabels(ctx, client, input.AddLabelNames, input.CreateIfMissing)
		if err != nil {
			return nil, LabelEmailsOutput{}, gmailapi.ToolError(err)
		}
		// Removing a label that does not exist is a no-op, never a create.
		removeIDs, err := resolveLabels(ctx, client, input.RemoveLabelNames, false)
		if err != nil {
			return nil, LabelEmailsOutput{}, gmailapi.ToolError(err)
		}

		outcomes := client.ModifyMessages(ctx, input.MessageIDs, addIDs, removeIDs)
		modified, failures := gmailapi.SummarizeOutcomes(outcomes)

		rb := response.New()
		rb.Header("Label Emails")
		rb.KeyValue("Modified", modified)
		if len(input.AddLabelNames) > 0 {
			rb.KeyValue("Added", input.AddLabelNames)
		}
		if len(input.RemoveLabelNames) > 0 {
			rb.KeyValue("Removed", input.RemoveLabelNames)
		}
		appendFailures(rb, failures)

		return rb.TextResult(), LabelEmailsOutput{ModifiedCount: modified, Failures: failures}, nil
	}
}

// --- mark_emails ---

// MarkEmailsInput is the input for mark_emails.
type MarkEmailsInput struct {
	UserEmail  string   `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	MessageIDs []string `json:"message_ids" jsonschema:"required" jsonschema_description:"IDs of the emails to mark; large lists are processed in batches"`
	MarkAs     string   `json:"mark_as" jsonschema:"required" jsonschema_description:"Either read or unread"`
}

// MarkEmailsOutput is the structured output for mark_emails.
type MarkEmailsOutput struct {
	ModifiedCount int                    `json:"modified_count"`
	Failures      []gmailapi.ItemFailure `json:"failures,omitempty"`
}

func createMarkEmailsHandler(deps Deps) mcp.ToolHandlerFor[MarkEmailsInput, MarkEmailsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input MarkEmailsInput) (*mcp.CallToolResult, MarkEmailsOutput, error) {
		if err := validate.GmailIDs(input.MessageIDs); err != nil {
			return nil, MarkEmailsOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		if input.MarkAs != "read" && input.MarkAs != "unread" {
			return nil, MarkEmailsOutput{}, gmailapi.NewError(gmailapi.KindInvalidInput, "mark_as must be read or unread, got %q", input.MarkAs)
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, MarkEmailsOutput{}, gmailapi.ToolError(err)
		}

		outcomes := client.MarkMessages(ctx, input.MessageIDs, input.MarkAs == "read")
		modified, failures := gmailapi.SummarizeOutcomes(outcomes)

		rb := response.New()
		rb.Header("Mark Emails")
		rb.KeyValue("Marked", fmt.Sprintf("%d as %s", modified, input.MarkAs))
		appendFailures(rb, failures)

		return rb.TextResult(), MarkEmailsOutput{ModifiedCount: modified, Failures: failures}, nil
	}
}

// resolveLabels maps label names to IDs, returning nil for an empty list.
func resolveLabels(ctx context.Context, client *gmailapi.Client, names []string, createMissing bool) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	byName, err := client.ResolveLabelNames(ctx, names, createMissing)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		ids = append(ids, byName[name])
	}
	return ids, nil
}

// appendFailures adds a failure section to a text response when needed.
func appendFailures(rb *response.Builder, failures []gmailapi.ItemFailure) {
	if len(failures) == 0 {
		return
	}
	rb.Blank()
	rb.Section("Failures")
	for _, f := range failures {
		rb.Item("%s: %s — %s", f.ID, f.Kind, f.Message)
	}
}
