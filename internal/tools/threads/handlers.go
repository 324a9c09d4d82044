package threads

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/response"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/validate"
)

// --- list_threads ---

// ListThreadsInput is the input for list_threads.
type ListThreadsInput struct {
	UserEmail  string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	Query      string `json:"query,omitempty" jsonschema_description:"Gmail search query using standard Gmail search operators"`
	MaxResults int    `json:"max_results,omitempty" jsonschema_description:"Maximum number of threads to return, 1-500 (default 100)"`
	PageToken  string `json:"page_token,omitempty" jsonschema_description:"Token for retrieving the next page of results"`
}

// ListThreadsOutput is the structured output for list_threads.
type ListThreadsOutput struct {
	Threads       []gmailapi.Thread `json:"threads"`
	NextPageToken string            `json:"next_page_token,omitempty"`
	ResultCount   int               `json:"result_count"`
}

func createListThreadsHandler(deps Deps) mcp.ToolHandlerFor[ListThreadsInput, ListThreadsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListThreadsInput) (*mcp.CallToolResult, ListThreadsOutput, error) {
		if input.MaxResults == 0 {
			input.MaxResults = 100
		}
		if input.MaxResults < 1 || input.MaxResults > 500 {
			return nil, ListThreadsOutput{}, gmailapi.NewError(gmailapi.KindInvalidInput, "max_results must be between 1 and 500, got %d", input.MaxResults)
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, ListThreadsOutput{}, gmailapi.ToolError(err)
		}

		threads, nextToken, err := client.ListThreads(ctx, input.Query, int64(input.MaxResults), input.PageToken)
		if err != nil {
			return nil, ListThreadsOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Threads")
		if input.Query != "" {
			rb.KeyValue("Query", input.Query)
		}
		rb.KeyValue("Results", len(threads))
		if nextToken != "" {
			rb.KeyValue("Next page token", nextToken)
		}
		rb.Blank()
		for _, t := range threads {
			rb.Item("Thread %s (%d message(s))", t.ID, len(t.Messages))
		}

		output := ListThreadsOutput{
			Threads:       threads,
			NextPageToken: nextToken,
			ResultCount:   len(threads),
		}
		return rb.TextResult(), output, nil
	}
}

// --- get_thread_details ---

// GetThreadDetailsInput is the input for get_thread_details.
type GetThreadDetailsInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	ThreadID  string `json:"thread_id" jsonschema:"required" jsonschema_description:"The unique ID of the thread to retrieve"`
	Format    string `json:"format,omitempty" jsonschema_description:"Message format: metadata or full (default full)"`
}

// GetThreadDetailsOutput is the structured output for get_thread_details.
type GetThreadDetailsOutput struct {
	Thread gmailapi.Thread `json:"thread"`
}

func createGetThreadDetailsHandler(deps Deps) mcp.ToolHandlerFor[GetThreadDetailsInput, GetThreadDetailsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetThreadDetailsInput) (*mcp.CallToolResult, GetThreadDetailsOutput, error) {
		if err := validate.GmailID(input.ThreadID); err != nil {
			return nil, GetThreadDetailsOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		switch input.Format {
		case "":
			input.Format = "full"
		case "metadata", "full":
		default:
			return nil, GetThreadDetailsOutput{}, gmailapi.NewError(gmailapi.KindInvalidInput, "format must be metadata or full, got %q", input.Format)
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, GetThreadDetailsOutput{}, gmailapi.ToolError(err)
		}

		thread, err := client.GetThread(ctx, input.ThreadID, input.Format)
		if err != nil {
			return nil, GetThreadDetailsOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Thread %s", thread.ID)
		rb.KeyValue("Messages", len(thread.Messages))
		for _, m := range thread.Messages {
			rb.Separator()
			rb.KeyValue("Subject", m.Subject)
			rb.KeyValue("From", m.From)
			rb.KeyValue("Date", m.Date)
			rb.KeyValue("ID", m.ID)
			if m.Body != "" {
				rb.Blank()
				rb.Raw(m.Body)
				rb.Blank()
			}
		}

		return rb.TextResult(), GetThreadDetailsOutput{Thread: thread}, nil
	}
}

// --- modify_thread_labels ---

// ModifyThreadLabelsInput is the input for modify_thread_labels.
type ModifyThreadLabelsInput struct {
	UserEmail        string   `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	ThreadID         string   `json:"thread_id" jsonschema:"required" jsonschema_description:"The unique ID of the thread to modify"`
	AddLabelNames    []string `json:"add_label_names,omitempty" jsonschema_description:"Label names to add"`
	RemoveLabelNames []string `json:"remove_label_names,omitempty" jsonschema_description:"Label names to remove"`
	CreateIfMissing  bool     `json:"create_if_missing,omitempty" jsonschema_description:"Create labels named in add_label_names that do not exist yet"`
}

// ModifyThreadLabelsOutput is the structured output for modify_thread_labels.
type ModifyThreadLabelsOutput struct {
	Thread gmailapi.Thread `json:"thread"`
}

func createModifyThreadLabelsHandler(deps Deps) mcp.ToolHandlerFor[ModifyThreadLabelsInput, ModifyThreadLabelsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ModifyThreadLabelsInput) (*mcp.CallToolResult, ModifyThreadLabelsOutput, error) {
		if err := validate.GmailID(input.ThreadID); err != nil {
			return nil, ModifyThreadLabelsOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		if len(input.AddLabelNames) == 0 && len(input.RemoveLabelNames) == 0 {
			return nil, ModifyThreadLabelsOutput{}, gmailapi.NewError(gmailapi.KindInvalidInput, "at least one of add_label_names or remove_label_names must be non-empty")
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, ModifyThreadLabelsOutput{}, gmailapi.ToolError(err)
		}

		addIDs, err := resolveLabels(ctx, client, input.AddLabelNames, input.CreateIfMissing)
		if err != nil {
			return nil, ModifyThreadLabelsOutput{}, gmailapi.ToolError(err)
		}
		removeIDs, err := resolveLabels(ctx, client, input.RemoveLabelNames, false)
		if err != nil {
			return nil, ModifyThreadLabelsOutput{}, gmailapi.ToolError(err)
		}

		thread, err := client.ModifyThread(ctx, input.ThreadID, addIDs, removeIDs)
		if err != nil {
			return nil, ModifyThreadLabelsOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Modify Thread Labels")
		rb.KeyValue("Thread", thread.ID)
		if len(input.AddLabelNames) > 0 {
			rb.KeyValue("Added", input.AddLabelNames)
		}
		if len(input.RemoveLabelNames) > 0 {
			rb.KeyValue("Removed", input.RemoveLabelNames)
		}

		return rb.TextResult(), ModifyThreadLabelsOutput{Thread: thread}, nil
	}
}

// --- trash_thread ---

// TrashThreadInput is the input for trash_thread.
type TrashThreadInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	ThreadID  string `json:"thread_id" jsonschema:"required" jsonschema_description:"The unique ID of the thread to trash"`
	DryRun    bool   `json:"dry_run,omitempty" jsonschema_description:"Preview the operation without changing the mailbox"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema_description:"Explicit confirmation for this destructive operation"`
}

// TrashThreadOutput is the structured output for trash_thread.
type TrashThreadOutput struct {
	StatusMessage string `json:"status_message"`
	DryRun        bool   `json:"dry_run,omitempty"`
}

func createTrashThreadHandler(deps Deps) mcp.ToolHandlerFor[TrashThreadInput, TrashThreadOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TrashThreadInput) (*mcp.CallToolResult, TrashThreadOutput, error) {
		if err := validate.GmailID(input.ThreadID); err != nil {
			return nil, TrashThreadOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		if err := deps.Guard.CheckDestructive(input.DryRun, input.Confirm); err != nil {
			return nil, TrashThreadOutput{}, err
		}

		if input.DryRun {
			msg := fmt.Sprintf("Dry run: thread %s would be moved to trash.", input.ThreadID)
			return response.New().Line("%s", msg).TextResult(), TrashThreadOutput{StatusMessage: msg, DryRun: true}, nil
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, TrashThreadOutput{}, gmailapi.ToolError(err)
		}

		if err := client.TrashThread(ctx, input.ThreadID); err != nil {
			return nil, TrashThreadOutput{}, gmailapi.ToolError(err)
		}

		msg := fmt.Sprintf("Thread %s moved to trash.", input.ThreadID)
		return response.New().Line("%s", msg).TextResult(), TrashThreadOutput{StatusMessage: msg}, nil
	}
}

// --- delete_thread_permanently ---

// DeleteThreadInput is the input for delete_thread_permanently.
type DeleteThreadInput struct {
	UserEmail    string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	ThreadID     string `json:"thread_id" jsonschema:"required" jsonschema_description:"The unique ID of the thread to delete permanently"`
	DryRun       bool   `json:"dry_run,omitempty" jsonschema_description:"Preview the operation without changing the mailbox"`
	Confirm      bool   `json:"confirm,omitempty" jsonschema_description:"First confirmation for this irreversible operation"`
	ConfirmToken string `json:"confirm_token,omitempty" jsonschema_description:"Second confirmation: must be the literal string PERMANENTLY-DELETE"`
}

// DeleteThreadOutput is the structured output for delete_thread_permanently.
type DeleteThreadOutput struct {
	StatusMessage string `json:"status_message"`
	DryRun        bool   `json:"dry_run,omitempty"`
}

func createDeleteThreadHandler(deps Deps) mcp.ToolHandlerFor[DeleteThreadInput, DeleteThreadOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteThreadInput) (*mcp.CallToolResult, DeleteThreadOutput, error) {
		if err := validate.GmailID(input.ThreadID); err != nil {
			return nil, DeleteThreadOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}
		if err := deps.Guard.CheckPermanentDelete(input.DryRun, input.Confirm, input.ConfirmToken); err != nil {
			return nil, DeleteThreadOutput{}, err
		}

		if input.DryRun {
			msg := fmt.Sprintf("Dry run: thread %s would be permanently deleted.", input.ThreadID)
			return response.New().Line("%s", msg).TextResult(), DeleteThreadOutput{StatusMessage: msg, DryRun: true}, nil
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, DeleteThreadOutput{}, gmailapi.ToolError(err)
		}

		if err := client.DeleteThreadPermanently(ctx, input.ThreadID); err != nil {
			return nil, DeleteThreadOutput{}, gmailapi.ToolError(err)
		}

		msg := fmt.Sprintf("Thread %s permanently deleted.", input.ThreadID)
		return response.New().Line("%s", msg).TextResult(), DeleteThreadOutput{StatusMessage: msg}, nil
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
