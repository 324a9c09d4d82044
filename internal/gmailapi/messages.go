package gmailapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"google.golang.org/api/gmail/v1"
)

// Gmail label IDs with fixed, well-known values.
const (
	LabelUnread = "UNREAD"
	LabelInbox  = "INBOX"
	LabelTrash  = "TRASH"
)

// ListOptions controls a mailbox listing.
type ListOptions struct {
	Query      string
	MaxResults int64
	PageToken  string
	// IncludeHeaders names the headers to populate on each stub. Empty
	// means bare stubs (id, thread id, snippet only).
	IncludeHeaders []string
}

// ListMessages lists message stubs matching the query. When headers are
// requested, metadata for the whole page is fetched in one batch request.
func (c *Client) ListMessages(ctx context.Context, opt ListOptions) ([]EmailStub, string, error) {
	if opt.MaxResults <= 0 {
		opt.MaxResults = 100
	}

	var resp *gmail.ListMessagesResponse
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		var err error
		resp, err = c.svc.Users.Messages.List("me").
			Q(opt.Query).
			MaxResults(opt.MaxResults).
			PageToken(opt.PageToken).
			Context(callCtx).
			Do()
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("listing messages: %w", err)
	}

	stubs := make([]EmailStub, 0, len(resp.Messages))
	if len(opt.IncludeHeaders) == 0 {
		for _, m := range resp.Messages {
			stubs = append(stubs, EmailStub{ID: m.Id, ThreadID: m.ThreadId})
		}
		return stubs, resp.NextPageToken, nil
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	details, _ := c.GetMessagesBatch(ctx, ids, "metadata", opt.IncludeHeaders)
	for _, d := range details {
		stubs = append(stubs, d.EmailStub)
	}
	return stubs, resp.NextPageToken, nil
}

// GetMessage fetches one message in the given format (full, metadata, raw).
func (c *Client) GetMessage(ctx context.Context, id, format string, headers []string) (EmailDetails, error) {
	if format == "" {
		format = "metadata"
	}
	var msg *gmail.Message
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		call := c.svc.Users.Messages.Get("me", id).Format(format).Context(callCtx)
		if format == "metadata" && len(headers) > 0 {
			call = call.MetadataHeaders(headers...)
		}
		var err error
		msg, err = call.Do()
		return err
	})
	if err != nil {
		return EmailDetails{}, fmt.Errorf("getting message %s: %w", id, err)
	}
	return detailsFromMessage(msg), nil
}

// GetMessagesBatch fetches many messages in one batch round-trip per chunk.
// It returns the successfully decoded details plus the raw per-item
// outcomes so callers can report individual failures.
func (c *Client) GetMessagesBatch(ctx context.Context, ids []string, format string, headers []string) ([]EmailDetails, []BatchOutcome) {
	if format == "" {
		format = "metadata"
	}
	items := make([]BatchItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, BatchItem{
			ID:     id,
			Method: "GET",
			Path:   messageGetPath(id, format, headers),
		})
	}

	outcomes := c.ExecuteBatch(ctx, ClassRead, true, items)
	details := make([]EmailDetails, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		var msg gmail.Message
		if err := json.Unmarshal(o.Body, &msg); err != nil {
			continue
		}
		details = append(details, detailsFromMessage(&msg))
	}
	return details, outcomes
}

func messageGetPath(id, format string, headers []string) string {
	v := url.Values{}
	v.Set("format", format)
	if format == "metadata" {
		for _, h := range headers {
			v.Add("metadataHeaders", h)
		}
	}
	return "/gmail/v1/users/me/messages/" + url.PathEscape(id) + "?" + v.Encode()
}

// TrashMessages moves messages to the trash, one batch round-trip per
// chunk, with per-item outcomes.
func (c *Client) TrashMessages(ctx context.Context, ids []string) []BatchOutcome {
	items := make([]BatchItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, BatchItem{
			ID:     id,
			Method: "POST",
			Path:   "/gmail/v1/users/me/messages/" + url.PathEscape(id) + "/trash",
		})
	}
	return c.ExecuteBatch(ctx, ClassWrite, true, items)
}

// DeleteMessagesPermanently bypasses the trash. Deletes are never re-sent
// on timeout; an indeterminate outcome surfaces as AmbiguousDeletion.
func (c *Client) DeleteMessagesPermanently(ctx context.Context, ids []string) []BatchOutcome {
	items := make([]BatchItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, BatchItem{
			ID:     id,
			Method: "DELETE",
			Path:   "/gmail/v1/users/me/messages/" + url.PathEscape(id),
		})
	}
	return c.ExecuteBatch(ctx, ClassWrite, false, items)
}

// modifyBody is the JSON body of a per-message modify request.
type modifyBody struct {
	AddLabelIDs    []string `json:"addLabelIds,omitempty"`
	RemoveLabelIDs []string `json:"removeLabelIds,omitempty"`
}

// ModifyMessages adds and removes label IDs on each message. The native
// batchModify endpoint is all-or-nothing on a bad ID, so per-message modify
// calls are framed into one batch round-trip instead, preserving per-item
// outcomes.
func (c *Client) ModifyMessages(ctx context.Context, ids, addLabelIDs, removeLabelIDs []string) []BatchOutcome {
	body, err := json.Marshal(modifyBody{AddLabelIDs: addLabelIDs, RemoveLabelIDs: removeLabelIDs})
	if err != nil {
		out := make([]BatchOutcome, len(ids))
		for i, id := range ids {
			out[i] = BatchOutcome{ID: id, Err: WrapError(KindInternal, err)}
		}
		return out
	}

	items := make([]BatchItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, BatchItem{
			ID:     id,
			Method: "POST",
			Path:   "/gmail/v1/users/me/messages/" + url.PathEscape(id) + "/modify",
			Body:   body,
		})
	}
	return c.ExecuteBatch(ctx, ClassWrite, true, items)
}

// MarkMessages marks messages read or unread by toggling the UNREAD label.
func (c *Client) MarkMessages(ctx context.Context, ids []string, read bool) []BatchOutcome {
	if read {
		return c.ModifyMessages(ctx, ids, nil, []string{LabelUnread})
	}
	return c.ModifyMessages(ctx, ids, []string{LabelUnread}, nil)
}

// GetAttachment fetches the content of an attachment by ID.
func (c *Client) GetAttachment(ctx context.Context, messageID, attachmentID string) (*gmail.MessagePartBody, error) {
	var body *gmail.MessagePartBody
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		var err error
		body, err = c.svc.Users.Messages.Attachments.Get("me", messageID, attachmentID).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting attachment %s: %w", attachmentID, err)
	}
	return body, nil
}
