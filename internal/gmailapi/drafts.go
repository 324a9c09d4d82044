package gmailapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// Compose holds the parts of an outgoing RFC-2822 text message.
type Compose struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	Body     string
	ThreadID string
}

// rawMessage assembles a base64url-encoded RFC-2822 message.
func rawMessage(c Compose) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(c.To, ", "))
	if len(c.CC) > 0 {
		fmt.Fprintf(&sb, "Cc: %s\r\n", strings.Join(c.CC, ", "))
	}
	if len(c.BCC) > 0 {
		fmt.Fprintf(&sb, "Bcc: %s\r\n", strings.Join(c.BCC, ", "))
	}
	fmt.Fprintf(&sb, "Subject: %s\r\n", mime2047Encode(c.Subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(c.Body)
	return base64.URLEncoding.EncodeToString([]byte(sb.String()))
}

// mime2047Encode performs a simple RFC 2047 encoding for the Subject header.
func mime2047Encode(s string) string {
	for _, r := range s {
		if r > 127 {
			return fmt.Sprintf("=?UTF-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(s)))
		}
	}
	return s
}

func draftMessage(c Compose) *gmail.Message {
	msg := &gmail.Message{Raw: rawMessage(c)}
	if c.ThreadID != "" {
		msg.ThreadId = c.ThreadID
	}
	return msg
}

// CreateDraft composes and stores a new draft.
func (c *Client) CreateDraft(ctx context.Context, compose Compose) (DraftInfo, error) {
	var created *gmail.Draft
	err := c.call(ctx, ClassWrite, true, func(callCtx context.Context) error {
		var err error
		created, err = c.svc.Users.Drafts.Create("me", &gmail.Draft{
			Message: draftMessage(compose),
		}).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return DraftInfo{}, fmt.Errorf("creating draft: %w", err)
	}
	return draftFromAPI(created), nil
}

// UpdateDraft replaces the composed message of an existing draft.
func (c *Client) UpdateDraft(ctx context.Context, draftID string, compose Compose) (DraftInfo, error) {
	var updated *gmail.Draft
	err := c.call(ctx, ClassWrite, true, func(callCtx context.Context) error {
		var err error
		updated, err = c.svc.Users.Drafts.Update("me", draftID, &gmail.Draft{
			Message: draftMessage(compose),
		}).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return DraftInfo{}, fmt.Errorf("updating draft %s: %w", draftID, err)
	}
	return draftFromAPI(updated), nil
}

// SendDraft sends an existing draft and returns the sent message.
func (c *Client) SendDraft(ctx context.Context, draftID string) (EmailStub, error) {
	var sent *gmail.Message
	err := c.call(ctx, ClassWrite, true, func(callCtx context.Context) error {
		var err error
		sent, err = c.svc.Users.Drafts.Send("me", &gmail.Draft{Id: draftID}).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return EmailStub{}, fmt.Errorf("sending draft %s: %w", draftID, err)
	}
	return EmailStub{ID: sent.Id, ThreadID: sent.ThreadId}, nil
}

// ListDrafts lists drafts with their message stubs.
func (c *Client) ListDrafts(ctx context.Context, maxResults int64, pageToken string) ([]DraftInfo, string, error) {
	if maxResults <= 0 {
		maxResults = 100
	}
	var resp *gmail.ListDraftsResponse
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		var err error
		resp, err = c.svc.Users.Drafts.List("me").
			MaxResults(maxResults).
			PageToken(pageToken).
			Context(callCtx).
			Do()
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("listing drafts: %w", err)
	}
	drafts := make([]DraftInfo, 0, len(resp.Drafts))
	for _, d := range resp.Drafts {
		drafts = append(drafts, draftFromAPI(d))
	}
	return drafts, resp.NextPageToken, nil
}

// GetDraft fetches one draft with its full message.
func (c *Client) GetDraft(ctx context.Context, draftID string) (DraftInfo, error) {
	var d *gmail.Draft
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		var err error
		d, err = c.svc.Users.Drafts.Get("me", draftID).Format("full").Context(callCtx).Do()
		return err
	})
	if err != nil {
		return DraftInfo{}, fmt.Errorf("getting draft %s: %w", draftID, err)
	}
	return draftFromAPI(d), nil
}

// DeleteDraft permanently removes a draft.
func (c *Client) DeleteDraft(ctx context.Context, draftID string) error {
	err := c.call(ctx, ClassWrite, true, func(callCtx context.Context) error {
		return c.svc.Users.Drafts.Delete("me", draftID).Context(callCtx).Do()
	})
	if err != nil {
		return fmt.Errorf("deleting draft %s: %w", draftID, err)
	}
	return nil
}

func draftFromAPI(d *gmail.Draft) DraftInfo {
	info := DraftInfo{ID: d.Id}
	if d.Message != nil {
		info.Message = detailsFromMessage(d.Message)
		info.ThreadID = d.Message.ThreadId
	}
	return info
}
