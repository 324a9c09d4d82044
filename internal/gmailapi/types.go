package gmailapi

import (
	"encoding/base64"
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/htmlutil"
)

// DefaultStubHeaders are the headers fetched for listings when the caller
// asks for headers but does not name a set.
var DefaultStubHeaders = []string{"From", "To", "Cc", "Subject", "Date", "Reply-To", "Message-ID"}

// EmailStub is a lazy handle returned by listings. Header fields are
// populated only when the listing requested them.
type EmailStub struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	Snippet  string `json:"snippet,omitempty"`

	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	CC        string `json:"cc,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Date      string `json:"date,omitempty"`
	ReplyTo   string `json:"reply_to,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// AttachmentInfo describes one attachment on a message.
type AttachmentInfo struct {
	AttachmentID string `json:"attachment_id"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
}

// EmailDetails is the fully materialised view of a message.
type EmailDetails struct {
	EmailStub
	Headers      map[string]string `json:"headers,omitempty"`
	Body         string            `json:"body,omitempty"`
	LabelIDs     []string          `json:"label_ids,omitempty"`
	InternalDate int64             `json:"internal_date,omitempty"`
	SizeEstimate int64             `json:"size_estimate,omitempty"`
	Attachments  []AttachmentInfo  `json:"attachments,omitempty"`
	Raw          string            `json:"raw,omitempty"`
}

// Thread groups the messages of one conversation with the union of their
// label IDs.
type Thread struct {
	ID       string         `json:"id"`
	Messages []EmailDetails `json:"messages"`
	LabelIDs []string       `json:"label_ids,omitempty"`
}

// DraftInfo is a composed draft with its server-assigned ID.
type DraftInfo struct {
	ID       string `json:"id"`
	Message  EmailDetails
	ThreadID string `json:"thread_id,omitempty"`
}

// stubFromMessage builds an EmailStub from a (metadata-format) message.
func stubFromMessage(msg *gmail.Message) EmailStub {
	return EmailStub{
		ID:        msg.Id,
		ThreadID:  msg.ThreadId,
		Snippet:   msg.Snippet,
		From:      extractHeader(msg, "From"),
		To:        extractHeader(msg, "To"),
		CC:        extractHeader(msg, "Cc"),
		Subject:   extractHeader(msg, "Subject"),
		Date:      extractHeader(msg, "Date"),
		ReplyTo:   extractHeader(msg, "Reply-To"),
		MessageID: extractHeader(msg, "Message-ID"),
	}
}

// detailsFromMessage builds an EmailDetails from a full or metadata message.
func detailsFromMessage(msg *gmail.Message) EmailDetails {
	d := EmailDetails{
		EmailStub:    stubFromMessage(msg),
		LabelIDs:     msg.LabelIds,
		InternalDate: msg.InternalDate,
		SizeEstimate: msg.SizeEstimate,
		Raw:          msg.Raw,
	}
	if msg.Payload != nil {
		d.Headers = make(map[string]string, len(msg.Payload.Headers))
		for _, h := range msg.Payload.Headers {
			d.Headers[h.Name] = h.Value
		}
		d.Body = extractBody(msg)
		d.Attachments = extractAttachments(msg.Payload)
	}
	return d
}

// extractHeader returns the value of a named header, case-insensitively.
func extractHeader(msg *gmail.Message, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// extractBody extracts the text body from a message. It prefers
// text/plain, falling back to text/html with HTML-to-text conversion.
func extractBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	if body := findBodyPart(msg.Payload, "text/plain"); body != "" {
		return body
	}
	if body := findBodyPart(msg.Payload, "text/html"); body != "" {
		return htmlutil.ToPlainText(body)
	}
	return ""
}

// findBodyPart recursively searches the payload for a part with the given
// MIME type and returns its decoded content.
func findBodyPart(part *gmail.MessagePart, mimeType string) string {
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		return string(data)
	}
	for _, child := range part.Parts {
		if body := findBodyPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// extractAttachments recursively collects attachment metadata.
func extractAttachments(part *gmail.MessagePart) []AttachmentInfo {
	var result []AttachmentInfo
	if part.Body != nil && part.Body.AttachmentId != "" {
		result = append(result, AttachmentInfo{
			AttachmentID: part.Body.AttachmentId,
			Filename:     part.Filename,
			MimeType:     part.MimeType,
			Size:         part.Body.Size,
		})
	}
	for _, child := range part.Parts {
		result = append(result, extractAttachments(child)...)
	}
	return result
}
