package emails

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/format"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/office"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/response"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/validate"
)

// --- list_labels ---

// ListLabelsInput is the input for list_labels.
type ListLabelsInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
}

// ListLabelsOutput is the structured output for list_labels.
type ListLabelsOutput struct {
	Labels []gmailapi.Label `json:"labels"`
}

func createListLabelsHandler(deps Deps) mcp.ToolHandlerFor[ListLabelsInput, ListLabelsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListLabelsInput) (*mcp.CallToolResult, ListLabelsOutput, error) {
		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, ListLabelsOutput{}, gmailapi.ToolError(err)
		}

		labels, err := client.ListLabels(ctx)
		if err != nil {
			return nil, ListLabelsOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Labels")
		rb.KeyValue("Count", len(labels))
		rb.Blank()
		for _, l := range labels {
			rb.Item("%s (%s, %s)", l.Name, l.ID, l.Type)
		}

		return rb.TextResult(), ListLabelsOutput{Labels: labels}, nil
	}
}

// --- get_attachment ---

// GetAttachmentInput is the input for get_attachment.
type GetAttachmentInput struct {
	UserEmail    string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	MessageID    string `json:"message_id" jsonschema:"required" jsonschema_description:"ID of the email carrying the attachment"`
	AttachmentID string `json:"attachment_id" jsonschema:"required" jsonschema_description:"ID of the attachment, from get_email_details"`
	ExtractText  bool   `json:"extract_text,omitempty" jsonschema_description:"Extract plain text from Office documents (.docx, .xlsx, .pptx) instead of returning raw bytes only"`
}

// GetAttachmentOutput is the structured output for get_attachment.
type GetAttachmentOutput struct {
	AttachmentID  string `json:"attachment_id"`
	Filename      string `json:"filename,omitempty"`
	MimeType      string `json:"mime_type,omitempty"`
	Size          int64  `json:"size"`
	Data          string `json:"data"`
	ExtractedText string `json:"extracted_text,omitempty"`
}

func createGetAttachmentHandler(deps Deps) mcp.ToolHandlerFor[GetAttachmentInput, GetAttachmentOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetAttachmentInput) (*mcp.CallToolResult, GetAttachmentOutput, error) {
		if err := validate.GmailID(input.MessageID); err != nil {
			return nil, GetAttachmentOutput{}, gmailapi.WrapError(gmailapi.KindInvalidInput, err)
		}

		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, GetAttachmentOutput{}, gmailapi.ToolError(err)
		}

		body, err := client.GetAttachment(ctx, input.MessageID, input.AttachmentID)
		if err != nil {
			return nil, GetAttachmentOutput{}, gmailapi.ToolError(err)
		}

		output := GetAttachmentOutput{
			AttachmentID: input.AttachmentID,
			Size:         body.Size,
			Data:         body.Data,
		}

		// Filename and MIME type live on the parent message's manifest,
		// not on the attachment body. Resolve them when the caller wants
		// text extraction or when the fetch is cheap anyway.
		if meta, metaErr := client.GetMessage(ctx, input.MessageID, "full", nil); metaErr == nil {
			for _, a := range meta.Attachments {
				if a.AttachmentID == input.AttachmentID {
					output.Filename = a.Filename
					output.MimeType = a.MimeType
					break
				}
			}
		}

		rb := response.New()
		rb.Header("Attachment")
		rb.KeyValue("Message ID", input.MessageID)
		if output.Filename != "" {
			rb.KeyValue("Filename", output.Filename)
		}
		if output.MimeType != "" {
			rb.KeyValue("MIME type", output.MimeType)
		}
		rb.KeyValue("Size", format.ByteSize(body.Size))

		if input.ExtractText && isOfficeType(output.MimeType, output.Filename) {
			raw, decErr := base64.URLEncoding.DecodeString(body.Data)
			if decErr == nil {
				if text, exErr := office.ExtractText(raw, output.MimeType); exErr == nil {
					output.ExtractedText = text
					rb.Blank()
					rb.Line("Extracted text:")
					rb.Line("%s", text)
				} else {
					rb.Line("Text extraction failed: %v", exErr)
				}
			}
		} else {
			rb.Line("Content is base64url-encoded in the structured output.")
		}

		return rb.TextResult(), output, nil
	}
}

// isOfficeType reports whether the attachment is an Office XML document.
func isOfficeType(mimeType, filename string) bool {
	return strings.Contains(mimeType, "officedocument") ||
		strings.HasSuffix(filename, ".docx") ||
		strings.HasSuffix(filename, ".xlsx") ||
		strings.HasSuffix(filename, ".pptx")
}
