package settings

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/gmail/v1"

	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/response"
)

// VacationSettings is the JSON-facing view of the vacation auto-reply.
type VacationSettings struct {
	EnableAutoReply       bool   `json:"enable_auto_reply"`
	ResponseSubject       string `json:"response_subject,omitempty"`
	ResponseBodyPlainText string `json:"response_body_plain_text,omitempty"`
	StartTime             int64  `json:"start_time,omitempty" jsonschema_description:"Epoch milliseconds; zero means no start bound"`
	EndTime               int64  `json:"end_time,omitempty" jsonschema_description:"Epoch milliseconds; zero means no end bound"`
	RestrictToContacts    bool   `json:"restrict_to_contacts,omitempty"`
	RestrictToDomain      bool   `json:"restrict_to_domain,omitempty"`
}

func vacationFromAPI(v *gmail.VacationSettings) VacationSettings {
	return VacationSettings{
		EnableAutoReply:       v.EnableAutoReply,
		ResponseSubject:       v.ResponseSubject,
		ResponseBodyPlainText: v.ResponseBodyPlainText,
		StartTime:             v.StartTime,
		EndTime:               v.EndTime,
		RestrictToContacts:    v.RestrictToContacts,
		RestrictToDomain:      v.RestrictToDomain,
	}
}

func (v VacationSettings) toAPI() *gmail.VacationSettings {
	return &gmail.VacationSettings{
		EnableAutoReply:       v.EnableAutoReply,
		ResponseSubject:       v.ResponseSubject,
		ResponseBodyPlainText: v.ResponseBodyPlainText,
		StartTime:             v.StartTime,
		EndTime:               v.EndTime,
		RestrictToContacts:    v.RestrictToContacts,
		RestrictToDomain:      v.RestrictToDomain,
		ForceSendFields:       []string{"EnableAutoReply", "RestrictToContacts", "RestrictToDomain"},
	}
}

// --- get_vacation_settings ---

// GetSettingsInput identifies the mailbox for settings getters.
type GetSettingsInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
}

// VacationOutput is the structured output of vacation settings tools.
type VacationOutput struct {
	Vacation VacationSettings `json:"vacation"`
}

func createGetVacationHandler(deps Deps) mcp.ToolHandlerFor[GetSettingsInput, VacationOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetSettingsInput) (*mcp.CallToolResult, VacationOutput, error) {
		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, VacationOutput{}, gmailapi.ToolError(err)
		}
		v, err := client.GetVacation(ctx)
		if err != nil {
			return nil, VacationOutput{}, gmailapi.ToolError(err)
		}

		settings := vacationFromAPI(v)
		rb := response.New()
		rb.Header("Vacation Settings")
		rb.KeyValue("Auto-reply enabled", settings.EnableAutoReply)
		if settings.ResponseSubject != "" {
			rb.KeyValue("Subject", settings.ResponseSubject)
		}
		rb.KeyValue("Restrict to contacts", settings.RestrictToContacts)
		rb.KeyValue("Restrict to domain", settings.RestrictToDomain)

		return rb.TextResult(), VacationOutput{Vacation: settings}, nil
	}
}

// --- update_vacation_settings ---

// UpdateVacationInput is the input for update_vacation_settings.
type UpdateVacationInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema_description:"Explicit confirmation for this write operation"`
	VacationSettings
}

func createUpdateVacationHandler(deps Deps) mcp.ToolHandlerFor[UpdateVacationInput, VacationOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdateVacationInput) (*mcp.CallToolResult, VacationOutput, error) {
		if err := deps.Guard.CheckDestructive(false, input.Confirm); err != nil {
			return nil, VacationOutput{}, err
		}
		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, VacationOutput{}, gmailapi.ToolError(err)
		}
		updated, err := client.UpdateVacation(ctx, input.VacationSettings.toAPI())
		if err != nil {
			return nil, VacationOutput{}, gmailapi.ToolError(err)
		}

		settings := vacationFromAPI(updated)
		rb := response.New()
		rb.Header("Vacation Settings Updated")
		rb.KeyValue("Auto-reply enabled", settings.EnableAutoReply)

		return rb.TextResult(), VacationOutput{Vacation: settings}, nil
	}
}

// --- IMAP ---

// IMAPSettings is the JSON-facing view of IMAP access settings.
type IMAPSettings struct {
	Enabled         bool   `json:"enabled"`
	AutoExpunge     bool   `json:"auto_expunge,omitempty"`
	ExpungeBehavior string `json:"expunge_behavior,omitempty" jsonschema_description:"archive, trash, or deleteForever"`
	MaxFolderSize   int64  `json:"max_folder_size,omitempty"`
}

// IMAPOutput is the structured output of IMAP settings tools.
type IMAPOutput struct {
	IMAP IMAPSettings `json:"imap"`
}

func imapFromAPI(s *gmail.ImapSettings) IMAPSettings {
	return IMAPSettings{
		Enabled:         s.Enabled,
		AutoExpunge:     s.AutoExpunge,
		ExpungeBehavior: s.ExpungeBehavior,
		MaxFolderSize:   s.MaxFolderSize,
	}
}

func createGetIMAPHandler(deps Deps) mcp.ToolHandlerFor[GetSettingsInput, IMAPOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetSettingsInput) (*mcp.CallToolResult, IMAPOutput, error) {
		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, IMAPOutput{}, gmailapi.ToolError(err)
		}
		s, err := client.GetIMAP(ctx)
		if err != nil {
			return nil, IMAPOutput{}, gmailapi.ToolError(err)
		}

		settings := imapFromAPI(s)
		rb := response.New()
		rb.Header("IMAP Settings")
		rb.KeyValue("Enabled", settings.Enabled)
		if settings.ExpungeBehavior != "" {
			rb.KeyValue("Expunge behavior", settings.ExpungeBehavior)
		}

		return rb.TextResult(), IMAPOutput{IMAP: settings}, nil
	}
}

// UpdateIMAPInput is the input for update_imap_settings.
type UpdateIMAPInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema_description:"Explicit confirmation for this write operation"`
	IMAPSettings
}

func createUpdateIMAPHandler(deps Deps) mcp.ToolHandlerFor[UpdateIMAPInput, IMAPOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdateIMAPInput) (*mcp.CallToolResult, IMAPOutput, error) {
		if err := deps.Guard.CheckDestructive(false, input.Confirm); err != nil {
			return nil, IMAPOutput{}, err
		}
		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, IMAPOutput{}, gmailapi.ToolError(err)
		}
		updated, err := client.UpdateIMAP(ctx, &gmail.ImapSettings{
			Enabled:         input.Enabled,
			AutoExpunge:     input.AutoExpunge,
			ExpungeBehavior: input.ExpungeBehavior,
			MaxFolderSize:   input.MaxFolderSize,
			ForceSendFields: []string{"Enabled", "AutoExpunge"},
		})
		if err != nil {
			return nil, IMAPOutput{}, gmailapi.ToolError(err)
		}

		settings := imapFromAPI(updated)
		rb := response.New()
		rb.Header("IMAP Settings Updated")
		rb.KeyValue("Enabled", settings.Enabled)

		return rb.TextResult(), IMAPOutput{IMAP: settings}, nil
	}
}

// --- POP ---

// POPSettings is the JSON-facing view of POP access settings.
type POPSettings struct {
	AccessWindow string `json:"access_window,omitempty" jsonschema_description:"disabled, fromNowOn, or allMail"`
	Disposition  string `json:"disposition,omitempty" jsonschema_description:"leaveInInbox, archive, trash, or markRead"`
}

// POPOutput is the structured output of POP settings tools.
type POPOutput struct {
	POP POPSettings `json:"pop"`
}

func popFromAPI(s *gmail.PopSettings) POPSettings {
	return POPSettings{
		AccessWindow: s.AccessWindow,
		Disposition:  s.Disposition,
	}
}

func createGetPOPHandler(deps Deps) mcp.ToolHandlerFor[GetSettingsInput, POPOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetSettingsInput) (*mcp.CallToolResult, POPOutput, error) {
		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, POPOutput{}, gmailapi.ToolError(err)
		}
		s, err := client.GetPOP(ctx)
		if err != nil {
			return nil, POPOutput{}, gmailapi.ToolError(err)
		}

		settings := popFromAPI(s)
		rb := response.New()
		rb.Header("POP Settings")
		rb.KeyValue("Access window", settings.AccessWindow)
		rb.KeyValue("Disposition", settings.Disposition)

		return rb.TextResult(), POPOutput{POP: settings}, nil
	}
}

// UpdatePOPInput is the input for update_pop_settings.
type UpdatePOPInput struct {
	UserEmail string `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema_description:"Explicit confirmation for this write operation"`
	POPSettings
}

func createUpdatePOPHandler(deps Deps) mcp.ToolHandlerFor[UpdatePOPInput, POPOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdatePOPInput) (*mcp.CallToolResult, POPOutput, error) {
		if err := deps.Guard.CheckDestructive(false, input.Confirm); err != nil {
			return nil, POPOutput{}, err
		}
		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, POPOutput{}, gmailapi.ToolError(err)
		}
		updated, err := client.UpdatePOP(ctx, &gmail.PopSettings{
			AccessWindow: input.AccessWindow,
			Disposition:  input.Disposition,
		})
		if err != nil {
			return nil, POPOutput{}, gmailapi.ToolError(err)
		}

		settings := popFromAPI(updated)
		rb := response.New()
		rb.Header("POP Settings Updated")
		rb.KeyValue("Access window", settings.AccessWindow)
		rb.KeyValue("Disposition", settings.Disposition)

		return rb.TextResult(), POPOutput{POP: settings}, nil
	}
}
