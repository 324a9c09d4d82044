package gmailapi

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"
)

// GetVacation fetches the vacation auto-reply settings.
func (c *Client) GetVacation(ctx context.Context) (*gmail.VacationSettings, error) {
	var out *gmail.VacationSettings
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		var err error
		out, err = c.svc.Users.Settings.GetVacation("me").Context(callCtx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting vacation settings: %w", err)
	}
	return out, nil
}

// UpdateVacation replaces the vacation auto-reply settings.
func (c *Client) UpdateVacation(ctx context.Context, settings *gmail.VacationSettings) (*gmail.VacationSettings, error) {
	var out *gmail.VacationSettings
	err := c.call(ctx, ClassWrite, true, func(callCtx context.Context) error {
		var err error
		out, err = c.svc.Users.Settings.UpdateVacation("me", settings).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating vacation settings: %w", err)
	}
	return out, nil
}

// GetIMAP fetches IMAP settings.
func (c *Client) GetIMAP(ctx context.Context) (*gmail.ImapSettings, error) {
	var out *gmail.ImapSettings
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		var err error
		out, err = c.svc.Users.Settings.GetImap("me").Context(callCtx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting IMAP settings: %w", err)
	}
	return out, nil
}

// UpdateIMAP replaces IMAP settings.
func (c *Client) UpdateIMAP(ctx context.Context, settings *gmail.ImapSettings) (*gmail.ImapSettings, error) {
	var out *gmail.ImapSettings
	err := c.call(ctx, ClassWrite, true, func(callCtx context.Context) error {
		var err error
		out, err = c.svc.Users.Settings.UpdateImap("me", settings).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating IMAP settings: %w", err)
	}
	return out, nil
}

// GetPOP fetches POP settings.
func (c *Client) GetPOP(ctx context.Context) (*gmail.PopSettings, error) {
	var out *gmail.PopSettings
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		var err error
		out, err = c.svc.Users.Settings.GetPop("me").Context(callCtx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting POP settings: %w", err)
	}
	return out, nil
}

// UpdatePOP replaces POP settings.
func (c *Client) UpdatePOP(ctx context.Context, settings *gmail.PopSettings) (*gmail.PopSettings, error) {
	var out *gmail.PopSettings
	err := c.call(ctx, ClassWrite, true, func(callCtx context.Context) error {
		var err error
		out, err = c.svc.Users.Settings.UpdatePop("me", settings).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating POP settings: %w", err)
	}
	return out, nil
}
