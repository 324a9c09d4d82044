package gmailapi

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"
)

// Label is a Gmail label with its server-assigned ID.
type Label struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Messages int64  `json:"messages_total,omitempty"`
	Unread   int64  `json:"messages_unread,omitempty"`
}

// ListLabels returns all labels keyed both ways for resolution.
func (c *Client) ListLabels(ctx context.Context) ([]Label, error) {
	var resp *gmail.ListLabelsResponse
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		var err error
		resp, err = c.svc.Users.Labels.List("me").Context(callCtx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}
	labels := make([]Label, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, Label{
			ID:       l.Id,
			Name:     l.Name,
			Type:     l.Type,
			Messages: l.MessagesTotal,
			Unread:   l.MessagesUnread,
		})
	}
	return labels, nil
}

// ResolveLabelNames maps label names to IDs. Missing names fail with
// NotFound unless createMissing is set, in which case they are created.
func (c *Client) ResolveLabelNames(ctx context.Context, names []string, createMissing bool) (map[string]string, error) {
	labels, err := c.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(labels))
	for _, l := range labels {
		byName[l.Name] = l.ID
	}

	resolved := make(map[string]string, len(names))
	for _, name := range names {
		if id, ok := byName[name]; ok {
			resolved[name] = id
			continue
		}
		if !createMissing {
			return nil, NewError(KindNotFound, "label %q does not exist — create it first or set create_if_missing", name)
		}
		id, err := c.CreateLabel(ctx, name)
		if err != nil {
			return nil, err
		}
		resolved[name] = id
	}
	return resolved, nil
}

// CreateLabel creates a user label and returns its ID.
func (c *Client) CreateLabel(ctx context.Context, name string) (string, error) {
	var created *gmail.Label
	err := c.call(ctx, ClassWrite, true, func(callCtx context.Context) error {
		var err error
		created, err = c.svc.Users.Labels.Create("me", &gmail.Label{
			Name:                  name,
			LabelListVisibility:   "labelShow",
			MessageListVisibility: "show",
		}).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("creating label %q: %w", name, err)
	}
	return created.Id, nil
}
