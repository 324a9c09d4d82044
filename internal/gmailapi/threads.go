package gmailapi

import (
	"context"
	"fmt"
	"sort"

	"google.golang.org/api/gmail/v1"
)

// ListThreads lists thread IDs and snippets matching the query.
func (c *Client) ListThreads(ctx context.Context, query string, maxResults int64, pageToken string) ([]Thread, string, error) {
	if maxResults <= 0 {
		maxResults = 100
	}
	var resp *gmail.ListThreadsResponse
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		var err error
		resp, err = c.svc.Users.Threads.List("me").
			Q(query).
			MaxResults(maxResults).
			PageToken(pageToken).
			Context(callCtx).
			Do()
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("listing threads: %w", err)
	}

	threads := make([]Thread, 0, len(resp.Threads))
	for _, t := range resp.Threads {
		threads = append(threads, Thread{ID: t.Id})
	}
	return threads, resp.NextPageToken, nil
}

// GetThread fetches one thread with all messages in the given format.
func (c *Client) GetThread(ctx context.Context, id, format string) (Thread, error) {
	if format == "" {
		format = "metadata"
	}
	var t *gmail.Thread
	err := c.call(ctx, ClassRead, true, func(callCtx context.Context) error {
		var err error
		t, err = c.svc.Users.Threads.Get("me", id).Format(format).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return Thread{}, fmt.Errorf("getting thread %s: %w", id, err)
	}
	return threadFromAPI(t), nil
}

// ModifyThread adds and removes label IDs on every message of the thread.
func (c *Client) ModifyThread(ctx context.Context, id string, addLabelIDs, removeLabelIDs []string) (Thread, error) {
	var t *gmail.Thread
	err := c.call(ctx, ClassWrite, true, func(callCtx context.Context) error {
		var err error
		t, err = c.svc.Users.Threads.Modify("me", id, &gmail.ModifyThreadRequest{
			AddLabelIds:    addLabelIDs,
			RemoveLabelIds: removeLabelIDs,
		}).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return Thread{}, fmt.Errorf("modifying thread %s: %w", id, err)
	}
	return threadFromAPI(t), nil
}

// TrashThread moves a whole thread to the trash.
func (c *Client) TrashThread(ctx context.Context, id string) error {
	err := c.call(ctx, ClassWrite, true, func(callCtx context.Context) error {
		_, err := c.svc.Users.Threads.Trash("me", id).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("trashing thread %s: %w", id, err)
	}
	return nil
}

// DeleteThreadPermanently deletes a thread bypassing the trash. Never
// re-sent on timeout.
func (c *Client) DeleteThreadPermanently(ctx context.Context, id string) error {
	err := c.call(ctx, ClassWrite, false, func(callCtx context.Context) error {
		return c.svc.Users.Threads.Delete("me", id).Context(callCtx).Do()
	})
	if err != nil {
		return fmt.Errorf("deleting thread %s: %w", id, err)
	}
	return nil
}

// threadFromAPI converts a generated thread, aggregating the label set
// across all messages.
func threadFromAPI(t *gmail.Thread) Thread {
	out := Thread{ID: t.Id}
	labels := make(map[string]struct{})
	for _, m := range t.Messages {
		out.Messages = append(out.Messages, detailsFromMessage(m))
		for _, l := range m.LabelIds {
			labels[l] = struct{}{}
		}
	}
	for l := range labels {
		out.LabelIDs = append(out.LabelIDs, l)
	}
	sort.Strings(out.LabelIDs)
	return out
}
