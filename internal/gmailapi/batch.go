package gmailapi

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
)

// batchEndpoint is the Gmail HTTP batch endpoint. The generated client does
// not expose batching, so requests are framed as multipart/mixed by hand.
const batchEndpoint = "https://gmail.googleapis.com/batch/gmail/v1"

// BatchItem is one per-item request inside a batch. Path is relative to the
// API root (e.g. "/gmail/v1/users/me/messages/abc/trash").
type BatchItem struct {
	ID     string
	Method string
	Path   string
	Body   []byte
}

// BatchOutcome is the per-item result of a batch call. Err is nil on
// success; Body holds the raw JSON response for callers that need it.
type BatchOutcome struct {
	ID   string
	Err  error
	Body []byte
}

// OK reports whether the item succeeded.
func (o BatchOutcome) OK() bool { return o.Err == nil }

// ExecuteBatch issues the items as one or more multipart batch requests,
// chunked at the configured batch size, and returns per-item outcomes in
// input order. An individual item failure never cancels its siblings; if a
// whole chunk's transport fails, every item in that chunk carries the same
// error.
func (c *Client) ExecuteBatch(ctx context.Context, class OpClass, retrySafe bool, items []BatchItem) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(items))
	size := c.opts.BatchSize
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		outcomes = append(outcomes, c.executeChunk(ctx, class, retrySafe, items[start:end])...)
	}
	return outcomes
}

func (c *Client) executeChunk(ctx context.Context, class OpClass, retrySafe bool, items []BatchItem) []BatchOutcome {
	var parsed []BatchOutcome
	err := c.call(ctx, class, retrySafe, func(callCtx context.Context) error {
		body, contentType, err := encodeBatch(items)
		if err != nil {
			return WrapError(KindInternal, err)
		}

		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, batchEndpoint, body)
		if err != nil {
			return WrapError(KindInternal, err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return WrapError(classifyStatus(resp.StatusCode, string(msg)),
				fmt.Errorf("batch request failed: %s: %s", resp.Status, msg))
		}

		parsed, err = decodeBatch(resp, items)
		return err
	})
	if err != nil {
		// Transport-level failure: every item yields the same error.
		out := make([]BatchOutcome, len(items))
		for i, item := range items {
			out[i] = BatchOutcome{ID: item.ID, Err: err}
		}
		return out
	}
	return parsed
}

// encodeBatch frames the items as a multipart/mixed body of application/http
// parts, each tagged with a Content-ID carrying its index.
func encodeBatch(items []BatchItem) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for i, item := range items {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Type", "application/http")
		hdr.Set("Content-ID", fmt.Sprintf("<item-%d>", i))
		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, "", err
		}

		fmt.Fprintf(part, "%s %s HTTP/1.1\r\n", item.Method, item.Path)
		if len(item.Body) > 0 {
			fmt.Fprintf(part, "Content-Type: application/json\r\n")
			fmt.Fprintf(part, "Content-Length: %d\r\n", len(item.Body))
			fmt.Fprintf(part, "\r\n")
			part.Write(item.Body)
		} else {
			fmt.Fprintf(part, "\r\n")
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, "multipart/mixed; boundary=" + w.Boundary(), nil
}

// decodeBatch parses the multipart response, matching parts back to items
// via the response Content-ID and returning outcomes in input order.
func decodeBatch(resp *http.Response, items []BatchItem) ([]BatchOutcome, error) {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, WrapError(KindTransientBackend, fmt.Errorf("parsing batch response content type: %w", err))
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, WrapError(KindTransientBackend, fmt.Errorf("batch response missing multipart boundary"))
	}

	outcomes := make([]BatchOutcome, len(items))
	for i, item := range items {
		outcomes[i] = BatchOutcome{
			ID:  item.ID,
			Err: NewError(KindTransientBackend, "no response received for batch item"),
		}
	}

	mr := multipart.NewReader(resp.Body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, WrapError(KindTransientBackend, fmt.Errorf("reading batch response part: %w", err))
		}

		idx, ok := partIndex(part.Header.Get("Content-ID"))
		if !ok || idx < 0 || idx >= len(items) {
			part.Close()
			continue
		}
		outcomes[idx] = decodePart(part, items[idx])
		part.Close()
	}
	return outcomes, nil
}

// partIndex extracts the item index from a Content-ID of the form
// "<response-item-N>" (or "<item-N>").
func partIndex(contentID string) (int, bool) {
	contentID = strings.Trim(contentID, "<>")
	contentID = strings.TrimPrefix(contentID, "response-")
	contentID = strings.TrimPrefix(contentID, "item-")
	idx, err := strconv.Atoi(contentID)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// decodePart parses one embedded HTTP response and classifies its status.
func decodePart(part *multipart.Part, item BatchItem) BatchOutcome {
	httpResp, err := http.ReadResponse(bufio.NewReader(part), nil)
	if err != nil {
		return BatchOutcome{ID: item.ID, Err: WrapError(KindTransientBackend, err)}
	}
	defer httpResp.Body.Close()

	body, _ := io.ReadAll(httpResp.Body)
	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		return BatchOutcome{ID: item.ID, Body: body}
	}
	return BatchOutcome{
		ID: item.ID,
		Err: WrapError(classifyStatus(httpResp.StatusCode, string(body)),
			fmt.Errorf("item %s: %s", item.ID, httpResp.Status)),
	}
}

// ItemFailure is the JSON-facing record of one failed batch item.
type ItemFailure struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// SummarizeOutcomes splits batch outcomes into a success count and the
// per-item failure records tool responses report.
func SummarizeOutcomes(outcomes []BatchOutcome) (succeeded int, failures []ItemFailure) {
	for _, o := range outcomes {
		if o.OK() {
			succeeded++
			continue
		}
		failures = append(failures, ItemFailure{
			ID:      o.ID,
			Kind:    string(KindOf(o.Err)),
			Message: ActionableMessage(o.Err),
		})
	}
	return succeeded, failures
}
