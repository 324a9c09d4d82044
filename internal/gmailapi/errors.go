package gmailapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorKind classifies failures by what the caller should do about them,
// not by transport code.
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "InvalidInput"
	KindToolNotFound      ErrorKind = "ToolNotFound"
	KindToolNotAvailable  ErrorKind = "ToolNotAvailable"
	KindAuthError         ErrorKind = "AuthError"
	KindNotFound          ErrorKind = "NotFound"
	KindRateLimited       ErrorKind = "RateLimited"
	KindTransientBackend  ErrorKind = "TransientBackend"
	KindCancelled         ErrorKind = "Cancelled"
	KindAmbiguousDeletion ErrorKind = "AmbiguousDeletion"
	KindRuleConflict      ErrorKind = "RuleConflict"
	KindPolicyDenied      ErrorKind = "PolicyDenied"
	KindInternal          ErrorKind = "Internal"
)

// Error carries an ErrorKind alongside a human-readable message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a taxonomy error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind to an underlying error.
func WrapError(kind ErrorKind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from an error chain, classifying raw
// Google API and context errors on the way.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return classify(err)
}

// classify maps transport and Google API errors into the taxonomy.
func classify(err error) ErrorKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}

	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return classifyStatus(googleErr.Code, googleErr.Message)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransientBackend
	}

	return KindInternal
}

// classifyStatus maps an HTTP status (plus the Gmail error message, which
// carries reasons like rateLimitExceeded on 403) into the taxonomy.
func classifyStatus(code int, message string) ErrorKind {
	switch {
	case code == 401:
		return KindAuthError
	case code == 403:
		// Gmail reports quota exhaustion as 403 with a rate-limit reason.
		if strings.Contains(message, "rateLimitExceeded") || strings.Contains(message, "userRateLimitExceeded") {
			return KindRateLimited
		}
		return KindAuthError
	case code == 404:
		return KindNotFound
	case code == 429:
		return KindRateLimited
	case code == 501:
		return KindInvalidInput
	case code >= 500:
		return KindTransientBackend
	case code >= 400:
		return KindInvalidInput
	default:
		return KindInternal
	}
}

// retryable reports whether an error kind is worth retrying with backoff.
func retryable(kind ErrorKind) bool {
	return kind == KindRateLimited || kind == KindTransientBackend
}

// ActionableMessage translates an error into an agent-actionable message.
// These messages tell the AI what to do next, not the end user.
func ActionableMessage(err error) string {
	switch KindOf(err) {
	case KindAuthError:
		return "authentication failed for this mailbox — the stored token may be expired or missing a scope; re-authenticate and retry"
	case KindNotFound:
		return "resource not found — verify the ID is correct and still exists"
	case KindRateLimited:
		return "Gmail rate limit exhausted after retries — wait 30-60 seconds before retrying this tool call"
	case KindTransientBackend:
		return "Gmail backend error persisted after retries — this is transient, retry after a few seconds"
	case KindCancelled:
		return "operation cancelled before completion — already-executed mutations were not rolled back"
	case KindAmbiguousDeletion:
		return "permanent deletion outcome is indeterminate — verify the message state before retrying"
	case KindPolicyDenied:
		return "confirmation required — re-issue the call with the confirmation flags set, or use dry_run"
	default:
		return err.Error()
	}
}

// ToolError formats an error for return from a tool handler, appending
// the actionable hint when it adds information beyond the error itself.
func ToolError(err error) error {
	if err == nil {
		return nil
	}
	hint := ActionableMessage(err)
	if hint == err.Error() {
		return err
	}
	return fmt.Errorf("%s — %s", err.Error(), hint)
}
