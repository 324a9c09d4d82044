// Package policy enforces the confirmation rules for destructive tools.
package policy

import (
	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
)

// PermanentDeleteToken is the second, distinct confirmation a permanent
// delete requires alongside confirm=true in the same call.
const PermanentDeleteToken = "PERMANENTLY-DELETE"

// Guard applies the configured confirmation policy.
type Guard struct {
	// RequireConfirmation mirrors require_confirmation_for_destructive.
	// When false, destructive tools run unconfirmed (not recommended).
	RequireConfirmation bool
}

// CheckDestructive gates trash, draft/thread/rule deletion, and write-class
// settings updates: the call must be a dry run or carry confirm=true.
func (g *Guard) CheckDestructive(dryRun, confirm bool) error {
	if !g.RequireConfirmation || dryRun || confirm {
		return nil
	}
	return gmailapi.NewError(gmailapi.KindPolicyDenied,
		"confirmation required — set confirm=true to proceed, or dry_run=true to preview")
}

// CheckPermanentDelete gates permanent deletion behind two distinct
// confirmations in the same turn: confirm=true plus the literal
// confirmation token.
func (g *Guard) CheckPermanentDelete(dryRun, confirm bool, token string) error {
	if !g.RequireConfirmation || dryRun {
		return nil
	}
	if !confirm {
		return gmailapi.NewError(gmailapi.KindPolicyDenied,
			"confirmation required — permanent deletion needs confirm=true and confirm_token=%q", PermanentDeleteToken)
	}
	if token != PermanentDeleteToken {
		return gmailapi.NewError(gmailapi.KindPolicyDenied,
			"second confirmation required — permanent deletion is irreversible; set confirm_token=%q", PermanentDeleteToken)
	}
	return nil
}
