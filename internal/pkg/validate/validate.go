package validate

import (
	"fmt"
	"regexp"
)

// gmailIDRE matches Gmail message, thread, draft, and attachment IDs.
// They are opaque URL-safe tokens; validating them prevents path
// injection when IDs are interpolated into request URLs.
var gmailIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,256}$`)

// GmailID validates that the given string is a safe Gmail resource ID.
func GmailID(id string) error {
	if !gmailIDRE.MatchString(id) {
		return fmt.Errorf("invalid Gmail resource ID %q — expected alphanumeric characters, hyphens, and underscores", id)
	}
	return nil
}

// GmailIDs validates a non-empty ID list. There is no upper bound on
// list size: the batch executor chunks oversized lists at its batch
// size and processes every chunk.
func GmailIDs(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one ID is required")
	}
	for _, id := range ids {
		if err := GmailID(id); err != nil {
			return err
		}
	}
	return nil
}

// emailRE matches basic email format: local@domain with at least one dot in domain.
var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validates that the given string looks like a valid email address.
func Email(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email address too long (max 254 characters)")
	}
	if !emailRE.MatchString(email) {
		return fmt.Errorf("invalid email address %q", email)
	}
	return nil
}
