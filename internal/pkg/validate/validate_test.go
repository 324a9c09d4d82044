package validate

import (
	"strings"
	"testing"
)

func TestGmailID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"typical message ID", "18c2f5a9d3b7e012", false},
		{"short ID", "abc123", false},
		{"with hyphens and underscores", "abc-123_def", false},
		{"attachment ID length", strings.Repeat("A", 256), false},
		{"empty", "", true},
		{"too long", strings.Repeat("A", 257), true},
		{"query injection", "id OR label:secret", true},
		{"path traversal", "msg/../../../etc", true},
		{"spaces", "has spaces", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GmailID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("GmailID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestGmailIDs(t *testing.T) {
	// Larger than any single batch round-trip: the executor chunks
	// lists like this, so validation must accept them.
	many := make([]string, 1001)
	for i := range many {
		many[i] = "abc123"
	}

	tests := []struct {
		name    string
		ids     []string
		wantErr bool
	}{
		{"single valid", []string{"18c2f5a9d3b7e012"}, false},
		{"several valid", []string{"a1", "b2", "c3"}, false},
		{"larger than one batch", many, false},
		{"empty list", nil, true},
		{"one bad ID", []string{"a1", "bad id"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GmailIDs(tt.ids)
			if (err != nil) != tt.wantErr {
				t.Errorf("GmailIDs(%d ids) error = %v, wantErr %v", len(tt.ids), err, tt.wantErr)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "user@example.com", false},
		{"with dots", "first.last@example.com", false},
		{"with plus", "user+tag@example.com", false},
		{"with subdomain", "user@sub.example.com", false},
		{"empty", "", true},
		{"no at sign", "userexample.com", true},
		{"no domain", "user@", true},
		{"no TLD", "user@example", true},
		{"spaces", "user @example.com", true},
		{"arbitrary string", "not-an-email", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Email(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("Email(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}
