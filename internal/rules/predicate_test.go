package rules

import (
	"testing"
	"time"

	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
)

func testDetails() gmailapi.EmailDetails {
	return gmailapi.EmailDetails{
		EmailStub: gmailapi.EmailStub{
			ID:      "msg1",
			From:    "Alice Smith <alice@example.com>",
			To:      "team@example.com",
			Subject: "Weekly Report: Q3 numbers",
			Snippet: "Please find attached the latest figures",
		},
		Body:         "Please find attached the latest figures. Unsubscribe here.",
		LabelIDs:     []string{"INBOX", "Label_42"},
		SizeEstimate: 2 * 1024 * 1024,
		Attachments: []gmailapi.AttachmentInfo{
			{AttachmentID: "att1", Filename: "report.pdf", MimeType: "application/pdf", Size: 1024},
		},
	}
}

func TestPredicateStringOperators(t *testing.T) {
	d := testDetails()
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"contains case-insensitive", Condition{FieldFrom, OpContains, "ALICE"}, true},
		{"not_contains", Condition{FieldFrom, OpNotContains, "bob"}, true},
		{"equals full header", Condition{FieldTo, OpEquals, "team@example.com"}, true},
		{"equals mismatch", Condition{FieldTo, OpEquals, "other@example.com"}, false},
		{"starts_with", Condition{FieldSubject, OpStartsWith, "weekly"}, true},
		{"ends_with", Condition{FieldSubject, OpEndsWith, "numbers"}, true},
		{"regex case-sensitive", Condition{FieldSubject, OpMatchesRegex, `Q\d numbers`}, true},
		{"regex no match", Condition{FieldSubject, OpMatchesRegex, `^Q\d`}, false},
		{"body contains", Condition{FieldBodySnippet, OpContains, "unsubscribe"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPredicate([]Condition{tt.cond}, ConjunctionAnd)
			if got := p.Matches(d, nil); got != tt.want {
				t.Errorf("Matches with %+v = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestPredicateLabelConditions(t *testing.T) {
	d := testDetails()
	names := map[string]string{"Label_42": "Receipts"}

	p := newPredicate([]Condition{{FieldLabel, OpEquals, "Receipts"}}, ConjunctionAnd)
	if !p.Matches(d, names) {
		t.Error("label equals should match via id-to-name resolution")
	}

	p = newPredicate([]Condition{{FieldLabel, OpNotContains, "receipts"}}, ConjunctionAnd)
	if p.Matches(d, names) {
		t.Error("not_contains should fail when any label matches")
	}

	// Without a name map the raw IDs are compared.
	p = newPredicate([]Condition{{FieldLabel, OpEquals, "inbox"}}, ConjunctionAnd)
	if !p.Matches(d, nil) {
		t.Error("label condition should fall back to raw label IDs")
	}
}

func TestPredicateAttachmentConditions(t *testing.T) {
	d := testDetails()

	p := newPredicate([]Condition{{FieldHasAttachment, OpIs, "true"}}, ConjunctionAnd)
	if !p.Matches(d, nil) {
		t.Error("has_attachment true should match")
	}

	p = newPredicate([]Condition{{FieldAttachmentFilename, OpEndsWith, ".pdf"}}, ConjunctionAnd)
	if !p.Matches(d, nil) {
		t.Error("attachment filename suffix should match")
	}

	noAtt := d
	noAtt.Attachments = nil
	p = newPredicate([]Condition{{FieldHasAttachment, OpIs, "false"}}, ConjunctionAnd)
	if !p.Matches(noAtt, nil) {
		t.Error("has_attachment false should match a message without attachments")
	}
}

func TestPredicateSizeAndAge(t *testing.T) {
	d := testDetails()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.InternalDate = now.Add(-40 * 24 * time.Hour).UnixMilli()

	p := newPredicate([]Condition{{FieldMessageSize, OpGreaterThan, "1M"}}, ConjunctionAnd)
	if !p.Matches(d, nil) {
		t.Error("2MB message should exceed 1M threshold")
	}

	p = newPredicate([]Condition{{FieldMessageSize, OpLessThan, "1M"}}, ConjunctionAnd)
	if p.Matches(d, nil) {
		t.Error("2MB message is not smaller than 1M")
	}

	p = newPredicate([]Condition{{FieldDateAge, OpOlderThan, "30d"}}, ConjunctionAnd)
	p.now = func() time.Time { return now }
	if !p.Matches(d, nil) {
		t.Error("40-day-old message should be older than 30d")
	}

	p = newPredicate([]Condition{{FieldDateAge, OpNewerThan, "60d"}}, ConjunctionAnd)
	p.now = func() time.Time { return now }
	if !p.Matches(d, nil) {
		t.Error("40-day-old message should be newer than 60d")
	}
}

func TestPredicateConjunctions(t *testing.T) {
	d := testDetails()
	conds := []Condition{
		{FieldFrom, OpContains, "alice"},
		{FieldSubject, OpContains, "nonexistent"},
	}

	and := newPredicate(conds, ConjunctionAnd)
	if and.Matches(d, nil) {
		t.Error("AND with one failing condition must not match")
	}

	or := newPredicate(conds, ConjunctionOr)
	if !or.Matches(d, nil) {
		t.Error("OR with one passing condition must match")
	}
}

func TestPredicateRequiredHeaders(t *testing.T) {
	p := newPredicate([]Condition{
		{FieldFrom, OpStartsWith, "a"},
		{FieldSubject, OpContains, "b"},
		{FieldFrom, OpEndsWith, "c"},
		{FieldBodySnippet, OpContains, "d"},
	}, ConjunctionAnd)

	headers := p.RequiredHeaders()
	want := []string{"From", "Subject"}
	if len(headers) != len(want) {
		t.Fatalf("RequiredHeaders() = %v, want %v", headers, want)
	}
	for i, h := range want {
		if headers[i] != h {
			t.Errorf("RequiredHeaders()[%d] = %q, want %q", i, headers[i], h)
		}
	}
}
