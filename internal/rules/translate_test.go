package rules

import (
	"strings"
	"testing"
)

func TestTranslateFullPushdown(t *testing.T) {
	r := &Rule{
		Name: "newsletters",
		Conditions: []Condition{
			{Field: FieldFrom, Operator: OpContains, Value: "newsletter@"},
			{Field: FieldHasAttachment, Operator: OpIs, Value: "false"},
			{Field: FieldDateAge, Operator: OpOlderThan, Value: "30d"},
		},
		Actions: []Action{{Type: ActionTrash}},
	}

	tr := Translate(r)
	want := "from:newsletter@ -has:attachment older_than:30d"
	if tr.ServerQuery != want {
		t.Errorf("ServerQuery = %q, want %q", tr.ServerQuery, want)
	}
	if tr.Residual != nil {
		t.Error("fully translatable AND rule should have no residual")
	}
	if tr.BroadenCandidates {
		t.Error("AND rule should never broaden candidates")
	}
	if len(tr.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", tr.Warnings)
	}
}

func TestTranslateResidualForUntranslatableOperator(t *testing.T) {
	r := &Rule{
		Name: "invoices",
		Conditions: []Condition{
			{Field: FieldFrom, Operator: OpContains, Value: "billing@"},
			{Field: FieldSubject, Operator: OpStartsWith, Value: "Invoice"},
		},
		Actions: []Action{{Type: ActionMarkRead}},
	}

	tr := Translate(r)
	if tr.ServerQuery != "from:billing@" {
		t.Errorf("ServerQuery = %q, want %q", tr.ServerQuery, "from:billing@")
	}
	if tr.Residual == nil {
		t.Fatal("starts_with needs a residual predicate")
	}
	if tr.NeedsFullMessage {
		t.Error("header-only residual should not need full messages")
	}
	if tr.BroadenCandidates {
		t.Error("AND residual must not broaden candidates")
	}
}

func TestTranslateBodyResidualNeedsFullMessage(t *testing.T) {
	r := &Rule{
		Name: "promos",
		Conditions: []Condition{
			{Field: FieldBodySnippet, Operator: OpContains, Value: "unsubscribe"},
		},
		Actions: []Action{{Type: ActionTrash}},
	}

	tr := Translate(r)
	if tr.ServerQuery != "" {
		t.Errorf("body condition has no server operator, got query %q", tr.ServerQuery)
	}
	if tr.Residual == nil {
		t.Fatal("body condition needs a residual predicate")
	}
	if !tr.NeedsFullMessage {
		t.Error("body residual must request full message fetches")
	}
}

func TestTranslateORBroadensOnResidual(t *testing.T) {
	r := &Rule{
		Name:                 "catch-all",
		ConditionConjunction: ConjunctionOr,
		Conditions: []Condition{
			{Field: FieldFrom, Operator: OpContains, Value: "alerts@"},
			{Field: FieldSubject, Operator: OpEndsWith, Value: "(automated)"},
		},
		Actions: []Action{{Type: ActionMarkRead}},
	}

	tr := Translate(r)
	if tr.ServerQuery != "from:alerts@" {
		t.Errorf("ServerQuery = %q, want %q", tr.ServerQuery, "from:alerts@")
	}
	if tr.Residual == nil {
		t.Fatal("OR rule with untranslatable disjunct needs a residual")
	}
	if !tr.BroadenCandidates {
		t.Error("OR rule with untranslatable disjunct must broaden candidates")
	}
}

func TestTranslateORJoinsWithBraces(t *testing.T) {
	r := &Rule{
		Name:                 "either-sender",
		ConditionConjunction: ConjunctionOr,
		Conditions: []Condition{
			{Field: FieldFrom, Operator: OpContains, Value: "a@example.com"},
			{Field: FieldFrom, Operator: OpContains, Value: "b@example.com"},
		},
		Actions: []Action{{Type: ActionTrash}},
	}

	tr := Translate(r)
	want := "{from:a@example.com OR from:b@example.com}"
	if tr.ServerQuery != want {
		t.Errorf("ServerQuery = %q, want %q", tr.ServerQuery, want)
	}
	if tr.Residual != nil {
		t.Error("fully translatable OR rule should have no residual")
	}
	if tr.BroadenCandidates {
		t.Error("fully translatable OR rule should not broaden")
	}
}

func TestTranslateQuotesValuesWithSpaces(t *testing.T) {
	r := &Rule{
		Name: "quoted",
		Conditions: []Condition{
			{Field: FieldSubject, Operator: OpContains, Value: "weekly report"},
		},
		Actions: []Action{{Type: ActionMarkRead}},
	}

	tr := Translate(r)
	if tr.ServerQuery != `subject:"weekly report"` {
		t.Errorf("ServerQuery = %q, want %q", tr.ServerQuery, `subject:"weekly report"`)
	}
}

func TestTranslateEqualsAlwaysQuotes(t *testing.T) {
	r := &Rule{
		Name: "exact",
		Conditions: []Condition{
			{Field: FieldFrom, Operator: OpEquals, Value: "boss@example.com"},
		},
		Actions: []Action{{Type: ActionMarkRead}},
	}

	tr := Translate(r)
	if tr.ServerQuery != `from:"boss@example.com"` {
		t.Errorf("ServerQuery = %q, want %q", tr.ServerQuery, `from:"boss@example.com"`)
	}
	if tr.Residual != nil {
		t.Error("quoted exact match translates fully; expected no residual")
	}
}

func TestTranslateInvalidValueWarns(t *testing.T) {
	r := &Rule{
		Name: "bad-size",
		Conditions: []Condition{
			{Field: FieldMessageSize, Operator: OpGreaterThan, Value: "100"},
			{Field: FieldFrom, Operator: OpContains, Value: "big@"},
		},
		Actions: []Action{{Type: ActionTrash}},
	}

	tr := Translate(r)
	if len(tr.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", tr.Warnings)
	}
	if !strings.Contains(tr.Warnings[0], "message_size") {
		t.Errorf("warning should name the condition, got %q", tr.Warnings[0])
	}
	if tr.ServerQuery != "from:big@" {
		t.Errorf("remaining conditions should still translate, got %q", tr.ServerQuery)
	}
}

func TestCombineQueries(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"all present", []string{"in:inbox", "newer_than:30d", "from:a@b.c"}, "in:inbox newer_than:30d from:a@b.c"},
		{"empties dropped", []string{"", "newer_than:30d", "  "}, "newer_than:30d"},
		{"all empty", []string{"", ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CombineQueries(tt.parts...); got != tt.want {
				t.Errorf("CombineQueries(%v) = %q, want %q", tt.parts, got, tt.want)
			}
		})
	}
}
