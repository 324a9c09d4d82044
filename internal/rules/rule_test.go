package rules

import "testing"

func validRule() Rule {
	return Rule{
		Name: "trash-old-newsletters",
		Conditions: []Condition{
			{Field: FieldFrom, Operator: OpContains, Value: "newsletter@"},
		},
		Actions: []Action{{Type: ActionTrash}},
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Rule)
		wantErr bool
	}{
		{"valid", func(r *Rule) {}, false},
		{"missing name", func(r *Rule) { r.Name = "" }, true},
		{"no conditions", func(r *Rule) { r.Conditions = nil }, true},
		{"no actions", func(r *Rule) { r.Actions = nil }, true},
		{"unknown conjunction", func(r *Rule) { r.ConditionConjunction = "XOR" }, true},
		{"unknown field", func(r *Rule) { r.Conditions[0].Field = "sender" }, true},
		{"operator-field mismatch", func(r *Rule) {
			r.Conditions[0] = Condition{Field: FieldMessageSize, Operator: OpContains, Value: "5M"}
		}, true},
		{"empty value", func(r *Rule) { r.Conditions[0].Value = "" }, true},
		{"bad regex", func(r *Rule) {
			r.Conditions[0] = Condition{Field: FieldSubject, Operator: OpMatchesRegex, Value: "["}
		}, true},
		{"has_attachment bad value", func(r *Rule) {
			r.Conditions[0] = Condition{Field: FieldHasAttachment, Operator: OpIs, Value: "yes"}
		}, true},
		{"label action without name", func(r *Rule) {
			r.Actions = []Action{{Type: ActionAddLabel}}
		}, true},
		{"label action with name", func(r *Rule) {
			r.Actions = []Action{{Type: ActionAddLabel, Parameters: ActionParams{LabelName: "Receipts"}}}
		}, false},
		{"unknown action", func(r *Rule) { r.Actions = []Action{{Type: "archive"}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestActionKey(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   string
	}{
		{"trash", Action{Type: ActionTrash}, "trash"},
		{"mark_read", Action{Type: ActionMarkRead}, "mark_read"},
		{"add_label keyed by name", Action{Type: ActionAddLabel, Parameters: ActionParams{LabelName: "Receipts"}}, "add_label:Receipts"},
		{"remove_label keyed by name", Action{Type: ActionRemoveLabel, Parameters: ActionParams{LabelName: "Todo"}}, "remove_label:Todo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuleConjDefaultsToAnd(t *testing.T) {
	r := validRule()
	if r.Conj() != ConjunctionAnd {
		t.Errorf("empty conjunction should default to AND, got %q", r.Conj())
	}
	r.ConditionConjunction = ConjunctionOr
	if r.Conj() != ConjunctionOr {
		t.Errorf("Conj() = %q, want OR", r.Conj())
	}
}
