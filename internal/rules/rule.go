// Package rules implements the declarative mailbox filtering system: the
// persisted rule model, the translator that pushes conditions down to Gmail
// search operators, the client-side residual predicate, and the engine that
// applies aggregated actions in batches.
package rules

import (
	"fmt"
	"regexp"
	"time"
)

// Field identifies which part of a message a condition inspects.
type Field string

const (
	FieldFrom               Field = "from"
	FieldTo                 Field = "to"
	FieldCC                 Field = "cc"
	FieldSubject            Field = "subject"
	FieldBodySnippet        Field = "body_snippet"
	FieldLabel              Field = "label"
	FieldHasAttachment      Field = "has_attachment"
	FieldAttachmentFilename Field = "attachment_filename"
	FieldMessageSize        Field = "message_size"
	FieldDateAge            Field = "date_age"
)

// Operator is the comparison a condition applies.
type Operator string

const (
	OpContains     Operator = "contains"
	OpNotContains  Operator = "not_contains"
	OpEquals       Operator = "equals"
	OpNotEquals    Operator = "not_equals"
	OpStartsWith   Operator = "starts_with"
	OpEndsWith     Operator = "ends_with"
	OpMatchesRegex Operator = "matches_regex"
	OpIs           Operator = "is"
	OpOlderThan    Operator = "older_than"
	OpNewerThan    Operator = "newer_than"
	OpGreaterThan  Operator = "greater_than"
	OpLessThan     Operator = "less_than"
)

// Conjunction joins a rule's conditions.
type Conjunction string

const (
	ConjunctionAnd Conjunction = "AND"
	ConjunctionOr  Conjunction = "OR"
)

// Condition is one field comparison.
type Condition struct {
	Field    Field    `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// ActionType enumerates what a rule may do to a matched message.
type ActionType string

const (
	ActionTrash             ActionType = "trash"
	ActionDeletePermanently ActionType = "delete_permanently"
	ActionAddLabel          ActionType = "add_label"
	ActionRemoveLabel       ActionType = "remove_label"
	ActionMarkRead          ActionType = "mark_read"
	ActionMarkUnread        ActionType = "mark_unread"
)

// ActionParams carries the parameters of label actions.
type ActionParams struct {
	LabelName       string `json:"label_name,omitempty"`
	CreateIfMissing bool   `json:"create_if_missing,omitempty"`
}

// Action is one effect applied to matched messages.
type Action struct {
	Type       ActionType   `json:"type"`
	Parameters ActionParams `json:"parameters,omitempty"`
}

// Key identifies an action inside an ActionPlan. Label actions are keyed
// by label name so two rules adding different labels stay distinct.
func (a Action) Key() string {
	switch a.Type {
	case ActionAddLabel, ActionRemoveLabel:
		return fmt.Sprintf("%s:%s", a.Type, a.Parameters.LabelName)
	default:
		return string(a.Type)
	}
}

// Rule is the persisted filtering entity.
type Rule struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description,omitempty"`
	IsEnabled            bool        `json:"is_enabled"`
	Conditions           []Condition `json:"conditions"`
	ConditionConjunction Conjunction `json:"condition_conjunction,omitempty"`
	Actions              []Action    `json:"actions"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// Conj returns the effective conjunction, defaulting to AND.
func (r *Rule) Conj() Conjunction {
	if r.ConditionConjunction == ConjunctionOr {
		return ConjunctionOr
	}
	return ConjunctionAnd
}

// fieldOperators enumerates the operators each field accepts.
var fieldOperators = map[Field][]Operator{
	FieldFrom:               {OpContains, OpNotContains, OpEquals, OpNotEquals, OpStartsWith, OpEndsWith, OpMatchesRegex},
	FieldTo:                 {OpContains, OpNotContains, OpEquals, OpNotEquals, OpStartsWith, OpEndsWith, OpMatchesRegex},
	FieldCC:                 {OpContains, OpNotContains, OpEquals, OpNotEquals, OpStartsWith, OpEndsWith, OpMatchesRegex},
	FieldSubject:            {OpContains, OpNotContains, OpEquals, OpNotEquals, OpStartsWith, OpEndsWith, OpMatchesRegex},
	FieldBodySnippet:        {OpContains, OpNotContains, OpMatchesRegex},
	FieldLabel:              {OpContains, OpNotContains, OpEquals},
	FieldHasAttachment:      {OpIs},
	FieldAttachmentFilename: {OpContains, OpNotContains, OpEquals, OpEndsWith, OpMatchesRegex},
	FieldMessageSize:        {OpGreaterThan, OpLessThan},
	FieldDateAge:            {OpOlderThan, OpNewerThan},
}

// Validate checks the rule's structural invariants: non-empty conditions
// and actions, known field/operator/action variants, operator-field
// compatibility, and parseable regex values.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("rule %q must have at least one condition", r.Name)
	}
	if len(r.Actions) == 0 {
		return fmt.Errorf("rule %q must have at least one action", r.Name)
	}
	if c := r.ConditionConjunction; c != "" && c != ConjunctionAnd && c != ConjunctionOr {
		return fmt.Errorf("rule %q: unknown condition_conjunction %q", r.Name, c)
	}
	for i, cond := range r.Conditions {
		if err := cond.validate(); err != nil {
			return fmt.Errorf("rule %q condition %d: %w", r.Name, i, err)
		}
	}
	for i, act := range r.Actions {
		if err := act.validate(); err != nil {
			return fmt.Errorf("rule %q action %d: %w", r.Name, i, err)
		}
	}
	return nil
}

func (c Condition) validate() error {
	ops, ok := fieldOperators[c.Field]
	if !ok {
		return fmt.Errorf("unknown field %q", c.Field)
	}
	found := false
	for _, op := range ops {
		if op == c.Operator {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("operator %q is not valid for field %q", c.Operator, c.Field)
	}
	if c.Value == "" {
		return fmt.Errorf("field %q requires a value", c.Field)
	}
	if c.Operator == OpMatchesRegex {
		if _, err := regexp.Compile(c.Value); err != nil {
			return fmt.Errorf("invalid regex %q: %w", c.Value, err)
		}
	}
	if c.Field == FieldHasAttachment && c.Value != "true" && c.Value != "false" {
		return fmt.Errorf("has_attachment value must be \"true\" or \"false\", got %q", c.Value)
	}
	return nil
}

func (a Action) validate() error {
	switch a.Type {
	case ActionTrash, ActionDeletePermanently, ActionMarkRead, ActionMarkUnread:
		return nil
	case ActionAddLabel, ActionRemoveLabel:
		if a.Parameters.LabelName == "" {
			return fmt.Errorf("%s requires parameters.label_name", a.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}
