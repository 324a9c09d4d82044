package rules

import (
	"fmt"
	"strings"
)

// Translation is the result of compiling a rule's conditions: a Gmail
// search-operator string evaluated server-side, plus an optional residual
// predicate re-checked client-side on fetched details.
type Translation struct {
	// ServerQuery is the Gmail search expression for the translatable
	// conditions. Empty when nothing translates.
	ServerQuery string
	// Residual re-checks the full condition set client-side. Nil when the
	// server query alone is exact.
	Residual *Predicate
	// NeedsFullMessage is set when the residual inspects content that
	// metadata fetches do not carry (body text, attachment parts).
	NeedsFullMessage bool
	// BroadenCandidates is set for OR rules with untranslatable disjuncts:
	// the server query under-selects, so the engine must also scan the
	// unnarrowed date-window candidate set.
	BroadenCandidates bool
	// Warnings lists conditions whose values could not be compiled into a
	// query contribution. Translation still succeeds for the rest.
	Warnings []string
}

// Translate compiles a rule into (server query, residual predicate).
func Translate(r *Rule) Translation {
	var (
		exprs    []string
		warnings []string
		exact    = true
	)

	for _, cond := range r.Conditions {
		expr, translatable, warn := serverExpr(cond)
		if warn != "" {
			warnings = append(warnings, warn)
			exact = false
			continue
		}
		if !translatable {
			exact = false
			continue
		}
		exprs = append(exprs, expr)
	}

	t := Translation{Warnings: warnings}

	switch r.Conj() {
	case ConjunctionAnd:
		// Gmail operators default to AND when space-joined.
		t.ServerQuery = strings.Join(exprs, " ")
		if !exact {
			t.Residual = newPredicate(r.Conditions, ConjunctionAnd)
		}
	case ConjunctionOr:
		if len(exprs) > 0 {
			if len(exprs) == 1 {
				t.ServerQuery = exprs[0]
			} else {
				t.ServerQuery = "{" + strings.Join(exprs, " OR ") + "}"
			}
		}
		if !exact {
			// Omitting untranslatable disjuncts would under-select, so the
			// whole predicate runs client-side over a broadened set.
			t.Residual = newPredicate(r.Conditions, ConjunctionOr)
			t.BroadenCandidates = true
		}
	}

	if t.Residual != nil {
		t.NeedsFullMessage = residualNeedsFull(r.Conditions)
	}
	return t
}

// residualNeedsFull reports whether any condition inspects data absent
// from a metadata-format fetch.
func residualNeedsFull(conds []Condition) bool {
	for _, c := range conds {
		switch c.Field {
		case FieldBodySnippet, FieldAttachmentFilename, FieldHasAttachment:
			return true
		}
	}
	return false
}

// serverExpr returns the Gmail search expression for a condition, whether
// the condition is translatable at all, and a warning for invalid values.
func serverExpr(c Condition) (expr string, translatable bool, warning string) {
	switch c.Field {
	case FieldFrom, FieldTo, FieldCC:
		op := string(c.Field)
		switch c.Operator {
		case OpContains:
			return op + ":" + escapeValue(c.Value, false), true, ""
		case OpEquals:
			return op + ":" + escapeValue(c.Value, true), true, ""
		}

	case FieldSubject:
		switch c.Operator {
		case OpContains:
			return "subject:" + escapeValue(c.Value, false), true, ""
		case OpEquals:
			return "subject:" + escapeValue(c.Value, true), true, ""
		}

	case FieldLabel:
		if c.Operator == OpContains {
			return "label:" + escapeValue(c.Value, false), true, ""
		}

	case FieldHasAttachment:
		if c.Operator == OpIs {
			if c.Value == "true" {
				return "has:attachment", true, ""
			}
			return "-has:attachment", true, ""
		}

	case FieldAttachmentFilename:
		switch c.Operator {
		case OpContains:
			return "filename:" + escapeValue(c.Value, false), true, ""
		case OpEquals:
			return "filename:" + escapeValue(c.Value, true), true, ""
		}

	case FieldMessageSize:
		if _, err := ParseSizeValue(c.Value); err != nil {
			return "", false, fmt.Sprintf("message_size %s %q: %v", c.Operator, c.Value, err)
		}
		switch c.Operator {
		case OpGreaterThan:
			return "larger:" + c.Value, true, ""
		case OpLessThan:
			return "smaller:" + c.Value, true, ""
		}

	case FieldDateAge:
		if _, err := ParseAgeValue(c.Value); err != nil {
			return "", false, fmt.Sprintf("date_age %s %q: %v", c.Operator, c.Value, err)
		}
		switch c.Operator {
		case OpOlderThan:
			return "older_than:" + c.Value, true, ""
		case OpNewerThan:
			return "newer_than:" + c.Value, true, ""
		}
	}

	// Negations, prefix/suffix matches, regexes, and body inspection have
	// no Gmail operator; they run client-side.
	return "", false, ""
}

// escapeValue renders a search operand. Values containing spaces or quotes
// use double-quoted form with embedded quotes backslash-escaped; forceQuote
// requests quoting regardless (exact-match semantics).
func escapeValue(v string, forceQuote bool) string {
	if forceQuote || strings.ContainsAny(v, " \"") {
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return v
}

// CombineQueries joins query fragments with implicit AND, dropping empties.
func CombineQueries(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
