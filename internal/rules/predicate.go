package rules

import (
	"regexp"
	"strings"
	"time"

	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
)

// Predicate is the client-side check applied to fetched details when a
// rule's conditions cannot be fully pushed down to the server query.
type Predicate struct {
	conds []Condition
	conj  Conjunction
	now   func() time.Time
}

func newPredicate(conds []Condition, conj Conjunction) *Predicate {
	return &Predicate{conds: conds, conj: conj, now: time.Now}
}

// Conditions exposes the evaluated condition set.
func (p *Predicate) Conditions() []Condition { return p.conds }

// RequiredHeaders names the metadata headers the predicate inspects, for
// inclusion in listing fetches.
func (p *Predicate) RequiredHeaders() []string {
	seen := make(map[string]struct{})
	var headers []string
	add := func(h string) {
		if _, ok := seen[h]; !ok {
			seen[h] = struct{}{}
			headers = append(headers, h)
		}
	}
	for _, c := range p.conds {
		switch c.Field {
		case FieldFrom:
			add("From")
		case FieldTo:
			add("To")
		case FieldCC:
			add("Cc")
		case FieldSubject:
			add("Subject")
		}
	}
	return headers
}

// Matches evaluates the predicate against fetched details. labelNamesByID
// resolves the message's label IDs for label conditions; a nil map makes
// label conditions evaluate against the raw IDs.
func (p *Predicate) Matches(d gmailapi.EmailDetails, labelNamesByID map[string]string) bool {
	if p.conj == ConjunctionOr {
		for _, c := range p.conds {
			if p.matchCondition(c, d, labelNamesByID) {
				return true
			}
		}
		return false
	}
	for _, c := range p.conds {
		if !p.matchCondition(c, d, labelNamesByID) {
			return false
		}
	}
	return true
}

func (p *Predicate) matchCondition(c Condition, d gmailapi.EmailDetails, labelNamesByID map[string]string) bool {
	switch c.Field {
	case FieldFrom:
		return matchString(c.Operator, d.From, c.Value)
	case FieldTo:
		return matchString(c.Operator, d.To, c.Value)
	case FieldCC:
		return matchString(c.Operator, d.CC, c.Value)
	case FieldSubject:
		return matchString(c.Operator, d.Subject, c.Value)

	case FieldBodySnippet:
		text := d.Snippet
		if d.Body != "" {
			text = d.Body
		}
		return matchString(c.Operator, text, c.Value)

	case FieldLabel:
		matched := false
		for _, id := range d.LabelIDs {
			name := id
			if n, ok := labelNamesByID[id]; ok {
				name = n
			}
			if matchString(positive(c.Operator), name, c.Value) {
				matched = true
				break
			}
		}
		if isNegated(c.Operator) {
			return !matched
		}
		return matched

	case FieldHasAttachment:
		return (len(d.Attachments) > 0) == (c.Value == "true")

	case FieldAttachmentFilename:
		matched := false
		for _, a := range d.Attachments {
			if matchString(positive(c.Operator), a.Filename, c.Value) {
				matched = true
				break
			}
		}
		if isNegated(c.Operator) {
			return !matched
		}
		return matched

	case FieldMessageSize:
		threshold, err := ParseSizeValue(c.Value)
		if err != nil {
			return false
		}
		switch c.Operator {
		case OpGreaterThan:
			return d.SizeEstimate > threshold
		case OpLessThan:
			return d.SizeEstimate < threshold
		}
		return false

	case FieldDateAge:
		age, err := ParseAgeValue(c.Value)
		if err != nil {
			return false
		}
		cutoff := p.now().Add(-age).UnixMilli()
		switch c.Operator {
		case OpOlderThan:
			return d.InternalDate < cutoff
		case OpNewerThan:
			return d.InternalDate >= cutoff
		}
		return false
	}
	return false
}

// isNegated reports whether the operator inverts its base comparison.
func isNegated(op Operator) bool {
	return op == OpNotContains || op == OpNotEquals
}

// positive maps a negated operator to its base comparison.
func positive(op Operator) Operator {
	switch op {
	case OpNotContains:
		return OpContains
	case OpNotEquals:
		return OpEquals
	default:
		return op
	}
}

// matchString applies a string operator case-insensitively, matching
// Gmail's own operator semantics. Regexes run as written.
func matchString(op Operator, haystack, needle string) bool {
	h := strings.ToLower(haystack)
	n := strings.ToLower(needle)
	switch op {
	case OpContains:
		return strings.Contains(h, n)
	case OpNotContains:
		return !strings.Contains(h, n)
	case OpEquals:
		return h == n
	case OpNotEquals:
		return h != n
	case OpStartsWith:
		return strings.HasPrefix(h, n)
	case OpEndsWith:
		return strings.HasSuffix(h, n)
	case OpMatchesRegex:
		re, err := regexp.Compile(needle)
		if err != nil {
			return false
		}
		return re.MatchString(haystack)
	default:
		return false
	}
}
