package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
)

// MailboxClient is the narrow Gmail surface the engine needs. Satisfied by
// *gmailapi.Client; tests substitute a fake.
type MailboxClient interface {
	ListMessages(ctx context.Context, opt gmailapi.ListOptions) ([]gmailapi.EmailStub, string, error)
	GetMessagesBatch(ctx context.Context, ids []string, format string, headers []string) ([]gmailapi.EmailDetails, []gmailapi.BatchOutcome)
	TrashMessages(ctx context.Context, ids []string) []gmailapi.BatchOutcome
	DeleteMessagesPermanently(ctx context.Context, ids []string) []gmailapi.BatchOutcome
	ModifyMessages(ctx context.Context, ids, addLabelIDs, removeLabelIDs []string) []gmailapi.BatchOutcome
	ResolveLabelNames(ctx context.Context, names []string, createMissing bool) (map[string]string, error)
	ListLabels(ctx context.Context) ([]gmailapi.Label, error)
}

// Engine applies stored rules to the mailbox.
type Engine struct {
	Client MailboxClient
	Store  *Store
	Log    *slog.Logger

	// DefaultWindowDays is the fallback date window when the caller gives
	// neither all_mail nor explicit bounds. Zero means 30.
	DefaultWindowDays int
	// PageSize bounds each listing page. Zero means 100.
	PageSize int64
	// AllowPermanentDelete gates execution of delete_permanently actions.
	AllowPermanentDelete bool
}

// ApplyRequest is the input of one apply_rules invocation.
type ApplyRequest struct {
	GlobalQuery        string
	RuleIDs            []string // ids or names; empty means all enabled rules
	DryRun             bool
	ScanLimit          int // 0 = unlimited; counted across rules
	DateAfter          string
	DateBefore         string
	AllMail            bool
	IncludeDetailedIDs bool
}

// ItemFailure records one per-message action failure.
type ItemFailure struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// ActionOutcome summarises one action key in the summary.
type ActionOutcome struct {
	Count      int           `json:"count"`
	MessageIDs []string      `json:"message_ids,omitempty"`
	Failures   []ItemFailure `json:"failures,omitempty"`
}

// RuleError records a failure confined to one rule.
type RuleError struct {
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Message  string `json:"message"`
}

// Summary is the result of one apply_rules invocation.
type Summary struct {
	TotalMessagesScanned  int                      `json:"total_messages_scanned"`
	EmailsMatchingAnyRule int                      `json:"emails_matching_any_rule"`
	RulesEvaluated        int                      `json:"rules_evaluated"`
	Actions               map[string]ActionOutcome `json:"actions_planned_or_taken"`
	DryRun                bool                     `json:"dry_run"`
	ScanLimitReached      bool                     `json:"scan_limit_reached,omitempty"`
	SkippedRules          []string                 `json:"skipped_due_to_scan_limit,omitempty"`
	RuleErrors            []RuleError              `json:"rule_errors,omitempty"`
	Warnings              []string                 `json:"warnings,omitempty"`
}

// plannedAction accumulates the target set of one action key.
type plannedAction struct {
	action Action
	ids    map[string]struct{}
}

// actionPlan maps action keys to their deduplicated targets. A message ID
// appears at most once per key; two rules may still plan different actions
// for the same message.
type actionPlan map[string]*plannedAction

func (p actionPlan) add(a Action, messageID string) {
	key := a.Key()
	pa, ok := p[key]
	if !ok {
		pa = &plannedAction{action: a, ids: make(map[string]struct{})}
		p[key] = pa
	}
	pa.ids[messageID] = struct{}{}
}

// Apply resolves the active rule set, pages
// candidates per rule under a shared scan budget, evaluate residual
// predicates on batched detail fetches, aggregate actions with
// deduplication, then execute (or simulate) the collapsed batches.
func (e *Engine) Apply(ctx context.Context, req ApplyRequest) (Summary, error) {
	summary := Summary{
		DryRun:  req.DryRun,
		Actions: make(map[string]ActionOutcome),
	}
	log := e.Log
	if log == nil {
		log = slog.Default()
	}

	active, err := e.resolveRules(req.RuleIDs)
	if err != nil {
		return summary, err
	}

	window := e.dateWindow(req)
	pageSize := e.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	plan := make(actionPlan)
	matchedAny := make(map[string]struct{})
	scanned := 0
	var labelNamesByID map[string]string

	for _, rule := range active {
		if req.ScanLimit > 0 && scanned >= req.ScanLimit {
			summary.ScanLimitReached = true
			summary.SkippedRules = append(summary.SkippedRules, rule.Name)
			continue
		}

		tr := Translate(&rule)
		for _, w := range tr.Warnings {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("rule %q: %s", rule.Name, w))
		}

		if tr.Residual != nil && hasLabelCondition(tr.Residual.Conditions()) && labelNamesByID == nil {
			labelNamesByID, err = e.labelNames(ctx)
			if err != nil {
				summary.RuleErrors = append(summary.RuleErrors, RuleError{
					RuleID: rule.ID, RuleName: rule.Name, Message: err.Error(),
				})
				continue
			}
		}

		candidates, ruleScanned, err := e.collectCandidates(ctx, rule, tr, req, window, pageSize, req.ScanLimit, scanned)
		scanned += ruleScanned
		if err != nil {
			summary.RuleErrors = append(summary.RuleErrors, RuleError{
				RuleID: rule.ID, RuleName: rule.Name, Message: err.Error(),
			})
			summary.RulesEvaluated++
			continue
		}

		matched := e.matchCandidates(ctx, rule.Name, tr, candidates, labelNamesByID, &summary)
		for _, id := range matched {
			matchedAny[id] = struct{}{}
			for _, a := range rule.Actions {
				plan.add(a, id)
			}
		}
		summary.RulesEvaluated++

		log.Debug("rule evaluated",
			"rule", rule.Name,
			"candidates", len(candidates),
			"matched", len(matched),
		)
	}

	summary.TotalMessagesScanned = scanned
	summary.EmailsMatchingAnyRule = len(matchedAny)

	e.executePlan(ctx, plan, req, &summary)
	return summary, nil
}

// resolveRules returns the enabled rules, optionally filtered by id/name.
func (e *Engine) resolveRules(idsOrNames []string) ([]Rule, error) {
	all, err := e.Store.List()
	if err != nil {
		return nil, err
	}

	if len(idsOrNames) == 0 {
		var enabled []Rule
		for _, r := range all {
			if r.IsEnabled {
				enabled = append(enabled, r)
			}
		}
		return enabled, nil
	}

	wanted := make(map[string]struct{}, len(idsOrNames))
	for _, id := range idsOrNames {
		wanted[id] = struct{}{}
	}
	var selected []Rule
	for _, r := range all {
		_, byID := wanted[r.ID]
		_, byName := wanted[r.Name]
		if (byID || byName) && r.IsEnabled {
			selected = append(selected, r)
		}
	}
	return selected, nil
}

// dateWindow builds the date constraint for the run. Explicit bounds are
// additive constraints independently of all_mail; the default 30-day
// window applies only when neither all_mail nor bounds are given.
func (e *Engine) dateWindow(req ApplyRequest) string {
	var parts []string
	if req.DateAfter != "" {
		parts = append(parts, "after:"+req.DateAfter)
	}
	if req.DateBefore != "" {
		parts = append(parts, "before:"+req.DateBefore)
	}
	if len(parts) == 0 && !req.AllMail {
		days := e.DefaultWindowDays
		if days <= 0 {
			days = 30
		}
		parts = append(parts, fmt.Sprintf("newer_than:%dd", days))
	}
	return strings.Join(parts, " ")
}

// collectCandidates pages the server query (and, for broadened OR rules,
// the unnarrowed window query) until exhausted or the scan budget runs out.
func (e *Engine) collectCandidates(ctx context.Context, rule Rule, tr Translation, req ApplyRequest, window string, pageSize int64, scanLimit, alreadyScanned int) ([]gmailapi.EmailStub, int, error) {
	queries := []string{CombineQueries(req.GlobalQuery, window, tr.ServerQuery)}
	if tr.BroadenCandidates && tr.ServerQuery != "" {
		// The narrowed query under-selects for OR rules with residual
		// disjuncts; also scan the unnarrowed candidate set and union.
		queries = append(queries, CombineQueries(req.GlobalQuery, window))
	}

	var headers []string
	if tr.Residual != nil {
		headers = tr.Residual.RequiredHeaders()
	}

	seen := make(map[string]struct{})
	var candidates []gmailapi.EmailStub
	scanned := 0

	for _, q := range queries {
		pageToken := ""
		for {
			if scanLimit > 0 && alreadyScanned+scanned >= scanLimit {
				return candidates, scanned, nil
			}
			limit := pageSize
			if scanLimit > 0 {
				if remaining := int64(scanLimit - alreadyScanned - scanned); remaining < limit {
					limit = remaining
				}
			}

			stubs, next, err := e.Client.ListMessages(ctx, gmailapi.ListOptions{
				Query:          q,
				MaxResults:     limit,
				PageToken:      pageToken,
				IncludeHeaders: headers,
			})
			if err != nil {
				return candidates, scanned, err
			}

			for _, s := range stubs {
				if _, dup := seen[s.ID]; dup {
					continue
				}
				seen[s.ID] = struct{}{}
				candidates = append(candidates, s)
				scanned++
			}

			if next == "" {
				break
			}
			pageToken = next
		}
	}
	return candidates, scanned, nil
}

// matchCandidates applies the residual predicate, fetching details in
// batches when needed. Without a residual every candidate matches.
// Candidates whose details could not be fetched are reported as
// warnings and excluded rather than silently dropped.
func (e *Engine) matchCandidates(ctx context.Context, ruleName string, tr Translation, candidates []gmailapi.EmailStub, labelNamesByID map[string]string, summary *Summary) []string {
	matched := make([]string, 0, len(candidates))
	if tr.Residual == nil {
		for _, c := range candidates {
			matched = append(matched, c.ID)
		}
		return matched
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	format := "metadata"
	if tr.NeedsFullMessage {
		format = "full"
	}
	details, outcomes := e.Client.GetMessagesBatch(ctx, ids, format, tr.Residual.RequiredHeaders())
	if _, failures := gmailapi.SummarizeOutcomes(outcomes); len(failures) > 0 {
		for _, f := range failures {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("rule %q: could not fetch %s for matching (%s); message skipped", ruleName, f.ID, f.Kind))
		}
	}
	for _, d := range details {
		if tr.Residual.Matches(d, labelNamesByID) {
			matched = append(matched, d.ID)
		}
	}
	return matched
}

// executePlan collapses the accumulated plan into batched Gmail calls, or
// reports the planned operations under dry_run. Execution is ordered by
// action key for determinism; a failing key never aborts the others.
func (e *Engine) executePlan(ctx context.Context, plan actionPlan, req ApplyRequest, summary *Summary) {
	keys := make([]string, 0, len(plan))
	for k := range plan {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		pa := plan[key]
		ids := sortedIDs(pa.ids)
		outcome := ActionOutcome{}
		if req.IncludeDetailedIDs {
			outcome.MessageIDs = ids
		}

		if req.DryRun {
			outcome.Count = len(ids)
			summary.Actions[key] = outcome
			continue
		}

		results, err := e.executeAction(ctx, pa.action, ids)
		if err != nil {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("action %s: %v", key, err))
			summary.Actions[key] = outcome
			continue
		}
		for _, r := range results {
			if r.OK() {
				outcome.Count++
			} else {
				outcome.Failures = append(outcome.Failures, ItemFailure{
					ID:   r.ID,
					Kind: string(gmailapi.KindOf(r.Err)),
				})
			}
		}
		summary.Actions[key] = outcome
	}
}

// executeAction issues the batched Gmail operation for one action key.
func (e *Engine) executeAction(ctx context.Context, a Action, ids []string) ([]gmailapi.BatchOutcome, error) {
	switch a.Type {
	case ActionTrash:
		return e.Client.TrashMessages(ctx, ids), nil

	case ActionDeletePermanently:
		if !e.AllowPermanentDelete {
			return nil, gmailapi.NewError(gmailapi.KindPolicyDenied,
				"permanent deletion by rules is disabled — enable allow_permanent_delete to run this action")
		}
		return e.Client.DeleteMessagesPermanently(ctx, ids), nil

	case ActionAddLabel, ActionRemoveLabel:
		resolved, err := e.Client.ResolveLabelNames(ctx, []string{a.Parameters.LabelName}, a.Parameters.CreateIfMissing)
		if err != nil {
			return nil, err
		}
		labelID := resolved[a.Parameters.LabelName]
		if a.Type == ActionAddLabel {
			return e.Client.ModifyMessages(ctx, ids, []string{labelID}, nil), nil
		}
		return e.Client.ModifyMessages(ctx, ids, nil, []string{labelID}), nil

	case ActionMarkRead:
		return e.Client.ModifyMessages(ctx, ids, nil, []string{gmailapi.LabelUnread}), nil
	case ActionMarkUnread:
		return e.Client.ModifyMessages(ctx, ids, []string{gmailapi.LabelUnread}, nil), nil

	default:
		return nil, gmailapi.NewError(gmailapi.KindInternal, "unknown action type %q", a.Type)
	}
}

// labelNames fetches the id -> name map for label predicates.
func (e *Engine) labelNames(ctx context.Context) (map[string]string, error) {
	labels, err := e.Client.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]string, len(labels))
	for _, l := range labels {
		byID[l.ID] = l.Name
	}
	return byID, nil
}

func hasLabelCondition(conds []Condition) bool {
	for _, c := range conds {
		if c.Field == FieldLabel {
			return true
		}
	}
	return false
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
