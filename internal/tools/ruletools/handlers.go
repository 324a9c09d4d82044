package ruletools

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/response"
	"github.com/inboxctl/gmail-automation-mcp/internal/rules"
)

// --- list_rules ---

// RuleSummary is the compact listing view of one rule.
type RuleSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IsEnabled      bool   `json:"is_enabled"`
	ConditionCount int    `json:"condition_count"`
	ActionCount    int    `json:"action_count"`
}

// ListRulesInput is the input for list_rules.
type ListRulesInput struct {
	SummaryView *bool `json:"summary_view,omitempty" jsonschema_description:"Return compact summaries (default true); false returns full definitions"`
}

// ListRulesOutput is the structured output for list_rules.
type ListRulesOutput struct {
	Summaries []RuleSummary `json:"rule_summaries,omitempty"`
	Rules     []rules.Rule  `json:"rules,omitempty"`
	Count     int           `json:"count"`
}

func createListRulesHandler(deps Deps) mcp.ToolHandlerFor[ListRulesInput, ListRulesOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListRulesInput) (*mcp.CallToolResult, ListRulesOutput, error) {
		stored, err := deps.Store.List()
		if err != nil {
			return nil, ListRulesOutput{}, gmailapi.ToolError(err)
		}

		summaryView := input.SummaryView == nil || *input.SummaryView

		rb := response.New()
		rb.Header("Rules")
		rb.KeyValue("Count", len(stored))
		rb.Blank()

		output := ListRulesOutput{Count: len(stored)}
		if summaryView {
			for _, r := range stored {
				output.Summaries = append(output.Summaries, RuleSummary{
					ID:             r.ID,
					Name:           r.Name,
					IsEnabled:      r.IsEnabled,
					ConditionCount: len(r.Conditions),
					ActionCount:    len(r.Actions),
				})
				state := "enabled"
				if !r.IsEnabled {
					state = "disabled"
				}
				rb.Item("%s (%s) — %d condition(s), %d action(s), %s", r.Name, r.ID, len(r.Conditions), len(r.Actions), state)
			}
		} else {
			output.Rules = stored
			for _, r := range stored {
				appendRule(rb, r)
			}
		}

		return rb.TextResult(), output, nil
	}
}

// --- get_rule_details ---

// GetRuleDetailsInput is the input for get_rule_details.
type GetRuleDetailsInput struct {
	RuleIDOrName string `json:"rule_id_or_name" jsonschema:"required" jsonschema_description:"Rule ID or exact rule name"`
}

// RuleOutput is the structured output of single-rule operations.
type RuleOutput struct {
	Rule     rules.Rule `json:"rule"`
	Warnings []string   `json:"warnings,omitempty"`
}

func createGetRuleDetailsHandler(deps Deps) mcp.ToolHandlerFor[GetRuleDetailsInput, RuleOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetRuleDetailsInput) (*mcp.CallToolResult, RuleOutput, error) {
		rule, err := deps.Store.Get(input.RuleIDOrName)
		if err != nil {
			return nil, RuleOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		rb.Header("Rule %s", rule.Name)
		appendRule(rb, rule)

		return rb.TextResult(), RuleOutput{Rule: rule}, nil
	}
}

// --- add_rule ---

// RuleDefinition is the caller-supplied part of a rule.
type RuleDefinition struct {
	Name                 string            `json:"name" jsonschema:"required" jsonschema_description:"Unique rule name"`
	Description          string            `json:"description,omitempty" jsonschema_description:"Free-text description"`
	IsEnabled            *bool             `json:"is_enabled,omitempty" jsonschema_description:"Whether apply_rules evaluates this rule (default true)"`
	Conditions           []rules.Condition `json:"conditions" jsonschema:"required" jsonschema_description:"Field/operator/value conditions"`
	ConditionConjunction string            `json:"condition_conjunction,omitempty" jsonschema_description:"AND (default) or OR"`
	Actions              []rules.Action    `json:"actions" jsonschema:"required" jsonschema_description:"Actions applied to matched emails"`
}

func (d RuleDefinition) rule() rules.Rule {
	enabled := d.IsEnabled == nil || *d.IsEnabled
	return rules.Rule{
		Name:                 d.Name,
		Description:          d.Description,
		IsEnabled:            enabled,
		Conditions:           d.Conditions,
		ConditionConjunction: rules.Conjunction(d.ConditionConjunction),
		Actions:              d.Actions,
	}
}

// AddRuleInput is the input for add_rule.
type AddRuleInput struct {
	RuleDefinition RuleDefinition `json:"rule_definition" jsonschema:"required" jsonschema_description:"The rule to store"`
}

func createAddRuleHandler(deps Deps) mcp.ToolHandlerFor[AddRuleInput, RuleOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AddRuleInput) (*mcp.CallToolResult, RuleOutput, error) {
		stored, err := deps.Store.Add(input.RuleDefinition.rule())
		if err != nil {
			return nil, RuleOutput{}, gmailapi.ToolError(err)
		}

		// Translation warnings (unparseable size/age values, operators with
		// no server-side equivalent) do not block creation but the caller
		// should see them now, not at apply time.
		tr := rules.Translate(&stored)

		rb := response.New()
		rb.Header("Rule Created")
		appendRule(rb, stored)
		if len(tr.Warnings) > 0 {
			rb.Blank()
			rb.Section("Warnings")
			for _, w := range tr.Warnings {
				rb.Item("%s", w)
			}
		}

		return rb.TextResult(), RuleOutput{Rule: stored, Warnings: tr.Warnings}, nil
	}
}

// --- delete_rule ---

// DeleteRuleInput is the input for delete_rule.
type DeleteRuleInput struct {
	RuleIdentifier string `json:"rule_identifier" jsonschema:"required" jsonschema_description:"Rule ID or exact rule name"`
	DryRun         bool   `json:"dry_run,omitempty" jsonschema_description:"Preview without deleting"`
	Confirm        bool   `json:"confirm,omitempty" jsonschema_description:"Explicit confirmation for this destructive operation"`
}

// DeleteRuleOutput is the structured output for delete_rule.
type DeleteRuleOutput struct {
	DeletedRule   *rules.Rule `json:"deleted_rule,omitempty"`
	StatusMessage string      `json:"status_message"`
	DryRun        bool        `json:"dry_run,omitempty"`
}

func createDeleteRuleHandler(deps Deps) mcp.ToolHandlerFor[DeleteRuleInput, DeleteRuleOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteRuleInput) (*mcp.CallToolResult, DeleteRuleOutput, error) {
		if err := deps.Guard.CheckDestructive(input.DryRun, input.Confirm); err != nil {
			return nil, DeleteRuleOutput{}, err
		}

		if input.DryRun {
			rule, err := deps.Store.Get(input.RuleIdentifier)
			if err != nil {
				return nil, DeleteRuleOutput{}, gmailapi.ToolError(err)
			}
			msg := fmt.Sprintf("Dry run: rule %q (%s) would be deleted.", rule.Name, rule.ID)
			return response.New().Line("%s", msg).TextResult(), DeleteRuleOutput{StatusMessage: msg, DryRun: true}, nil
		}

		deleted, err := deps.Store.Delete(input.RuleIdentifier)
		if err != nil {
			return nil, DeleteRuleOutput{}, gmailapi.ToolError(err)
		}

		msg := fmt.Sprintf("Rule %q (%s) deleted.", deleted.Name, deleted.ID)
		output := DeleteRuleOutput{DeletedRule: &deleted, StatusMessage: msg}
		return response.New().Line("%s", msg).TextResult(), output, nil
	}
}

// --- apply_rules ---

// ApplyRulesInput is the input for apply_rules.
type ApplyRulesInput struct {
	UserEmail          string   `json:"user_google_email" jsonschema:"required" jsonschema_description:"The user's Google email address"`
	GlobalQuery        string   `json:"global_query,omitempty" jsonschema_description:"Extra Gmail query ANDed with every rule's query"`
	RuleIDs            []string `json:"rule_ids,omitempty" jsonschema_description:"Rule IDs or names to apply; empty applies all enabled rules"`
	DryRun             bool     `json:"dry_run,omitempty" jsonschema_description:"Report planned actions without executing them"`
	ScanLimit          *int     `json:"scan_limit,omitempty" jsonschema_description:"Maximum messages scanned across all rules (default unlimited)"`
	DateAfter          string   `json:"date_after,omitempty" jsonschema_description:"Only consider messages after this date (YYYY/MM/DD)"`
	DateBefore         string   `json:"date_before,omitempty" jsonschema_description:"Only consider messages before this date (YYYY/MM/DD)"`
	AllMail            bool     `json:"all_mail,omitempty" jsonschema_description:"Drop the default 30-day window and scan the whole mailbox"`
	IncludeDetailedIDs bool     `json:"include_detailed_ids,omitempty" jsonschema_description:"Include per-action message ID lists in the summary"`
}

// ApplyRulesOutput is the structured output for apply_rules.
type ApplyRulesOutput struct {
	Summary rules.Summary `json:"summary"`
}

func createApplyRulesHandler(deps Deps) mcp.ToolHandlerFor[ApplyRulesInput, ApplyRulesOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ApplyRulesInput) (*mcp.CallToolResult, ApplyRulesOutput, error) {
		client, err := deps.Factory.Gmail(ctx, input.UserEmail)
		if err != nil {
			return nil, ApplyRulesOutput{}, gmailapi.ToolError(err)
		}

		scanLimit := deps.DefaultScanLimit
		if input.ScanLimit != nil {
			if *input.ScanLimit < 0 {
				return nil, ApplyRulesOutput{}, gmailapi.NewError(gmailapi.KindInvalidInput, "scan_limit must not be negative")
			}
			scanLimit = *input.ScanLimit
		}

		engine := &rules.Engine{
			Client:               client,
			Store:                deps.Store,
			Log:                  deps.Log,
			DefaultWindowDays:    deps.DefaultWindowDays,
			AllowPermanentDelete: deps.AllowPermanentDelete,
		}

		applyCtx := ctx
		if deps.ApplyTimeout > 0 {
			var cancel context.CancelFunc
			applyCtx, cancel = context.WithTimeout(ctx, deps.ApplyTimeout)
			defer cancel()
		}

		summary, err := engine.Apply(applyCtx, rules.ApplyRequest{
			GlobalQuery:        input.GlobalQuery,
			RuleIDs:            input.RuleIDs,
			DryRun:             input.DryRun,
			ScanLimit:          scanLimit,
			DateAfter:          input.DateAfter,
			DateBefore:         input.DateBefore,
			AllMail:            input.AllMail,
			IncludeDetailedIDs: input.IncludeDetailedIDs,
		})
		if err != nil {
			return nil, ApplyRulesOutput{}, gmailapi.ToolError(err)
		}

		rb := response.New()
		if summary.DryRun {
			rb.Header("Rule Application (dry run)")
		} else {
			rb.Header("Rule Application")
		}
		rb.KeyValue("Rules evaluated", summary.RulesEvaluated)
		rb.KeyValue("Messages scanned", summary.TotalMessagesScanned)
		rb.KeyValue("Messages matched", summary.EmailsMatchingAnyRule)
		if summary.ScanLimitReached {
			rb.KeyValue("Scan limit reached", true)
			rb.KeyValue("Rules skipped", summary.SkippedRules)
		}
		if len(summary.Actions) > 0 {
			rb.Blank()
			rb.Section("Actions")
			keys := make([]string, 0, len(summary.Actions))
			for k := range summary.Actions {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				outcome := summary.Actions[k]
				rb.Item("%s: %d message(s)", k, outcome.Count)
				for _, f := range outcome.Failures {
					rb.Line("    failed %s: %s", f.ID, f.Kind)
				}
			}
		}
		if len(summary.RuleErrors) > 0 {
			rb.Blank()
			rb.Section("Rule Errors")
			for _, re := range summary.RuleErrors {
				rb.Item("%s: %s", re.RuleName, re.Message)
			}
		}
		for _, w := range summary.Warnings {
			rb.Line("warning: %s", w)
		}

		return rb.TextResult(), ApplyRulesOutput{Summary: summary}, nil
	}
}

// appendRule writes a rule's full definition to a text response.
func appendRule(rb *response.Builder, r rules.Rule) {
	rb.KeyValue("ID", r.ID)
	rb.KeyValue("Name", r.Name)
	if r.Description != "" {
		rb.KeyValue("Description", r.Description)
	}
	rb.KeyValue("Enabled", r.IsEnabled)
	rb.KeyValue("Conjunction", r.Conj())
	for _, c := range r.Conditions {
		rb.Item("if %s %s %q", c.Field, c.Operator, c.Value)
	}
	for _, a := range r.Actions {
		if a.Parameters.LabelName != "" {
			rb.Item("then %s %q", a.Type, a.Parameters.LabelName)
		} else {
			rb.Item("then %s", a.Type)
		}
	}
	rb.Blank()
}
