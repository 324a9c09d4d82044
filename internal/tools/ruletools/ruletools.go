// Package ruletools registers the rule management and rule application
// tools over the rule store and engine.
package ruletools

import (
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/pkg/ptr"
	"github.com/inboxctl/gmail-automation-mcp/internal/policy"
	"github.com/inboxctl/gmail-automation-mcp/internal/rules"
	"github.com/inboxctl/gmail-automation-mcp/internal/services"
)

// Deps carries the shared collaborators rule tool handlers need.
type Deps struct {
	Factory *services.Factory
	Store   *rules.Store
	Guard   *policy.Guard
	Log     *slog.Logger

	// DefaultWindowDays is the fallback date window for apply_rules.
	DefaultWindowDays int
	// DefaultScanLimit bounds apply_rules scans when the caller gives none.
	// Zero means unlimited.
	DefaultScanLimit int
	// ApplyTimeout bounds one apply_rules invocation.
	ApplyTimeout time.Duration
	// AllowPermanentDelete gates delete_permanently rule actions.
	AllowPermanentDelete bool
}

// Register registers all rule tools with the MCP server.
func Register(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List the stored filtering rules. summary_view (default true) returns names and action counts; set it false for full definitions.",
		Annotations: &mcp.ToolAnnotations{
			Title:        "List Rules",
			ReadOnlyHint: true,
		},
	}, createListRulesHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_rule_details",
		Description: "Get one rule's full definition by ID or exact name.",
		Annotations: &mcp.ToolAnnotations{
			Title:        "Get Rule Details",
			ReadOnlyHint: true,
		},
	}, createGetRuleDetailsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_rule",
		Description: "Create a filtering rule from conditions and actions. Names must be unique. Returns the stored rule plus any query-translation warnings.",
		Annotations: &mcp.ToolAnnotations{
			Title: "Add Rule",
		},
	}, createAddRuleHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_rule",
		Description: "Delete a stored rule by ID or exact name. Requires confirm=true unless dry_run.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Delete Rule",
			DestructiveHint: ptr.Bool(true),
		},
	}, createDeleteRuleHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_rules",
		Description: "Apply stored rules to the mailbox: translate conditions to Gmail queries, scan candidates, evaluate residual predicates, and execute (or preview with dry_run) the aggregated actions in batches.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Apply Rules",
			DestructiveHint: ptr.Bool(true),
			OpenWorldHint:   ptr.Bool(true),
		},
	}, createApplyRulesHandler(deps))
}
