//go:build integration

// Package integration contains integration tests that verify full system
// wiring without requiring real Google API credentials.
package integration

import (
	"os"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/auth"
	"github.com/inboxctl/gmail-automation-mcp/internal/config"
	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
	"github.com/inboxctl/gmail-automation-mcp/internal/policy"
	"github.com/inboxctl/gmail-automation-mcp/internal/registry"
	"github.com/inboxctl/gmail-automation-mcp/internal/rules"
	"github.com/inboxctl/gmail-automation-mcp/internal/services"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/drafts"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/emails"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/ruletools"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/settings"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/threads"
)

// Shared state loaded once in TestMain.
var (
	sharedCfg    *config.Config
	sharedPhases *config.PhaseConfig
)

func TestMain(m *testing.M) {
	// Set required env for all tests
	os.Setenv("GOOGLE_OAUTH_CLIENT_ID", "test-client-id")
	os.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "test-client-secret")
	os.Setenv("MCP_TRANSPORT", "stdio")

	tmpDir, err := os.MkdirTemp("", "mcp-integration-*")
	if err != nil {
		panic("creating temp dir: " + err.Error())
	}
	os.Setenv("GMAIL_MCP_CREDENTIALS_DIR", tmpDir)
	defer os.RemoveAll(tmpDir)

	// Load config once (calls flag.Parse)
	cfg, err := config.Load()
	if err != nil {
		panic("loading config: " + err.Error())
	}
	sharedCfg = cfg

	phases, err := config.LoadPhases("../../configs/tool_phases.yaml")
	if err != nil {
		panic("loading phase config: " + err.Error())
	}
	sharedPhases = phases

	os.Exit(m.Run())
}

// createTestServer creates a fully wired MCP server for testing.
func createTestServer(t *testing.T) *mcp.Server {
	t.Helper()

	tokenStore, err := auth.NewFileTokenStore(sharedCfg.CredentialsDir)
	if err != nil {
		t.Fatalf("creating token store: %v", err)
	}

	oauthMgr := auth.NewOAuthManager(
		sharedCfg.OAuth.ClientID,
		sharedCfg.OAuth.ClientSecret,
		"http://localhost:8000/oauth/callback",
		auth.AllScopes(),
		tokenStore,
	)

	factory := services.NewFactory(oauthMgr, gmailapi.Options{}, nil)
	guard := &policy.Guard{RequireConfirmation: true}
	ruleStore := rules.NewStore(sharedCfg.RulesPath)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "gmail-automation-mcp",
		Version: "1.0.0-test",
	}, nil)

	registry.RegisterAll(server, registry.Deps{
		Emails:  emails.Deps{Factory: factory, Guard: guard},
		Threads: threads.Deps{Factory: factory, Guard: guard},
		Drafts:  drafts.Deps{Factory: factory, Guard: guard},
		Rules: ruletools.Deps{
			Factory: factory,
			Store:   ruleStore,
			Guard:   guard,
		},
		Settings: settings.Deps{Factory: factory, Guard: guard},
	})
	return server
}

func TestFullToolRegistration(t *testing.T) {
	server := createTestServer(t)

	if server == nil {
		t.Fatal("server is nil after registration")
	}

	toolCount := 0
	for _, tools := range sharedPhases.Phases {
		toolCount += len(tools)
	}

	expectedTotal := 30
	if toolCount != expectedTotal {
		t.Errorf("phase config has %d tools, expected %d", toolCount, expectedTotal)
	}
}

func TestConfigValues(t *testing.T) {
	if sharedCfg.OAuth.ClientID != "test-client-id" {
		t.Errorf("client ID = %q, want %q", sharedCfg.OAuth.ClientID, "test-client-id")
	}
	if sharedCfg.Server.Transport != "stdio" {
		t.Errorf("transport = %q, want %q", sharedCfg.Server.Transport, "stdio")
	}
}

func TestPhaseCoverage(t *testing.T) {
	gate, err := config.NewPhaseGate(sharedPhases, 1)
	if err != nil {
		t.Fatalf("building phase gate: %v", err)
	}

	tests := []struct {
		name     string
		phase    int
		minTools int
	}{
		{"phase 1 read-only", 1, 12},
		{"phase 2 mutations", 2, 24},
		{"phase 3 full", 3, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := gate.SetPhase(tt.phase); err != nil {
				t.Fatalf("SetPhase(%d): %v", tt.phase, err)
			}
			if got := len(gate.Exposed()); got < tt.minTools {
				t.Errorf("phase %d exposes %d tools, expected at least %d", tt.phase, got, tt.minTools)
			}
		})
	}
}

func TestToolNameValidation(t *testing.T) {
	for _, tools := range sharedPhases.Phases {
		for _, name := range tools {
			if err := registry.ValidateToolName(name); err != nil {
				t.Errorf("tool name %q failed SEP-986 validation: %v", name, err)
			}
		}
	}
}

func TestIrreversibleToolsGatedUntilFinalPhase(t *testing.T) {
	gate, err := config.NewPhaseGate(sharedPhases, 2)
	if err != nil {
		t.Fatalf("building phase gate: %v", err)
	}

	irreversible := []string{
		"delete_emails_permanently",
		"delete_thread_permanently",
		"apply_rules",
		"delete_rule",
	}

	for _, name := range irreversible {
		if gate.Allowed(name) {
			t.Errorf("tool %q should be gated at phase 2", name)
		}
	}

	if err := gate.SetPhase(3); err != nil {
		t.Fatalf("SetPhase(3): %v", err)
	}
	for _, name := range irreversible {
		if !gate.Allowed(name) {
			t.Errorf("tool %q should be exposed at phase 3", name)
		}
	}
}
