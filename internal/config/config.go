package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all server configuration loaded from environment variables and CLI flags.
type Config struct {
	OAuth struct {
		ClientID     string
		ClientSecret string
	}
	Server struct {
		Transport string
		Port      int
		Host      string
	}
	LogLevel string

	CredentialsDir  string
	RulesPath       string
	SessionDBPath   string
	PhaseConfigPath string

	RateLimitReadTPS  int
	RateLimitWriteTPS int
	RateLimitBurst    int
	MaxInFlightGmail  int
	BatchSize         int
	MaxRetries        int

	DefaultTimeout    time.Duration
	ApplyRulesTimeout time.Duration
	SessionTTL        time.Duration

	DefaultScanLimit      int
	DefaultDateWindowDays int
	CurrentPhase          int

	RequireConfirmationForDestructive bool
	AllowRulePermanentDelete          bool
}

// Load reads configuration from environment variables and CLI flags.
// CLI flags take precedence over environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	// Environment variables
	cfg.OAuth.ClientID = os.Getenv("GOOGLE_OAUTH_CLIENT_ID")
	cfg.OAuth.ClientSecret = os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET")

	cfg.CredentialsDir = os.Getenv("GMAIL_MCP_CREDENTIALS_DIR")
	if cfg.CredentialsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfg.CredentialsDir = filepath.Join(home, ".gmail_automation_mcp")
	}
	cfg.RulesPath = envOrDefault("GMAIL_MCP_RULES_PATH", filepath.Join(cfg.CredentialsDir, "rules.json"))
	cfg.SessionDBPath = envOrDefault("GMAIL_MCP_SESSION_DB", filepath.Join(cfg.CredentialsDir, "sessions.db"))
	cfg.PhaseConfigPath = envOrDefault("GMAIL_MCP_PHASE_CONFIG", "configs/tool_phases.yaml")

	cfg.Server.Host = envOrDefault("GMAIL_MCP_HOST", "0.0.0.0")
	cfg.Server.Transport = envOrDefault("MCP_TRANSPORT", "stdio")
	cfg.LogLevel = envOrDefault("LOG_LEVEL", "info")

	cfg.RequireConfirmationForDestructive = envBoolDefault("GMAIL_MCP_REQUIRE_CONFIRMATION", true)
	cfg.AllowRulePermanentDelete = envBool("GMAIL_MCP_ALLOW_RULE_PERMANENT_DELETE")

	var err error
	if cfg.Server.Port, err = envInt("MCP_PORT", 8000); err != nil {
		return nil, err
	}
	if cfg.RateLimitReadTPS, err = envInt("GMAIL_MCP_READ_TOKENS_PER_SECOND", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitWriteTPS, err = envInt("GMAIL_MCP_WRITE_TOKENS_PER_SECOND", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = envInt("GMAIL_MCP_RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.MaxInFlightGmail, err = envInt("GMAIL_MCP_MAX_IN_FLIGHT", 16); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = envInt("GMAIL_MCP_BATCH_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = envInt("GMAIL_MCP_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.DefaultScanLimit, err = envInt("GMAIL_MCP_DEFAULT_SCAN_LIMIT", 0); err != nil {
		return nil, err
	}
	if cfg.DefaultDateWindowDays, err = envInt("GMAIL_MCP_DEFAULT_DATE_WINDOW_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.CurrentPhase, err = envInt("GMAIL_MCP_PHASE", 3); err != nil {
		return nil, err
	}

	timeoutMS, err := envInt("GMAIL_MCP_DEFAULT_TIMEOUT_MS", 30000)
	if err != nil {
		return nil, err
	}
	cfg.DefaultTimeout = time.Duration(timeoutMS) * time.Millisecond

	applyMS, err := envInt("GMAIL_MCP_APPLY_RULES_TIMEOUT_MS", 600000)
	if err != nil {
		return nil, err
	}
	cfg.ApplyRulesTimeout = time.Duration(applyMS) * time.Millisecond

	ttlHours, err := envInt("GMAIL_MCP_SESSION_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = time.Duration(ttlHours) * time.Hour

	// CLI flags override env vars
	flag.StringVar(&cfg.Server.Transport, "transport", cfg.Server.Transport, "Transport mode: stdio or streamable-http")
	flag.IntVar(&cfg.CurrentPhase, "phase", cfg.CurrentPhase, "Rollout phase controlling which tools are exposed")
	flag.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "Path to the rules JSON document")
	flag.StringVar(&cfg.PhaseConfigPath, "phase-config", cfg.PhaseConfigPath, "Path to the tool phases YAML file")
	flag.Parse()

	// Validate required fields
	if cfg.OAuth.ClientID == "" {
		return nil, fmt.Errorf("GOOGLE_OAUTH_CLIENT_ID environment variable is required")
	}
	if cfg.OAuth.ClientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_OAUTH_CLIENT_SECRET environment variable is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return envBool(key)
}
