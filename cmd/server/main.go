package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxctl/gmail-automation-mcp/internal/auth"
	"github.com/inboxctl/gmail-automation-mcp/internal/config"
	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
	"github.com/inboxctl/gmail-automation-mcp/internal/middleware"
	"github.com/inboxctl/gmail-automation-mcp/internal/policy"
	"github.com/inboxctl/gmail-automation-mcp/internal/registry"
	"github.com/inboxctl/gmail-automation-mcp/internal/rules"
	"github.com/inboxctl/gmail-automation-mcp/internal/services"
	"github.com/inboxctl/gmail-automation-mcp/internal/session"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/drafts"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/emails"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/ruletools"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/settings"
	"github.com/inboxctl/gmail-automation-mcp/internal/tools/threads"
)

func main() {
	// Structured logging to stderr (stdout is reserved for MCP stdio transport)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := run(ctx, logger); err != nil {
		cancel()
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
	cancel()
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Set log level from config
	switch cfg.LogLevel {
	case "debug":
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case "warn":
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	case "error":
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	slog.SetDefault(logger)

	// Initialize token store
	tokenStore, err := auth.NewFileTokenStore(cfg.CredentialsDir)
	if err != nil {
		return fmt.Errorf("initializing token store: %w", err)
	}

	// Create OAuth manager. The redirect URL points at our own callback
	// handler, which only serves requests in HTTP transport mode.
	redirectURL := fmt.Sprintf("http://localhost:%d/oauth/callback", cfg.Server.Port)
	oauthMgr := auth.NewOAuthManager(
		cfg.OAuth.ClientID,
		cfg.OAuth.ClientSecret,
		redirectURL,
		auth.AllScopes(),
		tokenStore,
	)

	// Create the service factory. Gmail clients are cached per user so
	// rate limiter state survives across tool calls.
	factory := services.NewFactory(oauthMgr, gmailapi.Options{
		MaxRetries:     cfg.MaxRetries,
		MaxInFlight:    int64(cfg.MaxInFlightGmail),
		CallTimeout:    cfg.DefaultTimeout,
		BatchSize:      cfg.BatchSize,
		ReadTPS:        cfg.RateLimitReadTPS,
		WriteTPS:       cfg.RateLimitWriteTPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	// Load the rollout phase configuration
	phaseConfig, err := config.LoadPhases(cfg.PhaseConfigPath)
	if err != nil {
		return fmt.Errorf("loading phase config: %w", err)
	}
	gate, err := config.NewPhaseGate(phaseConfig, cfg.CurrentPhase)
	if err != nil {
		return fmt.Errorf("initializing phase gate: %w", err)
	}

	ruleStore := rules.NewStore(cfg.RulesPath)
	guard := &policy.Guard{RequireConfirmation: cfg.RequireConfirmationForDestructive}

	// Session history store. A broken database degrades the server to
	// in-memory history rather than refusing to start.
	var sessionStore session.Store
	sqlStore, err := session.Open(cfg.SessionDBPath, cfg.SessionTTL, logger)
	if err != nil {
		logger.Warn("session database unavailable, using in-memory history",
			"path", cfg.SessionDBPath,
			"error", err,
		)
		sessionStore = session.NewMemoryStore(cfg.SessionTTL)
	} else {
		sessionStore = sqlStore
	}
	defer sessionStore.Close()

	// Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "gmail-automation-mcp",
		Version: "1.0.0",
	}, nil)

	// Wire SDK middleware
	server.AddReceivingMiddleware(
		middleware.LoggingMiddleware(logger),
		middleware.NormalizeArgsMiddleware(),
		middleware.PhaseGateMiddleware(gate, logger),
		middleware.SessionRecorderMiddleware(sessionStore, logger),
		middleware.AuthEnhancerMiddleware(oauthMgr),
	)

	// Register all tools through the registry
	registry.RegisterAll(server, registry.Deps{
		Emails:  emails.Deps{Factory: factory, Guard: guard},
		Threads: threads.Deps{Factory: factory, Guard: guard},
		Drafts:  drafts.Deps{Factory: factory, Guard: guard},
		Rules: ruletools.Deps{
			Factory:              factory,
			Store:                ruleStore,
			Guard:                guard,
			Log:                  logger,
			DefaultWindowDays:    cfg.DefaultDateWindowDays,
			DefaultScanLimit:     cfg.DefaultScanLimit,
			ApplyTimeout:         cfg.ApplyRulesTimeout,
			AllowPermanentDelete: cfg.AllowRulePermanentDelete,
		},
		Settings: settings.Deps{Factory: factory, Guard: guard},
	})

	slog.Info("starting Gmail automation MCP server",
		"transport", cfg.Server.Transport,
		"phase", gate.Current(),
		"exposedTools", len(gate.Exposed()),
	)

	// Start server on selected transport
	switch cfg.Server.Transport {
	case "stdio":
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
			return fmt.Errorf("stdio server error: %w", err)
		}

	case "streamable-http":
		mcpHandler := mcp.NewStreamableHTTPHandler(
			func(r *http.Request) *mcp.Server { return server },
			nil,
		)

		// Use a mux to route /oauth/callback separately from MCP
		mux := http.NewServeMux()
		mux.Handle("/mcp", mcpHandler)
		mux.HandleFunc("/oauth/callback", auth.OAuthCallbackHandler(oauthMgr, factory))

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		httpServer := &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			slog.Info("shutting down HTTP server")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}
		}()

		slog.Info("listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}

	default:
		return fmt.Errorf("unknown transport %q — use 'stdio' or 'streamable-http'", cfg.Server.Transport)
	}

	return nil
}
