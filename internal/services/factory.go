// Package services builds authenticated Gmail API clients per user.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/inboxctl/gmail-automation-mcp/internal/auth"
	"github.com/inboxctl/gmail-automation-mcp/internal/gmailapi"
)

// Factory manages authenticated Gmail clients per user email. HTTP
// clients are cached with ReuseTokenSource for concurrency-safe
// auto-refresh. The gmailapi.Client wrappers are cached too so rate
// limiter buckets and the in-flight semaphore are shared by every tool
// call for the same user.
type Factory struct {
	oauthConfig *oauth2.Config
	tokenStore  auth.TokenStore
	gmailOpts   gmailapi.Options
	log         *slog.Logger

	mu         sync.RWMutex
	clients    map[string]*http.Client
	apiClients map[string]*gmailapi.Client
}

// NewFactory creates a service factory backed by the given OAuth manager.
func NewFactory(oauthMgr *auth.OAuthManager, gmailOpts gmailapi.Options, log *slog.Logger) *Factory {
	if log == nil {
		log = slog.Default()
	}
	return &Factory{
		oauthConfig: oauthMgr.Config(),
		tokenStore:  oauthMgr.TokenStore(),
		gmailOpts:   gmailOpts,
		log:         log,
		clients:     make(map[string]*http.Client),
		apiClients:  make(map[string]*gmailapi.Client),
	}
}

// HTTPClient returns a cached, auto-refreshing HTTP client for the user.
// The client and its token source are built on context.Background() so
// they outlive any single request context; individual API calls pass
// their own request context per call.
func (f *Factory) HTTPClient(ctx context.Context, userEmail string) (*http.Client, error) {
	f.mu.RLock()
	client, ok := f.clients[userEmail]
	f.mu.RUnlock()
	if ok {
		return client, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock
	if client, ok := f.clients[userEmail]; ok {
		return client, nil
	}

	token, err := f.tokenStore.Load(userEmail)
	if err != nil {
		return nil, err
	}

	bgCtx := context.Background()
	baseSource := f.oauthConfig.TokenSource(bgCtx, token)
	reuseSource := oauth2.ReuseTokenSource(token, &auth.PersistingTokenSource{
		Base:      baseSource,
		Store:     f.tokenStore,
		UserEmail: userEmail,
	})

	client = oauth2.NewClient(bgCtx, reuseSource)
	f.clients[userEmail] = client
	return client, nil
}

// InvalidateClient removes the cached clients for a user, forcing the
// next API call to rebuild them from the latest persisted token. Call
// this after re-authentication to ensure fresh credentials are picked up.
func (f *Factory) InvalidateClient(userEmail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, userEmail)
	delete(f.apiClients, userEmail)
}

// Gmail returns the rate-limited Gmail client wrapper for the given user.
func (f *Factory) Gmail(ctx context.Context, userEmail string) (*gmailapi.Client, error) {
	f.mu.RLock()
	client, ok := f.apiClients[userEmail]
	f.mu.RUnlock()
	if ok {
		return client, nil
	}

	httpClient, err := f.HTTPClient(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("gmail client for %s: %w", userEmail, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if client, ok := f.apiClients[userEmail]; ok {
		return client, nil
	}
	client = gmailapi.NewClient(svc, httpClient, f.gmailOpts, f.log.With("user", userEmail))
	f.apiClients[userEmail] = client
	return client, nil
}
