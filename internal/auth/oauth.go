package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthManager handles OAuth2 configuration, the consent URL, and code
// exchange. The state parameter round-trips the user's email through
// Google's redirect, signed so the callback can trust it.
type OAuthManager struct {
	config     *oauth2.Config
	tokenStore TokenStore
}

func NewOAuthManager(clientID, clientSecret, redirectURL string, scopes []string, store TokenStore) *OAuthManager {
	return &OAuthManager{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		tokenStore: store,
	}
}

// GetAuthURL returns the consent URL for a user. The embedded state is
// the signed email, so the callback knows which mailbox the returning
// code belongs to.
func (m *OAuthManager) GetAuthURL(userEmail string) string {
	return m.config.AuthCodeURL(m.signState(userEmail), oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode exchanges an authorization code for a token and persists it.
func (m *OAuthManager) ExchangeCode(ctx context.Context, code, userEmail string) (*oauth2.Token, error) {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging auth code: %w", err)
	}
	if err := m.tokenStore.Save(userEmail, token); err != nil {
		return nil, fmt.Errorf("saving token for %s: %w", userEmail, err)
	}
	return token, nil
}

// VerifyAndExtractEmail checks the signature on a returned state value
// and extracts the email it carries. A forged or tampered state
// returns false.
func (m *OAuthManager) VerifyAndExtractEmail(state string) (string, bool) {
	i := strings.LastIndex(state, ":")
	if i <= 0 {
		return "", false
	}
	email, sig := state[:i], state[i+1:]
	if !hmac.Equal([]byte(sig), []byte(m.hmacSign(email))) {
		return "", false
	}
	return email, true
}

// signState encodes an email as "email:signature".
func (m *OAuthManager) signState(email string) string {
	return email + ":" + m.hmacSign(email)
}

// hmacSign signs with the OAuth client secret, the one secret the
// server already holds on both legs of the flow.
func (m *OAuthManager) hmacSign(email string) string {
	mac := hmac.New(sha256.New, []byte(m.config.ClientSecret))
	mac.Write([]byte(email))
	return hex.EncodeToString(mac.Sum(nil))
}

// Config returns the underlying oauth2.Config for building token sources.
func (m *OAuthManager) Config() *oauth2.Config {
	return m.config
}

// TokenStore returns the underlying token store.
func (m *OAuthManager) TokenStore() TokenStore {
	return m.tokenStore
}
