package auth

import (
	"fmt"
	"log/slog"
	"net/http"
)

// ClientInvalidator is called after successful OAuth to clear cached API clients.
type ClientInvalidator interface {
	InvalidateClient(userEmail string)
}

// OAuthCallbackHandler returns an http.HandlerFunc for the OAuth 2.0
// callback, mounted only in HTTP transport mode. It verifies the signed
// state, exchanges the authorization code for a token, and persists it.
// If invalidator is non-nil, cached API clients are evicted on
// successful auth so the next call picks up the fresh token.
func OAuthCallbackHandler(oauthMgr *OAuthManager, invalidator ClientInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		errMsg := r.URL.Query().Get("error")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if errMsg != "" {
			slog.Error("OAuth callback error", "error", errMsg)
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, renderPage("Authorization failed", errMsg))
			return
		}
		if code == "" {
			slog.Error("OAuth callback missing code")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, renderPage("Authorization failed", "No authorization code received from Google."))
			return
		}
		userEmail, ok := oauthMgr.VerifyAndExtractEmail(state)
		if !ok {
			slog.Error("OAuth callback state failed verification")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, renderPage("Authorization failed", "Invalid OAuth state. Restart the authorization flow."))
			return
		}

		if _, err := oauthMgr.ExchangeCode(r.Context(), code, userEmail); err != nil {
			slog.Error("OAuth token exchange failed", "email", userEmail, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, renderPage("Authorization failed", fmt.Sprintf("Token exchange failed: %v", err)))
			return
		}

		// Evict any cached HTTP client so the next API call rebuilds from
		// the freshly persisted token instead of reusing a stale one.
		if invalidator != nil {
			invalidator.InvalidateClient(userEmail)
		}

		slog.Info("OAuth authorization successful", "email", userEmail)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, renderPage("Gmail connected",
			fmt.Sprintf("Credentials stored for %s. You can close this window.", userEmail)))
	}
}

func renderPage(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: system-ui, sans-serif; max-width: 32em; margin: 4em auto;">
  <h1>%s</h1>
  <p>%s</p>
</body>
</html>`, title, title, message)
}
