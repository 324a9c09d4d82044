package auth

// BaseScopes are always required for user identity.
var BaseScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"openid",
}

// GmailScopes cover everything the server does: mailbox reads and
// modifications, label management, draft send, and basic settings.
var GmailScopes = []string{
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.labels",
	"https://www.googleapis.com/auth/gmail.settings.basic",
}

// AllScopes returns the combined scope set requested during authorization.
func AllScopes() []string {
	seen := make(map[string]bool)
	var scopes []string
	for _, group := range [][]string{BaseScopes, GmailScopes} {
		for _, s := range group {
			if !seen[s] {
				scopes = append(scopes, s)
				seen[s] = true
			}
		}
	}
	return scopes
}
