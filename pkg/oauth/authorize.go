package oauth

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

const (
	// AuthorizePath is the authorization endpoint relative to the domain.
	AuthorizePath = "/oauth/authorize"

	// FinishPath is the page the browser lands on once the code was handed over.
	FinishPath = "/oauth/authorize/finish"

	// TokenPath is the token endpoint relative to the domain.
	TokenPath = "/api/oauth/token"
)

// AuthorizationRequest describes one authorization URL.
type AuthorizationRequest struct {
	Domain        string
	ClientID      string
	RedirectURI   string
	State         string
	CodeChallenge string
}

// FinishURL returns the fixed completion page of a domain.
func FinishURL(domain string) string {
	return strings.TrimSuffix(domain, "/") + FinishPath
}

// AuthorizationURL builds {domain}/oauth/authorize with the PKCE S256
// parameters, the state and the redirect target.
func AuthorizationURL(req AuthorizationRequest) (string, error) {
	base := strings.TrimSuffix(req.Domain, "/")
	u, err := url.Parse(base + AuthorizePath)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid domain %q", req.Domain)
	}

	cfg := oauth2.Config{
		ClientID:    req.ClientID,
		RedirectURL: req.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  u.String(),
			TokenURL: base + TokenPath,
		},
	}

	return cfg.AuthCodeURL(req.State,
		oauth2.SetAuthURLParam("code_challenge", req.CodeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", ChallengeMethodS256),
	), nil
}
