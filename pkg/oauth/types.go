package oauth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// epochThreshold separates an expires_in given as a lifetime in seconds from
// one given as an absolute unix timestamp. Some server versions send the latter.
const epochThreshold = 1_000_000_000

// TokenResponse is the body returned by the token endpoint.
type TokenResponse struct {
	// AccessToken is the bearer token (a JWT).
	AccessToken string `json:"access_token"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// ToOAuth2Token converts the response to an oauth2.Token. The expiry is taken
// from the JWT "exp" claim when present, otherwise from ExpiresIn.
func (r *TokenResponse) ToOAuth2Token(now time.Time) *oauth2.Token {
	// The server reports non-standard types such as "oauth"; the API only
	// accepts the token as a Bearer credential.
	token := &oauth2.Token{
		AccessToken: r.AccessToken,
		TokenType:   "Bearer",
	}

	if exp, ok := jwtExpiry(r.AccessToken); ok {
		token.Expiry = exp
		return token
	}

	switch {
	case r.ExpiresIn > epochThreshold:
		token.Expiry = time.Unix(r.ExpiresIn, 0).UTC()
	case r.ExpiresIn > 0:
		token.Expiry = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return token
}

// Subject returns the "sub" claim of a JWT bearer token without verifying it.
// It is only used for diagnostics.
func Subject(accessToken string) string {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return ""
	}
	return claims.Subject
}

func jwtExpiry(accessToken string) (time.Time, bool) {
	if strings.Count(accessToken, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.UTC(), true
}
