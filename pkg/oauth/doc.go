// Package oauth holds the OAuth 2.0 building blocks shared by the login flow
// and the console client.
//
// # Core Components
//
//   - PKCE: alphanumeric code verifier and S256 challenge (RFC 7636)
//   - State: random anti-CSRF correlation value, independent of the verifier
//   - AuthorizationURL: {domain}/oauth/authorize with PKCE parameters
//   - TokenResponse: token endpoint body converted to an oauth2.Token
//
// # Usage
//
//	pkce, err := oauth.GeneratePKCE()
//	state, err := oauth.GenerateState()
//	authURL, err := oauth.AuthorizationURL(oauth.AuthorizationRequest{
//	    Domain:        domain,
//	    ClientID:      clientID,
//	    RedirectURI:   "http://localhost:53682",
//	    State:         state,
//	    CodeChallenge: pkce.CodeChallenge,
//	})
package oauth
