// Package login obtains a bearer token through the OAuth2 authorization code
// flow with PKCE.
//
// Two paths exist. The browser path starts a CallbackServer on 127.0.0.1,
// opens the authorization URL and waits for the redirect, which is checked
// against the Session's state before the code is exchanged. The manual path
// prints the authorization URL and reads the base64-encoded redirect query the
// finish page displays.
package login
