// Package console is the HTTP client for the Satori management API.
//
// It covers the four calls the login flow needs: exchanging an
// authorization code for a bearer token, reading the caller's profile,
// issuing ephemeral database credentials and listing the datastores the
// caller can access. Every request carries a fixed User-Agent and the
// client can be told to accept self-signed certificates.
//
// Failures are typed: TransportError for network problems, StatusError for
// unexpected status codes (unwrapping to ErrUnauthorized, ErrForbidden,
// ErrBadRequest or ErrUserNotFound where applicable) and DecodeError for
// malformed bodies.
package console
