package login

import (
	"errors"
	"fmt"
)

var (
	// ErrExpectedStateNotSet is returned by the callback listener when no
	// state was registered for the current login attempt.
	ErrExpectedStateNotSet = errors.New("expected state is not set")

	// ErrStateNotMatch is returned when a callback carries a state other
	// than the one embedded in the authorization URL.
	ErrStateNotMatch = errors.New("state does not match")

	// ErrCodeVerifierNotSet is returned when no PKCE verifier was registered.
	ErrCodeVerifierNotSet = errors.New("code verifier is not set")

	// ErrSecretAlreadySet is returned when a write-once session secret is set twice.
	ErrSecretAlreadySet = errors.New("session secret already set")

	// ErrCallbackTimeout is returned when the browser callback does not arrive in time.
	ErrCallbackTimeout = errors.New("timed out waiting for the browser login to complete")

	// ErrCodeNotFound is returned when the pasted redirect has no code parameter.
	ErrCodeNotFound = errors.New("authorization code not found")
)

// CodeDecodeError wraps a failure to decode the pasted authorization code.
type CodeDecodeError struct {
	Err error
}

func (e *CodeDecodeError) Error() string {
	return fmt.Sprintf("failed to decode authorization code: %v", e.Err)
}

func (e *CodeDecodeError) Unwrap() error { return e.Err }

// IsFlowError reports whether err was produced by the login flow itself
// rather than by the server or the cache.
func IsFlowError(err error) bool {
	var decodeErr *CodeDecodeError
	return errors.Is(err, ErrExpectedStateNotSet) ||
		errors.Is(err, ErrStateNotMatch) ||
		errors.Is(err, ErrCodeVerifierNotSet) ||
		errors.Is(err, ErrSecretAlreadySet) ||
		errors.Is(err, ErrCallbackTimeout) ||
		errors.Is(err, ErrCodeNotFound) ||
		errors.As(err, &decodeErr)
}
