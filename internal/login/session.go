package login

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Session holds the secrets of one authorization round-trip: the expected
// state, the PKCE verifier and the token slot filled by the callback.
// State and verifier are write-once. The token slot accepts only the first
// token offered to it.
type Session struct {
	mu       sync.Mutex
	state    string
	verifier string
	tokenSet bool
	tokenCh  chan *oauth2.Token
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{tokenCh: make(chan *oauth2.Token, 1)}
}

// SetState registers the expected anti-CSRF state.
func (s *Session) SetState(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != "" {
		return ErrSecretAlreadySet
	}
	s.state = state
	return nil
}

// SetVerifier registers the PKCE code verifier.
func (s *Session) SetVerifier(verifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verifier != "" {
		return ErrSecretAlreadySet
	}
	s.verifier = verifier
	return nil
}

// Verifier returns the registered verifier.
func (s *Session) Verifier() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifier, s.verifier != ""
}

// CheckState validates a state received on the callback.
func (s *Session) CheckState(received string) error {
	s.mu.Lock()
	expected := s.state
	s.mu.Unlock()

	if expected == "" {
		return ErrExpectedStateNotSet
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
		return ErrStateNotMatch
	}
	return nil
}

// Offer stores the token if the slot is still empty and reports whether it did.
func (s *Session) Offer(token *oauth2.Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokenSet {
		return false
	}
	s.tokenSet = true
	s.tokenCh <- token
	return true
}

// Wait blocks until a token is offered, the timeout elapses or ctx is done.
func (s *Session) Wait(ctx context.Context, timeout time.Duration) (*oauth2.Token, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case token := <-s.tokenCh:
		return token, nil
	case <-timer.C:
		return nil, ErrCallbackTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
