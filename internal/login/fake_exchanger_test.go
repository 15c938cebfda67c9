package login

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

type fakeExchanger struct {
	mu        sync.Mutex
	calls     int
	codes     []string
	verifiers []string
	err       error
}

func (f *fakeExchanger) ExchangeCode(_ context.Context, code, verifier string) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.codes = append(f.codes, code)
	f.verifiers = append(f.verifiers, verifier)
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "token-for-" + code, TokenType: "Bearer"}, nil
}

func (f *fakeExchanger) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errExchange = errors.New("exchange failed")
