package login

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/oauth2"

	"satori/pkg/logging"
	pkgoauth "satori/pkg/oauth"
)

// Options configures how a bearer token is obtained.
type Options struct {
	// Domain is the authorization server base URL.
	Domain string

	// ClientID is sent as client_id in the authorization URL.
	ClientID string

	// Port is the callback port; 0 picks an ephemeral one.
	Port int

	// OpenBrowser selects the browser path. When false the user pastes
	// the code read from In.
	OpenBrowser bool

	// Timeout bounds the wait for the browser callback. Zero means CallbackTimeout.
	Timeout time.Duration

	// In and Out are the terminal streams for the manual path and prompts.
	In  io.Reader
	Out io.Writer

	// Spinner shows progress while waiting for the browser.
	Spinner bool

	// Browser opens a URL. Defaults to OpenBrowser.
	Browser func(url string) error
}

// Authenticator runs one PKCE authorization round-trip.
type Authenticator struct {
	exchanger Exchanger
	opts      Options
}

// NewAuthenticator creates an authenticator exchanging codes through exchanger.
func NewAuthenticator(exchanger Exchanger, opts Options) *Authenticator {
	if opts.Timeout <= 0 {
		opts.Timeout = CallbackTimeout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	if opts.Browser == nil {
		opts.Browser = OpenBrowser
	}
	return &Authenticator{exchanger: exchanger, opts: opts}
}

// Token obtains a bearer token through the browser or the manual path.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	pkce, err := pkgoauth.GeneratePKCE()
	if err != nil {
		return nil, err
	}
	state, err := pkgoauth.GenerateState()
	if err != nil {
		return nil, err
	}

	if !a.opts.OpenBrowser {
		return a.manual(ctx, pkce, state)
	}
	return a.browser(ctx, pkce, state)
}

// newBrowserSession registers the secrets the callback server checks.
func newBrowserSession(pkce *pkgoauth.PKCEChallenge, state string) (*Session, error) {
	session := NewSession()
	if err := session.SetState(state); err != nil {
		return nil, err
	}
	if err := session.SetVerifier(pkce.CodeVerifier); err != nil {
		return nil, err
	}
	return session, nil
}

func (a *Authenticator) browser(ctx context.Context, pkce *pkgoauth.PKCEChallenge, state string) (*oauth2.Token, error) {
	session, err := newBrowserSession(pkce, state)
	if err != nil {
		return nil, err
	}

	server := NewCallbackServer(a.opts.Port, session, a.exchanger, pkgoauth.FinishURL(a.opts.Domain))
	redirectURI, err := server.Start(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logging.Debug("Login", "Callback server stopped with error: %v", err)
		}
	}()

	authURL, err := pkgoauth.AuthorizationURL(pkgoauth.AuthorizationRequest{
		Domain:        a.opts.Domain,
		ClientID:      a.opts.ClientID,
		RedirectURI:   redirectURI,
		State:         state,
		CodeChallenge: pkce.CodeChallenge,
	})
	if err != nil {
		return nil, err
	}

	if err := a.opts.Browser(authURL); err != nil {
		logging.Debug("Login", "Failed to open browser: %v", err)
		fmt.Fprintf(a.opts.Out, "Could not open a browser. Go to the following link in your browser:\n\n  %s\n\n", authURL)
	}

	if a.opts.Spinner {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.opts.Out))
		s.Suffix = " Waiting for browser login..."
		s.Start()
		defer s.Stop()
	}

	return session.Wait(ctx, a.opts.Timeout)
}

func (a *Authenticator) manual(ctx context.Context, pkce *pkgoauth.PKCEChallenge, state string) (*oauth2.Token, error) {
	authURL, err := pkgoauth.AuthorizationURL(pkgoauth.AuthorizationRequest{
		Domain:        a.opts.Domain,
		ClientID:      a.opts.ClientID,
		RedirectURI:   pkgoauth.FinishURL(a.opts.Domain),
		State:         state,
		CodeChallenge: pkce.CodeChallenge,
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.opts.Out, "Go to the following link in your browser:\n\n  %s\n\nEnter authorization code: ", authURL)

	code, err := ReadCode(a.opts.In)
	if err != nil {
		return nil, err
	}
	return a.exchanger.ExchangeCode(ctx, code, pkce.CodeVerifier)
}
