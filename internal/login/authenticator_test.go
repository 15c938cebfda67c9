package login

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgoauth "satori/pkg/oauth"
)

const testDomain = "https://console.example.com"

// completeInBrowser plays the browser: it follows the authorization URL's
// redirect_uri back to the callback server with the given state.
func completeInBrowser(t *testing.T, stateOverride string) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		state := q.Get("state")
		if stateOverride != "" {
			state = stateOverride
		}
		target := q.Get("redirect_uri") + "/?" + url.Values{"state": {state}, "code": {"browser-code"}}.Encode()

		go func() {
			resp, err := noRedirectClient().Get(target)
			if err != nil {
				t.Logf("callback request failed: %v", err)
				return
			}
			resp.Body.Close()
		}()
		return nil
	}
}

func TestAuthenticator_BrowserPath(t *testing.T) {
	exchanger := &fakeExchanger{}
	auth := NewAuthenticator(exchanger, Options{
		Domain:      testDomain,
		ClientID:    "client-1",
		OpenBrowser: true,
		Timeout:     5 * time.Second,
		Out:         &bytes.Buffer{},
		Browser:     completeInBrowser(t, ""),
	})

	token, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-for-browser-code", token.AccessToken)
	assert.Equal(t, 1, exchanger.Calls())
	assert.Len(t, exchanger.verifiers[0], 64)
}

func TestAuthenticator_BrowserPath_WrongStateTimesOut(t *testing.T) {
	exchanger := &fakeExchanger{}
	auth := NewAuthenticator(exchanger, Options{
		Domain:      testDomain,
		OpenBrowser: true,
		Timeout:     200 * time.Millisecond,
		Out:         &bytes.Buffer{},
		Browser:     completeInBrowser(t, "forged"),
	})

	_, err := auth.Token(context.Background())
	assert.ErrorIs(t, err, ErrCallbackTimeout)
	assert.True(t, IsFlowError(err))
	assert.Equal(t, 0, exchanger.Calls())
}

func TestAuthenticator_BrowserFailsPrintsURL(t *testing.T) {
	out := &bytes.Buffer{}
	auth := NewAuthenticator(&fakeExchanger{}, Options{
		Domain:      testDomain,
		ClientID:    "client-1",
		OpenBrowser: true,
		Timeout:     20 * time.Millisecond,
		Out:         out,
		Browser:     func(string) error { return errors.New("no display") },
	})

	_, err := auth.Token(context.Background())
	assert.ErrorIs(t, err, ErrCallbackTimeout)
	assert.Contains(t, out.String(), testDomain+"/oauth/authorize?")
	assert.Contains(t, out.String(), "code_challenge_method=S256")
}

func TestAuthenticator_ManualPath(t *testing.T) {
	exchanger := &fakeExchanger{}
	out := &bytes.Buffer{}
	auth := NewAuthenticator(exchanger, Options{
		Domain:   testDomain,
		ClientID: "client-1",
		In:       strings.NewReader(encode("code=pasted&state=whatever") + "\n"),
		Out:      out,
		Browser: func(string) error {
			t.Fatal("browser must not be opened on the manual path")
			return nil
		},
	})

	token, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-for-pasted", token.AccessToken)
	assert.Equal(t, []string{"pasted"}, exchanger.codes)

	printed := out.String()
	assert.Contains(t, printed, "Enter authorization code")
	assert.Contains(t, printed, "redirect_uri="+url.QueryEscape(testDomain+"/oauth/authorize/finish"))
}

func TestAuthenticator_ManualPath_VerifierMatchesChallenge(t *testing.T) {
	exchanger := &fakeExchanger{}
	out := &bytes.Buffer{}
	auth := NewAuthenticator(exchanger, Options{
		Domain: testDomain,
		In:     strings.NewReader(encode("code=pasted") + "\n"),
		Out:    out,
	})

	_, err := auth.Token(context.Background())
	require.NoError(t, err)
	require.Len(t, exchanger.verifiers, 1)

	var authURL string
	for _, field := range strings.Fields(out.String()) {
		if strings.HasPrefix(field, testDomain) {
			authURL = field
		}
	}
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, pkgoauth.ChallengeFromVerifier(exchanger.verifiers[0]), u.Query().Get("code_challenge"))
}

func TestNewBrowserSession(t *testing.T) {
	pkce, err := pkgoauth.GeneratePKCE()
	require.NoError(t, err)

	session, err := newBrowserSession(pkce, "state-1")
	require.NoError(t, err)

	verifier, ok := session.Verifier()
	assert.True(t, ok)
	assert.Equal(t, pkce.CodeVerifier, verifier)
	assert.NoError(t, session.CheckState("state-1"))
	assert.ErrorIs(t, session.CheckState("state-2"), ErrStateNotMatch)
}

func TestAuthenticator_ManualPath_Errors(t *testing.T) {
	t.Run("no code", func(t *testing.T) {
		exchanger := &fakeExchanger{}
		auth := NewAuthenticator(exchanger, Options{
			Domain: testDomain,
			In:     strings.NewReader(encode("state=x") + "\n"),
			Out:    &bytes.Buffer{},
		})
		_, err := auth.Token(context.Background())
		assert.ErrorIs(t, err, ErrCodeNotFound)
		assert.Equal(t, 0, exchanger.Calls())
	})

	t.Run("exchange failure", func(t *testing.T) {
		auth := NewAuthenticator(&fakeExchanger{err: errExchange}, Options{
			Domain: testDomain,
			In:     strings.NewReader(encode("code=abc") + "\n"),
			Out:    &bytes.Buffer{},
		})
		_, err := auth.Token(context.Background())
		assert.ErrorIs(t, err, errExchange)
	})
}

func TestAuthenticator_InvalidDomain(t *testing.T) {
	auth := NewAuthenticator(&fakeExchanger{}, Options{
		Domain: "not a url",
		In:     strings.NewReader(""),
		Out:    &bytes.Buffer{},
	})
	_, err := auth.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid domain")
}
