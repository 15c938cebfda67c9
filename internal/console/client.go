package console

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"satori/pkg/logging"
	pkgoauth "satori/pkg/oauth"
	satoristrings "satori/pkg/strings"
)

const (
	// DefaultDomain is the identity and resource server used when none is configured.
	DefaultDomain = "https://app.satoricyber.com"

	// DefaultClientID identifies this CLI to the authorization server.
	DefaultClientID = "satori-cli-83740771-1"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultPageSize is the page size used for the access-details listing.
	DefaultPageSize = 100

	profilePath       = "/api/users/me/profile"
	accessDetailsPath = "/api/v1/dataset/access-details-dbs"

	maxErrorBody = 512
)

// Client talks to the identity and resource server.
type Client struct {
	domain             string
	clientID           string
	version            string
	httpClient         *http.Client
	insecureSkipVerify bool
	pageSize           int
	now                func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithInsecureSkipVerify accepts invalid TLS certificates, for self-signed
// or internal deployments.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		c.insecureSkipVerify = skip
	}
}

// WithVersion sets the CLI version reported in the User-Agent.
func WithVersion(version string) Option {
	return func(c *Client) {
		c.version = version
	}
}

// WithPageSize sets the access-details page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client for the given domain.
func NewClient(domain string, opts ...Option) *Client {
	if domain == "" {
		domain = DefaultDomain
	}
	c := &Client{
		domain:   strings.TrimSuffix(domain, "/"),
		clientID: DefaultClientID,
		version:  "dev",
		pageSize: DefaultPageSize,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
		if c.insecureSkipVerify {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			// #nosec G402 -- opt-in for self-signed deployments
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			c.httpClient.Transport = transport
		}
	}

	return c
}

// Domain returns the server base URL.
func (c *Client) Domain() string { return c.domain }

// ClientID returns the OAuth client id.
func (c *Client) ClientID() string { return c.clientID }

// UserAgent returns the User-Agent sent with every request.
func (c *Client) UserAgent() string {
	return fmt.Sprintf("satori-cli/%s/%s", c.version, c.clientID)
}

// ExchangeCode trades an authorization code and its PKCE verifier for a
// bearer token. The server answers 201 Created on success.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	query := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.clientID},
		"code_verifier": {codeVerifier},
	}

	var resp pkgoauth.TokenResponse
	if err := c.do(ctx, request{
		op:         "token exchange",
		method:     http.MethodPost,
		path:       pkgoauth.TokenPath,
		query:      query,
		form:       true,
		wantStatus: http.StatusCreated,
	}, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		return nil, &DecodeError{Op: "token exchange", Err: errors.New("empty access_token")}
	}

	token := resp.ToOAuth2Token(c.now())
	logging.Debug("Console", "Obtained bearer token (subject=%q, expiry=%s)", pkgoauth.Subject(token.AccessToken), token.Expiry.Format(time.RFC3339))
	return token, nil
}

// UserProfile fetches the identity behind a bearer token.
func (c *Client) UserProfile(ctx context.Context, token *oauth2.Token) (*UserProfile, error) {
	var profile UserProfile
	if err := c.do(ctx, request{
		op:         "user profile",
		method:     http.MethodGet,
		path:       profilePath,
		token:      token,
		wantStatus: http.StatusOK,
	}, &profile); err != nil {
		return nil, err
	}
	logging.Debug("Console", "Fetched profile for user %s (account %s)", profile.ID, profile.AccountID)
	return &profile, nil
}

// DatabaseCredentials requests a new set of ephemeral credentials for a user.
func (c *Client) DatabaseCredentials(ctx context.Context, token *oauth2.Token, userID string) (*DatabaseCredentials, error) {
	var creds DatabaseCredentials
	if err := c.do(ctx, request{
		op:         "database credentials",
		method:     http.MethodPut,
		path:       "/api/users/" + url.PathEscape(userID) + "/database-credentials",
		token:      token,
		wantStatus: http.StatusOK,
	}, &creds); err != nil {
		return nil, err
	}
	logging.Debug("Console", "Fetched database credentials for %s, expiring at %s", creds.Username, creds.ExpiredAt.Format(time.RFC3339))
	return &creds, nil
}

// DatastoreAccessDetails fetches every datastore the caller can access.
// Pages are requested one after another until the number of records
// received reaches the reported count. Datastores repeated across pages
// are kept once, in first-seen order.
func (c *Client) DatastoreAccessDetails(ctx context.Context, token *oauth2.Token) ([]DatastoreAccessDetails, error) {
	byID := make(map[string]DatastoreAccessDetails)
	var order []string
	received := 0

	for page := 0; ; page++ {
		var resp AccessDetailsPage
		if err := c.do(ctx, request{
			op:     "access details",
			method: http.MethodGet,
			path:   accessDetailsPath,
			query: url.Values{
				"pageSize": {strconv.Itoa(c.pageSize)},
				"page":     {strconv.Itoa(page)},
			},
			token:      token,
			wantStatus: http.StatusOK,
		}, &resp); err != nil {
			return nil, err
		}

		received += len(resp.Records)
		for _, details := range resp.DataStoreDetails {
			if _, ok := byID[details.ID]; !ok {
				order = append(order, details.ID)
			}
			byID[details.ID] = details
		}

		logging.Debug("Console", "Access details page %d: %d records (%d/%d)", page, len(resp.Records), received, resp.Count)

		if len(resp.Records) == 0 || received >= resp.Count {
			break
		}
	}

	result := make([]DatastoreAccessDetails, 0, len(order))
	for _, id := range order {
		result = append(result, byID[id])
	}
	return result, nil
}

type request struct {
	op         string
	method     string
	path       string
	query      url.Values
	token      *oauth2.Token
	form       bool
	wantStatus int
}

func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	endpoint := c.domain + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent())
	if r.form {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if r.token != nil {
		r.token.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: r.op, URL: c.domain + r.path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: r.op, URL: c.domain + r.path, Err: err}
	}

	if resp.StatusCode != r.wantStatus {
		return &StatusError{Op: r.op, StatusCode: resp.StatusCode, Body: satoristrings.Truncate(string(body), maxErrorBody)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Op: r.op, Err: err}
	}
	return nil
}
