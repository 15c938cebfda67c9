package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"satori/internal/cache"
	"satori/internal/console"
	"satori/internal/datastores"
	pkgoauth "satori/pkg/oauth"
)

type fakeTokens struct {
	calls int
	err   error
	token *oauth2.Token
}

func (f *fakeTokens) Token(context.Context) (*oauth2.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.token != nil {
		return f.token, nil
	}
	return &oauth2.Token{AccessToken: "jwt", TokenType: "Bearer"}, nil
}

// bearerWithExp builds the token the console client would produce for a
// JWT carrying the given exp claim.
func bearerWithExp(t *testing.T, exp time.Time) *oauth2.Token {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	resp := pkgoauth.TokenResponse{AccessToken: signed, TokenType: "oauth", ExpiresIn: 900}
	return resp.ToOAuth2Token(time.Now())
}

type fakeAPI struct {
	mu sync.Mutex

	accountID  string
	profileErr error
	invErr     error

	profileCalls     int
	credentialsCalls int
	inventoryCalls   int
}

func (f *fakeAPI) UserProfile(_ context.Context, token *oauth2.Token) (*console.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &console.UserProfile{ID: "user-1", AccountID: f.accountID}, nil
}

func (f *fakeAPI) DatabaseCredentials(_ context.Context, token *oauth2.Token, userID string) (*console.DatabaseCredentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credentialsCalls++
	return &console.DatabaseCredentials{
		Username:  "fresh-user",
		Password:  "fresh-pass",
		ExpiredAt: console.EpochMillis{Time: time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)},
	}, nil
}

func (f *fakeAPI) DatastoreAccessDetails(_ context.Context, token *oauth2.Token) ([]console.DatastoreAccessDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inventoryCalls++
	if f.invErr != nil {
		return nil, f.invErr
	}
	port := 5432
	return []console.DatastoreAccessDetails{
		{ID: "1", Name: "fresh-ds", Type: "POSTGRESQL", SatoriHostname: "fresh.example", Port: &port, Dbs: []string{"db"}},
	}, nil
}

type fixture struct {
	dir       string
	api       *fakeAPI
	tokens    *fakeTokens
	creds     *cache.CredentialStore
	inventory *cache.InventoryStore
}

func newFixture(t *testing.T, accountID string) *fixture {
	dir := t.TempDir()
	return &fixture{
		dir:       dir,
		api:       &fakeAPI{accountID: accountID},
		tokens:    &fakeTokens{},
		creds:     cache.NewCredentialStore(dir),
		inventory: cache.NewInventoryStore(dir),
	}
}

func (f *fixture) coordinator(opts Options) *Coordinator {
	return NewCoordinator(f.api, f.tokens, f.creds, f.inventory, opts)
}

func (f *fixture) seedCredentials(t *testing.T, expiresIn time.Duration) {
	require.NoError(t, f.creds.Save(cache.Credentials{
		Username:  "cached-user",
		Password:  "cached-pass",
		ExpiresAt: time.Now().Add(expiresIn),
	}))
}

func (f *fixture) seedInventory(t *testing.T, accountID string) {
	require.NoError(t, f.inventory.Save(&datastores.Inventory{
		AccountID: accountID,
		Datastores: map[string]datastores.Record{
			"cached-ds": {Name: "cached-ds", SatoriHost: "cached.example", Type: datastores.TypePostgres, Databases: []string{"db"}},
		},
	}))
}

func (f *fixture) assertCalls(t *testing.T, tokens, profile, credentials, inventory int) {
	t.Helper()
	assert.Equal(t, tokens, f.tokens.calls, "token acquisitions")
	assert.Equal(t, profile, f.api.profileCalls, "profile fetches")
	assert.Equal(t, credentials, f.api.credentialsCalls, "credential fetches")
	assert.Equal(t, inventory, f.api.inventoryCalls, "inventory fetches")
}

func TestResolve_CacheHitMakesNoCalls(t *testing.T) {
	f := newFixture(t, "acc-A")
	f.seedCredentials(t, time.Hour)
	f.seedInventory(t, "acc-A")

	res, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.NoError(t, err)

	f.assertCalls(t, 0, 0, 0, 0)
	assert.Equal(t, "cached-user", res.Credentials.Username)
	assert.Contains(t, res.Inventory.Datastores, "cached-ds")
}

func TestResolve_BothAbsentRunsFullFlowOnce(t *testing.T) {
	f := newFixture(t, "acc-A")

	res, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.NoError(t, err)

	f.assertCalls(t, 1, 1, 1, 1)
	assert.Equal(t, "fresh-user", res.Credentials.Username)
	assert.Equal(t, "acc-A", res.Inventory.AccountID)

	assert.True(t, f.creds.Load().IsFresh())
	assert.True(t, f.inventory.Load().IsFresh())
}

func TestResolve_InventoryAbsentFetchesInventoryOnly(t *testing.T) {
	f := newFixture(t, "acc-A")
	f.seedCredentials(t, time.Hour)

	res, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.NoError(t, err)

	f.assertCalls(t, 1, 1, 0, 1)
	assert.Equal(t, "cached-user", res.Credentials.Username)
	assert.Contains(t, res.Inventory.Datastores, "fresh-ds")
	assert.Contains(t, f.inventory.Load().Value.Datastores, "fresh-ds")
}

func TestResolve_CredentialsAbsentFetchesCredentialsOnly(t *testing.T) {
	f := newFixture(t, "acc-A")
	f.seedInventory(t, "acc-A")

	res, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.NoError(t, err)

	f.assertCalls(t, 1, 1, 1, 0)
	assert.Equal(t, "fresh-user", res.Credentials.Username)
	assert.Contains(t, res.Inventory.Datastores, "cached-ds")
}

func TestResolve_ExpiringCredentialsAreRefetched(t *testing.T) {
	f := newFixture(t, "acc-A")
	f.seedCredentials(t, 10*time.Minute)
	f.seedInventory(t, "acc-A")

	res, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.NoError(t, err)

	f.assertCalls(t, 1, 1, 1, 0)
	assert.Equal(t, "fresh-user", res.Credentials.Username)
	assert.Equal(t, "fresh-user", f.creds.Load().Value.Username)
}

func TestResolve_RefreshForcesFullFlow(t *testing.T) {
	f := newFixture(t, "acc-A")
	f.seedCredentials(t, time.Hour)
	f.seedInventory(t, "acc-A")

	res, err := f.coordinator(Options{}).Resolve(context.Background(), true)
	require.NoError(t, err)

	f.assertCalls(t, 1, 1, 1, 1)
	assert.Equal(t, "fresh-user", res.Credentials.Username)
	assert.Equal(t, "fresh-user", f.creds.Load().Value.Username)
	assert.Contains(t, f.inventory.Load().Value.Datastores, "fresh-ds")
}

func TestResolve_AccountMismatchRefetchesInventory(t *testing.T) {
	f := newFixture(t, "acc-B")
	f.seedInventory(t, "acc-A")

	res, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.NoError(t, err)

	f.assertCalls(t, 1, 1, 1, 1)
	assert.Equal(t, "acc-B", res.Inventory.AccountID)
	assert.Equal(t, "acc-B", f.inventory.Load().Value.AccountID)
}

func TestResolve_CorruptCacheDegradesToAbsent(t *testing.T) {
	f := newFixture(t, "acc-A")
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, cache.CredentialsFileName), []byte("garbage"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, cache.InventoryFileName), []byte("garbage"), 0o600))

	_, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.NoError(t, err)
	f.assertCalls(t, 1, 1, 1, 1)
}

func TestResolve_PartialWriteFailure(t *testing.T) {
	f := newFixture(t, "acc-A")
	f.api.invErr = &console.StatusError{Op: "access details", StatusCode: 500}

	_, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.Error(t, err)

	var statusErr *console.StatusError
	assert.ErrorAs(t, err, &statusErr)

	// Credentials were written before the inventory fetch failed.
	assert.True(t, f.creds.Load().IsFresh())
	assert.True(t, f.inventory.Load().Missing())
}

func TestResolve_InventoryWriteFailure(t *testing.T) {
	f := newFixture(t, "acc-A")
	require.NoError(t, os.Mkdir(filepath.Join(f.dir, cache.InventoryFileName), 0o700))

	_, err := f.coordinator(Options{}).Resolve(context.Background(), false)

	var fileErr *cache.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, filepath.Join(f.dir, cache.InventoryFileName), fileErr.Path)
	assert.True(t, f.creds.Load().IsFresh())
}

func TestResolve_NoPersist(t *testing.T) {
	f := newFixture(t, "acc-A")
	f.seedInventory(t, "acc-A")

	res, err := f.coordinator(Options{NoPersist: true}).Resolve(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, "fresh-user", res.Credentials.Username)
	assert.True(t, f.creds.Load().Missing())
}

func TestResolve_TokenFailure(t *testing.T) {
	f := newFixture(t, "acc-A")
	f.tokens.err = errors.New("timed out")

	_, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, f.tokens.err)
	f.assertCalls(t, 1, 0, 0, 0)
}

func TestResolve_ProfileUnauthorized(t *testing.T) {
	f := newFixture(t, "acc-A")
	f.api.profileErr = &console.StatusError{Op: "user profile", StatusCode: 401}

	_, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	assert.ErrorIs(t, err, console.ErrUnauthorized)
	assert.True(t, f.creds.Load().Missing())
}

func TestResolve_ExpiredBearerIsRejected(t *testing.T) {
	f := newFixture(t, "acc-1")
	f.tokens.token = bearerWithExp(t, time.Now().Add(-time.Minute))

	_, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.ErrorIs(t, err, ErrBearerExpired)
	f.assertCalls(t, 1, 0, 0, 0)

	_, err = os.Stat(f.creds.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestResolve_BearerExpiryFromJWTIsHonoured(t *testing.T) {
	f := newFixture(t, "acc-1")
	f.tokens.token = bearerWithExp(t, time.Now().Add(time.Hour))

	result, err := f.coordinator(Options{}).Resolve(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "fresh-user", result.Credentials.Username)
	f.assertCalls(t, 1, 1, 1, 1)
}

func TestLogin(t *testing.T) {
	t.Run("always fetches credentials and keeps matching inventory", func(t *testing.T) {
		f := newFixture(t, "acc-A")
		f.seedCredentials(t, time.Hour)
		f.seedInventory(t, "acc-A")

		res, err := f.coordinator(Options{}).Login(context.Background(), false)
		require.NoError(t, err)

		f.assertCalls(t, 1, 1, 1, 0)
		assert.Equal(t, "fresh-user", res.Credentials.Username)
		assert.Contains(t, res.Inventory.Datastores, "cached-ds")
	})

	t.Run("refresh refetches inventory", func(t *testing.T) {
		f := newFixture(t, "acc-A")
		f.seedInventory(t, "acc-A")

		_, err := f.coordinator(Options{}).Login(context.Background(), true)
		require.NoError(t, err)
		f.assertCalls(t, 1, 1, 1, 1)
	})

	t.Run("account change refetches inventory", func(t *testing.T) {
		f := newFixture(t, "acc-B")
		f.seedInventory(t, "acc-A")

		res, err := f.coordinator(Options{}).Login(context.Background(), false)
		require.NoError(t, err)
		f.assertCalls(t, 1, 1, 1, 1)
		assert.Equal(t, "acc-B", res.Inventory.AccountID)
	})

	t.Run("display mode does not persist", func(t *testing.T) {
		f := newFixture(t, "acc-A")
		f.seedInventory(t, "acc-A")

		_, err := f.coordinator(Options{NoPersist: true}).Login(context.Background(), false)
		require.NoError(t, err)
		assert.True(t, f.creds.Load().Missing())
	})
}
