package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/oauth2"

	"satori/internal/cache"
	"satori/internal/console"
	"satori/internal/datastores"
	"satori/pkg/logging"
)

// ErrBearerExpired is returned when the bearer token's expiry has passed
// before the console calls that need it.
var ErrBearerExpired = errors.New("bearer token has expired")

// ConsoleAPI is the part of the server API the coordinator needs.
type ConsoleAPI interface {
	UserProfile(ctx context.Context, token *oauth2.Token) (*console.UserProfile, error)
	DatabaseCredentials(ctx context.Context, token *oauth2.Token, userID string) (*console.DatabaseCredentials, error)
	DatastoreAccessDetails(ctx context.Context, token *oauth2.Token) ([]console.DatastoreAccessDetails, error)
}

// TokenSource runs one authorization round-trip and returns a bearer token.
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// Options tunes a Coordinator.
type Options struct {
	// NoPersist returns fetched credentials without writing them to the cache.
	NoPersist bool

	// Spinner shows progress on Out while the inventory is downloaded.
	Spinner bool
	Out     io.Writer
}

// Result is what an invocation works with.
type Result struct {
	Credentials cache.Credentials
	Inventory   *datastores.Inventory
}

// Coordinator decides which of the two caches need a network refresh and
// performs at most one authorization round-trip per instance.
type Coordinator struct {
	api       ConsoleAPI
	tokens    TokenSource
	creds     *cache.CredentialStore
	inventory *cache.InventoryStore
	opts      Options

	token   *oauth2.Token
	profile *console.UserProfile
}

// NewCoordinator creates a coordinator. A Coordinator serves one invocation.
func NewCoordinator(api ConsoleAPI, tokens TokenSource, creds *cache.CredentialStore, inventory *cache.InventoryStore, opts Options) *Coordinator {
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	return &Coordinator{
		api:       api,
		tokens:    tokens,
		creds:     creds,
		inventory: inventory,
		opts:      opts,
	}
}

// Resolve returns usable credentials and inventory, going to the network
// only for what the caches cannot provide. With refresh both caches are
// ignored.
func (c *Coordinator) Resolve(ctx context.Context, refresh bool) (*Result, error) {
	credState := cache.AbsentState[cache.Credentials](nil)
	invState := cache.AbsentState[*datastores.Inventory](nil)
	if refresh {
		logging.Debug("Session", "Refresh requested, ignoring cached credentials and datastores")
	} else {
		credState = c.creds.Load()
		invState = c.inventory.Load()
	}

	logging.Debug("Session", "Cache state: credentials=%s datastores=%s", credState.Kind, invState.Kind)

	if credState.IsFresh() && invState.IsFresh() {
		return &Result{Credentials: credState.Value, Inventory: invState.Value}, nil
	}

	profile, err := c.identity(ctx)
	if err != nil {
		return nil, err
	}
	invState = cache.ForAccount(invState, profile.AccountID)

	result := &Result{Credentials: credState.Value, Inventory: invState.Value}

	if !credState.IsFresh() {
		if result.Credentials, err = c.fetchCredentials(ctx); err != nil {
			return nil, err
		}
	}

	if !invState.IsFresh() {
		if result.Inventory, err = c.fetchInventory(ctx); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Login always fetches new credentials. The inventory is refetched when
// refresh is set, when the cache is unusable or when it belongs to another
// account.
func (c *Coordinator) Login(ctx context.Context, refresh bool) (*Result, error) {
	profile, err := c.identity(ctx)
	if err != nil {
		return nil, err
	}

	creds, err := c.fetchCredentials(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{Credentials: creds}

	invState := cache.AbsentState[*datastores.Inventory](nil)
	if !refresh {
		invState = cache.ForAccount(c.inventory.Load(), profile.AccountID)
	}
	if invState.IsFresh() {
		result.Inventory = invState.Value
		return result, nil
	}

	if result.Inventory, err = c.fetchInventory(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// bearer acquires the token once and reuses it afterwards. A token whose
// expiry (from the JWT exp claim or expires_in) has passed is rejected.
func (c *Coordinator) bearer(ctx context.Context) (*oauth2.Token, error) {
	if c.token == nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("login failed: %w", err)
		}
		c.token = token
	}
	if !c.token.Valid() {
		return nil, fmt.Errorf("%w (expired at %s), run 'satori login' again", ErrBearerExpired, c.token.Expiry.Local().Format(time.RFC3339))
	}
	return c.token, nil
}

func (c *Coordinator) identity(ctx context.Context) (*console.UserProfile, error) {
	if c.profile != nil {
		return c.profile, nil
	}
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := c.api.UserProfile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	c.profile = profile
	return profile, nil
}

func (c *Coordinator) fetchCredentials(ctx context.Context) (cache.Credentials, error) {
	profile, err := c.identity(ctx)
	if err != nil {
		return cache.Credentials{}, err
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return cache.Credentials{}, err
	}
	dc, err := c.api.DatabaseCredentials(ctx, token, profile.ID)
	if err != nil {
		return cache.Credentials{}, fmt.Errorf("failed to get database credentials: %w", err)
	}
	creds := cache.CredentialsFromConsole(dc)

	if c.opts.NoPersist {
		logging.Debug("Session", "Not persisting credentials")
		return creds, nil
	}
	if err := c.creds.Save(creds); err != nil {
		return cache.Credentials{}, err
	}
	return creds, nil
}

func (c *Coordinator) fetchInventory(ctx context.Context) (*datastores.Inventory, error) {
	profile, err := c.identity(ctx)
	if err != nil {
		return nil, err
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	stop := c.progress("Fetching datastores...")
	details, err := c.api.DatastoreAccessDetails(ctx, token)
	stop()
	if err != nil {
		return nil, fmt.Errorf("failed to get datastores: %w", err)
	}

	inv := datastores.FromAccessDetails(profile.AccountID, details)
	if err := c.inventory.Save(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (c *Coordinator) progress(msg string) func() {
	if !c.opts.Spinner {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(c.opts.Out))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
