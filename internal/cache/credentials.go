package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"satori/internal/console"
	"satori/pkg/logging"
)

const (
	// CredentialsFileName is the credentials cache file inside the cache directory.
	CredentialsFileName = "credentials.json"

	// ExpiryMargin is how close to expiry credentials stop being usable.
	ExpiryMargin = 15 * time.Minute
)

var errExpiresSoon = errors.New("credentials expire soon")

// Credentials are the ephemeral database credentials of the current user.
type Credentials struct {
	Username  string    `json:"username" yaml:"username"`
	Password  string    `json:"password" yaml:"password"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// CredentialsFromConsole converts the server response.
func CredentialsFromConsole(c *console.DatabaseCredentials) Credentials {
	return Credentials{
		Username:  c.Username,
		Password:  c.Password,
		ExpiresAt: c.ExpiredAt.UTC(),
	}
}

// ExpiresSoon reports whether less than ExpiryMargin is left before expiry.
func (c Credentials) ExpiresSoon(now time.Time) bool {
	return c.ExpiresAt.Sub(now) < ExpiryMargin
}

// String masks the password.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{username: %s, password: *********, expires_at: %s}", c.Username, c.ExpiresAt.UTC().Format(time.RFC3339))
}

// LogValue masks the password in structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", "*********"),
		slog.Time("expires_at", c.ExpiresAt.UTC()),
	)
}

// CredentialStore persists credentials in a cache directory.
type CredentialStore struct {
	dir string
	now func() time.Time
}

// NewCredentialStore creates a store for dir.
func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{dir: dir, now: time.Now}
}

// WithClock replaces time.Now, for tests.
func (s *CredentialStore) WithClock(now func() time.Time) *CredentialStore {
	s.now = now
	return s
}

// Path returns the credentials file path.
func (s *CredentialStore) Path() string {
	return filepath.Join(s.dir, CredentialsFileName)
}

// Load reads the cached credentials. Read and parse failures are reported
// as Absent; credentials expiring soon are Stale.
func (s *CredentialStore) Load() State[Credentials] {
	var creds Credentials
	if err := readJSON(s.Path(), &creds); err != nil {
		st := AbsentState[Credentials](err)
		if st.Missing() {
			logging.Debug("Cache", "No cached credentials at %s", s.Path())
		} else {
			logging.Warn("Cache", "Ignoring unreadable credentials cache: %v", err)
		}
		return st
	}

	if creds.ExpiresSoon(s.now()) {
		logging.Debug("Cache", "Cached credentials expire at %s, treating them as expired", creds.ExpiresAt.Format(time.RFC3339))
		return StaleState(creds, errExpiresSoon)
	}

	logging.Debug("Cache", "Using cached credentials for %s", creds.Username)
	return FreshState(creds)
}

// Save replaces the cached credentials.
func (s *CredentialStore) Save(creds Credentials) error {
	creds.ExpiresAt = creds.ExpiresAt.UTC()
	if err := writeJSON(s.Path(), creds); err != nil {
		return err
	}
	logging.Debug("Cache", "Wrote credentials to %s", s.Path())
	return nil
}
