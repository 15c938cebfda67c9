package cache

import (
	"fmt"
	"path/filepath"

	"satori/internal/datastores"
	"satori/pkg/logging"
)

// InventoryFileName is the inventory cache file inside the cache directory.
const InventoryFileName = "datastores.json"

// InventoryStore persists the datastore inventory in a cache directory.
// The inventory has no expiry; it is replaced on refresh or when the
// account changes.
type InventoryStore struct {
	dir string
}

// NewInventoryStore creates a store for dir.
func NewInventoryStore(dir string) *InventoryStore {
	return &InventoryStore{dir: dir}
}

// Path returns the inventory file path.
func (s *InventoryStore) Path() string {
	return filepath.Join(s.dir, InventoryFileName)
}

// Load reads the cached inventory. Read and parse failures are reported as Absent.
func (s *InventoryStore) Load() State[*datastores.Inventory] {
	var inv datastores.Inventory
	if err := readJSON(s.Path(), &inv); err != nil {
		st := AbsentState[*datastores.Inventory](err)
		if st.Missing() {
			logging.Debug("Cache", "No cached datastores at %s", s.Path())
		} else {
			logging.Warn("Cache", "Ignoring unreadable datastores cache: %v", err)
		}
		return st
	}
	if inv.Datastores == nil {
		inv.Datastores = map[string]datastores.Record{}
	}

	logging.Debug("Cache", "Loaded %d datastores of account %s", len(inv.Datastores), inv.AccountID)
	return FreshState(&inv)
}

// ForAccount downgrades a fresh inventory to Stale when it belongs to
// another account.
func ForAccount(st State[*datastores.Inventory], accountID string) State[*datastores.Inventory] {
	if !st.IsFresh() || st.Value.AccountID == accountID {
		return st
	}
	logging.Debug("Cache", "Cached datastores belong to account %s, current account is %s", st.Value.AccountID, accountID)
	return StaleState(st.Value, fmt.Errorf("account changed from %s to %s", st.Value.AccountID, accountID))
}

// Save replaces the cached inventory.
func (s *InventoryStore) Save(inv *datastores.Inventory) error {
	if err := writeJSON(s.Path(), inv); err != nil {
		return err
	}
	logging.Debug("Cache", "Wrote %d datastores to %s", len(inv.Datastores), s.Path())
	return nil
}
