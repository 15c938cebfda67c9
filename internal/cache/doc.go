// Package cache stores the ephemeral database credentials and the datastore
// inventory as JSON files in the user's cache directory (~/.satori).
//
// Loads never fail: they return a State that is Fresh, Stale or Absent, and
// the reason a state is not Fresh is kept so that a missing file can be told
// apart from a corrupt one.
package cache
