package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satori/internal/datastores"
)

func sampleInventory() *datastores.Inventory {
	port := 5432
	srv := datastores.DeploymentMongoDBSrv
	return &datastores.Inventory{
		AccountID: "acc-1",
		Datastores: map[string]datastores.Record{
			"warehouse": {
				Name:       "warehouse",
				SatoriHost: "wh.satori.example",
				Databases:  []string{"analytics"},
				Port:       &port,
				Type:       datastores.TypePostgres,
			},
			"docs": {
				Name:           "docs",
				SatoriHost:     "docs.satori.example",
				Databases:      []string{},
				Type:           datastores.TypeMongo,
				DeploymentType: &srv,
			},
		},
	}
}

func TestInventoryStore_RoundTrip(t *testing.T) {
	store := NewInventoryStore(t.TempDir())
	want := sampleInventory()

	require.NoError(t, store.Save(want))

	st := store.Load()
	require.True(t, st.IsFresh())
	assert.Equal(t, want, st.Value)
}

func TestInventoryStore_Load(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		st := NewInventoryStore(t.TempDir()).Load()
		assert.True(t, st.Missing())
		assert.Nil(t, st.Value)
	})

	t.Run("corrupt", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, InventoryFileName), []byte("[]"), 0o600))
		st := NewInventoryStore(dir).Load()
		assert.True(t, st.Corrupt())
	})

	t.Run("empty datastores", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, InventoryFileName), []byte(`{"account_id":"a"}`), 0o600))
		st := NewInventoryStore(dir).Load()
		require.True(t, st.IsFresh())
		assert.NotNil(t, st.Value.Datastores)
	})
}

func TestForAccount(t *testing.T) {
	st := FreshState(sampleInventory())

	assert.Equal(t, Fresh, ForAccount(st, "acc-1").Kind)

	other := ForAccount(st, "acc-2")
	assert.Equal(t, Stale, other.Kind)
	assert.Error(t, other.Reason)

	absent := AbsentState[*datastores.Inventory](nil)
	assert.Equal(t, Absent, ForAccount(absent, "acc-2").Kind)
}
