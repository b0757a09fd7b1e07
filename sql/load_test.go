package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	db := initDB(t)

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pgvector extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		assert.NoError(t, Init(db.Instance))
		assert.NoError(t, Init(db.Instance))
	})
}

func TestLoadSql(t *testing.T) {
	db := initDB(t)

	groups := []struct {
		name      string
		load      func(force bool) error
		functions []string
	}{
		{"chunks", func(force bool) error { return LoadChunksSql(db.Instance, force) }, ChunksFunctions},
		{"messages", func(force bool) error { return LoadMessagesSql(db.Instance, force) }, MessagesFunctions},
		{"traces", func(force bool) error { return LoadTracesSql(db.Instance, force) }, TracesFunctions},
	}

	for _, g := range groups {
		t.Run("Load "+g.name+" SQL functions", func(t *testing.T) {
			require.NoError(t, g.load(false))

			for _, funcName := range g.functions {
				var exists bool
				err := db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
				require.NoError(t, err)
				assert.True(t, exists, "Function %s should exist", funcName)
			}

			assert.NoError(t, g.load(false), "Expected loading again without force to be a no-op")
			assert.NoError(t, g.load(true), "Expected loading with force to reload")
		})
	}

	t.Run("Load all SQL functions", func(t *testing.T) {
		assert.NoError(t, LoadAllSql(db.Instance, true))
	})

	t.Run("Check reports missing functions", func(t *testing.T) {
		exist, err := checkFunctions(db.Instance, []string{"init_chunks", "no_such_function"})
		require.NoError(t, err)
		assert.False(t, exist)
	})
}
