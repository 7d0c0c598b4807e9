package pebbledb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Silvanasss/GroveDB/storage"
	"github.com/Silvanasss/GroveDB/storage/pebbledb"
	"github.com/Silvanasss/GroveDB/storage/storagetest"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		db, err := pebbledb.Open("conformance", pebbledb.WithMemFS())
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return db
	})
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()

	db, err := pebbledb.Open(dir)
	require.NoError(t, err)
	tx, err := db.NewTx(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("persisted"), []byte("v")))
	require.NoError(t, tx.Commit())
	require.NoError(t, db.Close())

	db, err = pebbledb.Open(dir)
	require.NoError(t, err)
	defer db.Close()
	v, err := db.Get([]byte("persisted"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
}

func TestReadOnlyTxIsSnapshot(t *testing.T) {
	db, err := pebbledb.Open("snapshot", pebbledb.WithMemFS())
	require.NoError(t, err)
	defer db.Close()

	tx, err := db.NewTx(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("k"), []byte("before")))
	require.NoError(t, tx.Commit())

	ro, err := db.NewTx(false)
	require.NoError(t, err)

	tx, err = db.NewTx(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("k"), []byte("after")))
	require.NoError(t, tx.Commit())

	v, err := ro.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("before"), v)
	require.NoError(t, ro.Abort())

	v, err = db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("after"), v)
}
