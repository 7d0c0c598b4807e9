// Package storagetest is a conformance suite for storage.Backend
// implementations. Every backend package runs Run against a fresh store to
// pin down the semantics the engine relies on: ErrNotFound mapping, ordered
// iteration bounds, read-your-writes transactions and lifecycle errors.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Silvanasss/GroveDB/storage"
)

// OpenFunc returns a fresh empty backend for one subtest. Implementations
// should register cleanup with t.Cleanup.
type OpenFunc func(t *testing.T) storage.Backend

// Run exercises a backend implementation against the storage contract.
func Run(t *testing.T, open OpenFunc) {
	t.Run("PutGet", func(t *testing.T) { testPutGet(t, open(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, open(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("ValueOwnership", func(t *testing.T) { testValueOwnership(t, open(t)) })
	t.Run("ReadYourWrites", func(t *testing.T) { testReadYourWrites(t, open(t)) })
	t.Run("Abort", func(t *testing.T) { testAbort(t, open(t)) })
	t.Run("ReadOnlyTx", func(t *testing.T) { testReadOnlyTx(t, open(t)) })
	t.Run("IteratorOrder", func(t *testing.T) { testIteratorOrder(t, open(t)) })
	t.Run("IteratorRange", func(t *testing.T) { testIteratorRange(t, open(t)) })
	t.Run("IteratorEmpty", func(t *testing.T) { testIteratorEmpty(t, open(t)) })
	t.Run("TxIterator", func(t *testing.T) { testTxIterator(t, open(t)) })
	t.Run("TxLifecycle", func(t *testing.T) { testTxLifecycle(t, open(t)) })
	t.Run("ClosedBackend", func(t *testing.T) { testClosedBackend(t, open(t)) })
}

// apply stages writes through fn and commits them.
func apply(t *testing.T, be storage.Backend, fn func(tx storage.Tx)) {
	t.Helper()
	tx, err := be.NewTx(true)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit())
}

type pair struct {
	key   []byte
	value []byte
}

// collect drains an iterator into owned key/value pairs and closes it.
func collect(t *testing.T, it storage.Iterator) []pair {
	t.Helper()
	var out []pair
	for it.Next() {
		out = append(out, pair{
			key:   append([]byte(nil), it.Key()...),
			value: append([]byte(nil), it.Value()...),
		})
	}
	require.NoError(t, it.Close())
	return out
}

func testPutGet(t *testing.T, be storage.Backend) {
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("alpha"), []byte("1")))
		require.NoError(t, tx.Put([]byte{0x00, 0xff, 0x10}, []byte{0xde, 0xad}))
		require.NoError(t, tx.Put([]byte("empty"), nil))
	})

	v, err := be.Get([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	v, err = be.Get([]byte{0x00, 0xff, 0x10})
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad}, v)

	v, err = be.Get([]byte("empty"))
	require.NoError(t, err)
	require.Empty(t, v)

	ok, err := be.Has([]byte("alpha"))
	require.NoError(t, err)
	require.True(t, ok)
}

func testGetMissing(t *testing.T, be storage.Backend) {
	_, err := be.Get([]byte("nope"))
	require.ErrorIs(t, err, storage.ErrNotFound)

	ok, err := be.Has([]byte("nope"))
	require.NoError(t, err)
	require.False(t, ok)
}

func testOverwrite(t *testing.T, be storage.Backend) {
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("k"), []byte("old")))
	})
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("k"), []byte("new")))
	})
	v, err := be.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func testDelete(t *testing.T, be storage.Backend) {
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("k"), []byte("v")))
	})
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Delete([]byte("k")))
	})
	_, err := be.Get([]byte("k"))
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting an absent key stages nothing but must not fail.
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Delete([]byte("never-there")))
	})
}

func testValueOwnership(t *testing.T, be storage.Backend) {
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("k"), []byte("stable")))
	})
	v, err := be.Get([]byte("k"))
	require.NoError(t, err)
	for i := range v {
		v[i] = 'x'
	}
	again, err := be.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("stable"), again)
}

func testReadYourWrites(t *testing.T, be storage.Backend) {
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("committed"), []byte("c")))
	})

	tx, err := be.NewTx(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("staged"), []byte("s")))
	require.NoError(t, tx.Delete([]byte("committed")))

	v, err := tx.Get([]byte("staged"))
	require.NoError(t, err)
	require.Equal(t, []byte("s"), v)

	_, err = tx.Get([]byte("committed"))
	require.ErrorIs(t, err, storage.ErrNotFound)

	ok, err := tx.Has([]byte("staged"))
	require.NoError(t, err)
	require.True(t, ok)

	// Staged writes are invisible outside the transaction.
	_, err = be.Get([]byte("staged"))
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, tx.Commit())

	v, err = be.Get([]byte("staged"))
	require.NoError(t, err)
	require.Equal(t, []byte("s"), v)
	_, err = be.Get([]byte("committed"))
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testAbort(t *testing.T, be storage.Backend) {
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("keep"), []byte("1")))
	})

	tx, err := be.NewTx(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("gone"), []byte("2")))
	require.NoError(t, tx.Delete([]byte("keep")))
	require.NoError(t, tx.Abort())

	_, err = be.Get([]byte("gone"))
	require.ErrorIs(t, err, storage.ErrNotFound)
	v, err := be.Get([]byte("keep"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
}

func testReadOnlyTx(t *testing.T, be storage.Backend) {
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("k"), []byte("v")))
	})

	tx, err := be.NewTx(false)
	require.NoError(t, err)
	v, err := tx.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	require.ErrorIs(t, tx.Put([]byte("w"), []byte("x")), storage.ErrReadOnly)
	require.ErrorIs(t, tx.Delete([]byte("k")), storage.ErrReadOnly)
	require.NoError(t, tx.Commit())
}

func testIteratorOrder(t *testing.T, be storage.Backend) {
	// Written out of order on purpose; includes zero bytes, 0xff and
	// prefix-of-another keys.
	keys := [][]byte{
		{0xff, 0x00},
		{'b'},
		{0x00, 0x01},
		{'a', 'a'},
		{0x00},
		{0xff},
		{'a'},
		{0x00, 0x00},
		{0xfe},
	}
	apply(t, be, func(tx storage.Tx) {
		for i, k := range keys {
			require.NoError(t, tx.Put(k, []byte{byte(i)}))
		}
	})

	it, err := be.NewIterator(nil, nil)
	require.NoError(t, err)
	got := collect(t, it)

	want := [][]byte{
		{0x00},
		{0x00, 0x00},
		{0x00, 0x01},
		{'a'},
		{'a', 'a'},
		{'b'},
		{0xfe},
		{0xff},
		{0xff, 0x00},
	}
	require.Len(t, got, len(want))
	for i, k := range want {
		require.Equal(t, k, got[i].key, "position %d", i)
	}
}

func testIteratorRange(t *testing.T, be storage.Backend) {
	apply(t, be, func(tx storage.Tx) {
		for _, k := range []string{"a", "b", "c", "d", "e", "p/1", "p/2", "q/1"} {
			require.NoError(t, tx.Put([]byte(k), []byte(k)))
		}
	})

	it, err := be.NewIterator([]byte("b"), []byte("e"))
	require.NoError(t, err)
	got := collect(t, it)
	require.Len(t, got, 3)
	require.Equal(t, []byte("b"), got[0].key)
	require.Equal(t, []byte("c"), got[1].key)
	require.Equal(t, []byte("d"), got[2].key)

	// Prefix scan via PrefixEnd.
	it, err = be.NewIterator([]byte("p/"), storage.PrefixEnd([]byte("p/")))
	require.NoError(t, err)
	got = collect(t, it)
	require.Len(t, got, 2)
	require.Equal(t, []byte("p/1"), got[0].key)
	require.Equal(t, []byte("p/2"), got[1].key)

	// Open-ended upper bound.
	it, err = be.NewIterator([]byte("q"), nil)
	require.NoError(t, err)
	got = collect(t, it)
	require.Len(t, got, 1)
	require.Equal(t, []byte("q/1"), got[0].key)
}

func testIteratorEmpty(t *testing.T, be storage.Backend) {
	it, err := be.NewIterator(nil, nil)
	require.NoError(t, err)
	require.False(t, it.Next())
	require.NoError(t, it.Close())

	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("z"), []byte("1")))
	})
	it, err = be.NewIterator([]byte("a"), []byte("b"))
	require.NoError(t, err)
	require.False(t, it.Next())
	require.NoError(t, it.Close())
}

func testTxIterator(t *testing.T, be storage.Backend) {
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("a"), []byte("base")))
		require.NoError(t, tx.Put([]byte("c"), []byte("base")))
	})

	tx, err := be.NewTx(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("b"), []byte("staged")))
	require.NoError(t, tx.Put([]byte("c"), []byte("staged")))
	require.NoError(t, tx.Delete([]byte("a")))

	it, err := tx.NewIterator(nil, nil)
	require.NoError(t, err)
	got := collect(t, it)
	require.Len(t, got, 2)
	require.Equal(t, []byte("b"), got[0].key)
	require.Equal(t, []byte("staged"), got[0].value)
	require.Equal(t, []byte("c"), got[1].key)
	require.Equal(t, []byte("staged"), got[1].value)

	// The committed state is untouched until Commit.
	it, err = be.NewIterator(nil, nil)
	require.NoError(t, err)
	got = collect(t, it)
	require.Len(t, got, 2)
	require.Equal(t, []byte("a"), got[0].key)
	require.Equal(t, []byte("c"), got[1].key)
	require.Equal(t, []byte("base"), got[1].value)

	require.NoError(t, tx.Commit())

	it, err = be.NewIterator(nil, nil)
	require.NoError(t, err)
	got = collect(t, it)
	require.Len(t, got, 2)
	require.Equal(t, []byte("b"), got[0].key)
	require.Equal(t, []byte("c"), got[1].key)
	require.Equal(t, []byte("staged"), got[1].value)
}

func testTxLifecycle(t *testing.T, be storage.Backend) {
	tx, err := be.NewTx(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("k"), []byte("v")))
	require.NoError(t, tx.Commit())

	// Operations on a finished transaction fail; Abort after Commit is a
	// no-op.
	_, err = tx.Get([]byte("k"))
	require.ErrorIs(t, err, storage.ErrClosed)
	require.ErrorIs(t, tx.Put([]byte("k"), []byte("v")), storage.ErrClosed)
	require.ErrorIs(t, tx.Commit(), storage.ErrClosed)
	require.NoError(t, tx.Abort())

	tx, err = be.NewTx(true)
	require.NoError(t, err)
	require.NoError(t, tx.Abort())
	require.NoError(t, tx.Abort())
	_, err = tx.Get([]byte("k"))
	require.ErrorIs(t, err, storage.ErrClosed)
}

func testClosedBackend(t *testing.T, be storage.Backend) {
	apply(t, be, func(tx storage.Tx) {
		require.NoError(t, tx.Put([]byte("k"), []byte("v")))
	})
	require.NoError(t, be.Close())

	_, err := be.Get([]byte("k"))
	require.ErrorIs(t, err, storage.ErrClosed)
	_, err = be.Has([]byte("k"))
	require.ErrorIs(t, err, storage.ErrClosed)
	_, err = be.NewIterator(nil, nil)
	require.ErrorIs(t, err, storage.ErrClosed)
	_, err = be.NewTx(true)
	require.ErrorIs(t, err, storage.ErrClosed)
	require.NoError(t, be.Close())
}