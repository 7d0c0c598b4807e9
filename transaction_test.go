package grovedb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransactionAtomicity(t *testing.T) {
	db := openDB(t)
	mustApply(t, db, Batch{}.Insert(nil, []byte("seed"), NewItem([]byte("s"))))
	before, _, err := db.RootHash(nil)
	require.NoError(t, err)

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = tx.Apply(Batch{}.
		Insert(nil, []byte("good"), NewItem([]byte("g"))).
		Delete(nil, []byte("missing")))
	require.ErrorIs(t, err, ErrKeyNotFound)

	// The failed Apply aborted the transaction.
	_, _, err = tx.Get(nil, []byte("seed"))
	require.ErrorIs(t, err, ErrTxClosed)
	require.ErrorIs(t, tx.Commit(), ErrTxClosed)

	// Nothing of the batch reached the committed state, including the op
	// that would have succeeded on its own.
	after, _, err := db.RootHash(nil)
	require.NoError(t, err)
	require.Equal(t, before, after)
	_, _, err = db.Get(nil, []byte("good"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestTransactionStagedVisibility(t *testing.T) {
	db := openDB(t)
	mustApply(t, db, Batch{}.Insert(nil, []byte("committed"), NewItem([]byte("c"))))

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = tx.Apply(Batch{}.Insert(nil, []byte("staged"), NewItem([]byte("s"))))
	require.NoError(t, err)

	// The transaction observes its own writes.
	el, _, err := tx.Get(nil, []byte("staged"))
	require.NoError(t, err)
	require.Equal(t, []byte("s"), el.Item())
	ok, _, err := tx.Has(nil, []byte("staged"))
	require.NoError(t, err)
	require.True(t, ok)

	// Readers outside the transaction observe the committed state and do
	// not block on the open writer.
	_, _, err = db.Get(nil, []byte("staged"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	el, _, err = db.Get(nil, []byte("committed"))
	require.NoError(t, err)
	require.Equal(t, []byte("c"), el.Item())

	staged, _, err := tx.RootHash(nil)
	require.NoError(t, err)
	committed, _, err := db.RootHash(nil)
	require.NoError(t, err)
	require.NotEqual(t, committed, staged)

	require.NoError(t, tx.Commit())

	el, _, err = db.Get(nil, []byte("staged"))
	require.NoError(t, err)
	require.Equal(t, []byte("s"), el.Item())
	after, _, err := db.RootHash(nil)
	require.NoError(t, err)
	require.Equal(t, staged, after)
}

func TestTransactionAbortDiscards(t *testing.T) {
	db := openDB(t)
	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = tx.Apply(Batch{}.Insert(nil, []byte("gone"), NewItem([]byte("x"))))
	require.NoError(t, err)

	require.NoError(t, tx.Abort())
	require.NoError(t, tx.Abort())

	_, _, err = db.Get(nil, []byte("gone"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	// The store accepts new transactions after an abort.
	mustApply(t, db, Batch{}.Insert(nil, []byte("next"), NewItem([]byte("y"))))
}

func TestTransactionLifecycleErrors(t *testing.T) {
	db := openDB(t)
	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = tx.Apply(Batch{}.Insert(nil, []byte("k"), NewItem([]byte("v"))))
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.ErrorIs(t, tx.Commit(), ErrTxClosed)
	require.NoError(t, tx.Abort())

	_, _, err = tx.Get(nil, []byte("k"))
	require.ErrorIs(t, err, ErrTxClosed)
	_, _, err = tx.GetRaw(nil, []byte("k"))
	require.ErrorIs(t, err, ErrTxClosed)
	_, _, err = tx.Has(nil, []byte("k"))
	require.ErrorIs(t, err, ErrTxClosed)
	_, _, err = tx.RootHash(nil)
	require.ErrorIs(t, err, ErrTxClosed)
	_, err = tx.Apply(Batch{}.Delete(nil, []byte("k")))
	require.ErrorIs(t, err, ErrTxClosed)
}

func TestTransactionCostAccumulates(t *testing.T) {
	db := openDB(t)
	tx, err := db.Begin()
	require.NoError(t, err)
	require.True(t, tx.Cost().IsZero())

	c1, err := tx.Apply(Batch{}.Insert(nil, []byte("a"), NewItem([]byte("1"))))
	require.NoError(t, err)
	require.False(t, c1.IsZero())
	require.Equal(t, c1, tx.Cost())

	_, gc, err := tx.Get(nil, []byte("a"))
	require.NoError(t, err)
	want := c1
	want.Add(gc)
	require.Equal(t, want, tx.Cost())

	require.NoError(t, tx.Commit())
	require.Equal(t, want, tx.Cost())
}

func TestTransactionMultipleBatches(t *testing.T) {
	staged := openDB(t)
	tx, err := staged.Begin()
	require.NoError(t, err)
	_, err = tx.Apply(Batch{}.Insert(nil, []byte("a"), NewItem([]byte("1"))))
	require.NoError(t, err)
	_, err = tx.Apply(Batch{}.
		Insert(nil, []byte("b"), NewItem([]byte("2"))).
		InsertSubtree(nil, []byte("s")).
		Insert(NewPath([]byte("s")), []byte("k"), NewItem([]byte("3"))))
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	oneShot := openDB(t)
	mustApply(t, oneShot, Batch{}.
		Insert(nil, []byte("a"), NewItem([]byte("1"))).
		Insert(nil, []byte("b"), NewItem([]byte("2"))).
		InsertSubtree(nil, []byte("s")).
		Insert(NewPath([]byte("s")), []byte("k"), NewItem([]byte("3"))))

	got, _, err := staged.RootHash(nil)
	require.NoError(t, err)
	want, _, err := oneShot.RootHash(nil)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestTransactionSerialization(t *testing.T) {
	db := openDB(t)
	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = tx.Apply(Batch{}.Insert(nil, []byte("first"), NewItem([]byte("1"))))
	require.NoError(t, err)

	// Begin blocks until the open transaction finishes, so the second
	// transaction must observe the first one's write.
	results := make(chan error, 1)
	go func() {
		tx2, err := db.Begin()
		if err != nil {
			results <- err
			return
		}
		_, _, err = tx2.Get(nil, []byte("first"))
		tx2.Abort()
		results <- err
	}()

	require.NoError(t, tx.Commit())
	require.NoError(t, <-results)
}
