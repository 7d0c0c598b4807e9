package grovedb

import (
	"context"
	"fmt"
	"testing"

	"github.com/ipfs/go-datastore"
	"github.com/stretchr/testify/require"

	"github.com/Silvanasss/GroveDB/avl"
	"github.com/Silvanasss/GroveDB/cost"
	"github.com/Silvanasss/GroveDB/storage"
	"github.com/Silvanasss/GroveDB/storage/badgerdb"
	"github.com/Silvanasss/GroveDB/storage/dsadapter"
	"github.com/Silvanasss/GroveDB/storage/memdb"
	"github.com/Silvanasss/GroveDB/storage/pebbledb"
)

func openDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	db, err := Open(memdb.New(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustApply(t *testing.T, db *DB, b Batch) cost.Cost {
	t.Helper()
	c, err := db.Apply(b)
	require.NoError(t, err)
	return c
}

func TestOpenBootstrapsRoot(t *testing.T) {
	db := openDB(t)

	root, c, err := db.RootHash(nil)
	require.NoError(t, err)
	require.True(t, root.IsZero())
	require.False(t, c.IsZero())

	sub, _, err := db.Resolve(nil)
	require.NoError(t, err)
	require.True(t, sub.Path().IsRoot())
	require.True(t, sub.RootHash().IsZero())

	// The root subtree exists but holds nothing yet.
	_, _, err = db.Get(nil, []byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	ok, _, err := db.Has(nil, []byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSingleInsertRootHash(t *testing.T) {
	db := openDB(t)
	el := NewItem([]byte("100"))
	mustApply(t, db, Batch{}.Insert(nil, []byte("balance"), el))

	root, _, err := db.RootHash(nil)
	require.NoError(t, err)
	want := avl.NodeHash(
		avl.LeafHash([]byte("balance"), avl.ValueHash(el.Encode())),
		avl.EmptyRoot(), avl.EmptyRoot(),
	)
	require.Equal(t, want, root)

	got, _, err := db.Get(nil, []byte("balance"))
	require.NoError(t, err)
	require.True(t, got.Equal(el))

	ok, _, err := db.Has(nil, []byte("balance"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBatchOrderIndependence(t *testing.T) {
	base := Batch{}.
		InsertSubtree(nil, []byte("docs")).
		Insert(NewPath([]byte("docs")), []byte("d1"), NewItem([]byte("v1"))).
		Insert(nil, []byte("top"), NewItem([]byte("t"))).
		Insert(NewPath([]byte("docs")), []byte("d2"), NewItem([]byte("v2"))).
		Insert(nil, []byte("aaa"), NewItem([]byte("a")))

	perms := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
	}
	var want avl.Hash
	for i, idx := range perms {
		b := make(Batch, len(idx))
		for j, k := range idx {
			b[j] = base[k]
		}
		db := openDB(t)
		mustApply(t, db, b)
		root, _, err := db.RootHash(nil)
		require.NoError(t, err)
		if i == 0 {
			want = root
			continue
		}
		require.Equal(t, want, root, "permutation %v produced a different hierarchy root", idx)
	}
}

func TestSubtreeAnchorBindsChildRoot(t *testing.T) {
	db := openDB(t)
	mustApply(t, db, Batch{}.InsertSubtree(nil, []byte("docs")))

	anchor, _, err := db.GetRaw(nil, []byte("docs"))
	require.NoError(t, err)
	require.True(t, anchor.IsSubtree())
	require.True(t, anchor.SubtreeRoot().IsZero())

	rootBefore, _, err := db.RootHash(nil)
	require.NoError(t, err)

	mustApply(t, db, Batch{}.Insert(NewPath([]byte("docs")), []byte("d1"), NewItem([]byte("v1"))))

	childRoot, _, err := db.RootHash(NewPath([]byte("docs")))
	require.NoError(t, err)
	require.False(t, childRoot.IsZero())

	anchor, _, err = db.GetRaw(nil, []byte("docs"))
	require.NoError(t, err)
	require.Equal(t, childRoot, anchor.SubtreeRoot())

	rootAfter, _, err := db.RootHash(nil)
	require.NoError(t, err)
	require.NotEqual(t, rootBefore, rootAfter)
}

func TestRootHashPropagation(t *testing.T) {
	db := openDB(t)
	mustApply(t, db, Batch{}.InsertSubtree(nil, []byte("a")))
	mustApply(t, db, Batch{}.InsertSubtree(NewPath([]byte("a")), []byte("b")))
	mustApply(t, db, Batch{}.InsertSubtree(nil, []byte("other")))

	deep := NewPath([]byte("a"), []byte("b"))
	hier0, _, err := db.RootHash(nil)
	require.NoError(t, err)
	a0, _, err := db.RootHash(NewPath([]byte("a")))
	require.NoError(t, err)
	other0, _, err := db.RootHash(NewPath([]byte("other")))
	require.NoError(t, err)

	mustApply(t, db, Batch{}.Insert(deep, []byte("k"), NewItem([]byte("v"))))

	deep1, _, err := db.RootHash(deep)
	require.NoError(t, err)
	require.False(t, deep1.IsZero())

	a1, _, err := db.RootHash(NewPath([]byte("a")))
	require.NoError(t, err)
	require.NotEqual(t, a0, a1)

	hier1, _, err := db.RootHash(nil)
	require.NoError(t, err)
	require.NotEqual(t, hier0, hier1)

	other1, _, err := db.RootHash(NewPath([]byte("other")))
	require.NoError(t, err)
	require.Equal(t, other0, other1)

	anchor, _, err := db.GetRaw(NewPath([]byte("a")), []byte("b"))
	require.NoError(t, err)
	require.Equal(t, deep1, anchor.SubtreeRoot())
}

func TestReferences(t *testing.T) {
	db := openDB(t)
	mustApply(t, db, Batch{}.
		InsertSubtree(nil, []byte("data")).
		Insert(NewPath([]byte("data")), []byte("k"), NewItem([]byte("v"))).
		Insert(nil, []byte("ref"), NewReference(NewPath([]byte("data"), []byte("k")))))

	followed, _, err := db.Get(nil, []byte("ref"))
	require.NoError(t, err)
	require.True(t, followed.IsItem())
	require.Equal(t, []byte("v"), followed.Item())

	raw, _, err := db.GetRaw(nil, []byte("ref"))
	require.NoError(t, err)
	require.True(t, raw.IsReference())
	require.True(t, raw.Reference().Equal(NewPath([]byte("data"), []byte("k"))))

	ok, _, err := db.Has(nil, []byte("ref"))
	require.NoError(t, err)
	require.True(t, ok)

	// A reference to a reference resolves through both.
	mustApply(t, db, Batch{}.Insert(nil, []byte("ref2"), NewReference(NewPath([]byte("ref")))))
	followed, _, err = db.Get(nil, []byte("ref2"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), followed.Item())

	mustApply(t, db, Batch{}.Insert(nil, []byte("dangling"), NewReference(NewPath([]byte("nope")))))
	_, _, err = db.Get(nil, []byte("dangling"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.ErrorContains(t, err, "follow reference to")

	mustApply(t, db, Batch{}.Insert(nil, []byte("badpath"), NewReference(NewPath([]byte("ghost"), []byte("k")))))
	_, _, err = db.Get(nil, []byte("badpath"))
	require.ErrorIs(t, err, ErrPathNotFound)
}

func TestReferenceCycles(t *testing.T) {
	db := openDB(t)
	mustApply(t, db, Batch{}.
		Insert(nil, []byte("r1"), NewReference(NewPath([]byte("r2")))).
		Insert(nil, []byte("r2"), NewReference(NewPath([]byte("r1")))).
		Insert(nil, []byte("self"), NewReference(NewPath([]byte("self")))))

	_, _, err := db.Get(nil, []byte("r1"))
	require.ErrorIs(t, err, ErrCyclicReference)
	_, _, err = db.Get(nil, []byte("r2"))
	require.ErrorIs(t, err, ErrCyclicReference)
	_, _, err = db.Get(nil, []byte("self"))
	require.ErrorIs(t, err, ErrCyclicReference)
}

// chainStore links n references head to tail, the last one pointing at a
// plain item.
func chainStore(t *testing.T, n int) *DB {
	t.Helper()
	db := openDB(t)
	b := Batch{}.Insert(nil, []byte("item"), NewItem([]byte("end")))
	for i := 0; i < n; i++ {
		target := []byte("item")
		if i < n-1 {
			target = []byte(fmt.Sprintf("r%02d", i+1))
		}
		b = b.Insert(nil, []byte(fmt.Sprintf("r%02d", i)), NewReference(NewPath(target)))
	}
	mustApply(t, db, b)
	return db
}

func TestReferenceHopLimit(t *testing.T) {
	ok := chainStore(t, MaxReferenceHops)
	el, _, err := ok.Get(nil, []byte("r00"))
	require.NoError(t, err)
	require.Equal(t, []byte("end"), el.Item())

	long := chainStore(t, MaxReferenceHops+1)
	_, _, err = long.Get(nil, []byte("r00"))
	require.ErrorIs(t, err, ErrReferenceLimit)
}

func TestPathErrors(t *testing.T) {
	db := openDB(t)

	_, _, err := db.Get(NewPath([]byte("ghost")), []byte("k"))
	require.ErrorIs(t, err, ErrPathNotFound)

	_, _, err = db.RootHash(NewPath([]byte("ghost")))
	require.ErrorIs(t, err, ErrPathNotFound)

	_, err = db.Apply(Batch{}.Insert(NewPath([]byte("ghost")), []byte("k"), NewItem(nil)))
	require.ErrorIs(t, err, ErrPathNotFound)

	mustApply(t, db, Batch{}.Insert(nil, []byte("file"), NewItem([]byte("x"))))
	_, _, err = db.Get(NewPath([]byte("file")), []byte("k"))
	require.ErrorIs(t, err, ErrNotSubtree)

	mustApply(t, db, Batch{}.InsertSubtree(nil, []byte("docs")))
	_, _, err = db.Get(NewPath([]byte("docs"), []byte("missing")), []byte("k"))
	require.ErrorIs(t, err, ErrPathNotFound)

	_, _, err = db.Get(Path{{}}, []byte("k"))
	require.ErrorIs(t, err, ErrInvalidPath)
}

// docsStore commits a "docs" subtree holding one entry.
func docsStore(t *testing.T) *DB {
	t.Helper()
	db := openDB(t)
	mustApply(t, db, Batch{}.
		InsertSubtree(nil, []byte("docs")).
		Insert(NewPath([]byte("docs")), []byte("d1"), NewItem([]byte("v1"))))
	return db
}

func TestSubtreeRules(t *testing.T) {
	t.Run("insert over anchor", func(t *testing.T) {
		db := docsStore(t)
		_, err := db.Apply(Batch{}.Insert(nil, []byte("docs"), NewItem([]byte("x"))))
		require.ErrorIs(t, err, ErrSubtreeExists)
	})

	t.Run("insert subtree over anchor", func(t *testing.T) {
		db := docsStore(t)
		_, err := db.Apply(Batch{}.InsertSubtree(nil, []byte("docs")))
		require.ErrorIs(t, err, ErrSubtreeExists)
	})

	t.Run("insert subtree over item", func(t *testing.T) {
		db := openDB(t)
		mustApply(t, db, Batch{}.Insert(nil, []byte("slot"), NewItem([]byte("x"))))
		mustApply(t, db, Batch{}.InsertSubtree(nil, []byte("slot")))

		el, _, err := db.GetRaw(nil, []byte("slot"))
		require.NoError(t, err)
		require.True(t, el.IsSubtree())
		sub, _, err := db.Resolve(NewPath([]byte("slot")))
		require.NoError(t, err)
		require.True(t, sub.RootHash().IsZero())
	})

	t.Run("delete anchor with entries", func(t *testing.T) {
		db := docsStore(t)
		_, err := db.Apply(Batch{}.Delete(nil, []byte("docs")))
		require.ErrorIs(t, err, ErrSubtreeNotEmpty)
	})

	t.Run("delete emptied anchor", func(t *testing.T) {
		db := docsStore(t)
		mustApply(t, db, Batch{}.Delete(NewPath([]byte("docs")), []byte("d1")))
		mustApply(t, db, Batch{}.Delete(nil, []byte("docs")))

		_, _, err := db.GetRaw(nil, []byte("docs"))
		require.ErrorIs(t, err, ErrKeyNotFound)
		_, _, err = db.RootHash(NewPath([]byte("docs")))
		require.ErrorIs(t, err, ErrPathNotFound)

		// The slot is free again.
		mustApply(t, db, Batch{}.InsertSubtree(nil, []byte("docs")))
	})

	t.Run("empty child and delete anchor in one batch", func(t *testing.T) {
		db := docsStore(t)
		mustApply(t, db, Batch{}.
			Delete(NewPath([]byte("docs")), []byte("d1")).
			Delete(nil, []byte("docs")))
		_, _, err := db.RootHash(NewPath([]byte("docs")))
		require.ErrorIs(t, err, ErrPathNotFound)
	})

	t.Run("write into child and delete anchor in one batch", func(t *testing.T) {
		db := docsStore(t)
		_, err := db.Apply(Batch{}.
			Insert(NewPath([]byte("docs")), []byte("d2"), NewItem([]byte("v2"))).
			Delete(nil, []byte("docs")))
		require.ErrorIs(t, err, ErrInvalidBatch)
		require.ErrorContains(t, err, "deletes its anchor")
	})

	t.Run("write into child and overwrite anchor in one batch", func(t *testing.T) {
		db := docsStore(t)
		_, err := db.Apply(Batch{}.
			Insert(NewPath([]byte("docs")), []byte("d2"), NewItem([]byte("v2"))).
			Insert(nil, []byte("docs"), NewItem([]byte("x"))))
		require.ErrorIs(t, err, ErrInvalidBatch)
		require.ErrorContains(t, err, "overwrites its anchor")
	})

	t.Run("delete absent key", func(t *testing.T) {
		db := openDB(t)
		_, err := db.Apply(Batch{}.Delete(nil, []byte("missing")))
		require.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("subtree anchor via insert", func(t *testing.T) {
		db := openDB(t)
		_, err := db.Apply(Batch{}.Insert(nil, []byte("s"), NewSubtree(avl.EmptyRoot())))
		require.ErrorIs(t, err, ErrInvalidBatch)
		require.ErrorContains(t, err, "InsertSubtree")
	})

	t.Run("empty key", func(t *testing.T) {
		db := openDB(t)
		_, err := db.Apply(Batch{}.Insert(nil, nil, NewItem(nil)))
		require.ErrorIs(t, err, ErrInvalidBatch)
	})

	t.Run("create write and delete in one batch", func(t *testing.T) {
		// The delete wins the anchor slot, so the subtree is never created
		// and the writes into it have nowhere to go.
		db := openDB(t)
		_, err := db.Apply(Batch{}.
			InsertSubtree(nil, []byte("tmp")).
			Insert(NewPath([]byte("tmp")), []byte("k"), NewItem(nil)).
			Delete(nil, []byte("tmp")))
		require.ErrorIs(t, err, ErrPathNotFound)
	})
}

func TestLastWriteWinsPerPathKey(t *testing.T) {
	db := openDB(t)
	mustApply(t, db, Batch{}.
		Insert(nil, []byte("k"), NewItem([]byte("first"))).
		Insert(nil, []byte("k"), NewItem([]byte("second"))))

	got, _, err := db.Get(nil, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got.Item())

	mustApply(t, db, Batch{}.Insert(nil, []byte("g"), NewItem([]byte("x"))))
	mustApply(t, db, Batch{}.
		Insert(nil, []byte("g"), NewItem([]byte("y"))).
		Delete(nil, []byte("g")))
	_, _, err = db.Get(nil, []byte("g"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestInsertSubtreeAndWriteSameBatch(t *testing.T) {
	db := openDB(t)
	mustApply(t, db, Batch{}.
		InsertSubtree(nil, []byte("s")).
		Insert(NewPath([]byte("s")), []byte("k"), NewItem([]byte("v"))))

	got, _, err := db.Get(NewPath([]byte("s")), []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got.Item())

	childRoot, _, err := db.RootHash(NewPath([]byte("s")))
	require.NoError(t, err)
	anchor, _, err := db.GetRaw(nil, []byte("s"))
	require.NoError(t, err)
	require.Equal(t, childRoot, anchor.SubtreeRoot())
}

func TestCostDeterminism(t *testing.T) {
	run := func() []cost.Cost {
		db := openDB(t)
		var out []cost.Cost
		out = append(out, mustApply(t, db, Batch{}.
			InsertSubtree(nil, []byte("docs")).
			Insert(NewPath([]byte("docs")), []byte("d1"), NewItem([]byte("v1")))))
		out = append(out, mustApply(t, db, Batch{}.
			Insert(nil, []byte("top"), NewItem([]byte("t"))).
			Delete(NewPath([]byte("docs")), []byte("d1"))))
		_, c, err := db.Get(nil, []byte("top"))
		require.NoError(t, err)
		out = append(out, c)
		_, c, err = db.RootHash(NewPath([]byte("docs")))
		require.NoError(t, err)
		out = append(out, c)
		return out
	}
	require.Equal(t, run(), run())
}

func TestCostCacheTransparency(t *testing.T) {
	// The same read must cost the same whether the root record comes from
	// the cache or from storage.
	be := memdb.New()
	db, err := Open(be)
	require.NoError(t, err)
	_, err = db.Apply(Batch{}.Insert(nil, []byte("k"), NewItem([]byte("v"))))
	require.NoError(t, err)

	_, warm, err := db.Get(nil, []byte("k"))
	require.NoError(t, err)

	fresh, err := Open(be)
	require.NoError(t, err)
	t.Cleanup(func() { fresh.Close() })

	_, cold, err := fresh.Get(nil, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, cold, warm)

	// And a repeated read on the same handle costs the same again.
	_, again, err := fresh.Get(nil, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, cold, again)
}

func TestWeightsOptions(t *testing.T) {
	db := openDB(t, WithWeights(cost.Weights{Seek: 100}))
	require.Equal(t, uint64(100), db.Weights().Seek)
	require.Equal(t, cost.DefaultWeights().Hash, db.Weights().Hash)

	def := openDB(t)
	require.Equal(t, cost.DefaultWeights(), def.Weights())
}

func TestSubtreeHandle(t *testing.T) {
	db := docsStore(t)
	mustApply(t, db, Batch{}.
		Insert(NewPath([]byte("docs")), []byte("d2"), NewItem([]byte("v2"))).
		Insert(NewPath([]byte("docs")), []byte("ref"), NewReference(NewPath([]byte("docs"), []byte("d1")))))

	sub, _, err := db.Resolve(NewPath([]byte("docs")))
	require.NoError(t, err)
	require.True(t, sub.Path().Equal(NewPath([]byte("docs"))))
	require.GreaterOrEqual(t, sub.Height(), 1)

	el, _, err := sub.Get([]byte("d1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), el.Item())

	// References come back as stored.
	el, _, err = sub.Get([]byte("ref"))
	require.NoError(t, err)
	require.True(t, el.IsReference())

	ok, _, err := sub.Has([]byte("d2"))
	require.NoError(t, err)
	require.True(t, ok)

	it, err := sub.Walk(avl.Range{})
	require.NoError(t, err)
	var keys []string
	var els []Element
	for it.Next() {
		keys = append(keys, string(it.Key()))
		els = append(els, it.Element())
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())
	require.Equal(t, []string{"d1", "d2", "ref"}, keys)
	require.Equal(t, []byte("v1"), els[0].Item())
	require.True(t, els[2].IsReference())
	require.False(t, it.Cost().IsZero())

	q := avl.NewQuery().InsertKey([]byte("d2"))
	steps, _, err := sub.Prove(q)
	require.NoError(t, err)
	res, err := avl.VerifySteps(steps, sub.RootHash(), q)
	require.NoError(t, err)
	val, ok := res.Value([]byte("d2"))
	require.True(t, ok)
	got, err := DecodeElement(val)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got.Item())
}

func TestBackendsInterchangeable(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) storage.Backend
	}{
		{"memdb", func(t *testing.T) storage.Backend {
			return memdb.New()
		}},
		{"pebbledb", func(t *testing.T) storage.Backend {
			be, err := pebbledb.Open("grove", pebbledb.WithMemFS())
			require.NoError(t, err)
			return be
		}},
		{"badgerdb", func(t *testing.T) storage.Backend {
			be, err := badgerdb.Open("", badgerdb.WithInMemory())
			require.NoError(t, err)
			return be
		}},
		{"dsadapter", func(t *testing.T) storage.Backend {
			return dsadapter.New(datastore.NewMapDatastore())
		}},
	}

	type result struct {
		applyCosts []cost.Cost
		readCost   cost.Cost
		root       avl.Hash
	}
	var want *result

	for _, bk := range backends {
		t.Run(bk.name, func(t *testing.T) {
			db, err := Open(bk.open(t))
			require.NoError(t, err)
			t.Cleanup(func() { require.NoError(t, db.Close()) })

			var r result
			c, err := db.Apply(Batch{}.
				InsertSubtree(nil, []byte("docs")).
				Insert(NewPath([]byte("docs")), []byte("d1"), NewItem([]byte("v1"))).
				Insert(nil, []byte("latest"), NewReference(NewPath([]byte("docs"), []byte("d1")))))
			require.NoError(t, err)
			r.applyCosts = append(r.applyCosts, c)

			c, err = db.Apply(Batch{}.
				Insert(NewPath([]byte("docs")), []byte("d2"), NewItem([]byte("v2"))).
				Delete(NewPath([]byte("docs")), []byte("d1")))
			require.NoError(t, err)
			r.applyCosts = append(r.applyCosts, c)

			el, gc, err := db.Get(NewPath([]byte("docs")), []byte("d2"))
			require.NoError(t, err)
			require.Equal(t, []byte("v2"), el.Item())
			r.readCost = gc

			// The reference now dangles; resolution reports it.
			_, _, err = db.Get(nil, []byte("latest"))
			require.ErrorIs(t, err, ErrKeyNotFound)

			_, err = db.VerifyHierarchy(context.Background())
			require.NoError(t, err)

			root, _, err := db.RootHash(nil)
			require.NoError(t, err)
			r.root = root

			// Hashes and costs are functions of the logical state, not of
			// the backend that stores it.
			if want == nil {
				want = &r
				return
			}
			require.Equal(t, want.root, r.root)
			require.Equal(t, want.applyCosts, r.applyCosts)
			require.Equal(t, want.readCost, r.readCost)
		})
	}
}
