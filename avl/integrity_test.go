package avl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Silvanasss/GroveDB/cost"
	"github.com/Silvanasss/GroveDB/storage/memdb"
)

func writeRaw(t *testing.T, db *memdb.DB, key, value []byte) {
	t.Helper()
	tx, err := db.NewTx(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put(key, value))
	require.NoError(t, tx.Commit())
}

func deleteRaw(t *testing.T, db *memdb.DB, key []byte) {
	t.Helper()
	tx, err := db.NewTx(true)
	require.NoError(t, err)
	require.NoError(t, tx.Delete(key))
	require.NoError(t, tx.Commit())
}

// rewriteNode decodes the stored record for key, lets mutate change it, and
// writes the reencoded record back, bypassing Apply.
func rewriteNode(t *testing.T, db *memdb.DB, prefix, key []byte, mutate func(n *node)) {
	t.Helper()
	data, err := db.Get(NodeKey(prefix, key))
	require.NoError(t, err)
	n, err := decodeNode(key, data)
	require.NoError(t, err)
	mutate(n)
	writeRaw(t, db, NodeKey(prefix, key), encodeNode(n))
}

func auditErr(t *testing.T, db *memdb.DB, prefix []byte) error {
	t.Helper()
	var c cost.Cost
	tr, err := New(prefix, db, &c)
	require.NoError(t, err)
	return tr.VerifyIntegrity(&c)
}

func TestVerifyIntegrityClean(t *testing.T) {
	tr, _ := alphabetTree(t)
	var c cost.Cost
	require.NoError(t, tr.VerifyIntegrity(&c))

	empty, err := New([]byte("none/"), newBackend(t), &c)
	require.NoError(t, err)
	require.NoError(t, empty.VerifyIntegrity(&c))
}

func TestVerifyIntegrityDetectsValueTamper(t *testing.T) {
	_, db := alphabetTree(t)
	rewriteNode(t, db, testPrefix, []byte("q"), func(n *node) {
		n.value = []byte("forged")
	})

	err := auditErr(t, db, testPrefix)
	require.ErrorIs(t, err, ErrIntegrity)
	require.ErrorContains(t, err, "value hash mismatch")
}

func TestVerifyIntegrityDetectsChildHashTamper(t *testing.T) {
	tr, db := alphabetTree(t)
	rewriteNode(t, db, testPrefix, tr.Root().Key, func(n *node) {
		require.NotNil(t, n.left)
		n.left.hash[0] ^= 0xff
	})

	err := auditErr(t, db, testPrefix)
	require.ErrorIs(t, err, ErrIntegrity)
	require.ErrorContains(t, err, "node hash mismatch")
}

func TestVerifyIntegrityDetectsHeightTamper(t *testing.T) {
	_, db := alphabetTree(t)
	data, err := db.Get(MetaKey(testPrefix))
	require.NoError(t, err)
	root, err := DecodeRootRecord(data)
	require.NoError(t, err)
	root.Height++
	writeRaw(t, db, MetaKey(testPrefix), EncodeRootRecord(root))

	err = auditErr(t, db, testPrefix)
	require.ErrorIs(t, err, ErrCorruptedNode)
	require.ErrorContains(t, err, "height mismatch")
}

func TestVerifyIntegrityDetectsDanglingLink(t *testing.T) {
	_, db := alphabetTree(t)
	deleteRaw(t, db, NodeKey(testPrefix, []byte("a")))

	err := auditErr(t, db, testPrefix)
	require.ErrorIs(t, err, ErrCorruptedNode)
	require.ErrorContains(t, err, "dangling link")
}

func TestVerifyIntegrityDetectsKeyOrderViolation(t *testing.T) {
	// Fabricated store: the root "m" links to a left child "x", which sorts
	// above it. Apply can never produce this, so the records are written
	// directly.
	db := newBackend(t)
	prefix := []byte("bad/")

	x := &node{key: []byte("x"), value: []byte("vx"), valueHash: ValueHash([]byte("vx"))}
	x.updateHeight()
	writeRaw(t, db, NodeKey(prefix, x.key), encodeNode(x))

	m := &node{
		key:       []byte("m"),
		value:     []byte("vm"),
		valueHash: ValueHash([]byte("vm")),
		left:      &link{key: x.key, hash: ValueHash([]byte("filler")), height: 1},
	}
	m.updateHeight()
	writeRaw(t, db, NodeKey(prefix, m.key), encodeNode(m))
	writeRaw(t, db, MetaKey(prefix), EncodeRootRecord(Root{
		Key: m.key, Hash: ValueHash([]byte("filler")), Height: 2,
	}))

	err := auditErr(t, db, prefix)
	require.ErrorIs(t, err, ErrIntegrity)
	require.ErrorContains(t, err, "out of order")
}

func TestVerifyIntegrityDetectsImbalance(t *testing.T) {
	// Fabricated left chain z -> x -> w with correct hashes everywhere, so
	// the first violation the audit can see is the balance factor -2 at the
	// root.
	db := newBackend(t)
	prefix := []byte("bad/")

	w := &node{key: []byte("w"), value: []byte("vw"), valueHash: ValueHash([]byte("vw"))}
	w.updateHeight()
	hW := NodeHash(LeafHash(w.key, w.valueHash), EmptyRoot(), EmptyRoot())
	writeRaw(t, db, NodeKey(prefix, w.key), encodeNode(w))

	x := &node{
		key:       []byte("x"),
		value:     []byte("vx"),
		valueHash: ValueHash([]byte("vx")),
		left:      &link{key: w.key, hash: hW, height: 1},
	}
	x.updateHeight()
	hX := NodeHash(LeafHash(x.key, x.valueHash), hW, EmptyRoot())
	writeRaw(t, db, NodeKey(prefix, x.key), encodeNode(x))

	z := &node{
		key:       []byte("z"),
		value:     []byte("vz"),
		valueHash: ValueHash([]byte("vz")),
		left:      &link{key: x.key, hash: hX, height: 2},
	}
	z.updateHeight()
	writeRaw(t, db, NodeKey(prefix, z.key), encodeNode(z))
	writeRaw(t, db, MetaKey(prefix), EncodeRootRecord(Root{
		Key: z.key, Hash: ValueHash([]byte("filler")), Height: 3,
	}))

	err := auditErr(t, db, prefix)
	require.ErrorIs(t, err, ErrIntegrity)
	require.ErrorContains(t, err, "balance factor -2")
}

func TestInvariantErrorMessage(t *testing.T) {
	e := &InvariantError{Msg: "balance factor 2 after rebalancing", Key: []byte{0xab}}
	require.Equal(t, "avl: invariant violation at key ab: balance factor 2 after rebalancing", e.Error())

	noKey := &InvariantError{Msg: "tree height exceeds 255"}
	require.Equal(t, "avl: invariant violation: tree height exceeds 255", noKey.Error())
}
