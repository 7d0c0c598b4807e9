package avl

import (
	"errors"
	"fmt"

	"github.com/Silvanasss/GroveDB/cost"
	"github.com/Silvanasss/GroveDB/storage"
)

// Tree is one authenticated AVL tree stored under an opaque key prefix.
//
// A Tree handle is bound to the storage.Reader it was opened with: handles
// opened on a backend observe its committed state, handles opened on a
// transaction observe staged writes. Mutation requires a transaction-bound
// handle (NewWritable). Handles are not safe for concurrent use; open one
// handle per goroutine instead, they are cheap.
//
// If Apply returns an error the handle's in-memory state may be partially
// mutated and must be discarded along with the surrounding transaction.
type Tree struct {
	prefix []byte
	src    storage.Reader
	tx     storage.Tx
	root   *link
}

// Root identifies a tree's root node. It is what the per-tree root record
// stores and what callers may cache between operations.
type Root struct {
	Key    []byte
	Hash   Hash
	Height uint8
}

// Empty reports whether the root references no node.
func (r Root) Empty() bool {
	return len(r.Key) == 0
}

// New opens a read-only handle on the tree stored under prefix. A missing
// root record is an empty tree.
func New(prefix []byte, src storage.Reader, c *cost.Cost) (*Tree, error) {
	t := &Tree{prefix: copyBytes(prefix), src: src}
	if err := t.loadRoot(c); err != nil {
		return nil, err
	}
	return t, nil
}

// NewWritable opens a mutable handle whose reads and staged writes go
// through tx.
func NewWritable(prefix []byte, tx storage.Tx, c *cost.Cost) (*Tree, error) {
	t := &Tree{prefix: copyBytes(prefix), src: tx, tx: tx}
	if err := t.loadRoot(c); err != nil {
		return nil, err
	}
	return t, nil
}

// NewWithRoot opens a handle with a previously loaded Root, skipping the
// root record read. The caller vouches that root matches the reader's state.
func NewWithRoot(prefix []byte, src storage.Reader, root Root) *Tree {
	t := &Tree{prefix: copyBytes(prefix), src: src}
	if !root.Empty() {
		t.root = &link{key: copyBytes(root.Key), hash: root.Hash, height: root.Height}
	}
	return t
}

// Exists reports whether a tree was ever created under prefix. An existing
// tree may still be empty.
func Exists(prefix []byte, src storage.Reader, c *cost.Cost) (bool, error) {
	c.AddSeek()
	ok, err := src.Has(MetaKey(prefix))
	if err != nil {
		return false, fmt.Errorf("read root record: %w", err)
	}
	return ok, nil
}

// MetaKey returns the storage key of the tree's root record.
func MetaKey(prefix []byte) []byte {
	out := make([]byte, 0, len(prefix)+1)
	out = append(out, prefix...)
	return append(out, 'm')
}

// NodeKey returns the storage key of the node record for key.
func NodeKey(prefix, key []byte) []byte {
	out := make([]byte, 0, len(prefix)+1+len(key))
	out = append(out, prefix...)
	out = append(out, 'n')
	return append(out, key...)
}

func (t *Tree) loadRoot(c *cost.Cost) error {
	c.AddSeek()
	data, err := t.src.Get(MetaKey(t.prefix))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			t.root = nil
			return nil
		}
		return fmt.Errorf("read root record: %w", err)
	}
	c.AddRead(uint64(len(data)))
	t.root, err = decodeRoot(data)
	return err
}

// RootHash returns the tree's root hash; the zero hash for an empty tree.
func (t *Tree) RootHash() Hash {
	if t.root == nil {
		return EmptyRoot()
	}
	return t.root.hash
}

// Root returns the tree's current root reference.
func (t *Tree) Root() Root {
	if t.root == nil {
		return Root{}
	}
	return Root{Key: copyBytes(t.root.key), Hash: t.root.hash, Height: t.root.height}
}

// Empty reports whether the tree holds no entries.
func (t *Tree) Empty() bool {
	return t.root == nil
}

// Height returns the height of the tree; 0 when empty.
func (t *Tree) Height() int {
	return height(t.root)
}

// Get returns the value stored under key. Node records are addressed by
// key, so a point lookup is a single seek regardless of tree size.
func (t *Tree) Get(key []byte, c *cost.Cost) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	c.AddSeek()
	data, err := t.src.Get(NodeKey(t.prefix, key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %x", ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("read node: %w", err)
	}
	c.AddRead(uint64(len(data)))
	n, err := decodeNode(key, data)
	if err != nil {
		return nil, err
	}
	return n.value, nil
}

// Has reports whether key is present in the tree.
func (t *Tree) Has(key []byte, c *cost.Cost) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	c.AddSeek()
	ok, err := t.src.Has(NodeKey(t.prefix, key))
	if err != nil {
		return false, fmt.Errorf("read node: %w", err)
	}
	return ok, nil
}

// EnsureCreated writes an empty root record if the tree has none, marking
// the tree as existing. Requires a writable handle.
func (t *Tree) EnsureCreated(c *cost.Cost) error {
	if t.tx == nil {
		return storage.ErrReadOnly
	}
	exists, err := Exists(t.prefix, t.src, c)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	enc := encodeRoot(t.root)
	key := MetaKey(t.prefix)
	c.AddSeek()
	c.AddWritten(uint64(len(key) + len(enc)))
	if err := t.tx.Put(key, enc); err != nil {
		return fmt.Errorf("write root record: %w", err)
	}
	return nil
}

// Destroy removes the tree's root record. It fails with ErrTreeNotEmpty if
// the tree still holds entries.
func (t *Tree) Destroy(c *cost.Cost) error {
	if t.tx == nil {
		return storage.ErrReadOnly
	}
	if t.root != nil {
		return fmt.Errorf("%w: root %x", ErrTreeNotEmpty, t.root.key)
	}
	c.AddSeek()
	if err := t.tx.Delete(MetaKey(t.prefix)); err != nil {
		return fmt.Errorf("delete root record: %w", err)
	}
	return nil
}

// loadNode attaches and returns the node referenced by l, fetching it from
// storage on first use.
func (t *Tree) loadNode(l *link, c *cost.Cost) (*node, error) {
	if l.n != nil {
		return l.n, nil
	}
	c.AddSeek()
	data, err := t.src.Get(NodeKey(t.prefix, l.key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: dangling link to %x", ErrCorruptedNode, l.key)
		}
		return nil, fmt.Errorf("read node: %w", err)
	}
	c.AddRead(uint64(len(data)))
	n, err := decodeNode(l.key, data)
	if err != nil {
		return nil, err
	}
	if n.height != l.height {
		return nil, fmt.Errorf("%w: height mismatch at %x: stored %d, linked %d",
			ErrCorruptedNode, l.key, n.height, l.height)
	}
	n.hash = l.hash
	n.hashValid = true
	l.n = n
	return n, nil
}
