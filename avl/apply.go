package avl

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Silvanasss/GroveDB/cost"
	"github.com/Silvanasss/GroveDB/storage"
)

// Op is one entry of a Batch: a Put of Value under Key, or a Delete of Key.
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Batch is an ordered list of operations applied atomically by Apply.
// Multiple ops on the same key collapse to the last one.
type Batch []Op

// Put appends a put operation.
func (b Batch) Put(key, value []byte) Batch {
	return append(b, Op{Key: key, Value: value})
}

// Del appends a delete operation.
func (b Batch) Del(key []byte) Batch {
	return append(b, Op{Key: key, Delete: true})
}

// normalize returns a key-sorted copy of b with exactly one op per key,
// keeping the last occurrence of each. The result is what Apply actually
// executes, which makes the outcome independent of the order ops were
// appended in.
func normalize(b Batch) (Batch, error) {
	for _, op := range b {
		if len(op.Key) == 0 {
			return nil, ErrEmptyKey
		}
	}
	sorted := make(Batch, len(b))
	copy(sorted, b)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Key, sorted[j].Key) < 0
	})
	out := sorted[:0]
	for _, op := range sorted {
		if len(out) > 0 && bytes.Equal(out[len(out)-1].Key, op.Key) {
			out[len(out)-1] = op
		} else {
			out = append(out, op)
		}
	}
	return out, nil
}

// Apply executes the batch atomically against the tree and returns the new
// root hash. Writes are staged into the handle's transaction; they become
// durable when the transaction commits.
//
// The batch is normalized first (sorted, last op per key wins), so any
// permutation of the same batch produces the same tree. A batch applied to
// an empty tree builds the canonical balanced shape for its key set.
// Deleting a key that is not present fails the whole batch with
// ErrKeyNotFound.
func (t *Tree) Apply(b Batch, c *cost.Cost) (Hash, error) {
	if t.tx == nil {
		return Hash{}, storage.ErrReadOnly
	}
	norm, err := normalize(b)
	if err != nil {
		return Hash{}, err
	}
	if len(norm) == 0 {
		return t.RootHash(), nil
	}

	a := &applier{t: t, c: c}
	newRoot, err := a.applyLink(t.root, norm)
	if err != nil {
		return Hash{}, err
	}
	if newRoot != nil {
		a.rehash(newRoot)
	}
	if err := a.flush(newRoot); err != nil {
		return Hash{}, err
	}
	t.root = newRoot
	return t.RootHash(), nil
}

// applier carries the state of one Apply call.
type applier struct {
	t       *Tree
	c       *cost.Cost
	deleted [][]byte
}

func (a *applier) applyLink(l *link, b Batch) (*link, error) {
	if len(b) == 0 {
		return l, nil
	}
	if l == nil {
		return a.build(b)
	}
	n, err := a.t.loadNode(l, a.c)
	if err != nil {
		return nil, err
	}
	return a.applyNode(n, b)
}

func (a *applier) applyNode(n *node, b Batch) (*link, error) {
	idx := sort.Search(len(b), func(i int) bool {
		return bytes.Compare(b[i].Key, n.key) >= 0
	})
	found := idx < len(b) && bytes.Equal(b[idx].Key, n.key)
	leftB := b[:idx]
	rightB := b[idx:]
	if found {
		rightB = b[idx+1:]
	}

	nl, err := a.applyLink(n.left, leftB)
	if err != nil {
		return nil, err
	}
	nr, err := a.applyLink(n.right, rightB)
	if err != nil {
		return nil, err
	}
	n.left, n.right = nl, nr

	if found {
		op := b[idx]
		if op.Delete {
			return a.remove(n)
		}
		n.value = copyBytes(op.Value)
		n.valueHash = ValueHash(op.Value)
		a.c.AddHashes(1)
	}

	n.markChanged()
	n.updateHeight()
	return a.rebalance(n)
}

// remove deletes n itself after its children have absorbed their share of
// the batch. With two children the edge entry of the taller child replaces
// n; ties promote from the left. This rule is fixed so that identical
// batches always produce identical shapes.
func (a *applier) remove(n *node) (*link, error) {
	a.deleted = append(a.deleted, n.key)
	switch {
	case n.left == nil && n.right == nil:
		return nil, nil
	case n.left == nil:
		return n.right, nil
	case n.right == nil:
		return n.left, nil
	}

	var promoted *node
	if height(n.left) >= height(n.right) {
		rest, det, err := a.detachMax(n.left)
		if err != nil {
			return nil, err
		}
		promoted = det
		promoted.left = rest
		promoted.right = n.right
	} else {
		rest, det, err := a.detachMin(n.right)
		if err != nil {
			return nil, err
		}
		promoted = det
		promoted.left = n.left
		promoted.right = rest
	}
	promoted.markChanged()
	promoted.updateHeight()
	return a.rebalance(promoted)
}

// detachMax removes and returns the maximum node of the subtree at l,
// along with the rebalanced remainder.
func (a *applier) detachMax(l *link) (*link, *node, error) {
	n, err := a.t.loadNode(l, a.c)
	if err != nil {
		return nil, nil, err
	}
	if n.right == nil {
		rest := n.left
		n.left = nil
		n.markChanged()
		return rest, n, nil
	}
	rest, det, err := a.detachMax(n.right)
	if err != nil {
		return nil, nil, err
	}
	n.right = rest
	n.markChanged()
	n.updateHeight()
	nl, err := a.rebalance(n)
	if err != nil {
		return nil, nil, err
	}
	return nl, det, nil
}

// detachMin removes and returns the minimum node of the subtree at l,
// along with the rebalanced remainder.
func (a *applier) detachMin(l *link) (*link, *node, error) {
	n, err := a.t.loadNode(l, a.c)
	if err != nil {
		return nil, nil, err
	}
	if n.left == nil {
		rest := n.right
		n.right = nil
		n.markChanged()
		return rest, n, nil
	}
	rest, det, err := a.detachMin(n.left)
	if err != nil {
		return nil, nil, err
	}
	n.left = rest
	n.markChanged()
	n.updateHeight()
	nl, err := a.rebalance(n)
	if err != nil {
		return nil, nil, err
	}
	return nl, det, nil
}

// rebalance restores the AVL invariant at n. A child with balance factor 0
// takes a single rotation; only a strictly opposite-leaning child triggers
// the double rotation. Both choices are fixed to keep shapes deterministic.
func (a *applier) rebalance(n *node) (*link, error) {
	bf := n.balanceFactor()
	switch {
	case bf > 1:
		r, err := a.t.loadNode(n.right, a.c)
		if err != nil {
			return nil, err
		}
		if r.balanceFactor() < 0 {
			rl, err := a.rotateRight(r)
			if err != nil {
				return nil, err
			}
			n.right = rl
		}
		return a.rotateLeft(n)
	case bf < -1:
		l, err := a.t.loadNode(n.left, a.c)
		if err != nil {
			return nil, err
		}
		if l.balanceFactor() > 0 {
			ll, err := a.rotateLeft(l)
			if err != nil {
				return nil, err
			}
			n.left = ll
		}
		return a.rotateRight(n)
	}
	return n.link(), nil
}

func (a *applier) rotateLeft(n *node) (*link, error) {
	r, err := a.t.loadNode(n.right, a.c)
	if err != nil {
		return nil, err
	}
	n.right = r.left
	n.markChanged()
	n.updateHeight()
	r.left = n.link()
	r.markChanged()
	r.updateHeight()
	return r.link(), nil
}

func (a *applier) rotateRight(n *node) (*link, error) {
	l, err := a.t.loadNode(n.left, a.c)
	if err != nil {
		return nil, err
	}
	n.left = l.right
	n.markChanged()
	n.updateHeight()
	l.right = n.link()
	l.markChanged()
	l.updateHeight()
	return l.link(), nil
}

// build constructs the canonical balanced tree for a batch applied where no
// subtree exists: the midpoint key becomes the root, recursively. With an
// even split the extra node goes to the left.
func (a *applier) build(b Batch) (*link, error) {
	for _, op := range b {
		if op.Delete {
			return nil, fmt.Errorf("%w: %x", ErrKeyNotFound, op.Key)
		}
	}
	root := a.buildRange(b)
	a.hashBuilt(root)
	return root, nil
}

func (a *applier) buildRange(b Batch) *link {
	if len(b) == 0 {
		return nil
	}
	mid := len(b) / 2
	op := b[mid]
	n := &node{
		key:   copyBytes(op.Key),
		value: copyBytes(op.Value),
	}
	n.valueHash = ValueHash(op.Value)
	a.c.AddHashes(1)
	n.left = a.buildRange(b[:mid])
	n.right = a.buildRange(b[mid+1:])
	n.markChanged()
	n.updateHeight()
	return n.link()
}

// hashBuilt computes the hashes of a freshly built subtree level by level,
// deepest first, feeding each level's two hashing stages to the batched
// pair hasher.
func (a *applier) hashBuilt(root *link) {
	var levels [][]*link
	var collect func(l *link, depth int)
	collect = func(l *link, depth int) {
		if l == nil {
			return
		}
		if depth == len(levels) {
			levels = append(levels, nil)
		}
		levels[depth] = append(levels[depth], l)
		collect(l.n.left, depth+1)
		collect(l.n.right, depth+1)
	}
	collect(root, 0)

	for d := len(levels) - 1; d >= 0; d-- {
		links := levels[d]
		leafHashes := make([]Hash, len(links))
		lefts := make([]Hash, len(links))
		rights := make([]Hash, len(links))
		for i, l := range links {
			n := l.n
			leafHashes[i] = LeafHash(n.key, n.valueHash)
			a.c.AddHashes(1)
			lefts[i] = childHash(n.left)
			rights[i] = childHash(n.right)
		}
		stage := make([]Hash, len(links))
		hashPairs(stage, leafHashes, lefts)
		final := make([]Hash, len(links))
		hashPairs(final, stage, rights)
		for i, l := range links {
			l.n.hash = final[i]
			l.n.hashValid = true
			l.hash = final[i]
			l.height = l.n.height
			a.c.AddHashes(1)
		}
	}
}

// rehash recomputes hashes bottom-up along the modified paths and refreshes
// the links above them. It also rechecks the balance invariant for every
// node it touches; a violation here is a defect in the mutation logic and
// panics.
func (a *applier) rehash(l *link) {
	if l == nil || l.n == nil {
		return
	}
	n := l.n
	if n.hashValid {
		return
	}
	a.rehash(n.left)
	a.rehash(n.right)

	if bf := n.balanceFactor(); bf < -1 || bf > 1 {
		panic(&InvariantError{
			Msg: fmt.Sprintf("balance factor %d after rebalancing", bf),
			Key: n.key,
		})
	}

	kvh := LeafHash(n.key, n.valueHash)
	a.c.AddHashes(1)
	n.hash = NodeHash(kvh, childHash(n.left), childHash(n.right))
	a.c.AddHashes(1)
	n.hashValid = true
	l.hash = n.hash
	l.height = n.height
}

// flush stages node deletions, dirty node writes and the root record into
// the transaction.
func (a *applier) flush(root *link) error {
	for _, k := range a.deleted {
		a.c.AddSeek()
		if err := a.t.tx.Delete(NodeKey(a.t.prefix, k)); err != nil {
			return fmt.Errorf("delete node: %w", err)
		}
	}

	var write func(l *link) error
	write = func(l *link) error {
		if l == nil || l.n == nil || !l.n.dirty {
			return nil
		}
		if err := write(l.n.left); err != nil {
			return err
		}
		if err := write(l.n.right); err != nil {
			return err
		}
		key := NodeKey(a.t.prefix, l.n.key)
		enc := encodeNode(l.n)
		a.c.AddSeek()
		a.c.AddWritten(uint64(len(key) + len(enc)))
		if err := a.t.tx.Put(key, enc); err != nil {
			return fmt.Errorf("write node: %w", err)
		}
		l.n.dirty = false
		return nil
	}
	if err := write(root); err != nil {
		return err
	}

	metaKey := MetaKey(a.t.prefix)
	enc := encodeRoot(root)
	a.c.AddSeek()
	a.c.AddWritten(uint64(len(metaKey) + len(enc)))
	if err := a.t.tx.Put(metaKey, enc); err != nil {
		return fmt.Errorf("write root record: %w", err)
	}
	return nil
}
