package avl

import (
	"bytes"
	"fmt"

	"github.com/Silvanasss/GroveDB/cost"
)

// VerifyIntegrity audits the stored tree from scratch: it reloads every
// reachable node, recomputes value, leaf and node hashes bottom-up, and
// checks key order, cached child metadata and the balance invariant against
// what is stored. It returns ErrIntegrity (or ErrCorruptedNode for
// undecodable records) describing the first mismatch.
//
// This is the recomputation backing the store's consistency guarantee: a
// clean audit means the cached root hash equals the root hash of the tree's
// full contents.
func (t *Tree) VerifyIntegrity(c *cost.Cost) error {
	if t.root == nil {
		return nil
	}
	_, _, err := t.checkLink(t.root, nil, nil, c)
	return err
}

// checkLink audits the subtree referenced by l within the exclusive key
// bounds (lo, hi) and returns its recomputed hash and height.
func (t *Tree) checkLink(l *link, lo, hi []byte, c *cost.Cost) (Hash, int, error) {
	n, err := t.loadNode(l, c)
	if err != nil {
		return Hash{}, 0, err
	}
	if lo != nil && bytes.Compare(n.key, lo) <= 0 {
		return Hash{}, 0, fmt.Errorf("%w: key %x out of order (not above %x)",
			ErrIntegrity, n.key, lo)
	}
	if hi != nil && bytes.Compare(n.key, hi) >= 0 {
		return Hash{}, 0, fmt.Errorf("%w: key %x out of order (not below %x)",
			ErrIntegrity, n.key, hi)
	}

	vh := ValueHash(n.value)
	c.AddHashes(1)
	if vh != n.valueHash {
		return Hash{}, 0, fmt.Errorf("%w: value hash mismatch at %x", ErrIntegrity, n.key)
	}

	lh, lHeight := EmptyRoot(), 0
	if n.left != nil {
		lh, lHeight, err = t.checkLink(n.left, lo, n.key, c)
		if err != nil {
			return Hash{}, 0, err
		}
	}
	rh, rHeight := EmptyRoot(), 0
	if n.right != nil {
		rh, rHeight, err = t.checkLink(n.right, n.key, hi, c)
		if err != nil {
			return Hash{}, 0, err
		}
	}

	if bf := rHeight - lHeight; bf < -1 || bf > 1 {
		return Hash{}, 0, fmt.Errorf("%w: balance factor %d at %x", ErrIntegrity, bf, n.key)
	}
	height := lHeight
	if rHeight > height {
		height = rHeight
	}
	height++
	if height != int(l.height) {
		return Hash{}, 0, fmt.Errorf("%w: height mismatch at %x: recomputed %d, linked %d",
			ErrIntegrity, n.key, height, l.height)
	}

	kvh := LeafHash(n.key, n.valueHash)
	c.AddHashes(1)
	h := NodeHash(kvh, lh, rh)
	c.AddHashes(1)
	if h != l.hash {
		return Hash{}, 0, fmt.Errorf("%w: node hash mismatch at %x: recomputed %v, linked %v",
			ErrIntegrity, n.key, h, l.hash)
	}
	return h, height, nil
}
