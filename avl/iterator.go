package avl

import (
	"bytes"
	"fmt"

	"github.com/Silvanasss/GroveDB/cost"
	"github.com/Silvanasss/GroveDB/storage"
)

// Range is a half-open key interval [Start, End). A nil Start means "from
// the first key", a nil End "through the last key".
type Range struct {
	Start []byte
	End   []byte
}

// Contains reports whether key falls inside the range.
func (r Range) Contains(key []byte) bool {
	return (r.Start == nil || bytes.Compare(key, r.Start) >= 0) &&
		(r.End == nil || bytes.Compare(key, r.End) < 0)
}

// Iterator yields the tree's entries in ascending key order. Node records
// are addressed by key, so iteration reads the backend's key range directly
// instead of walking the tree shape; it is restartable by opening a new
// iterator at the last seen key.
//
//	it, err := tree.Walk(avl.Range{}, &c)
//	...
//	for it.Next() {
//		use(it.Key(), it.Value())
//	}
//	err = it.Err()
type Iterator struct {
	it        storage.Iterator
	prefixLen int
	c         *cost.Cost
	key       []byte
	value     []byte
	err       error
}

// Walk opens an iterator over the entries of the tree restricted to rng.
func (t *Tree) Walk(rng Range, c *cost.Cost) (*Iterator, error) {
	lo := NodeKey(t.prefix, rng.Start)
	var hi []byte
	if rng.End != nil {
		hi = NodeKey(t.prefix, rng.End)
	} else {
		hi = storage.PrefixEnd(NodeKey(t.prefix, nil))
	}
	c.AddSeek()
	it, err := t.src.NewIterator(lo, hi)
	if err != nil {
		return nil, fmt.Errorf("open range: %w", err)
	}
	return &Iterator{it: it, prefixLen: len(t.prefix) + 1, c: c}, nil
}

// Next advances to the next entry. It returns false at the end of the range
// or on error; check Err after the loop.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.it.Next() {
		return false
	}
	storageKey := it.it.Key()
	if len(storageKey) < it.prefixLen {
		it.err = fmt.Errorf("%w: short storage key", ErrCorruptedNode)
		return false
	}
	key := copyBytes(storageKey[it.prefixLen:])
	data := it.it.Value()
	it.c.AddSeek()
	it.c.AddRead(uint64(len(data)))
	n, err := decodeNode(key, data)
	if err != nil {
		it.err = err
		return false
	}
	it.key = n.key
	it.value = n.value
	return true
}

// Key returns the current entry's key. Valid until the next call to Next.
func (it *Iterator) Key() []byte {
	return it.key
}

// Value returns the current entry's value. Valid until the next call to
// Next.
func (it *Iterator) Value() []byte {
	return it.value
}

// Err returns the first error encountered while iterating.
func (it *Iterator) Err() error {
	return it.err
}

// Close releases the iterator.
func (it *Iterator) Close() error {
	return it.it.Close()
}
