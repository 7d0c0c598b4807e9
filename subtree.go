package grovedb

import (
	"github.com/Silvanasss/GroveDB/avl"
	"github.com/Silvanasss/GroveDB/cost"
)

// Subtree is a read-only handle on one subtree, bound to the state
// observed when it was resolved. It is cheap to create and not safe for
// concurrent use; resolve one handle per goroutine.
type Subtree struct {
	db   *DB
	path Path
	tree *avl.Tree
}

// Path returns the subtree's hierarchy path.
func (s *Subtree) Path() Path {
	return NewPath(s.path...)
}

// RootHash returns the subtree's root hash; the zero hash when empty.
func (s *Subtree) RootHash() avl.Hash {
	return s.tree.RootHash()
}

// Height returns the height of the subtree's tree; 0 when empty.
func (s *Subtree) Height() int {
	return s.tree.Height()
}

// Get returns the element stored under key. References are returned as
// stored; use DB.Get to follow them across subtrees.
func (s *Subtree) Get(key []byte) (Element, cost.Cost, error) {
	var c cost.Cost
	data, err := s.tree.Get(key, &c)
	if err != nil {
		return Element{}, c, err
	}
	el, err := DecodeElement(data)
	return el, c, err
}

// Has reports whether an element is stored under key.
func (s *Subtree) Has(key []byte) (bool, cost.Cost, error) {
	var c cost.Cost
	ok, err := s.tree.Has(key, &c)
	return ok, c, err
}

// Prove builds a proof for the query against this subtree alone. For a
// proof anchored in the hierarchy root hash, use DB.Prove.
func (s *Subtree) Prove(q *avl.Query) ([]avl.Step, cost.Cost, error) {
	var c cost.Cost
	steps, err := s.tree.Prove(q, &c)
	return steps, c, err
}

// Walk iterates the subtree's elements in ascending key order over the
// given range. A zero Range walks everything.
func (s *Subtree) Walk(r avl.Range) (*Iterator, error) {
	gi := &Iterator{}
	it, err := s.tree.Walk(r, &gi.c)
	if err != nil {
		return nil, err
	}
	gi.it = it
	return gi, nil
}

// Iterator yields decoded elements in ascending key order. The key slice
// is only valid until the next call to Next or Close.
type Iterator struct {
	it   *avl.Iterator
	c    cost.Cost
	elem Element
	err  error
}

// Next advances to the next element and reports whether one exists.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.it.Next() {
		return false
	}
	el, err := DecodeElement(it.it.Value())
	if err != nil {
		it.err = err
		return false
	}
	it.elem = el
	return true
}

// Key returns the current element's key.
func (it *Iterator) Key() []byte {
	return it.it.Key()
}

// Element returns the current element.
func (it *Iterator) Element() Element {
	return it.elem
}

// Cost returns the cost accumulated by the iteration so far.
func (it *Iterator) Cost() cost.Cost {
	return it.c
}

// Err returns the first error encountered while iterating.
func (it *Iterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.it.Err()
}

// Close releases the iterator.
func (it *Iterator) Close() error {
	return it.it.Close()
}
