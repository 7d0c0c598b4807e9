package avl

import (
	"github.com/Silvanasss/GroveDB/cost"
)

// A proof is a post-order sequence of steps replayed by a stack machine.
// Empty and Sibling push one reconstructed subtree; Node and Leaf pop the
// two subtrees produced before them (left first, then right) and push their
// parent. A well-formed proof reduces to exactly one subtree whose hash is
// the tree's root hash.
//
// Leaf steps disclose the key and value of queried entries. Node steps
// cover the traversal path: they disclose the key and the value hash, never
// the value. Sibling steps stand in for whole pruned subtrees. Empty steps
// mark absent children, which is also how absence of a key is proven: the
// verifier walks the reconstructed tree toward the key and must reach an
// Empty slot between two revealed neighbors.
type Step struct {
	Kind  StepKind
	Key   []byte
	Value []byte
	// Hash is the pruned subtree hash for Sibling steps and the value hash
	// for Node steps.
	Hash Hash
}

// StepKind discriminates proof steps.
type StepKind byte

const (
	// StepEmpty marks an absent child position.
	StepEmpty StepKind = iota
	// StepSibling stands in for a pruned subtree by its node hash.
	StepSibling
	// StepNode reveals a traversal node's key and value hash.
	StepNode
	// StepLeaf reveals a queried entry's key and value.
	StepLeaf
)

func (k StepKind) String() string {
	switch k {
	case StepEmpty:
		return "Empty"
	case StepSibling:
		return "Sibling"
	case StepNode:
		return "Node"
	case StepLeaf:
		return "Leaf"
	default:
		return "Unknown"
	}
}

// Prove builds a proof for the query against the tree's current state. The
// proof reveals the queried entries (and, for absent keys, the structure
// bounding the gap) and prunes every subtree the query does not touch
// without loading it.
func (t *Tree) Prove(q *Query, c *cost.Cost) ([]Step, error) {
	nq := q.normalize()
	var steps []Step
	var gen func(l *link, lo, hi []byte) error
	gen = func(l *link, lo, hi []byte) error {
		if l == nil {
			steps = append(steps, Step{Kind: StepEmpty})
			return nil
		}
		if !nq.overlapsSpan(lo, hi) {
			steps = append(steps, Step{Kind: StepSibling, Hash: l.hash})
			return nil
		}
		n, err := t.loadNode(l, c)
		if err != nil {
			return err
		}
		if err := gen(n.left, lo, n.key); err != nil {
			return err
		}
		if err := gen(n.right, n.key, hi); err != nil {
			return err
		}
		if nq.matches(n.key) {
			steps = append(steps, Step{
				Kind:  StepLeaf,
				Key:   copyBytes(n.key),
				Value: copyBytes(n.value),
			})
		} else {
			steps = append(steps, Step{
				Kind: StepNode,
				Key:  copyBytes(n.key),
				Hash: n.valueHash,
			})
		}
		return nil
	}
	if err := gen(t.root, nil, nil); err != nil {
		return nil, err
	}
	return steps, nil
}
