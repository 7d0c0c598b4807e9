package grovedb

import (
	"fmt"
	"sort"

	"github.com/Silvanasss/GroveDB/avl"
)

// OpKind discriminates batch operations.
type OpKind byte

const (
	// OpInsert writes an item or reference element under Key.
	OpInsert OpKind = iota
	// OpDelete removes the element under Key. Deleting a subtree anchor
	// requires the child subtree to be empty and destroys it.
	OpDelete
	// OpInsertSubtree creates an empty child subtree under Key and writes
	// its anchor.
	OpInsertSubtree
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpInsertSubtree:
		return "insert_subtree"
	default:
		return "unknown"
	}
}

// Op is one mutation addressed at a key inside the subtree at Path.
type Op struct {
	Path Path
	Kind OpKind
	Key  []byte
	// Elem is the element written by OpInsert; unused otherwise.
	Elem Element
}

// Batch is an ordered list of operations applied atomically across any
// number of subtrees. When several operations address the same path and
// key, the last one in batch order wins.
type Batch []Op

// Insert appends a write of el under key in the subtree at path.
func (b Batch) Insert(path Path, key []byte, el Element) Batch {
	return append(b, Op{Path: NewPath(path...), Kind: OpInsert, Key: append([]byte(nil), key...), Elem: el})
}

// Delete appends a removal of the element under key in the subtree at
// path.
func (b Batch) Delete(path Path, key []byte) Batch {
	return append(b, Op{Path: NewPath(path...), Kind: OpDelete, Key: append([]byte(nil), key...)})
}

// InsertSubtree appends the creation of an empty child subtree anchored
// under key in the subtree at path.
func (b Batch) InsertSubtree(path Path, key []byte) Batch {
	return append(b, Op{Path: NewPath(path...), Kind: OpInsertSubtree, Key: append([]byte(nil), key...)})
}

// validate rejects structurally invalid batches before any state is
// touched. Subtree anchors cannot be written by OpInsert; their bound root
// hash is owned by batch application.
func (b Batch) validate() error {
	for i, op := range b {
		if err := op.Path.Validate(); err != nil {
			return fmt.Errorf("%w: op %d: %v", ErrInvalidBatch, i, err)
		}
		if len(op.Key) == 0 {
			return fmt.Errorf("%w: op %d: empty key", ErrInvalidBatch, i)
		}
		switch op.Kind {
		case OpInsert:
			if op.Elem.IsSubtree() {
				return fmt.Errorf("%w: op %d: subtree anchors are written by InsertSubtree", ErrInvalidBatch, i)
			}
			if err := op.Elem.validate(); err != nil {
				return fmt.Errorf("%w: op %d: %v", ErrInvalidBatch, i, err)
			}
		case OpDelete, OpInsertSubtree:
		default:
			return fmt.Errorf("%w: op %d: unknown kind %d", ErrInvalidBatch, i, op.Kind)
		}
	}
	return nil
}

// group collects the winning operations of one batch that target a single
// subtree, plus the child root updates queued for it by deeper subtrees.
type group struct {
	path   Path
	prefix []byte
	ops    []Op
	// props maps an anchor segment to the new root of its child subtree,
	// queued by the child's apply for merging into this subtree's batch.
	props map[string]avl.Root
}

// plan is a validated batch grouped by subtree and ordered by depth.
// Application walks levels deepest-first so every child subtree's new root
// is known before its parent's anchor is rewritten.
type plan struct {
	groups map[string]*group
	levels [][]*group
	// created holds the prefixes of subtrees whose winning op in this
	// batch is an InsertSubtree.
	created map[string]bool
}

func newPlan(b Batch) (*plan, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	maxDepth := 0
	for _, op := range b {
		if len(op.Path) > maxDepth {
			maxDepth = len(op.Path)
		}
	}
	p := &plan{
		groups:  map[string]*group{},
		levels:  make([][]*group, maxDepth+1),
		created: map[string]bool{},
	}
	// Last op per (path, key) wins; earlier ones are dropped before any
	// semantic checks run.
	seen := map[string]int{}
	for _, op := range b {
		g := p.groupFor(op.Path)
		id := string(op.Path.Child(op.Key).frame())
		if j, ok := seen[id]; ok {
			g.ops[j] = op
		} else {
			seen[id] = len(g.ops)
			g.ops = append(g.ops, op)
		}
	}
	for _, g := range p.groups {
		for _, op := range g.ops {
			if op.Kind == OpInsertSubtree {
				p.created[string(op.Path.Child(op.Key).Prefix())] = true
			}
		}
	}
	return p, nil
}

// groupFor returns the group for path, registering a fresh one at its
// depth level if the batch had no explicit ops for it.
func (p *plan) groupFor(path Path) *group {
	prefix := path.Prefix()
	if g, ok := p.groups[string(prefix)]; ok {
		return g
	}
	g := &group{
		path:   NewPath(path...),
		prefix: prefix,
		props:  map[string]avl.Root{},
	}
	p.groups[string(prefix)] = g
	for len(p.levels) <= len(path) {
		p.levels = append(p.levels, nil)
	}
	p.levels[len(path)] = append(p.levels[len(path)], g)
	return g
}

// level returns the groups at depth d ordered by prefix, so application
// order is independent of map iteration.
func (p *plan) level(d int) []*group {
	gs := append([]*group(nil), p.levels[d]...)
	sort.Slice(gs, func(i, j int) bool {
		return string(gs[i].prefix) < string(gs[j].prefix)
	})
	return gs
}

// propSegments returns the group's propagated anchor segments in sorted
// order.
func (g *group) propSegments() []string {
	segs := make([]string, 0, len(g.props))
	for seg := range g.props {
		segs = append(segs, seg)
	}
	sort.Strings(segs)
	return segs
}
