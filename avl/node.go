package avl

// link references a child subtree: enough to compute the parent's hash,
// decide descent, and prune proofs without loading the child node. The
// loaded node is attached lazily and owned by the link for the lifetime of
// the surrounding Tree.
type link struct {
	key    []byte
	hash   Hash
	height uint8

	n *node
}

// node is the in-memory form of one stored tree node. The node's own key
// doubles as its storage address, so it is not repeated inside the record.
type node struct {
	key       []byte
	value     []byte
	valueHash Hash
	left      *link
	right     *link
	height    uint8

	// hash caches the node hash; valid only when hashValid.
	hash      Hash
	hashValid bool
	// dirty marks the node for staging to storage.
	dirty bool
}

// link materializes a link pointing at n, carrying whatever hash n currently
// caches. Callers recomputing hashes refresh the link afterwards.
func (n *node) link() *link {
	return &link{key: n.key, hash: n.hash, height: n.height, n: n}
}

func height(l *link) int {
	if l == nil {
		return 0
	}
	return int(l.height)
}

func childHash(l *link) Hash {
	if l == nil {
		return EmptyRoot()
	}
	return l.hash
}

// balanceFactor is right height minus left height. Legal values after
// rebalancing are -1, 0 and 1.
func (n *node) balanceFactor() int {
	return height(n.right) - height(n.left)
}

// updateHeight recomputes the node's height from its child links. A node
// with no children has height 1.
func (n *node) updateHeight() {
	h := height(n.left)
	if r := height(n.right); r > h {
		h = r
	}
	h++
	if h > 255 {
		panic(&InvariantError{Msg: "tree height exceeds 255", Key: n.key})
	}
	n.height = uint8(h)
}

// markChanged invalidates cached state after a structural or value change.
func (n *node) markChanged() {
	n.dirty = true
	n.hashValid = false
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
