package avl

import (
	"bytes"
	"sort"
)

// Query selects the entries a proof must reveal: a set of point keys and a
// set of half-open key ranges. Both sides of a proof exchange work against
// the same Query; the prover prunes everything outside it and the verifier
// rejects proofs that do not cover all of it.
type Query struct {
	keys   [][]byte
	ranges []Range
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{}
}

// InsertKey adds a point key to the query.
func (q *Query) InsertKey(key []byte) *Query {
	q.keys = append(q.keys, copyBytes(key))
	return q
}

// InsertRange adds a half-open key range to the query.
func (q *Query) InsertRange(r Range) *Query {
	q.ranges = append(q.ranges, Range{Start: copyBytes(r.Start), End: copyBytes(r.End)})
	return q
}

// Keys returns the query's point keys, sorted and deduplicated.
func (q *Query) Keys() [][]byte {
	n := q.normalize()
	out := make([][]byte, len(n.keys))
	for i, k := range n.keys {
		out[i] = copyBytes(k)
	}
	return out
}

// Ranges returns the query's ranges sorted by start.
func (q *Query) Ranges() []Range {
	n := q.normalize()
	out := make([]Range, len(n.ranges))
	copy(out, n.ranges)
	return out
}

// IsEmpty reports whether the query selects nothing.
func (q *Query) IsEmpty() bool {
	return q == nil || (len(q.keys) == 0 && len(q.ranges) == 0)
}

// normalizedQuery is the sorted, deduplicated working form shared by the
// prover and the verifier.
type normalizedQuery struct {
	keys   [][]byte
	ranges []Range
}

func (q *Query) normalize() normalizedQuery {
	var n normalizedQuery
	if q == nil {
		return n
	}
	n.keys = make([][]byte, 0, len(q.keys))
	n.keys = append(n.keys, q.keys...)
	sort.Slice(n.keys, func(i, j int) bool {
		return bytes.Compare(n.keys[i], n.keys[j]) < 0
	})
	dedup := n.keys[:0]
	for _, k := range n.keys {
		if len(dedup) > 0 && bytes.Equal(dedup[len(dedup)-1], k) {
			continue
		}
		dedup = append(dedup, k)
	}
	n.keys = dedup

	n.ranges = append(n.ranges, q.ranges...)
	sort.Slice(n.ranges, func(i, j int) bool {
		a, b := n.ranges[i].Start, n.ranges[j].Start
		if a == nil {
			return b != nil
		}
		if b == nil {
			return false
		}
		return bytes.Compare(a, b) < 0
	})
	return n
}

// matches reports whether key is selected by the query.
func (n normalizedQuery) matches(key []byte) bool {
	i := sort.Search(len(n.keys), func(i int) bool {
		return bytes.Compare(n.keys[i], key) >= 0
	})
	if i < len(n.keys) && bytes.Equal(n.keys[i], key) {
		return true
	}
	for _, r := range n.ranges {
		if r.Contains(key) {
			return true
		}
	}
	return false
}

// overlapsSpan reports whether any selected key could fall strictly inside
// the open interval (lo, hi); nil bounds are unbounded. The test is
// deliberately permissive at range edges: keeping an extra subtree only
// grows the proof, while pruning a needed one would break it. The prover
// and the verifier must agree on this function.
func (n normalizedQuery) overlapsSpan(lo, hi []byte) bool {
	for _, k := range n.keys {
		if (lo == nil || bytes.Compare(k, lo) > 0) &&
			(hi == nil || bytes.Compare(k, hi) < 0) {
			return true
		}
	}
	for _, r := range n.ranges {
		if (r.End == nil || lo == nil || bytes.Compare(r.End, lo) > 0) &&
			(r.Start == nil || hi == nil || bytes.Compare(r.Start, hi) < 0) {
			return true
		}
	}
	return false
}
