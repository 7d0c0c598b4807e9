package avl

import (
	"bytes"
	"fmt"
	"sort"
)

// Entry is one key/value pair revealed by a verified proof.
type Entry struct {
	Key   []byte
	Value []byte
}

// VerifyResult holds everything a proof demonstrated: the revealed entries
// for present queried keys and range contents, in ascending key order, and
// the queried point keys proven absent.
type VerifyResult struct {
	Entries []Entry
	Absent  [][]byte
}

// Value returns the revealed value for key, if the proof demonstrated its
// presence.
func (r *VerifyResult) Value(key []byte) ([]byte, bool) {
	i := sort.Search(len(r.Entries), func(i int) bool {
		return bytes.Compare(r.Entries[i].Key, key) >= 0
	})
	if i < len(r.Entries) && bytes.Equal(r.Entries[i].Key, key) {
		return r.Entries[i].Value, true
	}
	return nil, false
}

// IsAbsent reports whether the proof demonstrated that key is not in the
// tree.
func (r *VerifyResult) IsAbsent(key []byte) bool {
	for _, k := range r.Absent {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}

// partialNode is one subtree of the pruned tree reconstructed from a proof.
type partialNode struct {
	kind  StepKind
	hash  Hash
	key   []byte
	value []byte
	left  *partialNode
	right *partialNode
	// minKey and maxKey bound the revealed keys inside this subtree; nil
	// when nothing is revealed here.
	minKey []byte
	maxKey []byte
}

// VerifySteps replays a proof against the expected root and checks that it
// fully answers the query. It returns ErrVerificationFailed, never partial
// results, when anything is off: malformed step sequences, key order
// violations, root mismatch, or queried keys the proof does not cover.
//
// An absent key is accepted only if the reconstructed tree walks from the
// root to an Empty slot for it; hitting a pruned subtree means the proof is
// insufficient. Range queries additionally require that no subtree
// overlapping the range was pruned, so the revealed range contents are
// complete.
func VerifySteps(steps []Step, expectedRoot Hash, q *Query) (*VerifyResult, error) {
	root, err := executeSteps(steps)
	if err != nil {
		return nil, err
	}
	if root.hash != expectedRoot {
		return nil, fmt.Errorf("%w: root mismatch: got: %v, want: %v",
			ErrVerificationFailed, root.hash, expectedRoot)
	}
	return checkQuery(root, q)
}

// executeSteps runs the proof stack machine and returns the reconstructed
// root subtree.
func executeSteps(steps []Step) (*partialNode, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: empty proof", ErrVerificationFailed)
	}
	var stack []*partialNode
	for i, s := range steps {
		switch s.Kind {
		case StepEmpty:
			stack = append(stack, &partialNode{kind: StepEmpty})
		case StepSibling:
			if s.Hash.IsZero() {
				return nil, fmt.Errorf("%w: step %d: sibling with zero hash", ErrVerificationFailed, i)
			}
			stack = append(stack, &partialNode{kind: StepSibling, hash: s.Hash})
		case StepNode, StepLeaf:
			if len(s.Key) == 0 {
				return nil, fmt.Errorf("%w: step %d: empty key", ErrVerificationFailed, i)
			}
			if len(stack) < 2 {
				return nil, fmt.Errorf("%w: step %d: missing children on stack", ErrVerificationFailed, i)
			}
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]

			if left.maxKey != nil && bytes.Compare(left.maxKey, s.Key) >= 0 {
				return nil, fmt.Errorf("%w: step %d: unordered keys: %x !< %x",
					ErrVerificationFailed, i, left.maxKey, s.Key)
			}
			if right.minKey != nil && bytes.Compare(right.minKey, s.Key) <= 0 {
				return nil, fmt.Errorf("%w: step %d: unordered keys: %x !> %x",
					ErrVerificationFailed, i, right.minKey, s.Key)
			}

			vh := s.Hash
			if s.Kind == StepLeaf {
				vh = ValueHash(s.Value)
			}
			pn := &partialNode{
				kind:  s.Kind,
				hash:  NodeHash(LeafHash(s.Key, vh), left.hash, right.hash),
				key:   s.Key,
				value: s.Value,
				left:  left,
				right: right,
			}
			pn.minKey = left.minKey
			if pn.minKey == nil {
				pn.minKey = s.Key
			}
			pn.maxKey = right.maxKey
			if pn.maxKey == nil {
				pn.maxKey = s.Key
			}
			stack = append(stack, pn)
		default:
			return nil, fmt.Errorf("%w: step %d: unknown kind %d", ErrVerificationFailed, i, s.Kind)
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: proof did not reduce to a single root: stack size %d",
			ErrVerificationFailed, len(stack))
	}
	return stack[0], nil
}

func checkQuery(root *partialNode, q *Query) (*VerifyResult, error) {
	nq := q.normalize()
	res := &VerifyResult{}
	entries := map[string][]byte{}

	for _, k := range nq.keys {
		value, present, err := walkTo(root, k)
		if err != nil {
			return nil, err
		}
		if present {
			entries[string(k)] = value
		} else {
			res.Absent = append(res.Absent, copyBytes(k))
		}
	}

	for _, r := range nq.ranges {
		if err := collectRange(root, r, nil, nil, entries); err != nil {
			return nil, err
		}
	}

	res.Entries = make([]Entry, 0, len(entries))
	for k, v := range entries {
		res.Entries = append(res.Entries, Entry{Key: []byte(k), Value: v})
	}
	sort.Slice(res.Entries, func(i, j int) bool {
		return bytes.Compare(res.Entries[i].Key, res.Entries[j].Key) < 0
	})
	sort.Slice(res.Absent, func(i, j int) bool {
		return bytes.Compare(res.Absent[i], res.Absent[j]) < 0
	})
	return res, nil
}

// walkTo descends the reconstructed tree toward key. It returns the value
// if the key is revealed present, (nil, false) if an Empty slot proves it
// absent, and an error if the descent is blocked by a pruned subtree or an
// undisclosed value.
func walkTo(pn *partialNode, key []byte) ([]byte, bool, error) {
	cur := pn
	for {
		switch cur.kind {
		case StepEmpty:
			return nil, false, nil
		case StepSibling:
			return nil, false, fmt.Errorf("%w: proof does not cover key %x",
				ErrVerificationFailed, key)
		}
		switch cmp := bytes.Compare(key, cur.key); {
		case cmp == 0:
			if cur.kind != StepLeaf {
				return nil, false, fmt.Errorf("%w: value of queried key %x not disclosed",
					ErrVerificationFailed, key)
			}
			return cur.value, true, nil
		case cmp < 0:
			cur = cur.left
		default:
			cur = cur.right
		}
	}
}

// collectRange gathers every revealed entry inside r and fails if a pruned
// subtree could overlap it. The span test mirrors the prover's pruning
// test, so an honest proof never trips it.
func collectRange(pn *partialNode, r Range, lo, hi []byte, entries map[string][]byte) error {
	rq := normalizedQuery{ranges: []Range{r}}
	switch pn.kind {
	case StepEmpty:
		return nil
	case StepSibling:
		if rq.overlapsSpan(lo, hi) {
			return fmt.Errorf("%w: proof prunes subtree overlapping range [%x, %x)",
				ErrVerificationFailed, r.Start, r.End)
		}
		return nil
	}
	if err := collectRange(pn.left, r, lo, pn.key, entries); err != nil {
		return err
	}
	if r.Contains(pn.key) {
		if pn.kind != StepLeaf {
			return fmt.Errorf("%w: value of in-range key %x not disclosed",
				ErrVerificationFailed, pn.key)
		}
		entries[string(pn.key)] = pn.value
	}
	return collectRange(pn.right, r, pn.key, hi, entries)
}
