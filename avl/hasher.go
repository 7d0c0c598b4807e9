// Package avl implements the authenticated node store: a storage-backed
// Merkle AVL tree over a single keyspace. Every node carries a hash binding
// its key, its value, and both child subtrees, so the root hash commits to
// the full contents of the tree. Rebalancing keeps lookups and mutations
// logarithmic while hashes are recomputed only along modified paths.
//
// Trees are addressed inside a storage backend by an opaque prefix, letting
// many trees share one backend without interference. All mutating and
// querying operations thread a cost accumulator so callers can meter the
// work performed.
package avl

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/prysmaticlabs/gohashtree"
)

// Domain separation prefixes. A value commitment, a leaf record and an inner
// node can never be confused for one another.
const (
	ValuePrefix = 0
	LeafPrefix  = 1
)

// HashSize is the size of all digests used by the tree.
const HashSize = sha256.Size

// Hash is a node, leaf or value digest. The zero Hash doubles as the root of
// an empty tree and as the digest of an absent child.
type Hash [HashSize]byte

// EmptyRoot returns the root hash of an empty tree: HashSize zero bytes.
func EmptyRoot() Hash {
	return Hash{}
}

// IsZero reports whether h is the empty/absent digest.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Bytes returns a copy of the digest as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// String returns the digest in lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashFromBytes converts a byte slice into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("%w: got: %v, want: %v", ErrInvalidHashLen, len(b), HashSize)
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// ValueHash commits to a stored value:
//
//	ValueHash = SHA-256(ValuePrefix ∥ value)
func ValueHash(value []byte) Hash {
	hsr := sha256.New()
	hsr.Write([]byte{ValuePrefix})
	hsr.Write(value)
	var h Hash
	hsr.Sum(h[:0])
	return h
}

// LeafHash commits to a key together with its value commitment:
//
//	LeafHash = SHA-256(LeafPrefix ∥ uvarint(len(key)) ∥ key ∥ valueHash)
//
// The length framing keeps distinct (key, valueHash) pairs from sharing a
// preimage.
func LeafHash(key []byte, valueHash Hash) Hash {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(key)))

	hsr := sha256.New()
	hsr.Write([]byte{LeafPrefix})
	hsr.Write(lenBuf[:n])
	hsr.Write(key)
	hsr.Write(valueHash[:])
	var h Hash
	hsr.Sum(h[:0])
	return h
}

// NodeHash combines a node's leaf commitment with its child hashes:
//
//	NodeHash = SHA-256(SHA-256(leafHash ∥ left) ∥ right)
//
// Absent children contribute the zero hash. The two stages each hash exactly
// one 64-byte block, which lets bulk recomputation go through the vectorized
// SHA-256 code paths in gohashtree.
func NodeHash(leafHash, left, right Hash) Hash {
	return hashPair(hashPair(leafHash, left), right)
}

// hashPair computes SHA-256 over the 64-byte concatenation a∥b.
func hashPair(a, b Hash) Hash {
	var buf [2 * HashSize]byte
	copy(buf[:HashSize], a[:])
	copy(buf[HashSize:], b[:])
	return sha256.Sum256(buf[:])
}

// hashPairs computes out[i] = SHA-256(a[i]∥b[i]) for every i, dispatching
// the whole batch to gohashtree. It falls back to sequential hashing if the
// vectorized path rejects the input.
func hashPairs(out, a, b []Hash) {
	if len(out) == 0 {
		return
	}
	chunks := make([][HashSize]byte, 2*len(out))
	for i := range a {
		chunks[2*i] = [HashSize]byte(a[i])
		chunks[2*i+1] = [HashSize]byte(b[i])
	}
	digests := make([][HashSize]byte, len(out))
	if err := gohashtree.Hash(digests, chunks); err != nil {
		for i := range out {
			out[i] = hashPair(a[i], b[i])
		}
		return
	}
	for i := range out {
		out[i] = Hash(digests[i])
	}
}
