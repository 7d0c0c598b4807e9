package avl

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned by Get and by Apply for a Delete of a key
	// that is not in the tree.
	ErrKeyNotFound = errors.New("key not found")
	// ErrEmptyKey is returned for operations addressing the empty key.
	ErrEmptyKey = errors.New("empty key")
	// ErrInvalidHashLen is returned when decoding a digest of the wrong size.
	ErrInvalidHashLen = errors.New("invalid hash length")
	// ErrCorruptedNode is returned when a stored node or root record cannot
	// be decoded or is internally inconsistent.
	ErrCorruptedNode = errors.New("corrupted node record")
	// ErrVerificationFailed is returned whenever a proof does not verify:
	// malformed step sequences, unordered keys, insufficient coverage of the
	// queried keys, and root mismatches all report this error. Verification
	// never returns partial results.
	ErrVerificationFailed = errors.New("proof verification failed")
	// ErrTreeNotEmpty is returned by Destroy when the tree still holds
	// entries.
	ErrTreeNotEmpty = errors.New("tree not empty")
	// ErrIntegrity is returned by VerifyIntegrity when stored hashes,
	// heights or key order do not match recomputation.
	ErrIntegrity = errors.New("integrity violation")
)

// InvariantError reports a violated balance or structure invariant detected
// while mutating a tree. It is raised by panic, never returned: a violated
// invariant means the mutation logic itself is defective and continuing
// could persist a corrupt tree. Callers must not recover it.
type InvariantError struct {
	Msg string
	Key []byte
}

func (e *InvariantError) Error() string {
	if len(e.Key) == 0 {
		return "avl: invariant violation: " + e.Msg
	}
	return fmt.Sprintf("avl: invariant violation at key %x: %s", e.Key, e.Msg)
}
