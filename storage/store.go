// Package storage defines the capability set the store requires from a
// storage backend: point reads, ordered iteration, and atomic transactions.
// Concrete backends live in the subpackages memdb, pebbledb, badgerdb and
// dsadapter; the engine is written against these interfaces only and treats
// every backend as exchangeable.
package storage

import "errors"

var (
	// ErrNotFound is returned when a key has no value in the backend.
	ErrNotFound = errors.New("storage: key not found")
	// ErrConflict is returned by Commit when the backend detected a
	// conflicting concurrent write. The transaction may be retried.
	ErrConflict = errors.New("storage: transaction conflict")
	// ErrClosed is returned for operations on a closed backend or on a
	// finished transaction.
	ErrClosed = errors.New("storage: closed")
	// ErrReadOnly is returned for writes through a read-only transaction.
	ErrReadOnly = errors.New("storage: read-only transaction")
)

// Reader is the read-side capability shared by backends and transactions.
// Get returns ErrNotFound for missing keys; the returned slice is owned by
// the caller. Iterators observe the reader's current state and yield keys in
// ascending lexicographic order within [start, end); a nil end means no
// upper bound.
type Reader interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	NewIterator(start, end []byte) (Iterator, error)
}

// Backend is a durable ordered key/value store. All writes go through
// transactions; reads outside a transaction observe the last committed
// state.
type Backend interface {
	Reader

	// NewTx opens a transaction. Writable transactions buffer writes until
	// Commit and observe their own staged writes on read. Exactly one of
	// Commit or Abort must be called.
	NewTx(writable bool) (Tx, error)

	Close() error
}

// Tx is an atomic unit of work against a Backend. Implementations provide
// read-your-writes semantics: a Get or iterator through the transaction
// observes staged Puts and Deletes.
type Tx interface {
	Reader

	Put(key, value []byte) error
	Delete(key []byte) error

	// Commit atomically applies every staged write. It returns ErrConflict
	// if the backend detected a conflicting concurrent transaction.
	Commit() error
	// Abort discards the transaction. Aborting a committed transaction is
	// a no-op.
	Abort() error
}

// Iterator walks a key range in ascending order. The slices returned by Key
// and Value are only valid until the next call to Next or Close; callers
// that retain them must copy.
//
//	it, err := r.NewIterator(start, end)
//	...
//	for it.Next() {
//		process(it.Key(), it.Value())
//	}
//	err = it.Close()
type Iterator interface {
	// Next advances to the next key and reports whether one exists. The
	// first call positions the iterator on the first key of the range.
	Next() bool
	Key() []byte
	Value() []byte
	// Close releases the iterator and returns any error encountered while
	// iterating.
	Close() error
}

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, for use as an exclusive iteration bound. It returns nil when no
// such key exists (the prefix is empty or all 0xff), meaning "no upper
// bound".
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
