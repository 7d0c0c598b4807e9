package grovedb

import (
	"errors"

	"github.com/Silvanasss/GroveDB/avl"
	"github.com/Silvanasss/GroveDB/storage"
)

// Errors raised by the avl and storage layers surface unchanged, so callers
// can match them with errors.Is without caring which layer produced them.
var (
	// ErrKeyNotFound is returned by reads of an absent key and by batches
	// that delete one.
	ErrKeyNotFound = avl.ErrKeyNotFound
	// ErrVerificationFailed is returned when a proof does not reconstruct
	// the expected root hash. Verification never yields partial results.
	ErrVerificationFailed = avl.ErrVerificationFailed
	// ErrSubtreeNotEmpty is returned when deleting a subtree anchor whose
	// child subtree still holds entries.
	ErrSubtreeNotEmpty = avl.ErrTreeNotEmpty
	// ErrConflict is returned by Commit when the backend detected a
	// conflicting concurrent transaction. The transaction may be retried by
	// the caller; the store never retries internally.
	ErrConflict = storage.ErrConflict
)

var (
	// ErrPathNotFound is returned when a hierarchy path does not lead to an
	// existing subtree.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotSubtree is returned when a path segment resolves to an element
	// that is not a subtree anchor.
	ErrNotSubtree = errors.New("element is not a subtree")
	// ErrSubtreeExists is returned when an insert would overwrite an
	// existing subtree anchor. The subtree must be emptied and deleted
	// first.
	ErrSubtreeExists = errors.New("subtree exists")
	// ErrInvalidPath is returned for structurally invalid paths, such as a
	// path with an empty segment.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidElement is returned when stored element bytes cannot be
	// decoded.
	ErrInvalidElement = errors.New("invalid element")
	// ErrInvalidBatch is returned when a batch is rejected during
	// validation, including contradictory operations such as writing into a
	// subtree and deleting its anchor in the same batch.
	ErrInvalidBatch = errors.New("invalid batch")
	// ErrTxClosed is returned for operations on a committed or aborted
	// transaction.
	ErrTxClosed = errors.New("transaction closed")
	// ErrReferenceLimit is returned when following a reference chain longer
	// than MaxReferenceHops.
	ErrReferenceLimit = errors.New("reference limit exceeded")
	// ErrCyclicReference is returned when a reference chain revisits an
	// element.
	ErrCyclicReference = errors.New("cyclic reference")
)
