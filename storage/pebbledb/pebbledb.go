// Package pebbledb provides a storage backend on top of cockroachdb/pebble.
// Pebble is the default durable backend: an LSM store with cheap ordered
// iteration and atomic batches. Writable transactions are indexed batches,
// read-only transactions are snapshots.
package pebbledb

import (
	"io"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"

	"github.com/Silvanasss/GroveDB/storage"
)

var writeOpts = &pebble.WriteOptions{Sync: true}

// Options configures a pebble backend. The zero value opens an on-disk
// store at the given path.
type Options struct {
	fs vfs.FS
}

// Option mutates Options.
type Option func(*Options)

// WithMemFS keeps the store entirely in memory. Intended for tests; the
// path passed to Open becomes a name inside the in-memory filesystem.
func WithMemFS() Option {
	return func(o *Options) { o.fs = vfs.NewMem() }
}

// DB is a pebble-backed storage.Backend.
type DB struct {
	db     *pebble.DB
	closed atomic.Bool
}

var _ storage.Backend = (*DB)(nil)

// Open opens or creates a pebble store at path.
func Open(path string, opts ...Option) (*DB, error) {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}
	pdb, err := pebble.Open(path, &pebble.Options{FS: o.fs})
	if err != nil {
		return nil, errors.Wrap(err, "open pebble")
	}
	return &DB{db: pdb}, nil
}

// Get returns the value stored under key, or storage.ErrNotFound.
func (d *DB) Get(key []byte) ([]byte, error) {
	if d.closed.Load() {
		return nil, storage.ErrClosed
	}
	return get(d.db, key)
}

// Has reports whether key is present.
func (d *DB) Has(key []byte) (bool, error) {
	if d.closed.Load() {
		return false, storage.ErrClosed
	}
	return has(d.db, key)
}

// NewIterator returns an iterator over [start, end) of the current
// committed state.
func (d *DB) NewIterator(start, end []byte) (storage.Iterator, error) {
	if d.closed.Load() {
		return nil, storage.ErrClosed
	}
	return newIter(d.db, start, end)
}

// NewTx opens a transaction. Writable transactions are indexed pebble
// batches and observe their own staged writes; read-only transactions are
// snapshots pinned at the current state.
func (d *DB) NewTx(writable bool) (storage.Tx, error) {
	if d.closed.Load() {
		return nil, storage.ErrClosed
	}
	if !writable {
		return &roTx{snap: d.db.NewSnapshot()}, nil
	}
	return &rwTx{b: d.db.NewIndexedBatch()}, nil
}

// Close flushes and closes the store.
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	return errors.Wrap(d.db.Close(), "close pebble")
}

// pebbleReader is the read surface shared by *pebble.DB, *pebble.Batch and
// *pebble.Snapshot.
type pebbleReader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

func get(r pebbleReader, key []byte) ([]byte, error) {
	v, closer, err := r.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "pebble get")
	}
	out := make([]byte, len(v))
	copy(out, v)
	if err := closer.Close(); err != nil {
		return nil, errors.Wrap(err, "release pebble value")
	}
	return out, nil
}

func has(r pebbleReader, key []byte) (bool, error) {
	_, closer, err := r.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "pebble get")
	}
	return true, errors.Wrap(closer.Close(), "release pebble value")
}

func newIter(r pebbleReader, start, end []byte) (storage.Iterator, error) {
	it, err := r.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, errors.Wrap(err, "pebble iterator")
	}
	return &iterator{it: it}, nil
}

type rwTx struct {
	b    *pebble.Batch
	done bool
}

var _ storage.Tx = (*rwTx)(nil)

func (t *rwTx) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, storage.ErrClosed
	}
	return get(t.b, key)
}

func (t *rwTx) Has(key []byte) (bool, error) {
	if t.done {
		return false, storage.ErrClosed
	}
	return has(t.b, key)
}

func (t *rwTx) NewIterator(start, end []byte) (storage.Iterator, error) {
	if t.done {
		return nil, storage.ErrClosed
	}
	return newIter(t.b, start, end)
}

func (t *rwTx) Put(key, value []byte) error {
	if t.done {
		return storage.ErrClosed
	}
	return errors.Wrap(t.b.Set(key, value, writeOpts), "pebble set")
}

func (t *rwTx) Delete(key []byte) error {
	if t.done {
		return storage.ErrClosed
	}
	return errors.Wrap(t.b.Delete(key, writeOpts), "pebble delete")
}

func (t *rwTx) Commit() error {
	if t.done {
		return storage.ErrClosed
	}
	t.done = true
	if err := t.b.Commit(writeOpts); err != nil {
		t.b.Close()
		return errors.Wrap(err, "commit pebble batch")
	}
	return errors.Wrap(t.b.Close(), "close pebble batch")
}

func (t *rwTx) Abort() error {
	if t.done {
		return nil
	}
	t.done = true
	return errors.Wrap(t.b.Close(), "close pebble batch")
}

type roTx struct {
	snap *pebble.Snapshot
	done bool
}

var _ storage.Tx = (*roTx)(nil)

func (t *roTx) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, storage.ErrClosed
	}
	return get(t.snap, key)
}

func (t *roTx) Has(key []byte) (bool, error) {
	if t.done {
		return false, storage.ErrClosed
	}
	return has(t.snap, key)
}

func (t *roTx) NewIterator(start, end []byte) (storage.Iterator, error) {
	if t.done {
		return nil, storage.ErrClosed
	}
	return newIter(t.snap, start, end)
}

func (t *roTx) Put(key, value []byte) error {
	if t.done {
		return storage.ErrClosed
	}
	return storage.ErrReadOnly
}

func (t *roTx) Delete(key []byte) error {
	if t.done {
		return storage.ErrClosed
	}
	return storage.ErrReadOnly
}

func (t *roTx) Commit() error {
	if t.done {
		return storage.ErrClosed
	}
	t.done = true
	return errors.Wrap(t.snap.Close(), "close pebble snapshot")
}

func (t *roTx) Abort() error {
	if t.done {
		return nil
	}
	t.done = true
	return errors.Wrap(t.snap.Close(), "close pebble snapshot")
}

type iterator struct {
	it      *pebble.Iterator
	started bool
}

var _ storage.Iterator = (*iterator)(nil)

func (i *iterator) Next() bool {
	if !i.started {
		i.started = true
		return i.it.First()
	}
	return i.it.Next()
}

func (i *iterator) Key() []byte {
	return i.it.Key()
}

func (i *iterator) Value() []byte {
	return i.it.Value()
}

func (i *iterator) Close() error {
	return errors.Wrap(i.it.Close(), "close pebble iterator")
}
