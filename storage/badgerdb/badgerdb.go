// Package badgerdb provides a storage backend on top of dgraph-io/badger.
// Badger transactions are optimistic: concurrent transactions writing
// overlapping keys fail on Commit with storage.ErrConflict and may be
// retried by the caller.
package badgerdb

import (
	"bytes"
	"sync/atomic"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Silvanasss/GroveDB/storage"
)

// Options configures a badger backend. The zero value opens an on-disk
// store with badger's defaults and no logging.
type Options struct {
	inMemory   bool
	syncWrites bool
	logger     *zap.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithInMemory keeps the store entirely in memory. Intended for tests; the
// directory passed to Open is ignored.
func WithInMemory() Option {
	return func(o *Options) { o.inMemory = true }
}

// WithSyncWrites makes every commit fsync before returning.
func WithSyncWrites() Option {
	return func(o *Options) { o.syncWrites = true }
}

// WithLogger routes badger's internal logging to the given logger. Badger's
// info output is verbose and is demoted to debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// DB is a badger-backed storage.Backend.
type DB struct {
	db     *badgerdb.DB
	closed atomic.Bool
}

var _ storage.Backend = (*DB)(nil)

// Open opens or creates a badger store in dir.
func Open(dir string, opts ...Option) (*DB, error) {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}
	bopts := badgerdb.DefaultOptions(dir)
	if o.inMemory {
		bopts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	bopts.SyncWrites = o.syncWrites
	bopts.Logger = nil
	if o.logger != nil {
		bopts.Logger = badgerLogger{o.logger.Sugar()}
	}
	bdb, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &DB{db: bdb}, nil
}

// Get returns the value stored under key, or storage.ErrNotFound.
func (d *DB) Get(key []byte) ([]byte, error) {
	if d.closed.Load() {
		return nil, storage.ErrClosed
	}
	var out []byte
	err := d.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "badger get")
	}
	return out, nil
}

// Has reports whether key is present.
func (d *DB) Has(key []byte) (bool, error) {
	if d.closed.Load() {
		return false, storage.ErrClosed
	}
	err := d.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "badger get")
	}
	return true, nil
}

// NewIterator returns an iterator over [start, end) of the current
// committed state. The iterator pins a read transaction until Close.
func (d *DB) NewIterator(start, end []byte) (storage.Iterator, error) {
	if d.closed.Load() {
		return nil, storage.ErrClosed
	}
	txn := d.db.NewTransaction(false)
	return newIter(txn, true, start, end), nil
}

// NewTx opens a badger transaction.
func (d *DB) NewTx(writable bool) (storage.Tx, error) {
	if d.closed.Load() {
		return nil, storage.ErrClosed
	}
	return &tx{txn: d.db.NewTransaction(writable), writable: writable}, nil
}

// Close flushes and closes the store.
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	return errors.Wrap(d.db.Close(), "close badger")
}

// tx wraps a badger transaction. Badger allows a single live iterator per
// writable transaction; close one iterator before opening the next.
type tx struct {
	txn      *badgerdb.Txn
	writable bool
	done     bool
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, storage.ErrClosed
	}
	item, err := t.txn.Get(key)
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "badger get")
	}
	out, err := item.ValueCopy(nil)
	return out, errors.Wrap(err, "badger value")
}

func (t *tx) Has(key []byte) (bool, error) {
	if t.done {
		return false, storage.ErrClosed
	}
	_, err := t.txn.Get(key)
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "badger get")
	}
	return true, nil
}

func (t *tx) NewIterator(start, end []byte) (storage.Iterator, error) {
	if t.done {
		return nil, storage.ErrClosed
	}
	return newIter(t.txn, false, start, end), nil
}

func (t *tx) Put(key, value []byte) error {
	if t.done {
		return storage.ErrClosed
	}
	if !t.writable {
		return storage.ErrReadOnly
	}
	return errors.Wrap(t.txn.Set(key, value), "badger set")
}

func (t *tx) Delete(key []byte) error {
	if t.done {
		return storage.ErrClosed
	}
	if !t.writable {
		return storage.ErrReadOnly
	}
	return errors.Wrap(t.txn.Delete(key), "badger delete")
}

func (t *tx) Commit() error {
	if t.done {
		return storage.ErrClosed
	}
	t.done = true
	if !t.writable {
		t.txn.Discard()
		return nil
	}
	if err := t.txn.Commit(); err != nil {
		if err == badgerdb.ErrConflict {
			return storage.ErrConflict
		}
		return errors.Wrap(err, "commit badger transaction")
	}
	return nil
}

func (t *tx) Abort() error {
	if t.done {
		return nil
	}
	t.done = true
	t.txn.Discard()
	return nil
}

type iterator struct {
	it      *badgerdb.Iterator
	txn     *badgerdb.Txn
	own     bool
	start   []byte
	end     []byte
	started bool
	key     []byte
	val     []byte
	err     error
}

var _ storage.Iterator = (*iterator)(nil)

func newIter(txn *badgerdb.Txn, own bool, start, end []byte) *iterator {
	opts := badgerdb.DefaultIteratorOptions
	opts.PrefetchValues = true
	return &iterator{
		it:    txn.NewIterator(opts),
		txn:   txn,
		own:   own,
		start: start,
		end:   end,
	}
}

func (i *iterator) Next() bool {
	if i.err != nil {
		return false
	}
	if !i.started {
		i.started = true
		if i.start == nil {
			i.it.Rewind()
		} else {
			i.it.Seek(i.start)
		}
	} else {
		i.it.Next()
	}
	if !i.it.Valid() {
		return false
	}
	item := i.it.Item()
	if i.end != nil && bytes.Compare(item.Key(), i.end) >= 0 {
		return false
	}
	i.key = item.KeyCopy(i.key[:0])
	i.val, i.err = item.ValueCopy(i.val[:0])
	return i.err == nil
}

func (i *iterator) Key() []byte {
	return i.key
}

func (i *iterator) Value() []byte {
	return i.val
}

func (i *iterator) Close() error {
	i.it.Close()
	if i.own {
		i.txn.Discard()
	}
	return errors.Wrap(i.err, "badger iterator")
}

// badgerLogger adapts badger's logger interface onto zap.
type badgerLogger struct {
	l *zap.SugaredLogger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Errorf(format, args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warnf(format, args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debugf(format, args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debugf(format, args...)
}
