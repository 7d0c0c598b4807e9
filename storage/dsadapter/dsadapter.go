// Package dsadapter bridges the store onto any ipfs go-datastore. Datastore
// keys are path strings, so binary keys are hex encoded under a namespace;
// hex preserves lexicographic order, which keeps range iteration correct.
// Transactions are buffered overlays flushed on Commit, through a datastore
// batch when the wrapped datastore supports batching.
package dsadapter

import (
	"bytes"
	"context"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	"github.com/pkg/errors"

	"github.com/Silvanasss/GroveDB/storage"
)

const defaultNamespace = "/grovedb"

// Options configures the adapter.
type Options struct {
	namespace string
}

// Option mutates Options.
type Option func(*Options)

// WithNamespace stores all keys under the given datastore path instead of
// the default /grovedb.
func WithNamespace(ns string) Option {
	return func(o *Options) { o.namespace = datastore.NewKey(ns).String() }
}

// DB adapts a datastore.Datastore to storage.Backend.
//
// The adapter materializes range queries, so iteration cost is proportional
// to the size of the namespace, not the range. It is meant for embedding
// into existing ipfs stacks; use pebbledb or badgerdb when the store owns
// its storage.
type DB struct {
	ds     datastore.Datastore
	ns     string
	mu     sync.Mutex
	closed atomic.Bool
}

var _ storage.Backend = (*DB)(nil)

// New wraps a datastore. Close closes the wrapped datastore.
func New(d datastore.Datastore, opts ...Option) *DB {
	o := Options{namespace: defaultNamespace}
	for _, fn := range opts {
		fn(&o)
	}
	return &DB{ds: d, ns: o.namespace}
}

func (d *DB) key(key []byte) datastore.Key {
	return datastore.NewKey(d.ns + "/" + hex.EncodeToString(key))
}

func (d *DB) decodeKey(dsKey string) ([]byte, bool) {
	rest, ok := strings.CutPrefix(dsKey, d.ns+"/")
	if !ok {
		return nil, false
	}
	raw, err := hex.DecodeString(rest)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// Get returns the value stored under key, or storage.ErrNotFound.
func (d *DB) Get(key []byte) ([]byte, error) {
	if d.closed.Load() {
		return nil, storage.ErrClosed
	}
	v, err := d.ds.Get(context.Background(), d.key(key))
	if err != nil {
		if err == datastore.ErrNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "datastore get")
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Has reports whether key is present.
func (d *DB) Has(key []byte) (bool, error) {
	if d.closed.Load() {
		return false, storage.ErrClosed
	}
	ok, err := d.ds.Has(context.Background(), d.key(key))
	return ok, errors.Wrap(err, "datastore has")
}

// NewIterator returns an iterator over [start, end) of the current
// committed state, materialized at call time.
func (d *DB) NewIterator(start, end []byte) (storage.Iterator, error) {
	if d.closed.Load() {
		return nil, storage.ErrClosed
	}
	entries, err := d.listRange(start, end)
	if err != nil {
		return nil, err
	}
	return &sliceIter{entries: entries, pos: -1}, nil
}

// NewTx opens a buffered overlay transaction.
func (d *DB) NewTx(writable bool) (storage.Tx, error) {
	if d.closed.Load() {
		return nil, storage.ErrClosed
	}
	return &dsTx{
		db:       d,
		writable: writable,
		writes:   make(map[string][]byte),
		dels:     make(map[string]struct{}),
	}, nil
}

// Close closes the wrapped datastore.
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	return errors.Wrap(d.ds.Close(), "close datastore")
}

type entry struct {
	key   []byte
	value []byte
}

// listRange fetches every namespace entry within [start, end) in ascending
// key order. Some datastore implementations ignore query orders, so the
// result is sorted locally.
func (d *DB) listRange(start, end []byte) ([]entry, error) {
	res, err := d.ds.Query(context.Background(), query.Query{
		Prefix: d.ns,
		Orders: []query.Order{query.OrderByKey{}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "datastore query")
	}
	defer res.Close()

	var out []entry
	for {
		r, ok := res.NextSync()
		if !ok {
			break
		}
		if r.Error != nil {
			return nil, errors.Wrap(r.Error, "datastore query")
		}
		key, ok := d.decodeKey(r.Key)
		if !ok {
			continue
		}
		if start != nil && bytes.Compare(key, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(key, end) >= 0 {
			continue
		}
		v := make([]byte, len(r.Value))
		copy(v, r.Value)
		out = append(out, entry{key: key, value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].key, out[j].key) < 0
	})
	return out, nil
}

// flush applies staged writes to the datastore, batched when supported.
func (d *DB) flush(writes map[string][]byte, dels map[string]struct{}) error {
	ctx := context.Background()
	d.mu.Lock()
	defer d.mu.Unlock()

	if b, ok := d.ds.(datastore.Batching); ok {
		batch, err := b.Batch(ctx)
		if err != nil {
			return errors.Wrap(err, "datastore batch")
		}
		for k := range dels {
			if err := batch.Delete(ctx, d.key([]byte(k))); err != nil {
				return errors.Wrap(err, "batch delete")
			}
		}
		for k, v := range writes {
			if err := batch.Put(ctx, d.key([]byte(k)), v); err != nil {
				return errors.Wrap(err, "batch put")
			}
		}
		return errors.Wrap(batch.Commit(ctx), "commit batch")
	}

	for k := range dels {
		if err := d.ds.Delete(ctx, d.key([]byte(k))); err != nil {
			return errors.Wrap(err, "datastore delete")
		}
	}
	for k, v := range writes {
		if err := d.ds.Put(ctx, d.key([]byte(k)), v); err != nil {
			return errors.Wrap(err, "datastore put")
		}
	}
	return nil
}

type dsTx struct {
	db       *DB
	writable bool
	writes   map[string][]byte
	dels     map[string]struct{}
	done     bool
}

var _ storage.Tx = (*dsTx)(nil)

func (t *dsTx) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, storage.ErrClosed
	}
	if v, ok := t.writes[string(key)]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	}
	if _, ok := t.dels[string(key)]; ok {
		return nil, storage.ErrNotFound
	}
	return t.db.Get(key)
}

func (t *dsTx) Has(key []byte) (bool, error) {
	if t.done {
		return false, storage.ErrClosed
	}
	if _, ok := t.writes[string(key)]; ok {
		return true, nil
	}
	if _, ok := t.dels[string(key)]; ok {
		return false, nil
	}
	return t.db.Has(key)
}

// NewIterator merges the committed state with the transaction's staged
// writes and deletes.
func (t *dsTx) NewIterator(start, end []byte) (storage.Iterator, error) {
	if t.done {
		return nil, storage.ErrClosed
	}
	base, err := t.db.listRange(start, end)
	if err != nil {
		return nil, err
	}
	merged := make(map[string][]byte, len(base)+len(t.writes))
	for _, e := range base {
		merged[string(e.key)] = e.value
	}
	for k := range t.dels {
		delete(merged, k)
	}
	inRange := func(k string) bool {
		if start != nil && strings.Compare(k, string(start)) < 0 {
			return false
		}
		return end == nil || strings.Compare(k, string(end)) < 0
	}
	for k, v := range t.writes {
		if inRange(k) {
			merged[k] = v
		}
	}
	entries := make([]entry, 0, len(merged))
	for k, v := range merged {
		entries = append(entries, entry{key: []byte(k), value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	return &sliceIter{entries: entries, pos: -1}, nil
}

func (t *dsTx) Put(key, value []byte) error {
	if t.done {
		return storage.ErrClosed
	}
	if !t.writable {
		return storage.ErrReadOnly
	}
	v := make([]byte, len(value))
	copy(v, value)
	t.writes[string(key)] = v
	delete(t.dels, string(key))
	return nil
}

func (t *dsTx) Delete(key []byte) error {
	if t.done {
		return storage.ErrClosed
	}
	if !t.writable {
		return storage.ErrReadOnly
	}
	delete(t.writes, string(key))
	t.dels[string(key)] = struct{}{}
	return nil
}

func (t *dsTx) Commit() error {
	if t.done {
		return storage.ErrClosed
	}
	t.done = true
	if !t.writable || (len(t.writes) == 0 && len(t.dels) == 0) {
		return nil
	}
	if t.db.closed.Load() {
		return storage.ErrClosed
	}
	return t.db.flush(t.writes, t.dels)
}

func (t *dsTx) Abort() error {
	t.done = true
	t.writes = nil
	t.dels = nil
	return nil
}

type sliceIter struct {
	entries []entry
	pos     int
}

var _ storage.Iterator = (*sliceIter)(nil)

func (it *sliceIter) Next() bool {
	if it.pos+1 >= len(it.entries) {
		it.pos = len(it.entries)
		return false
	}
	it.pos++
	return true
}

func (it *sliceIter) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.entries) {
		return nil
	}
	return it.entries[it.pos].key
}

func (it *sliceIter) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.entries) {
		return nil
	}
	return it.entries[it.pos].value
}

func (it *sliceIter) Close() error {
	return nil
}
