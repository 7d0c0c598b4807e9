// Package memdb provides an in-memory storage backend. It exists for tests
// and ephemeral stores: fully deterministic, no files, no background work.
// Transactions are buffered overlays applied atomically on Commit.
package memdb

import (
	"bytes"
	"sort"
	"sync"

	"github.com/Silvanasss/GroveDB/storage"
)

// DB is an in-memory ordered key/value store implementing storage.Backend.
// It is safe for concurrent use.
type DB struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ storage.Backend = (*DB)(nil)

// New returns an empty in-memory backend.
func New() *DB {
	return &DB{data: make(map[string][]byte)}
}

// Get returns the value stored under key, or storage.ErrNotFound.
func (d *DB) Get(key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, storage.ErrClosed
	}
	v, ok := d.data[string(key)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Has reports whether key is present.
func (d *DB) Has(key []byte) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false, storage.ErrClosed
	}
	_, ok := d.data[string(key)]
	return ok, nil
}

// NewIterator returns an iterator over the snapshot of [start, end) taken at
// call time. Later writes do not affect it.
func (d *DB) NewIterator(start, end []byte) (storage.Iterator, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, storage.ErrClosed
	}
	return snapshotRange(d.data, nil, nil, start, end), nil
}

// NewTx opens a transaction over the backend.
func (d *DB) NewTx(writable bool) (storage.Tx, error) {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return nil, storage.ErrClosed
	}
	return &memTx{
		db:       d,
		writable: writable,
		writes:   make(map[string][]byte),
		dels:     make(map[string]struct{}),
	}, nil
}

// Close releases the backend. Further operations return storage.ErrClosed.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.data = nil
	return nil
}

// Len returns the number of stored keys. Test helper.
func (d *DB) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.data)
}

type memTx struct {
	db       *DB
	mu       sync.Mutex
	writes   map[string][]byte
	dels     map[string]struct{}
	writable bool
	done     bool
}

var _ storage.Tx = (*memTx)(nil)

func (t *memTx) Get(key []byte) ([]byte, error) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil, storage.ErrClosed
	}
	if v, ok := t.writes[string(key)]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		t.mu.Unlock()
		return out, nil
	}
	if _, ok := t.dels[string(key)]; ok {
		t.mu.Unlock()
		return nil, storage.ErrNotFound
	}
	t.mu.Unlock()
	return t.db.Get(key)
}

func (t *memTx) Has(key []byte) (bool, error) {
	_, err := t.Get(key)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *memTx) Put(key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
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

func (t *memTx) Delete(key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
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

// NewIterator merges the committed snapshot with the transaction's staged
// writes and deletes.
func (t *memTx) NewIterator(start, end []byte) (storage.Iterator, error) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil, storage.ErrClosed
	}
	writes := t.writes
	dels := t.dels
	t.mu.Unlock()

	t.db.mu.RLock()
	defer t.db.mu.RUnlock()
	if t.db.closed {
		return nil, storage.ErrClosed
	}
	return snapshotRange(t.db.data, writes, dels, start, end), nil
}

func (t *memTx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return storage.ErrClosed
	}
	t.done = true
	if !t.writable {
		return nil
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.db.closed {
		return storage.ErrClosed
	}
	for k := range t.dels {
		delete(t.db.data, k)
	}
	for k, v := range t.writes {
		t.db.data[k] = v
	}
	return nil
}

func (t *memTx) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	t.writes = nil
	t.dels = nil
	return nil
}

type kv struct {
	key   []byte
	value []byte
}

type sliceIter struct {
	entries []kv
	pos     int
}

var _ storage.Iterator = (*sliceIter)(nil)

func (it *sliceIter) Next() bool {
	if it.pos >= len(it.entries) {
		return false
	}
	it.pos++
	return it.pos <= len(it.entries)
}

func (it *sliceIter) Key() []byte {
	return it.entries[it.pos-1].key
}

func (it *sliceIter) Value() []byte {
	return it.entries[it.pos-1].value
}

func (it *sliceIter) Close() error {
	it.entries = nil
	return nil
}

// snapshotRange materializes the merged view of data, writes and dels over
// [start, end) as a sorted entry slice. Callers hold the relevant locks.
func snapshotRange(data, writes map[string][]byte, dels map[string]struct{}, start, end []byte) *sliceIter {
	inRange := func(k string) bool {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			return false
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			return false
		}
		return true
	}

	merged := make(map[string][]byte, len(data))
	for k, v := range data {
		if inRange(k) {
			merged[k] = v
		}
	}
	for k := range dels {
		delete(merged, k)
	}
	for k, v := range writes {
		if inRange(k) {
			merged[k] = v
		}
	}

	entries := make([]kv, 0, len(merged))
	for k, v := range merged {
		key := []byte(k)
		val := make([]byte, len(v))
		copy(val, v)
		entries = append(entries, kv{key: key, value: val})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	return &sliceIter{entries: entries}
}
