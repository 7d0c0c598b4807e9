// Package grovedb implements a hierarchical authenticated key/value store.
// Data lives in subtrees, each a balanced authenticated search tree, and
// subtrees nest: a parent stores each child subtree's root hash as an
// ordinary value under the child's anchor key. One root hash therefore
// commits to every key at every depth, and the presence or absence of any
// key can be proven against it without trusting the storage medium.
//
// All mutation goes through batches applied in transactions; every
// operation reports a deterministic resource cost alongside its result.
package grovedb

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/Silvanasss/GroveDB/avl"
	"github.com/Silvanasss/GroveDB/cost"
	"github.com/Silvanasss/GroveDB/storage"
)

// DB is a hierarchical authenticated store on top of one storage backend.
// Reads observe the last committed state and may run concurrently;
// mutations run through transactions, one at a time.
type DB struct {
	be      storage.Backend
	log     *zap.Logger
	weights cost.Weights
	roots   *lru.Cache[string, rootEntry]

	cacheSize int

	// writeMu serializes transactions, held from Begin until Commit or
	// Abort.
	writeMu sync.Mutex
}

// rootEntry caches a subtree's decoded root record along with the record's
// stored size, so cache hits account the same logical read cost as misses.
type rootEntry struct {
	root avl.Root
	size int
}

// Option configures a DB during Open.
type Option func(*DB)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(db *DB) { db.log = l }
}

// WithWeights sets the cost weights used for weighted totals.
func WithWeights(w cost.Weights) Option {
	return func(db *DB) { db.weights = w.WithDefaults() }
}

// WithCacheSize sets the root record cache capacity, in subtrees.
func WithCacheSize(n int) Option {
	return func(db *DB) { db.cacheSize = n }
}

// WithConfig applies a parsed Config.
func WithConfig(c Config) Option {
	return func(db *DB) {
		c = c.WithDefaults()
		db.weights = c.Weights
		db.cacheSize = c.CacheSize
	}
}

// Open initializes a store on the backend, creating the root subtree on
// first use. The backend stays owned by the caller until Close.
func Open(be storage.Backend, opts ...Option) (*DB, error) {
	db := &DB{
		be:        be,
		log:       zap.NewNop(),
		weights:   cost.DefaultWeights(),
		cacheSize: DefaultCacheSize,
	}
	for _, o := range opts {
		o(db)
	}
	roots, err := lru.New[string, rootEntry](db.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("root record cache: %w", err)
	}
	db.roots = roots
	if err := db.bootstrap(); err != nil {
		return nil, err
	}
	db.log.Debug("store opened", zap.Int("cache_size", db.cacheSize))
	return db, nil
}

// bootstrap writes the root subtree's root record if the store is empty,
// so the root path always resolves.
func (db *DB) bootstrap() error {
	var c cost.Cost
	stx, err := db.be.NewTx(true)
	if err != nil {
		return fmt.Errorf("begin bootstrap transaction: %w", err)
	}
	t, err := avl.NewWritable(Path(nil).Prefix(), stx, &c)
	if err != nil {
		stx.Abort()
		return err
	}
	if err := t.EnsureCreated(&c); err != nil {
		stx.Abort()
		return err
	}
	if err := stx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap transaction: %w", err)
	}
	return nil
}

// Close releases the backend. Transactions must be finished first.
func (db *DB) Close() error {
	return db.be.Close()
}

// Weights returns the configured cost weights.
func (db *DB) Weights() cost.Weights {
	return db.weights
}

// Get returns the element stored under key in the subtree at path,
// following references to their final target.
func (db *DB) Get(path Path, key []byte) (Element, cost.Cost, error) {
	var c cost.Cost
	el, err := db.view().get(path, key, &c)
	recordOp("get", err)
	return el, c, err
}

// GetRaw returns the element stored under key without following
// references.
func (db *DB) GetRaw(path Path, key []byte) (Element, cost.Cost, error) {
	var c cost.Cost
	el, err := db.view().getRaw(path, key, &c)
	recordOp("get_raw", err)
	return el, c, err
}

// Has reports whether an element is stored under key in the subtree at
// path. References count as present; they are not followed.
func (db *DB) Has(path Path, key []byte) (bool, cost.Cost, error) {
	var c cost.Cost
	ok, err := db.view().has(path, key, &c)
	recordOp("has", err)
	return ok, c, err
}

// RootHash returns the root hash of the subtree at path. The root path
// yields the hierarchy root hash, which commits to the entire store.
func (db *DB) RootHash(path Path) (avl.Hash, cost.Cost, error) {
	var c cost.Cost
	t, err := db.view().resolveTree(path, &c)
	recordOp("root_hash", err)
	if err != nil {
		return avl.Hash{}, c, err
	}
	return t.RootHash(), c, nil
}

// Resolve returns a read handle on the subtree at path, bound to the
// committed state observed at resolution.
func (db *DB) Resolve(path Path) (*Subtree, cost.Cost, error) {
	var c cost.Cost
	t, err := db.view().resolveTree(path, &c)
	recordOp("resolve", err)
	if err != nil {
		return nil, c, err
	}
	return &Subtree{db: db, path: NewPath(path...), tree: t}, c, nil
}

// view is one consistent read scope: either the committed state of the
// backend, with the root record cache, or the staged state of an open
// transaction.
type view struct {
	db     *DB
	src    storage.Reader
	cached bool
}

func (db *DB) view() view {
	return view{db: db, src: db.be, cached: true}
}

// resolveTree opens the subtree at path, reading its root record. Missing
// subtrees yield ErrPathNotFound, or ErrNotSubtree when the path's last
// segment resolves to a different element kind.
func (v view) resolveTree(path Path, c *cost.Cost) (*avl.Tree, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	prefix := path.Prefix()
	c.AddSeek()
	if v.cached {
		if ent, ok := v.db.roots.Get(string(prefix)); ok {
			c.AddRead(uint64(ent.size))
			return avl.NewWithRoot(prefix, v.src, ent.root), nil
		}
	}
	data, err := v.src.Get(avl.MetaKey(prefix))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, v.pathError(path, c)
		}
		return nil, fmt.Errorf("read root record: %w", err)
	}
	c.AddRead(uint64(len(data)))
	root, err := avl.DecodeRootRecord(data)
	if err != nil {
		return nil, err
	}
	if v.cached {
		v.db.roots.Add(string(prefix), rootEntry{root: root, size: len(data)})
	}
	return avl.NewWithRoot(prefix, v.src, root), nil
}

// pathError distinguishes a missing subtree from a final segment that
// resolves to a non-subtree element.
func (v view) pathError(path Path, c *cost.Cost) error {
	if !path.IsRoot() {
		seg := path[len(path)-1]
		if t, err := v.resolveTree(path.Parent(), c); err == nil {
			if data, err := t.Get(seg, c); err == nil {
				if el, err := DecodeElement(data); err == nil && !el.IsSubtree() {
					return fmt.Errorf("%w: %s: segment holds %s element",
						ErrNotSubtree, path, el.Kind())
				}
			}
		}
	}
	return fmt.Errorf("%w: %s", ErrPathNotFound, path)
}

func (v view) getRaw(path Path, key []byte, c *cost.Cost) (Element, error) {
	t, err := v.resolveTree(path, c)
	if err != nil {
		return Element{}, err
	}
	data, err := t.Get(key, c)
	if err != nil {
		return Element{}, err
	}
	return DecodeElement(data)
}

func (v view) get(path Path, key []byte, c *cost.Cost) (Element, error) {
	el, err := v.getRaw(path, key, c)
	if err != nil {
		return Element{}, err
	}
	return v.follow(path, key, el, c)
}

func (v view) has(path Path, key []byte, c *cost.Cost) (bool, error) {
	t, err := v.resolveTree(path, c)
	if err != nil {
		return false, err
	}
	return t.Has(key, c)
}

// follow dereferences el until it reaches a non-reference element. The
// chain is bounded by MaxReferenceHops, and revisiting any element,
// including the starting one, fails with ErrCyclicReference.
func (v view) follow(path Path, key []byte, el Element, c *cost.Cost) (Element, error) {
	if !el.IsReference() {
		return el, nil
	}
	visited := map[string]struct{}{
		string(path.Child(key).frame()): {},
	}
	for hops := 0; el.IsReference(); hops++ {
		if hops >= MaxReferenceHops {
			return Element{}, fmt.Errorf("%w: more than %d hops", ErrReferenceLimit, MaxReferenceHops)
		}
		target := el.Reference()
		id := string(target.frame())
		if _, ok := visited[id]; ok {
			return Element{}, fmt.Errorf("%w: %s revisited", ErrCyclicReference, target)
		}
		visited[id] = struct{}{}
		next, err := v.getRaw(target.Parent(), target[len(target)-1], c)
		if err != nil {
			return Element{}, fmt.Errorf("follow reference to %s: %w", target, err)
		}
		el = next
	}
	return el, nil
}
