package grovedb

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Silvanasss/GroveDB/avl"
	"github.com/Silvanasss/GroveDB/cost"
	"github.com/Silvanasss/GroveDB/storage"
)

type txState uint8

const (
	txOpen txState = iota
	txCommitted
	txAborted
)

// Transaction is one atomic unit of hierarchy mutation. It is created by
// Begin, accumulates batches through Apply, and ends with exactly one of
// Commit or Abort. A failed Apply aborts the transaction immediately, so a
// partially applied batch can never be committed.
//
// Only one transaction is open at a time; Begin blocks until the previous
// one finishes. Reads through the transaction observe its staged writes.
type Transaction struct {
	db    *DB
	stx   storage.Tx
	log   *zap.Logger
	state txState
	total cost.Cost

	// touched records the latest root of every subtree this transaction
	// rewrote or destroyed, for cache maintenance after commit.
	touched map[string]touchedRoot
}

type touchedRoot struct {
	root      avl.Root
	destroyed bool
}

// Begin opens a transaction. It blocks until any previous transaction
// commits or aborts.
func (db *DB) Begin() (*Transaction, error) {
	db.writeMu.Lock()
	stx, err := db.be.NewTx(true)
	if err != nil {
		db.writeMu.Unlock()
		recordOp("begin", err)
		return nil, fmt.Errorf("begin storage transaction: %w", err)
	}
	recordOp("begin", nil)
	db.log.Debug("transaction started")
	return &Transaction{
		db:      db,
		stx:     stx,
		log:     db.log,
		touched: map[string]touchedRoot{},
	}, nil
}

// Apply runs one batch in its own transaction and commits it. It returns
// the total cost of the batch including commit bookkeeping.
func (db *DB) Apply(b Batch) (cost.Cost, error) {
	tx, err := db.Begin()
	if err != nil {
		return cost.Cost{}, err
	}
	if _, err := tx.Apply(b); err != nil {
		return tx.Cost(), err
	}
	if err := tx.Commit(); err != nil {
		return tx.Cost(), err
	}
	c := tx.Cost()
	operationCost.WithLabelValues("apply").Observe(float64(c.Total(db.weights)))
	return c, nil
}

func (tx *Transaction) view() view {
	return view{db: tx.db, src: tx.stx}
}

// Get returns the element under key at path as staged by this transaction,
// following references.
func (tx *Transaction) Get(path Path, key []byte) (Element, cost.Cost, error) {
	var c cost.Cost
	if tx.state != txOpen {
		return Element{}, c, ErrTxClosed
	}
	el, err := tx.view().get(path, key, &c)
	tx.total.Add(c)
	return el, c, err
}

// GetRaw returns the element under key at path as staged by this
// transaction, without following references.
func (tx *Transaction) GetRaw(path Path, key []byte) (Element, cost.Cost, error) {
	var c cost.Cost
	if tx.state != txOpen {
		return Element{}, c, ErrTxClosed
	}
	el, err := tx.view().getRaw(path, key, &c)
	tx.total.Add(c)
	return el, c, err
}

// Has reports whether key holds an element at path as staged by this
// transaction.
func (tx *Transaction) Has(path Path, key []byte) (bool, cost.Cost, error) {
	var c cost.Cost
	if tx.state != txOpen {
		return false, c, ErrTxClosed
	}
	ok, err := tx.view().has(path, key, &c)
	tx.total.Add(c)
	return ok, c, err
}

// RootHash returns the root hash of the subtree at path as staged by this
// transaction.
func (tx *Transaction) RootHash(path Path) (avl.Hash, cost.Cost, error) {
	var c cost.Cost
	if tx.state != txOpen {
		return avl.Hash{}, c, ErrTxClosed
	}
	t, err := tx.view().resolveTree(path, &c)
	tx.total.Add(c)
	if err != nil {
		return avl.Hash{}, c, err
	}
	return t.RootHash(), c, nil
}

// Cost returns the cost accumulated by this transaction so far.
func (tx *Transaction) Cost() cost.Cost {
	return tx.total
}

// Apply stages one batch. Operations are grouped by subtree, applied
// deepest subtree first, and every modified subtree's new root hash is
// written into its parent's anchor, level by level up to the hierarchy
// root. Any failure aborts the whole transaction and leaves the committed
// state untouched.
func (tx *Transaction) Apply(b Batch) (cost.Cost, error) {
	var c cost.Cost
	if tx.state != txOpen {
		return c, ErrTxClosed
	}
	start := time.Now()
	err := tx.apply(b, &c)
	tx.total.Add(c)
	applyDuration.Observe(time.Since(start).Seconds())
	batchOps.Observe(float64(len(b)))
	recordOp("apply", err)
	if err != nil {
		tx.log.Info("batch apply failed, aborting transaction",
			zap.Error(err), zap.Int("ops", len(b)))
		tx.finish()
		return c, err
	}
	tx.log.Debug("batch applied",
		zap.Int("ops", len(b)),
		zap.Uint64("seeks", c.Seeks),
		zap.Uint64("hashes", c.Hashes),
		zap.Uint64("bytes_written", c.BytesWritten))
	return c, nil
}

func (tx *Transaction) apply(b Batch, c *cost.Cost) error {
	p, err := newPlan(b)
	if err != nil {
		return err
	}
	for d := len(p.levels) - 1; d >= 0; d-- {
		for _, g := range p.level(d) {
			if err := tx.applyGroup(p, g, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyGroup applies one subtree's winning ops merged with the root
// updates propagated from its children, then queues this subtree's own new
// root for its parent.
func (tx *Transaction) applyGroup(p *plan, g *group, c *cost.Cost) error {
	exists, err := avl.Exists(g.prefix, tx.stx, c)
	if err != nil {
		return err
	}
	if !exists && !p.created[string(g.prefix)] {
		return tx.view().pathError(g.path, c)
	}
	t, err := avl.NewWritable(g.prefix, tx.stx, c)
	if err != nil {
		return err
	}
	if !exists {
		if err := t.EnsureCreated(c); err != nil {
			return err
		}
	}
	oldRoot := t.Root()

	ab := avl.Batch{}
	handled := map[string]bool{}
	for _, op := range g.ops {
		ab, err = tx.applyOp(g, t, ab, op, c)
		if err != nil {
			return fmt.Errorf("%s %s: key %x: %w", op.Kind, op.Path, op.Key, err)
		}
		handled[string(op.Key)] = true
	}
	for _, seg := range g.propSegments() {
		if handled[seg] {
			continue
		}
		ab = ab.Put([]byte(seg), NewSubtree(g.props[seg].Hash).Encode())
	}
	if len(ab) > 0 {
		if _, err := t.Apply(ab, c); err != nil {
			return err
		}
	}

	newRoot := t.Root()
	tx.markTouched(g.prefix, newRoot)
	if !g.path.IsRoot() && (!exists || newRoot.Hash != oldRoot.Hash) {
		parent := p.groupFor(g.path.Parent())
		parent.props[string(g.path[len(g.path)-1])] = newRoot
	}
	return nil
}

// applyOp translates one grove op into tree ops, enforcing the anchor
// rules against the pre-batch element under the key.
func (tx *Transaction) applyOp(g *group, t *avl.Tree, ab avl.Batch, op Op, c *cost.Cost) (avl.Batch, error) {
	cur, err := currentElement(t, op.Key, c)
	if err != nil {
		return ab, err
	}
	prop, hasProp := g.props[string(op.Key)]

	switch op.Kind {
	case OpInsert:
		if hasProp {
			return ab, fmt.Errorf("%w: batch writes into subtree %s and overwrites its anchor",
				ErrInvalidBatch, g.path.Child(op.Key))
		}
		if cur != nil && cur.IsSubtree() {
			return ab, ErrSubtreeExists
		}
		return ab.Put(op.Key, op.Elem.Encode()), nil

	case OpDelete:
		if cur == nil {
			return ab, ErrKeyNotFound
		}
		if !cur.IsSubtree() {
			return ab.Del(op.Key), nil
		}
		if hasProp && !prop.Empty() {
			return ab, fmt.Errorf("%w: batch writes into subtree %s and deletes its anchor",
				ErrInvalidBatch, g.path.Child(op.Key))
		}
		child := g.path.Child(op.Key)
		ct, err := avl.NewWritable(child.Prefix(), tx.stx, c)
		if err != nil {
			return ab, err
		}
		if !ct.Empty() {
			return ab, ErrSubtreeNotEmpty
		}
		if err := ct.Destroy(c); err != nil {
			return ab, err
		}
		tx.markDestroyed(child.Prefix())
		return ab.Del(op.Key), nil

	case OpInsertSubtree:
		if cur != nil && cur.IsSubtree() {
			return ab, ErrSubtreeExists
		}
		root := avl.EmptyRoot()
		if hasProp {
			root = prop.Hash
		} else {
			child := g.path.Child(op.Key)
			ct, err := avl.NewWritable(child.Prefix(), tx.stx, c)
			if err != nil {
				return ab, err
			}
			if err := ct.EnsureCreated(c); err != nil {
				return ab, err
			}
			root = ct.RootHash()
			tx.markTouched(child.Prefix(), ct.Root())
		}
		return ab.Put(op.Key, NewSubtree(root).Encode()), nil
	}
	return ab, fmt.Errorf("%w: unknown op kind %d", ErrInvalidBatch, op.Kind)
}

func currentElement(t *avl.Tree, key []byte, c *cost.Cost) (*Element, error) {
	data, err := t.Get(key, c)
	if err != nil {
		if errors.Is(err, avl.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	el, err := DecodeElement(data)
	if err != nil {
		return nil, err
	}
	return &el, nil
}

func (tx *Transaction) markTouched(prefix []byte, root avl.Root) {
	tx.touched[string(prefix)] = touchedRoot{root: root}
}

func (tx *Transaction) markDestroyed(prefix []byte) {
	tx.touched[string(prefix)] = touchedRoot{destroyed: true}
}

// Commit atomically applies every staged write. On success the root record
// cache is refreshed for every touched subtree. ErrConflict surfaces
// unchanged; the caller decides whether to retry.
func (tx *Transaction) Commit() error {
	if tx.state != txOpen {
		return ErrTxClosed
	}
	start := time.Now()
	if err := tx.stx.Commit(); err != nil {
		tx.state = txAborted
		tx.db.writeMu.Unlock()
		recordOp("commit", err)
		if errors.Is(err, storage.ErrConflict) {
			tx.log.Info("transaction conflict", zap.Error(err))
			return err
		}
		tx.log.Info("transaction commit failed", zap.Error(err))
		return fmt.Errorf("commit storage transaction: %w", err)
	}
	tx.state = txCommitted
	for prefix, tr := range tx.touched {
		if tr.destroyed {
			tx.db.roots.Remove(prefix)
			continue
		}
		rec := avl.EncodeRootRecord(tr.root)
		tx.db.roots.Add(prefix, rootEntry{root: tr.root, size: len(rec)})
	}
	tx.db.writeMu.Unlock()
	commitDuration.Observe(time.Since(start).Seconds())
	recordOp("commit", nil)
	tx.log.Debug("transaction committed",
		zap.Int("touched_subtrees", len(tx.touched)),
		zap.Uint64("cost_total", tx.total.Total(tx.db.weights)))
	return nil
}

// Abort discards the transaction. Aborting a finished transaction is a
// no-op, so Abort is safe to defer alongside a conditional Commit.
func (tx *Transaction) Abort() error {
	if tx.state != txOpen {
		return nil
	}
	return tx.finish()
}

func (tx *Transaction) finish() error {
	err := tx.stx.Abort()
	tx.state = txAborted
	tx.db.writeMu.Unlock()
	recordOp("abort", err)
	tx.log.Debug("transaction aborted")
	if err != nil {
		return fmt.Errorf("abort storage transaction: %w", err)
	}
	return nil
}
