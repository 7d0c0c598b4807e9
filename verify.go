package grovedb

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Silvanasss/GroveDB/avl"
	"github.com/Silvanasss/GroveDB/cost"
)

// VerifyHierarchy audits the committed store: it walks every subtree from
// the hierarchy root, checks that each anchor's bound root hash matches
// the child subtree's stored root, and recomputes every node hash from the
// stored nodes. It returns the first violation found as an
// avl.ErrIntegrity, or the walk error that interrupted it.
//
// The walk is read-only and may run alongside readers; running it
// concurrently with transactions can report spurious mismatches on
// backends without snapshot reads.
func (db *DB) VerifyHierarchy(ctx context.Context) (cost.Cost, error) {
	var c cost.Cost
	subtrees, err := db.collectSubtrees(ctx, &c)
	recordOp("verify_hierarchy", err)
	if err != nil {
		return c, err
	}

	eg, ctx := errgroup.WithContext(ctx)
	costs := make([]cost.Cost, len(subtrees))
	for i := range subtrees {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := avl.New(subtrees[i].Prefix(), db.be, &costs[i])
			if err != nil {
				return fmt.Errorf("subtree %s: %w", subtrees[i], err)
			}
			if err := t.VerifyIntegrity(&costs[i]); err != nil {
				return fmt.Errorf("subtree %s: %w", subtrees[i], err)
			}
			return nil
		})
	}
	err = eg.Wait()
	for i := range costs {
		c.Add(costs[i])
	}
	return c, err
}

// collectSubtrees walks the hierarchy breadth-first, verifying the anchor
// link of every subtree against its child's stored root record.
func (db *DB) collectSubtrees(ctx context.Context, c *cost.Cost) ([]Path, error) {
	v := db.view()
	queue := []Path{nil}
	var all []Path
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := queue[0]
		queue = queue[1:]
		all = append(all, path)

		t, err := v.resolveTree(path, c)
		if err != nil {
			return nil, err
		}
		it, err := t.Walk(avl.Range{}, c)
		if err != nil {
			return nil, err
		}
		for it.Next() {
			el, err := DecodeElement(it.Value())
			if err != nil {
				it.Close()
				return nil, fmt.Errorf("subtree %s: key %x: %w", path, it.Key(), err)
			}
			if !el.IsSubtree() {
				continue
			}
			child := path.Child(it.Key())
			ct, err := v.resolveTree(child, c)
			if err != nil {
				it.Close()
				return nil, fmt.Errorf("%w: anchor %s has no subtree: %v", avl.ErrIntegrity, child, err)
			}
			if ct.RootHash() != el.SubtreeRoot() {
				it.Close()
				return nil, fmt.Errorf("%w: anchor %s binds root %s, subtree stores %s",
					avl.ErrIntegrity, child, el.SubtreeRoot(), ct.RootHash())
			}
			queue = append(queue, child)
		}
		if err := it.Err(); err != nil {
			it.Close()
			return nil, err
		}
		if err := it.Close(); err != nil {
			return nil, err
		}
	}
	return all, nil
}
