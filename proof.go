package grovedb

import (
	"bytes"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Silvanasss/GroveDB/avl"
	"github.com/Silvanasss/GroveDB/cost"
	"github.com/Silvanasss/GroveDB/pb"
)

// Prove builds a proof that the query's answer in the subtree at path is
// committed to by the hierarchy root hash. The proof carries one layer per
// subtree on the path: the innermost layer answers the query, and each
// ancestor layer proves the anchor binding its child subtree's root.
//
// A nil query proves only the subtree's root hash.
func (db *DB) Prove(path Path, q *avl.Query) (*pb.Proof, cost.Cost, error) {
	var c cost.Cost
	start := time.Now()
	proof, err := db.prove(path, q, &c)
	proveDuration.Observe(time.Since(start).Seconds())
	recordOp("prove", err)
	if err != nil {
		return nil, c, err
	}
	operationCost.WithLabelValues("prove").Observe(float64(c.Total(db.weights)))
	return proof, c, nil
}

type proofLayer struct {
	segment []byte
	tree    *avl.Tree
	query   *avl.Query
}

func (db *DB) prove(path Path, q *avl.Query, c *cost.Cost) (*pb.Proof, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	if q == nil {
		q = avl.NewQuery()
	}

	// Resolve every layer's subtree up front; resolution cost stays in
	// path order regardless of how generation is scheduled below.
	v := db.view()
	layers := make([]proofLayer, 0, len(path)+1)
	for i := len(path); i >= 0; i-- {
		sub := path[:i]
		t, err := v.resolveTree(sub, c)
		if err != nil {
			return nil, err
		}
		l := proofLayer{tree: t, query: q}
		if i > 0 {
			l.segment = append([]byte(nil), path[i-1]...)
		}
		if i < len(path) {
			l.query = avl.NewQuery().InsertKey(path[i])
		}
		layers = append(layers, l)
	}

	// Layers are independent read-only traversals; generate them in
	// parallel and fold the costs back in layer order.
	steps := make([][]avl.Step, len(layers))
	costs := make([]cost.Cost, len(layers))
	eg := new(errgroup.Group)
	for i := range layers {
		i := i
		eg.Go(func() error {
			s, err := layers[i].tree.Prove(layers[i].query, &costs[i])
			steps[i] = s
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	for i := range costs {
		c.Add(costs[i])
	}

	proof := &pb.Proof{Layers: make([]*pb.SubtreeProof, len(layers))}
	for i := range layers {
		proof.Layers[i] = &pb.SubtreeProof{
			PathSegment: layers[i].segment,
			Ops:         stepsToPB(steps[i]),
		}
	}
	return proof, nil
}

// Verify checks a layered proof against the expected hierarchy root hash.
// It verifies the outermost layer against expectedRoot, extracts the
// anchored child root each layer binds for the next path segment, and
// finally verifies the innermost layer against the query. It returns
// ErrVerificationFailed, never partial results, when anything is off.
//
// Verify is stateless: it never touches a store, so any holder of the
// expected root hash can check proofs.
func Verify(p *pb.Proof, expectedRoot avl.Hash, path Path, q *avl.Query) (*avl.VerifyResult, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	if q == nil {
		q = avl.NewQuery()
	}
	if p == nil || len(p.Layers) != len(path)+1 {
		got := 0
		if p != nil {
			got = len(p.Layers)
		}
		return nil, fmt.Errorf("%w: proof has %d layers, path wants %d",
			ErrVerificationFailed, got, len(path)+1)
	}
	for i, layer := range p.Layers {
		var want []byte
		if i < len(path) {
			want = path[len(path)-1-i]
		}
		if !bytes.Equal(layer.GetPathSegment(), want) {
			return nil, fmt.Errorf("%w: layer %d proves segment %x, path wants %x",
				ErrVerificationFailed, i, layer.GetPathSegment(), want)
		}
	}

	want := expectedRoot
	for i := len(p.Layers) - 1; i >= 1; i-- {
		seg := path[len(path)-i]
		steps, err := stepsFromPB(p.Layers[i].GetOps())
		if err != nil {
			return nil, err
		}
		res, err := avl.VerifySteps(steps, want, avl.NewQuery().InsertKey(seg))
		if err != nil {
			return nil, err
		}
		raw, ok := res.Value(seg)
		if !ok {
			return nil, fmt.Errorf("%w: layer %d does not reveal anchor %x",
				ErrVerificationFailed, i, seg)
		}
		el, err := DecodeElement(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d anchor %x: %v",
				ErrVerificationFailed, i, seg, err)
		}
		if !el.IsSubtree() {
			return nil, fmt.Errorf("%w: layer %d anchor %x holds %s element",
				ErrVerificationFailed, i, seg, el.Kind())
		}
		want = el.SubtreeRoot()
	}

	steps, err := stepsFromPB(p.Layers[0].GetOps())
	if err != nil {
		return nil, err
	}
	return avl.VerifySteps(steps, want, q)
}

func stepsToPB(steps []avl.Step) []*pb.ProofOp {
	ops := make([]*pb.ProofOp, len(steps))
	for i, s := range steps {
		op := &pb.ProofOp{}
		switch s.Kind {
		case avl.StepEmpty:
			op.Kind = pb.ProofOp_EMPTY
		case avl.StepSibling:
			op.Kind = pb.ProofOp_SIBLING
			op.Hash = s.Hash.Bytes()
		case avl.StepNode:
			op.Kind = pb.ProofOp_NODE
			op.Key = append([]byte(nil), s.Key...)
			op.Hash = s.Hash.Bytes()
		case avl.StepLeaf:
			op.Kind = pb.ProofOp_LEAF
			op.Key = append([]byte(nil), s.Key...)
			op.Value = append([]byte(nil), s.Value...)
		}
		ops[i] = op
	}
	return ops
}

func stepsFromPB(ops []*pb.ProofOp) ([]avl.Step, error) {
	steps := make([]avl.Step, len(ops))
	for i, op := range ops {
		if op == nil {
			return nil, fmt.Errorf("%w: nil proof op at %d", ErrVerificationFailed, i)
		}
		s := avl.Step{}
		switch op.GetKind() {
		case pb.ProofOp_EMPTY:
			s.Kind = avl.StepEmpty
		case pb.ProofOp_SIBLING:
			s.Kind = avl.StepSibling
			h, err := avl.HashFromBytes(op.GetHash())
			if err != nil {
				return nil, fmt.Errorf("%w: op %d: %v", ErrVerificationFailed, i, err)
			}
			s.Hash = h
		case pb.ProofOp_NODE:
			s.Kind = avl.StepNode
			s.Key = op.GetKey()
			h, err := avl.HashFromBytes(op.GetHash())
			if err != nil {
				return nil, fmt.Errorf("%w: op %d: %v", ErrVerificationFailed, i, err)
			}
			s.Hash = h
		case pb.ProofOp_LEAF:
			s.Kind = avl.StepLeaf
			s.Key = op.GetKey()
			s.Value = op.GetValue()
		default:
			return nil, fmt.Errorf("%w: op %d: unknown kind %d", ErrVerificationFailed, i, op.GetKind())
		}
		steps[i] = s
	}
	return steps, nil
}
