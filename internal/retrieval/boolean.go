package retrieval

import (
	"context"
	"errors"

	"github.com/RoaringBitmap/roaring"

	"github.com/kev1N916/keSE/internal/cursor"
)

// ErrUnknownOp is returned by Eval when a BoolNode carries an
// unrecognized operator.
var ErrUnknownOp = errors.New("retrieval: unknown boolean op")

// BoolOp names a boolean query tree node's operator.
type BoolOp int

const (
	OpTerm BoolOp = iota
	OpAnd
	OpOr
	OpNot
)

// BoolNode is one node of a boolean query tree: a term leaf carries a
// cursor; And/Or combine children; Not negates its single child against
// the collection universe.
type BoolNode struct {
	Op       BoolOp
	Cursor   cursor.Cursor
	Children []*BoolNode
}

// TermNode wraps a single term's cursor as a leaf.
func TermNode(c cursor.Cursor) *BoolNode { return &BoolNode{Op: OpTerm, Cursor: c} }

// AndNode intersects its children.
func AndNode(children ...*BoolNode) *BoolNode { return &BoolNode{Op: OpAnd, Children: children} }

// OrNode unions its children.
func OrNode(children ...*BoolNode) *BoolNode { return &BoolNode{Op: OpOr, Children: children} }

// NotNode negates its single child against the collection universe.
func NotNode(child *BoolNode) *BoolNode { return &BoolNode{Op: OpNot, Children: []*BoolNode{child}} }

// LeapfrogAnd intersects a set of term cursors via repeated next_geq,
// the classical leapfrog-join: probe the largest current doc id across
// all cursors, advance every other cursor to meet it, and repeat until
// all agree or any cursor is exhausted.
func LeapfrogAnd(ctx context.Context, cursors []cursor.Cursor) (*roaring.Bitmap, error) {
	result := roaring.New()
	if len(cursors) == 0 {
		return result, nil
	}
	for {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}
		exhausted := false
		target := uint32(0)
		for _, c := range cursors {
			if c.Exhausted() {
				exhausted = true
				break
			}
			if c.DocID() > target {
				target = c.DocID()
			}
		}
		if exhausted {
			break
		}

		allMatch := true
		for _, c := range cursors {
			if c.DocID() != target {
				c.NextGEQ(target)
				if c.Exhausted() || c.DocID() != target {
					allMatch = false
				}
			}
		}
		if allMatch {
			result.Add(target)
			for _, c := range cursors {
				c.Next()
			}
		}
	}
	return result, nil
}

// OrCursors unions the full posting lists of a set of term cursors.
func OrCursors(ctx context.Context, cursors []cursor.Cursor) (*roaring.Bitmap, error) {
	result := roaring.New()
	for _, c := range cursors {
		for !c.Exhausted() {
			if err := checkCancel(ctx); err != nil {
				return nil, err
			}
			result.Add(c.DocID())
			c.Next()
		}
	}
	return result, nil
}

// Eval evaluates a boolean query tree against the cursor set embedded
// in its leaves, returning the matching doc ids as a bitmap. universe
// must contain every doc id in the collection (for Not).
func Eval(ctx context.Context, node *BoolNode, universe *roaring.Bitmap) (*roaring.Bitmap, error) {
	switch node.Op {
	case OpTerm:
		return OrCursors(ctx, []cursor.Cursor{node.Cursor})

	case OpAnd:
		var termCursors []cursor.Cursor
		var composite []*roaring.Bitmap
		for _, child := range node.Children {
			if child.Op == OpTerm {
				termCursors = append(termCursors, child.Cursor)
				continue
			}
			bm, err := Eval(ctx, child, universe)
			if err != nil {
				return nil, err
			}
			composite = append(composite, bm)
		}
		var result *roaring.Bitmap
		if len(termCursors) > 0 {
			bm, err := LeapfrogAnd(ctx, termCursors)
			if err != nil {
				return nil, err
			}
			result = bm
		}
		for _, bm := range composite {
			if result == nil {
				result = bm
			} else {
				result = roaring.And(result, bm)
			}
		}
		if result == nil {
			result = roaring.New()
		}
		return result, nil

	case OpOr:
		result := roaring.New()
		for _, child := range node.Children {
			bm, err := Eval(ctx, child, universe)
			if err != nil {
				return nil, err
			}
			result = roaring.Or(result, bm)
		}
		return result, nil

	case OpNot:
		inner, err := Eval(ctx, node.Children[0], universe)
		if err != nil {
			return nil, err
		}
		return roaring.AndNot(universe, inner), nil

	default:
		return nil, ErrUnknownOp
	}
}

// RankBitmap converts a boolean result set into BM25-ranked hits by
// scoring each matching document with scoreDoc (typically built from
// fresh cursors re-opened on the matched terms).
func RankBitmap(bm *roaring.Bitmap, k int, scoreDoc func(docID uint32) float32) []Hit {
	topk := NewTopK(k)
	it := bm.Iterator()
	for it.HasNext() {
		d := it.Next()
		topk.Offer(d, scoreDoc(d))
	}
	return topk.Results()
}
