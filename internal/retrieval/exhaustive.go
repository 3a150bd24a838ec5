package retrieval

import (
	"context"

	"github.com/kev1N916/keSE/internal/cursor"
)

// Exhaustive scores every candidate document that any cursor touches,
// with no pruning. It is the reference implementation the four pruning
// algorithms must agree with exactly (property 5).
func Exhaustive(ctx context.Context, cursors []cursor.Cursor, k int) ([]Hit, error) {
	termOrder := sortByTermID(cursors)
	topk := NewTopK(k)

	for {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}
		live := pruneExhausted(termOrder)
		if len(live) == 0 {
			break
		}
		candidate := minDocID(live)
		topk.Offer(candidate, scoreAt(termOrder, candidate))
		for _, c := range termOrder {
			if !c.Exhausted() && c.DocID() == candidate {
				c.Next()
			}
		}
	}
	return topk.Results(), nil
}
