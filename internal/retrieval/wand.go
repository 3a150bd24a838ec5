package retrieval

import (
	"context"
	"sort"

	"github.com/kev1N916/keSE/internal/cursor"
)

// WAND drives cursors sorted by current doc id, finding the pivot whose
// cumulative upper bound first exceeds θ, and either scores the pivot
// document (when every cursor before it already sits there) or advances
// one pre-pivot cursor to the first posting at or after it.
func WAND(ctx context.Context, cursors []cursor.Cursor, k int) ([]Hit, *VisitStats, error) {
	termOrder := sortByTermID(cursors)
	topk := NewTopK(k)
	stats := &VisitStats{}

	for {
		if err := checkCancel(ctx); err != nil {
			return nil, stats, err
		}
		live := pruneExhausted(cursors)
		if len(live) == 0 {
			break
		}
		sort.Slice(live, func(i, j int) bool { return live[i].DocID() < live[j].DocID() })

		threshold := topk.Threshold()
		pivotIdx := -1
		var cum float32
		for i, c := range live {
			cum += c.UpperBound()
			if cum > threshold {
				pivotIdx = i
				break
			}
		}
		if pivotIdx == -1 {
			break
		}
		pivotDoc := live[pivotIdx].DocID()

		if live[0].DocID() == pivotDoc {
			stats.Visited++
			topk.Offer(pivotDoc, scoreAt(termOrder, pivotDoc))
			for _, c := range live {
				if c.DocID() == pivotDoc {
					c.Next()
				}
			}
			continue
		}

		best := 0
		for i := 1; i < pivotIdx; i++ {
			if live[i].DocID() < pivotDoc && live[i].UpperBound() > live[best].UpperBound() {
				best = i
			}
		}
		live[best].NextGEQ(pivotDoc)
	}
	return topk.Results(), stats, nil
}
