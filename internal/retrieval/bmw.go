package retrieval

import (
	"context"
	"sort"

	"github.com/kev1N916/keSE/internal/cursor"
)

// BlockMaxWAND is WAND with a second, tighter pivot check: once the
// static-upper-bound pivot is found, recompute the prefix bound using
// each cursor's current block-max score. When that tighter bound cannot
// beat θ, skip straight past the shared block boundary instead of
// evaluating a document.
func BlockMaxWAND(ctx context.Context, cursors []cursor.Cursor, k int) ([]Hit, *VisitStats, error) {
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
		for pivotIdx+1 < len(live) && live[pivotIdx+1].DocID() == pivotDoc {
			pivotIdx++
		}

		var tight float32
		minBlockMaxDoc := uint32(cursor.ExhaustedDocID)
		for _, c := range live[:pivotIdx+1] {
			tight += c.BlockMaxScore()
			if c.BlockMaxDocID() < minBlockMaxDoc {
				minBlockMaxDoc = c.BlockMaxDocID()
			}
		}
		if tight <= threshold {
			target := minBlockMaxDoc + 1
			if pivotIdx+1 < len(live) && live[pivotIdx+1].DocID() < target {
				target = live[pivotIdx+1].DocID()
			}
			for _, c := range live[:pivotIdx+1] {
				if c.DocID() < target {
					c.NextGEQ(target)
				}
			}
			continue
		}

		if live[0].DocID() == pivotDoc {
			stats.Visited++
			topk.Offer(pivotDoc, scoreAt(termOrder, pivotDoc))
			for _, c := range live[:pivotIdx+1] {
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
