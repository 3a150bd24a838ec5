package retrieval

import (
	"context"
	"sort"

	"github.com/kev1N916/keSE/internal/cursor"
)

// MaxScore partitions cursors by upper bound into an essential set
// (needed to possibly beat θ) and a non-essential set (pure refinement),
// iterating the union of essential cursors for candidates and only
// paying to evaluate non-essential cursors when a candidate could still
// beat θ after adding their remaining upper bounds.
func MaxScore(ctx context.Context, cursors []cursor.Cursor, k int) ([]Hit, *VisitStats, error) {
	termOrder := sortByTermID(cursors)
	topk := NewTopK(k)
	stats := &VisitStats{}

	for {
		if err := checkCancel(ctx); err != nil {
			return nil, stats, err
		}
		threshold := topk.Threshold()
		live := pruneExhausted(cursors)
		if len(live) == 0 {
			break
		}

		byUB := append([]cursor.Cursor(nil), live...)
		sort.Slice(byUB, func(i, j int) bool { return byUB[i].UpperBound() > byUB[j].UpperBound() })

		splitIdx := 0
		var cum float32
		for i := len(byUB) - 1; i >= 0; i-- {
			cum += byUB[i].UpperBound()
			if cum > threshold {
				splitIdx = i + 1
				break
			}
		}
		essential := byUB[:splitIdx]
		nonEssential := byUB[splitIdx:]
		if len(essential) == 0 {
			break
		}

		candidate := minDocID(essential)
		if candidate == cursor.ExhaustedDocID {
			break
		}

		partial := scoreAt(termOrder, candidate)
		remainingUB := sumUB(nonEssential)
		if partial+remainingUB > threshold {
			for _, c := range nonEssential {
				if c.DocID() < candidate {
					c.NextGEQ(candidate)
				}
			}
			stats.Visited++
			topk.Offer(candidate, scoreAt(termOrder, candidate))
		}

		for _, c := range essential {
			if c.DocID() == candidate {
				c.Next()
			}
		}
	}
	return topk.Results(), stats, nil
}
