package retrieval

import (
	"context"
	"sort"

	"github.com/kev1N916/keSE/internal/cursor"
)

// BlockMaxMaxScore is MaxScore with non-essential upper bounds replaced
// by current block-max scores whenever the cursor's current block
// reaches the candidate (otherwise the term's static upper bound is
// used): a candidate
// that cannot beat θ even with non-essential block-max scores added is
// skipped without decoding any non-essential block.
func BlockMaxMaxScore(ctx context.Context, cursors []cursor.Cursor, k int) ([]Hit, *VisitStats, error) {
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
		var remainingBM float32
		for _, c := range nonEssential {
			if c.BlockMaxDocID() >= candidate {
				remainingBM += c.BlockMaxScore()
			} else {
				remainingBM += c.UpperBound()
			}
		}

		if partial+remainingBM <= threshold {
			for _, c := range essential {
				if c.DocID() == candidate {
					c.Next()
				}
			}
			continue
		}

		for _, c := range nonEssential {
			if c.DocID() < candidate {
				c.NextGEQ(candidate)
			}
		}
		stats.Visited++
		topk.Offer(candidate, scoreAt(termOrder, candidate))

		for _, c := range essential {
			if c.DocID() == candidate {
				c.Next()
			}
		}
	}
	return topk.Results(), stats, nil
}
