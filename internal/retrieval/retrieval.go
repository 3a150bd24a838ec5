// Package retrieval implements top-k query execution over the postings
// cursor abstraction: an exhaustive reference algorithm, Boolean
// AND/OR/NOT, and the four dynamic-pruning variants (WAND, MaxScore,
// Block-Max WAND, Block-Max MaxScore). All algorithms share a top-k heap
// and a canonical, term-id-ascending summation order so their scores
// agree bit-for-bit with the exhaustive reference.
package retrieval

import (
	"context"
	"errors"
	"sort"

	"github.com/kev1N916/keSE/internal/cursor"
)

// ErrCancelled is returned when ctx is done between document
// evaluations.
var ErrCancelled = errors.New("retrieval: query cancelled")

// VisitStats counts documents fully scored, for pruning-tightness
// instrumentation (how many candidates a pruning algorithm evaluated
// versus the exhaustive count).
type VisitStats struct {
	Visited int
}

func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}

// sortByTermID returns a copy of cursors ordered ascending by term id,
// the canonical order every algorithm must sum contributions in.
func sortByTermID(cursors []cursor.Cursor) []cursor.Cursor {
	sorted := append([]cursor.Cursor(nil), cursors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TermID() < sorted[j].TermID() })
	return sorted
}

// scoreAt sums the contributions of every cursor in termOrder (must be
// pre-sorted ascending by TermID) currently positioned at docID. Calling
// this same helper from every algorithm right before committing a score
// to the top-k heap is what keeps scores identical across algorithms.
func scoreAt(termOrder []cursor.Cursor, docID uint32) float32 {
	var sum float32
	for _, c := range termOrder {
		if !c.Exhausted() && c.DocID() == docID {
			sum += c.Score()
		}
	}
	return sum
}

func pruneExhausted(cursors []cursor.Cursor) []cursor.Cursor {
	out := cursors[:0:0]
	for _, c := range cursors {
		if !c.Exhausted() {
			out = append(out, c)
		}
	}
	return out
}

func sumUB(cursors []cursor.Cursor) float32 {
	var sum float32
	for _, c := range cursors {
		sum += c.UpperBound()
	}
	return sum
}

func minDocID(cursors []cursor.Cursor) uint32 {
	min := uint32(cursor.ExhaustedDocID)
	for _, c := range cursors {
		if c.DocID() < min {
			min = c.DocID()
		}
	}
	return min
}
