package retrieval

import "sort"

// Hit is one scored document in a result set.
type Hit struct {
	DocID uint32
	Score float32
}

// TopK is a bounded min-heap holding the best k (score, doc_id) pairs
// seen so far. Ties are broken by smaller doc_id winning, matching the
// spec's tie-break rule.
type TopK struct {
	k     int
	items []Hit
}

// NewTopK creates a heap with the given capacity.
func NewTopK(k int) *TopK {
	return &TopK{k: k}
}

// worse reports whether a should be evicted before b.
func worse(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.DocID > b.DocID
}

// Threshold is the heap's current θ: the smallest score it holds, or 0
// if it has not yet filled to capacity.
func (t *TopK) Threshold() float32 {
	if t.k <= 0 || len(t.items) < t.k {
		return 0
	}
	return t.items[0].Score
}

// Len reports how many hits the heap currently holds.
func (t *TopK) Len() int { return len(t.items) }

// Offer inserts a candidate, evicting the current worst entry if the
// heap is already at capacity and the candidate beats it.
func (t *TopK) Offer(docID uint32, score float32) {
	if t.k <= 0 {
		return
	}
	h := Hit{DocID: docID, Score: score}
	if len(t.items) < t.k {
		t.items = append(t.items, h)
		t.up(len(t.items) - 1)
		return
	}
	if worse(h, t.items[0]) {
		return
	}
	t.items[0] = h
	t.down(0)
}

func (t *TopK) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if worse(t.items[i], t.items[parent]) {
			t.items[parent], t.items[i] = t.items[i], t.items[parent]
			i = parent
		} else {
			break
		}
	}
}

func (t *TopK) down(i int) {
	n := len(t.items)
	for {
		left, right := 2*i+1, 2*i+2
		worstIdx := i
		if left < n && worse(t.items[left], t.items[worstIdx]) {
			worstIdx = left
		}
		if right < n && worse(t.items[right], t.items[worstIdx]) {
			worstIdx = right
		}
		if worstIdx == i {
			break
		}
		t.items[i], t.items[worstIdx] = t.items[worstIdx], t.items[i]
		i = worstIdx
	}
}

// Results returns the held hits sorted descending by score, ties broken
// by ascending doc id.
func (t *TopK) Results() []Hit {
	out := make([]Hit, len(t.items))
	copy(out, t.items)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocID < out[j].DocID
	})
	return out
}
