package retrieval

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/RoaringBitmap/roaring"

	"github.com/kev1N916/keSE/internal/codec"
	"github.com/kev1N916/keSE/internal/cursor"
	"github.com/kev1N916/keSE/internal/postings"
	"github.com/kev1N916/keSE/internal/scorer"
)

// fixture is a tiny hand-built collection: term -> postings (doc_id, tf),
// plus per-doc lengths, used to exercise every retrieval algorithm
// against the same cursor contract.
type fixture struct {
	numDocs int64
	avgdl   float64
	docLens map[uint32]uint32
	terms   map[string][]posting
}

type posting struct {
	docID uint32
	tf    uint32
}

func (f *fixture) docLen(id uint32) uint32 { return f.docLens[id] }

// cursorsFor opens fresh block cursors over the given terms, in the
// order supplied, assigning ascending term ids 0..n-1 (the canonical
// summation order).
func (f *fixture) cursorsFor(t *testing.T, blockN int, terms ...string) []cursor.Cursor {
	t.Helper()
	params := scorer.DefaultParams()
	var out []cursor.Cursor
	for i, term := range terms {
		ps := f.terms[term]
		docIDs := make([]uint32, len(ps))
		tfs := make([]uint32, len(ps))
		docLens := make([]uint32, len(ps))
		for j, p := range ps {
			docIDs[j] = p.docID
			tfs[j] = p.tf
			docLens[j] = f.docLen(p.docID)
		}
		idf := scorer.IDF(f.numDocs, int64(len(ps)))

		var buf bytes.Buffer
		w := postings.NewWriter(&buf, codec.VarByte{}, blockN)
		descs, err := w.WriteTerm(docIDs, tfs, docLens, idf, f.avgdl, params)
		if err != nil {
			t.Fatalf("WriteTerm(%q): %v", term, err)
		}
		reader := postings.NewReader(bytes.NewReader(buf.Bytes()))
		out = append(out, cursor.NewBlock(i, reader, codec.VarByte{}, descs, f.docLen, idf, f.avgdl, params))
	}
	return out
}

// s1Fixture builds the tiny corpus from the canonical worked example:
// d0="a b a", d1="b c", d2="a c c".
func s1Fixture() *fixture {
	return &fixture{
		numDocs: 3,
		avgdl:   (3.0 + 2.0 + 3.0) / 3.0,
		docLens: map[uint32]uint32{0: 3, 1: 2, 2: 3},
		terms: map[string][]posting{
			"a": {{0, 2}, {2, 1}},
			"b": {{0, 1}, {1, 1}},
			"c": {{1, 1}, {2, 2}},
		},
	}
}

func TestS1TinyCorpusWAND(t *testing.T) {
	f := s1Fixture()
	cursors := f.cursorsFor(t, 2, "a", "c")
	hits, _, err := WAND(context.Background(), cursors, 2)
	if err != nil {
		t.Fatalf("WAND: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %v", len(hits), hits)
	}
	if hits[0].DocID != 2 {
		t.Fatalf("expected doc 2 to rank first, got %d (%v)", hits[0].DocID, hits)
	}
	if hits[1].DocID != 0 {
		t.Fatalf("expected doc 0 to rank second, got %d (%v)", hits[1].DocID, hits)
	}
}

func runAll(t *testing.T, f *fixture, blockN int, terms []string, k int) map[string][]Hit {
	t.Helper()
	out := map[string][]Hit{}

	exhaustive, err := Exhaustive(context.Background(), f.cursorsFor(t, blockN, terms...), k)
	if err != nil {
		t.Fatalf("Exhaustive: %v", err)
	}
	out["exhaustive"] = exhaustive

	wand, _, err := WAND(context.Background(), f.cursorsFor(t, blockN, terms...), k)
	if err != nil {
		t.Fatalf("WAND: %v", err)
	}
	out["wand"] = wand

	maxscore, _, err := MaxScore(context.Background(), f.cursorsFor(t, blockN, terms...), k)
	if err != nil {
		t.Fatalf("MaxScore: %v", err)
	}
	out["maxscore"] = maxscore

	bmw, _, err := BlockMaxWAND(context.Background(), f.cursorsFor(t, blockN, terms...), k)
	if err != nil {
		t.Fatalf("BlockMaxWAND: %v", err)
	}
	out["bmw"] = bmw

	bmm, _, err := BlockMaxMaxScore(context.Background(), f.cursorsFor(t, blockN, terms...), k)
	if err != nil {
		t.Fatalf("BlockMaxMaxScore: %v", err)
	}
	out["bmm"] = bmm

	return out
}

// largeFixture builds a synthetic collection large enough to exercise
// real pruning and skip behavior across many blocks.
func largeFixture(numDocs int) *fixture {
	f := &fixture{
		numDocs: int64(numDocs),
		docLens: map[uint32]uint32{},
		terms:   map[string][]posting{},
	}
	var totalLen int64
	for d := 0; d < numDocs; d++ {
		length := uint32(5 + d%7)
		f.docLens[uint32(d)] = length
		totalLen += int64(length)
	}
	f.avgdl = float64(totalLen) / float64(numDocs)

	// "common" appears in every doc with varying tf; "rare" only in a
	// sparse subset; "mid" in about a third.
	var common, mid, rare []posting
	for d := 0; d < numDocs; d++ {
		common = append(common, posting{uint32(d), uint32(1 + d%3)})
		if d%3 == 0 {
			mid = append(mid, posting{uint32(d), uint32(1 + d%2)})
		}
		if d%37 == 0 {
			rare = append(rare, posting{uint32(d), uint32(2)})
		}
	}
	f.terms["common"] = common
	f.terms["mid"] = mid
	f.terms["rare"] = rare
	return f
}

func TestPruningEquivalence(t *testing.T) {
	f := largeFixture(500)
	results := runAll(t, f, 16, []string{"common", "mid", "rare"}, 5)
	want := results["exhaustive"]
	for _, algo := range []string{"wand", "maxscore", "bmw", "bmm"} {
		if !reflect.DeepEqual(results[algo], want) {
			t.Fatalf("%s diverged from exhaustive:\n want %v\n got  %v", algo, want, results[algo])
		}
	}
}

func TestS4Boolean(t *testing.T) {
	// d0="x y", d1="x z", d2="y z"
	f := &fixture{
		numDocs: 3,
		avgdl:   2,
		docLens: map[uint32]uint32{0: 2, 1: 2, 2: 2},
		terms: map[string][]posting{
			"x": {{0, 1}, {1, 1}},
			"y": {{0, 1}, {2, 1}},
			"z": {{1, 1}, {2, 1}},
		},
	}
	universe := roaring.New()
	universe.AddRange(0, uint64(f.numDocs))

	and := f.cursorsFor(t, 4, "x", "y")
	node := AndNode(TermNode(and[0]), TermNode(and[1]))
	bm, err := Eval(context.Background(), node, universe)
	if err != nil {
		t.Fatalf("Eval AND: %v", err)
	}
	if got := bm.ToArray(); !reflect.DeepEqual(got, []uint32{0}) {
		t.Fatalf("x AND y: want [0], got %v", got)
	}

	or := f.cursorsFor(t, 4, "x", "z")
	node = OrNode(TermNode(or[0]), TermNode(or[1]))
	bm, err = Eval(context.Background(), node, universe)
	if err != nil {
		t.Fatalf("Eval OR: %v", err)
	}
	if got := bm.ToArray(); !reflect.DeepEqual(got, []uint32{0, 1, 2}) {
		t.Fatalf("x OR z: want [0 1 2], got %v", got)
	}

	andNot := f.cursorsFor(t, 4, "x", "z")
	node = AndNode(TermNode(andNot[0]), NotNode(TermNode(andNot[1])))
	bm, err = Eval(context.Background(), node, universe)
	if err != nil {
		t.Fatalf("Eval AND NOT: %v", err)
	}
	if got := bm.ToArray(); !reflect.DeepEqual(got, []uint32{0}) {
		t.Fatalf("x AND NOT z: want [0], got %v", got)
	}
}

func TestS6PruningVisitsFewerThanExhaustive(t *testing.T) {
	f := largeFixture(2000)
	k := 5

	_, wandStats, err := WAND(context.Background(), f.cursorsFor(t, 16, "common", "rare"), k)
	if err != nil {
		t.Fatalf("WAND: %v", err)
	}
	_, bmwStats, err := BlockMaxWAND(context.Background(), f.cursorsFor(t, 16, "common", "rare"), k)
	if err != nil {
		t.Fatalf("BlockMaxWAND: %v", err)
	}
	if bmwStats.Visited > wandStats.Visited {
		t.Fatalf("expected BMW to visit no more documents than WAND: bmw=%d wand=%d", bmwStats.Visited, wandStats.Visited)
	}
	if wandStats.Visited >= 2000 {
		t.Fatalf("expected WAND to prune below exhaustive visit count, got %d", wandStats.Visited)
	}
}

func TestTopKTieBreakSmallerDocIDWins(t *testing.T) {
	tk := NewTopK(2)
	tk.Offer(5, 1.0)
	tk.Offer(3, 1.0)
	tk.Offer(9, 1.0)
	res := tk.Results()
	if len(res) != 2 || res[0].DocID != 3 || res[1].DocID != 5 {
		t.Fatalf("expected smaller doc ids to win ties, got %v", res)
	}
}
