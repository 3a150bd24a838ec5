package merge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kev1N916/keSE/internal/codec"
	"github.com/kev1N916/keSE/internal/cursor"
	"github.com/kev1N916/keSE/internal/indexfile"
	"github.com/kev1N916/keSE/internal/postings"
	"github.com/kev1N916/keSE/internal/scorer"
	"github.com/kev1N916/keSE/internal/spimi"
)

func buildCorpus(t *testing.T, blockDir string, memBudget int64) spimi.Result {
	t.Helper()
	b := spimi.NewBuilder(spimi.Config{
		MemoryBudgetBytes: memBudget,
		BlockSizePostings: 4,
		Codec:             codec.VarByte{},
		BlockDir:          blockDir,
	}, nil)

	docs := [][]string{
		{"a", "b", "a"},
		{"b", "c"},
		{"a", "c", "c"},
		{"a", "a", "b", "c"},
		{"b"},
	}
	for i, tokens := range docs {
		if _, err := b.AddDocument(filepath.Base(blockDir)+string(rune('0'+i)), tokens); err != nil {
			t.Fatalf("AddDocument: %v", err)
		}
	}
	res, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return res
}

func openTermCursor(t *testing.T, dir, term string) cursor.Cursor {
	t.Helper()
	man, err := indexfile.ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	c, err := codec.ForID(man.Codec)
	if err != nil {
		t.Fatalf("ForID: %v", err)
	}
	paths := indexfile.ResolvePaths(dir)

	dictBytes, err := os.ReadFile(paths.TermDict)
	if err != nil {
		t.Fatalf("read term dict: %v", err)
	}
	entries, err := indexfile.DecodeTermDict(dictBytes)
	if err != nil {
		t.Fatalf("DecodeTermDict: %v", err)
	}
	strBytes, err := os.ReadFile(paths.TermStrings)
	if err != nil {
		t.Fatalf("read term strings: %v", err)
	}
	idx, found := indexfile.LookupTerm(entries, strBytes, term)
	if !found {
		t.Fatalf("term %q not found", term)
	}
	entry := entries[idx]

	skipBytes, err := os.ReadFile(paths.SkipTables)
	if err != nil {
		t.Fatalf("read skip tables: %v", err)
	}
	allDescs, err := postings.DecodeSkipTable(skipBytes)
	if err != nil {
		t.Fatalf("DecodeSkipTable: %v", err)
	}
	start := entry.SkipTableOffset / 28
	descs := allDescs[start : start+uint64(entry.BlockCount)]

	postingsF, err := os.Open(paths.Postings)
	if err != nil {
		t.Fatalf("open postings: %v", err)
	}
	t.Cleanup(func() { postingsF.Close() })
	reader := postings.NewReader(postingsF)

	docMetaBytes, err := os.ReadFile(paths.DocMeta)
	if err != nil {
		t.Fatalf("read doc meta: %v", err)
	}
	docMeta, err := indexfile.DecodeDocMeta(docMetaBytes)
	if err != nil {
		t.Fatalf("DecodeDocMeta: %v", err)
	}
	docLen := func(id uint32) uint32 { return docMeta[id].Length }

	idf := scorer.IDF(int64(man.NumDocs), int64(entry.DF))
	return cursor.NewBlock(0, reader, c, descs, docLen, idf, man.AvgDL, scorer.DefaultParams())
}

func TestMergeSingleFlush(t *testing.T) {
	blockDir := t.TempDir()
	res := buildCorpus(t, blockDir, 1<<30) // never flush early: one block file
	indexDir := t.TempDir()
	if err := Merge(res.BlockFiles, res.Meta, Options{Codec: codec.VarByte{}, BlockSize: 4, Params: scorer.DefaultParams()}, indexDir); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	c := openTermCursor(t, indexDir, "a")
	var docs []uint32
	for !c.Exhausted() {
		docs = append(docs, c.DocID())
		c.Next()
	}
	want := []uint32{0, 2, 3}
	if len(docs) != len(want) {
		t.Fatalf("term 'a': want docs %v, got %v", want, docs)
	}
	for i := range want {
		if docs[i] != want[i] {
			t.Fatalf("term 'a': want docs %v, got %v", want, docs)
		}
	}
}

func TestMergeEquivalentAcrossFlushGranularity(t *testing.T) {
	// S5: forcing a flush after every document must produce the same
	// merged postings as a single-flush build of the same corpus.
	singleDir := t.TempDir()
	single := buildCorpus(t, singleDir, 1<<30)
	singleIdx := t.TempDir()
	if err := Merge(single.BlockFiles, single.Meta, Options{Codec: codec.VarByte{}, BlockSize: 4, Params: scorer.DefaultParams()}, singleIdx); err != nil {
		t.Fatalf("Merge (single): %v", err)
	}

	multiDir := t.TempDir()
	multi := buildCorpus(t, multiDir, 10) // every document costs >= 13 bytes, so each one flushes
	multiIdx := t.TempDir()
	if err := Merge(multi.BlockFiles, multi.Meta, Options{Codec: codec.VarByte{}, BlockSize: 4, Params: scorer.DefaultParams()}, multiIdx); err != nil {
		t.Fatalf("Merge (multi): %v", err)
	}

	for _, term := range []string{"a", "b", "c"} {
		wantC := openTermCursor(t, singleIdx, term)
		gotC := openTermCursor(t, multiIdx, term)
		var want, got []uint32
		for !wantC.Exhausted() {
			want = append(want, wantC.DocID())
			wantC.Next()
		}
		for !gotC.Exhausted() {
			got = append(got, gotC.DocID())
			gotC.Next()
		}
		if len(want) != len(got) {
			t.Fatalf("term %q: doc count mismatch want %v got %v", term, want, got)
		}
		for i := range want {
			if want[i] != got[i] {
				t.Fatalf("term %q: doc mismatch want %v got %v", term, want, got)
			}
		}
	}
}
