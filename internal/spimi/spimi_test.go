package spimi

import (
	"context"
	"io"
	"testing"

	"github.com/kev1N916/keSE/internal/codec"
)

func TestAddDocumentTracksTermFrequency(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(Config{
		MemoryBudgetBytes: 1 << 20,
		BlockSizePostings: 128,
		Codec:             codec.VarByte{},
		BlockDir:          dir,
	}, nil)

	id0, err := b.AddDocument("d0", []string{"a", "b", "a"})
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if id0 != 0 {
		t.Fatalf("expected doc id 0, got %d", id0)
	}
	id1, _ := b.AddDocument("d1", []string{"b", "c"})
	if id1 != 1 {
		t.Fatalf("expected doc id 1, got %d", id1)
	}

	res, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.Meta.NumDocs != 2 {
		t.Fatalf("expected 2 docs, got %d", res.Meta.NumDocs)
	}
	if len(res.BlockFiles) != 1 {
		t.Fatalf("expected a single flushed block, got %d", len(res.BlockFiles))
	}

	r, err := OpenBlockFile(res.BlockFiles[0], codec.VarByte{})
	if err != nil {
		t.Fatalf("OpenBlockFile: %v", err)
	}
	defer r.Close()

	records := map[string]*BlockRecord{}
	var order []string
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		records[rec.Term] = rec
		order = append(order, rec.Term)
	}

	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Fatalf("block file terms not sorted: %v", order)
		}
	}

	a := records["a"]
	if a == nil || len(a.DocIDs) != 1 || a.DocIDs[0] != 0 || a.TFs[0] != 2 {
		t.Fatalf("term %q: expected single posting (doc 0, tf 2), got %+v", "a", a)
	}
	bRec := records["b"]
	if bRec == nil || len(bRec.DocIDs) != 2 || bRec.DocIDs[0] != 0 || bRec.DocIDs[1] != 1 {
		t.Fatalf("term %q: expected postings at docs 0,1, got %+v", "b", bRec)
	}
}

func TestFlushTriggersOnMemoryBudget(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(Config{
		MemoryBudgetBytes: 1, // flush after the very first posting
		BlockSizePostings: 128,
		Codec:             codec.VarByte{},
		BlockDir:          dir,
	}, nil)

	for i := 0; i < 5; i++ {
		if _, err := b.AddDocument("", []string{"x"}); err != nil {
			t.Fatalf("AddDocument: %v", err)
		}
	}
	res, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(res.BlockFiles) < 2 {
		t.Fatalf("expected multiple flushed blocks under a tiny budget, got %d", len(res.BlockFiles))
	}
}

func TestParallelBuildAssignsDisjointDocIDs(t *testing.T) {
	dir := t.TempDir()
	docs := make([]Document, 0, 20)
	for i := 0; i < 20; i++ {
		docs = append(docs, Document{Tokens: []string{"shared", "term"}})
	}
	cfg := Config{
		MemoryBudgetBytes: 1 << 20,
		BlockSizePostings: 128,
		Codec:             codec.VarByte{},
		BlockDir:          dir,
	}
	res, err := ParallelBuild(context.Background(), docs, cfg, 4, nil)
	if err != nil {
		t.Fatalf("ParallelBuild: %v", err)
	}
	if res.Meta.NumDocs != 20 {
		t.Fatalf("expected 20 docs, got %d", res.Meta.NumDocs)
	}

	seen := map[uint32]bool{}
	for _, path := range res.BlockFiles {
		r, err := OpenBlockFile(path, codec.VarByte{})
		if err != nil {
			t.Fatalf("OpenBlockFile: %v", err)
		}
		for {
			rec, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			for _, d := range rec.DocIDs {
				if seen[d] {
					t.Fatalf("doc id %d assigned by more than one shard", d)
				}
				seen[d] = true
			}
		}
		r.Close()
	}
	if len(seen) != 20 {
		t.Fatalf("expected 20 distinct doc ids across shards, got %d", len(seen))
	}
}
